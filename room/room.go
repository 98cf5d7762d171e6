// room/room.go
package room

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wfunc/partyserver/game"
	"github.com/wfunc/partyserver/network"
	"github.com/wfunc/partyserver/session"
	"github.com/wfunc/partyserver/timer"
)

// Variant selects which game a room plays.
type Variant string

const (
	VariantCards  Variant = "cards"
	VariantTrivia Variant = "trivia"
)

// ParseVariant maps a client-supplied game type to a Variant. An empty
// value defaults to the card game.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", string(VariantCards):
		return VariantCards, nil
	case string(VariantTrivia):
		return VariantTrivia, nil
	default:
		return "", ErrUnknownVariant
	}
}

// Player name bounds, in runes.
const (
	minNameLen = 2
	maxNameLen = 7
)

// Options carries the tunables a room is created with.
type Options struct {
	MaxCardPlayers   int
	MaxTriviaPlayers int
	HandSize         int
	VoteWindow       time.Duration
	ResultsWindow    time.Duration
	AnimationWindow  time.Duration
	InboxSize        int
	Questions        []game.Question

	// OnGameStarted, when set, observes every successful deal.
	OnGameStarted func(variant Variant)
}

// DefaultOptions returns the settings used where config leaves them unset.
func DefaultOptions() Options {
	return Options{
		MaxCardPlayers:   4,
		MaxTriviaPlayers: 8,
		HandSize:         7,
		VoteWindow:       30 * time.Second,
		ResultsWindow:    8 * time.Second,
		AnimationWindow:  3 * time.Second,
		InboxSize:        64,
		Questions:        game.DefaultQuestions(),
	}
}

// Player is a joined member of a room. Color is assigned in the card
// variant only; the trivia variant seats more players than the palette.
type Player struct {
	Session *session.Session
	Name    string
	Color   game.Color
}

func (p *Player) ID() string { return p.Session.ID }

// JoinResult is handed back to the caller on a successful join.
type JoinResult struct {
	Player network.PlayerInfo
	Room   network.RoomData
}

// Room owns one game session and the members playing it. Everything below
// the member list belongs to the room's worker goroutine; callers interact
// only by enqueueing commands through the Handle methods and Join.
type Room struct {
	Code      string
	Variant   Variant
	CreatedAt time.Time

	opts        Options
	broadcaster Broadcaster
	timers      *timer.TimerManager
	rng         *rand.Rand

	memberMutex sync.RWMutex
	host        *session.Session
	players     []*Player // join order = turn order

	// Worker-owned; never touched outside the worker goroutine.
	cards          *game.CardGame
	trivia         *game.TriviaGame
	started        bool
	animUntil      time.Time
	animGen        int
	animTimerID    int64
	voteTimerID    int64
	resultsTimerID int64

	inbox     chan command
	closed    chan struct{}
	closeOnce sync.Once
}

// NewRoom creates a room in the lobby phase and starts its worker.
func NewRoom(code string, variant Variant, host *session.Session, opts Options, b Broadcaster, timers *timer.TimerManager) *Room {
	r := &Room{
		Code:        code,
		Variant:     variant,
		CreatedAt:   time.Now(),
		opts:        opts,
		broadcaster: b,
		timers:      timers,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		host:        host,
		inbox:       make(chan command, opts.InboxSize),
		closed:      make(chan struct{}),
	}
	go r.worker()
	return r
}

// MaxPlayers returns the member capacity for this room's variant.
func (r *Room) MaxPlayers() int {
	if r.Variant == VariantTrivia {
		return r.opts.MaxTriviaPlayers
	}
	return r.opts.MaxCardPlayers
}

// HostID returns the session ID of the room's creator.
func (r *Room) HostID() string {
	return r.host.ID
}

// PlayerCount returns the number of joined players (the host is not a
// player).
func (r *Room) PlayerCount() int {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	return len(r.players)
}

// Players returns the joined players in turn order.
func (r *Room) Players() []*Player {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

// Sessions returns every member connection, host included.
func (r *Room) Sessions() []*session.Session {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	sessions := make([]*session.Session, 0, len(r.players)+1)
	sessions = append(sessions, r.host)
	for _, p := range r.players {
		sessions = append(sessions, p.Session)
	}
	return sessions
}

// Age reports how long the room has existed.
func (r *Room) Age() time.Duration {
	return time.Since(r.CreatedAt)
}

// Join adds a player through the worker and waits for the outcome.
func (r *Room) Join(sess *session.Session, name string) (*JoinResult, error) {
	reply := make(chan joinReply, 1)
	if err := r.dispatch(joinCmd{sess: sess, name: name, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.result, res.err
	case <-r.closed:
		return nil, ErrRoomClosed
	}
}

// Close tears the room down: members are notified with the given reason
// and the worker exits. It blocks until the worker has shut down, so the
// closing broadcast is out before the caller unregisters the room. Safe to
// call more than once, and never called from the worker itself.
func (r *Room) Close(reason string) {
	r.closeOnce.Do(func() {
		r.inbox <- closeCmd{reason: reason}
	})
	<-r.closed
}

// Closed reports whether the room has been torn down.
func (r *Room) Closed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

// dispatch enqueues a command unless the room is already gone.
func (r *Room) dispatch(cmd command) error {
	select {
	case <-r.closed:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.closed:
		return ErrRoomClosed
	}
}

// HandleStartGame enqueues a start request. Like every Handle method, the
// outcome is reported to the acting session as events; the returned error
// only signals that the room is gone.
func (r *Room) HandleStartGame(sessionID string) error {
	return r.dispatch(startCmd{sessionID: sessionID})
}

func (r *Room) HandlePlayCard(sessionID string, cardIndex int, chosenColor string) error {
	return r.dispatch(playCardCmd{sessionID: sessionID, index: cardIndex, color: chosenColor})
}

func (r *Room) HandleDrawCard(sessionID string) error {
	return r.dispatch(drawCardCmd{sessionID: sessionID})
}

func (r *Room) HandleChooseColor(sessionID string, color string) error {
	return r.dispatch(chooseColorCmd{sessionID: sessionID, color: color})
}

func (r *Room) HandleSubmitAnswer(sessionID string, answer float64) error {
	return r.dispatch(submitAnswerCmd{sessionID: sessionID, answer: answer})
}

func (r *Room) HandleSubmitVote(sessionID string, vote string) error {
	return r.dispatch(submitVoteCmd{sessionID: sessionID, vote: vote})
}

func (r *Room) HandleRestartGame(sessionID string) error {
	return r.dispatch(restartCmd{sessionID: sessionID})
}

func (r *Room) HandleNewPlayers(sessionID string) error {
	return r.dispatch(newPlayersCmd{sessionID: sessionID})
}

// HandleDisconnect enqueues the departure of a non-host member. Host
// departures tear the whole room down through the registry instead.
func (r *Room) HandleDisconnect(sessionID string) error {
	return r.dispatch(disconnectCmd{sessionID: sessionID})
}

// --- membership, worker-called ---

// addPlayer validates and seats a new member.
func (r *Room) addPlayer(sess *session.Session, name string) (*Player, error) {
	if r.started {
		return nil, ErrGameAlreadyStarted
	}

	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return nil, ErrInvalidName
	}

	r.memberMutex.Lock()
	defer r.memberMutex.Unlock()

	if len(r.players) >= r.MaxPlayers() {
		return nil, ErrRoomFull
	}
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			return nil, ErrNameTaken
		}
	}

	player := &Player{Session: sess, Name: name}
	if r.Variant == VariantCards {
		color, ok := r.unusedColorLocked()
		if !ok {
			return nil, ErrNoColorsAvailable
		}
		player.Color = color
	}

	r.players = append(r.players, player)
	return player, nil
}

// unusedColorLocked picks the first palette color no seated player holds.
// Caller holds memberMutex.
func (r *Room) unusedColorLocked() (game.Color, bool) {
	for _, color := range game.Palette {
		taken := false
		for _, p := range r.players {
			if p.Color == color {
				taken = true
				break
			}
		}
		if !taken {
			return color, true
		}
	}
	return "", false
}

// removePlayer unseats a member, releasing their color with them.
func (r *Room) removePlayer(sessionID string) (*Player, bool) {
	r.memberMutex.Lock()
	defer r.memberMutex.Unlock()
	for i, p := range r.players {
		if p.ID() == sessionID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

// hasAuthority reports whether a session may start, restart, or reset the
// game: the host, or the first-joined player. The first seat is derived,
// not cached, so the capability survives disconnects.
func (r *Room) hasAuthority(sessionID string) bool {
	if r.host.ID == sessionID {
		return true
	}
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	return len(r.players) > 0 && r.players[0].ID() == sessionID
}

func (r *Room) playerByID(sessionID string) (*Player, bool) {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	for _, p := range r.players {
		if p.ID() == sessionID {
			return p, true
		}
	}
	return nil, false
}

func (r *Room) nameOf(sessionID string) string {
	if p, ok := r.playerByID(sessionID); ok {
		return p.Name
	}
	return ""
}

// --- snapshots, worker-called ---

// playerInfos builds the public roster, including the per-variant public
// stat (card count or score).
func (r *Room) playerInfos() []network.PlayerInfo {
	r.memberMutex.RLock()
	players := make([]*Player, len(r.players))
	copy(players, r.players)
	r.memberMutex.RUnlock()

	infos := make([]network.PlayerInfo, 0, len(players))
	for i, p := range players {
		info := network.PlayerInfo{
			ID:      p.ID(),
			Name:    p.Name,
			Color:   p.Color,
			IsFirst: i == 0,
		}
		if r.cards != nil {
			info.CardCount = len(r.cards.Hand(p.ID()))
		}
		if r.trivia != nil {
			info.Score = r.trivia.Score(p.ID())
		}
		infos = append(infos, info)
	}
	return infos
}

func (r *Room) roomData() network.RoomData {
	return network.RoomData{
		RoomCode: r.Code,
		GameType: string(r.Variant),
		Started:  r.started,
		Players:  r.playerInfos(),
	}
}

// gameState builds the room-wide snapshot for the active session.
func (r *Room) gameState() interface{} {
	switch {
	case r.cards != nil:
		top := r.cards.TopDiscard()
		state := &network.CardGameState{
			Phase:         string(r.cards.Phase()),
			ActiveColor:   r.cards.ActiveColor(),
			DeckCount:     r.cards.DeckCount(),
			Players:       r.playerInfos(),
			CurrentPlayer: r.nameOf(r.cards.CurrentPlayer()),
		}
		if top != (game.Card{}) {
			state.TopDiscard = &top
		}
		return state
	case r.trivia != nil:
		return &network.TriviaGameState{
			Phase:       string(r.trivia.Phase()),
			RoundNumber: r.trivia.Round(),
			TotalRounds: r.trivia.TotalRounds(),
			Answerer:    r.nameOf(r.trivia.Answerer()),
			Players:     r.playerInfos(),
		}
	default:
		return nil
	}
}
