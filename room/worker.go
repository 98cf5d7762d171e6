// room/worker.go
package room

import (
	"sort"
	"time"

	"github.com/wfunc/partyserver/game"
	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/network"
	"github.com/wfunc/partyserver/session"
)

// command is the closed set of messages a room worker processes.
type command interface {
	isCommand()
}

type joinReply struct {
	result *JoinResult
	err    error
}

type joinCmd struct {
	sess  *session.Session
	name  string
	reply chan joinReply
}

type startCmd struct{ sessionID string }

type playCardCmd struct {
	sessionID string
	index     int
	color     string
}

type drawCardCmd struct{ sessionID string }

type chooseColorCmd struct {
	sessionID string
	color     string
}

type submitAnswerCmd struct {
	sessionID string
	answer    float64
}

type submitVoteCmd struct {
	sessionID string
	vote      string
}

type restartCmd struct{ sessionID string }

type newPlayersCmd struct{ sessionID string }

type disconnectCmd struct{ sessionID string }

// Timer-fired commands carry the generation or round they were armed for,
// so a tick that lost a race with the state it guards is dropped.
type animClearCmd struct{ gen int }

type voteTimeoutCmd struct{ round int }

type advanceRoundCmd struct{ round int }

type closeCmd struct{ reason string }

func (joinCmd) isCommand()         {}
func (startCmd) isCommand()        {}
func (playCardCmd) isCommand()     {}
func (drawCardCmd) isCommand()     {}
func (chooseColorCmd) isCommand()  {}
func (submitAnswerCmd) isCommand() {}
func (submitVoteCmd) isCommand()   {}
func (restartCmd) isCommand()      {}
func (newPlayersCmd) isCommand()   {}
func (disconnectCmd) isCommand()   {}
func (animClearCmd) isCommand()    {}
func (voteTimeoutCmd) isCommand()  {}
func (advanceRoundCmd) isCommand() {}
func (closeCmd) isCommand()        {}

// worker drains the inbox until the room closes. It is the only goroutine
// that touches game state, so no handler needs further locking.
func (r *Room) worker() {
	for cmd := range r.inbox {
		if c, ok := cmd.(closeCmd); ok {
			r.handleClose(c)
			return
		}
		r.handle(cmd)
	}
}

func (r *Room) handle(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c)
	case startCmd:
		r.handleStart(c)
	case playCardCmd:
		r.handlePlayCard(c)
	case drawCardCmd:
		r.handleDrawCard(c)
	case chooseColorCmd:
		r.handleChooseColor(c)
	case submitAnswerCmd:
		r.handleSubmitAnswer(c)
	case submitVoteCmd:
		r.handleSubmitVote(c)
	case restartCmd:
		r.handleRestart(c)
	case newPlayersCmd:
		r.handleNewPlayers(c)
	case disconnectCmd:
		r.handleDisconnect(c)
	case animClearCmd:
		r.handleAnimClear(c)
	case voteTimeoutCmd:
		r.handleVoteTimeout(c)
	case advanceRoundCmd:
		r.handleAdvanceRound(c)
	}
}

func (r *Room) handleJoin(c joinCmd) {
	player, err := r.addPlayer(c.sess, c.name)
	if err != nil {
		c.reply <- joinReply{err: err}
		return
	}

	logger.Log.Infof("room %s: %s joined (%d players)", r.Code, player.Name, r.PlayerCount())

	info := network.PlayerInfo{
		ID:      player.ID(),
		Name:    player.Name,
		Color:   player.Color,
		IsFirst: r.PlayerCount() == 1,
	}
	c.reply <- joinReply{result: &JoinResult{Player: info, Room: r.roomData()}}

	r.broadcast(network.EventPlayerJoined, network.PlayerJoinedPayload{Players: r.playerInfos()})
}

func (r *Room) handleStart(c startCmd) {
	if !r.hasAuthority(c.sessionID) {
		r.sendError(c.sessionID, ErrNotAuthorized)
		return
	}
	if r.started {
		r.sendError(c.sessionID, ErrGameAlreadyStarted)
		return
	}
	if err := r.startSession(); err != nil {
		r.sendError(c.sessionID, err)
	}
}

// startSession deals a fresh game for the seated players and announces it.
// Shared by the initial start and host-restart paths.
func (r *Room) startSession() error {
	ids := make([]string, 0, r.PlayerCount())
	for _, p := range r.Players() {
		ids = append(ids, p.ID())
	}

	switch r.Variant {
	case VariantTrivia:
		g := game.NewTriviaGame(r.opts.Questions, r.rng)
		if err := g.Start(ids); err != nil {
			return err
		}
		r.trivia = g
	default:
		g := game.NewCardGame(r.opts.HandSize, r.rng)
		if err := g.Start(ids); err != nil {
			return err
		}
		r.cards = g
	}
	r.started = true

	logger.Log.Infof("room %s: %s game started with %d players", r.Code, r.Variant, len(ids))

	r.broadcast(network.EventGameStarted, network.GameStartedPayload{
		GameType:  string(r.Variant),
		GameState: r.gameState(),
	})
	if r.cards != nil {
		r.sendHands()
	}
	if r.trivia != nil {
		r.broadcastQuestion()
	}
	if r.opts.OnGameStarted != nil {
		r.opts.OnGameStarted(r.Variant)
	}
	return nil
}

func (r *Room) handlePlayCard(c playCardCmd) {
	if r.cards == nil {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	if err := r.animationGate(); err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	res, err := r.cards.Play(c.sessionID, c.index, game.Color(c.color))
	if err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	if res.NeedsColor {
		// The wild sits on the pile while its color is undecided.
		r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
		r.sendHands()
		return
	}

	r.broadcast(network.EventCardPlayed, network.CardPlayedPayload{
		PlayerName: r.nameOf(c.sessionID),
		Card:       res.Card,
		GameState:  r.gameState(),
	})
	r.sendHands()

	if res.Won {
		r.finishCardGame()
		return
	}
	if res.Card.IsWild() {
		r.armAnimation()
	}
}

func (r *Room) handleDrawCard(c drawCardCmd) {
	if r.cards == nil {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	if err := r.animationGate(); err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	if _, err := r.cards.Draw(c.sessionID); err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	// The drawn card's identity travels only in the drawer's your-hand.
	r.broadcast(network.EventCardDrawn, network.CardDrawnPayload{PlayerName: r.nameOf(c.sessionID)})
	r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
	r.sendHands()
}

func (r *Room) handleChooseColor(c chooseColorCmd) {
	if r.cards == nil {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	if err := r.animationGate(); err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	res, err := r.cards.ChooseColor(c.sessionID, game.Color(c.color))
	if err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	r.broadcast(network.EventColorChosen, network.ColorChosenPayload{
		PlayerName: r.nameOf(c.sessionID),
		Color:      r.cards.ActiveColor(),
		GameState:  r.gameState(),
	})
	r.sendHands()

	if res.Won {
		r.finishCardGame()
		return
	}
	r.armAnimation()
}

func (r *Room) handleSubmitAnswer(c submitAnswerCmd) {
	if r.trivia == nil {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	if err := r.trivia.SubmitAnswer(c.sessionID, c.answer); err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	r.broadcast(network.EventVotingPhase, network.VotingPhasePayload{
		PlayerAnswer:   r.trivia.Guess(),
		VotingTimeLeft: int(r.opts.VoteWindow / time.Second),
	})

	round := r.trivia.Round()
	r.voteTimerID = r.timers.AddTimer(r.opts.VoteWindow, 0, func() {
		r.dispatch(voteTimeoutCmd{round: round})
	})
}

func (r *Room) handleSubmitVote(c submitVoteCmd) {
	if r.trivia == nil {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	done, err := r.trivia.SubmitVote(c.sessionID, game.Vote(c.vote))
	if err != nil {
		r.sendError(c.sessionID, err)
		return
	}

	r.sendTo(c.sessionID, network.EventVoteRecorded, network.VoteRecordedPayload{Vote: game.Vote(c.vote)})
	r.broadcast(network.EventVoteSubmitted, network.VoteSubmittedPayload{
		VotesSubmitted:   r.trivia.VotesIn(),
		TotalVotesNeeded: r.trivia.VotesNeeded(),
	})

	if done {
		r.timers.RemoveTimer(r.voteTimerID)
		r.resolveRound()
	}
}

func (r *Room) handleVoteTimeout(c voteTimeoutCmd) {
	if r.trivia == nil || r.trivia.Round() != c.round || r.trivia.Phase() != game.TriviaPhaseVoting {
		return
	}
	logger.Log.Infof("room %s: voting window expired in round %d", r.Code, c.round)
	r.resolveRound()
}

// resolveRound settles the round and schedules the advance after a short
// results window so clients can display the outcome.
func (r *Room) resolveRound() {
	res, err := r.trivia.Resolve()
	if err != nil {
		logger.Log.Warnf("room %s: resolve failed: %v", r.Code, err)
		return
	}

	winners := make([]string, 0, len(res.Winners))
	for _, id := range res.Winners {
		winners = append(winners, r.nameOf(id))
	}
	r.broadcast(network.EventRoundResults, network.RoundResultsPayload{
		Question:      res.Question.Text,
		PlayerAnswer:  res.Guess,
		CorrectAnswer: res.Question.Answer,
		CorrectVote:   res.CorrectVote,
		Winners:       winners,
		Scores:        r.scoreboard(res.Scores),
	})

	round := r.trivia.Round()
	r.resultsTimerID = r.timers.AddTimer(r.opts.ResultsWindow, 0, func() {
		r.dispatch(advanceRoundCmd{round: round})
	})
}

func (r *Room) handleAdvanceRound(c advanceRoundCmd) {
	if r.trivia == nil || r.trivia.Round() != c.round || r.trivia.Phase() != game.TriviaPhaseRoundResults {
		return
	}
	over, err := r.trivia.Advance()
	if err != nil {
		logger.Log.Warnf("room %s: advance failed: %v", r.Code, err)
		return
	}
	if over {
		r.finishTriviaGame()
		return
	}
	r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
	r.broadcastQuestion()
}

func (r *Room) handleRestart(c restartCmd) {
	if !r.hasAuthority(c.sessionID) {
		r.sendError(c.sessionID, ErrNotAuthorized)
		return
	}
	if !r.started {
		r.sendError(c.sessionID, ErrGameNotStarted)
		return
	}
	if !r.gameOver() {
		r.sendError(c.sessionID, ErrGameAlreadyStarted)
		return
	}

	logger.Log.Infof("room %s: restarting with the same players", r.Code)
	r.resetSession()
	if err := r.startSession(); err != nil {
		r.sendError(c.sessionID, err)
	}
}

func (r *Room) handleNewPlayers(c newPlayersCmd) {
	if !r.hasAuthority(c.sessionID) {
		r.sendError(c.sessionID, ErrNotAuthorized)
		return
	}

	logger.Log.Infof("room %s: lobby reopened for a fresh game", r.Code)
	r.resetSession()
	r.broadcast(network.EventPlayerJoined, network.PlayerJoinedPayload{Players: r.playerInfos()})
}

func (r *Room) handleDisconnect(c disconnectCmd) {
	player, ok := r.removePlayer(c.sessionID)
	if !ok {
		return
	}
	logger.Log.Infof("room %s: %s left (%d players remain)", r.Code, player.Name, r.PlayerCount())

	if !r.started {
		r.broadcast(network.EventPlayerJoined, network.PlayerJoinedPayload{Players: r.playerInfos()})
		return
	}

	switch {
	case r.cards != nil:
		r.cards.RemovePlayer(c.sessionID)
		if r.cards.Phase() == game.CardPhaseOver {
			r.finishCardGame()
			return
		}
		r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
		r.sendHands()

	case r.trivia != nil:
		restarted := r.trivia.RemovePlayer(c.sessionID)
		if r.trivia.Phase() == game.TriviaPhaseOver {
			r.finishTriviaGame()
			return
		}
		if restarted {
			// The answerer left; the aborted round re-opens with a fresh
			// question, so any pending voting deadline is void.
			r.timers.RemoveTimer(r.voteTimerID)
			r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
			r.broadcastQuestion()
			return
		}
		if r.trivia.VotingComplete() {
			// The departed player held the last outstanding vote.
			r.timers.RemoveTimer(r.voteTimerID)
			r.resolveRound()
			return
		}
		r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
	}
}

func (r *Room) handleAnimClear(c animClearCmd) {
	if c.gen != r.animGen || r.animUntil.IsZero() {
		return
	}
	r.animUntil = time.Time{}
	r.broadcast(network.EventGameStateUpdated, network.GameStateUpdatedPayload{GameState: r.gameState()})
}

func (r *Room) handleClose(c closeCmd) {
	r.cancelTimers()
	r.broadcast(network.EventRoomClosed, network.RoomClosedPayload{Reason: c.reason})
	close(r.closed)
	logger.Log.Infof("room %s: closed (%s)", r.Code, c.reason)
}

// --- shared helpers, worker-called ---

// animationGate rejects play actions while a color-change animation runs.
// An expired window is cleared on the spot; the pending tick is cancelled
// and out-generated so it cannot fire a duplicate update later.
func (r *Room) animationGate() error {
	if r.animUntil.IsZero() {
		return nil
	}
	if time.Now().Before(r.animUntil) {
		return ErrAnimationInProgress
	}
	r.timers.RemoveTimer(r.animTimerID)
	r.animUntil = time.Time{}
	r.animGen++
	return nil
}

func (r *Room) armAnimation() {
	r.animUntil = time.Now().Add(r.opts.AnimationWindow)
	r.animGen++
	gen := r.animGen
	r.animTimerID = r.timers.AddTimer(r.opts.AnimationWindow, 0, func() {
		r.dispatch(animClearCmd{gen: gen})
	})
}

// gameOver reports whether the active session has finished.
func (r *Room) gameOver() bool {
	if r.cards != nil {
		return r.cards.Phase() == game.CardPhaseOver
	}
	if r.trivia != nil {
		return r.trivia.Phase() == game.TriviaPhaseOver
	}
	return false
}

// resetSession drops the active game and all pending timers, returning the
// room to the lobby phase with its members seated.
func (r *Room) resetSession() {
	r.cancelTimers()
	r.cards = nil
	r.trivia = nil
	r.started = false
}

func (r *Room) cancelTimers() {
	if r.animTimerID != 0 {
		r.timers.RemoveTimer(r.animTimerID)
		r.animTimerID = 0
	}
	if r.voteTimerID != 0 {
		r.timers.RemoveTimer(r.voteTimerID)
		r.voteTimerID = 0
	}
	if r.resultsTimerID != 0 {
		r.timers.RemoveTimer(r.resultsTimerID)
		r.resultsTimerID = 0
	}
	r.animUntil = time.Time{}
	r.animGen++
}

// finishCardGame announces the winner with everyone's remaining card count.
func (r *Room) finishCardGame() {
	r.cancelTimers()
	counts := r.cards.HandCounts()
	scores := make([]network.PlayerScore, 0, len(counts))
	for _, p := range r.Players() {
		if count, ok := counts[p.ID()]; ok {
			scores = append(scores, network.PlayerScore{Name: p.Name, Score: count})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score < scores[j].Score })

	winner := r.nameOf(r.cards.Winner())
	logger.Log.Infof("room %s: card game over, winner %q", r.Code, winner)
	r.broadcast(network.EventGameOver, network.GameOverPayload{Winner: winner, FinalScores: scores})
}

func (r *Room) finishTriviaGame() {
	r.cancelTimers()
	winner := r.nameOf(r.trivia.Winner())
	logger.Log.Infof("room %s: trivia game over, winner %q", r.Code, winner)
	r.broadcast(network.EventGameOver, network.GameOverPayload{
		Winner:      winner,
		FinalScores: r.scoreboard(r.trivia.Scores()),
	})
}

// scoreboard converts a score map to a name-keyed list, highest first.
func (r *Room) scoreboard(scores map[string]int) []network.PlayerScore {
	board := make([]network.PlayerScore, 0, len(scores))
	for _, p := range r.Players() {
		if score, ok := scores[p.ID()]; ok {
			board = append(board, network.PlayerScore{Name: p.Name, Score: score})
		}
	}
	sort.SliceStable(board, func(i, j int) bool { return board[i].Score > board[j].Score })
	return board
}

// broadcastQuestion announces the current prompt and answerer to the room.
func (r *Room) broadcastQuestion() {
	q := r.trivia.CurrentQuestion()
	answererID := r.trivia.Answerer()
	r.broadcast(network.EventShowQuestion, network.ShowQuestionPayload{
		Question:    q.Text,
		Answerer:    r.nameOf(answererID),
		AnswererID:  answererID,
		RoundNumber: r.trivia.Round(),
		TotalRounds: r.trivia.TotalRounds(),
	})
}

// sendHands delivers each player's private hand after any card movement.
func (r *Room) sendHands() {
	for _, p := range r.Players() {
		r.sendTo(p.ID(), network.EventYourHand, network.YourHandPayload{Hand: r.cards.Hand(p.ID())})
	}
}

func (r *Room) broadcast(event string, data interface{}) {
	if err := r.broadcaster.BroadcastToRoom(r.Code, event, data); err != nil {
		logger.Log.Debugf("room %s: broadcast %s failed: %v", r.Code, event, err)
	}
}

func (r *Room) sendTo(sessionID string, event string, data interface{}) {
	if err := r.broadcaster.SendToSession(sessionID, event, data); err != nil {
		logger.Log.Debugf("room %s: send %s to %s failed: %v", r.Code, event, sessionID, err)
	}
}

func (r *Room) sendError(sessionID string, err error) {
	r.sendTo(sessionID, network.EventError, network.ErrorPayload{Message: err.Error()})
}
