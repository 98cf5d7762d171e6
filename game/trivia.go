// game/trivia.go
package game

import (
	"math"
	"math/rand"
)

// TriviaPhase is the lifecycle stage of a trivia-variant session.
type TriviaPhase string

const (
	TriviaPhaseLobby          TriviaPhase = "lobby"
	TriviaPhasePlaying        TriviaPhase = "playing"
	TriviaPhaseAwaitingAnswer TriviaPhase = "awaiting-answer"
	TriviaPhaseVoting         TriviaPhase = "voting"
	TriviaPhaseRoundResults   TriviaPhase = "round-results"
	TriviaPhaseOver           TriviaPhase = "game-over"
)

// Vote is a directional call on the answerer's guess.
type Vote string

const (
	VoteOver  Vote = "over"
	VoteUnder Vote = "under"
)

// ValidVote reports whether v is one of the two accepted directions.
func ValidVote(v Vote) bool {
	return v == VoteOver || v == VoteUnder
}

// Outcome is the resolved relation between the real answer and the guess.
type Outcome string

const (
	OutcomeOver  Outcome = "over"
	OutcomeUnder Outcome = "under"
	OutcomeExact Outcome = "exact"
)

// Question is a single numeric trivia prompt.
type Question struct {
	Text   string  `json:"text"`
	Answer float64 `json:"answer"`
}

// Scoring constants. An exact guess pays every non-answerer the
// participation award; a correct directional vote pays the vote award.
const (
	ExactAward = 100
	VoteAward  = 150
)

// RoundResult is the settled outcome of one trivia round.
type RoundResult struct {
	Question    Question
	Guess       float64
	CorrectVote Outcome
	Winners     []string       // player IDs awarded points this round
	Awards      map[string]int // points gained this round, zero entries omitted
	Scores      map[string]int // cumulative scores after the award
	FinalRound  bool
}

// TriviaGame is the per-room session state machine for the guess-and-vote
// variant. It is not safe for concurrent use; the owning room serializes
// access. Voting deadlines live outside the machine: the owner resolves a
// round either when SubmitVote reports completion or when its timer fires.
type TriviaGame struct {
	phase       TriviaPhase
	order       []string // player IDs, seat order fixed at Start
	scores      map[string]int
	bank        []Question // full catalog for pool refills
	pool        []Question // not-yet-used questions, drawn from the end
	question    Question
	round       int // 1-based
	totalRounds int
	answererIdx int
	guess       float64
	answered    bool
	votes       map[string]Vote
	rng         *rand.Rand
}

// NewTriviaGame builds a lobby-phase machine over the given question
// catalog. The catalog must be non-empty by the time Start is called.
func NewTriviaGame(catalog []Question, rng *rand.Rand) *TriviaGame {
	bank := make([]Question, len(catalog))
	copy(bank, catalog)
	return &TriviaGame{
		phase:  TriviaPhaseLobby,
		scores: make(map[string]int),
		bank:   bank,
		votes:  make(map[string]Vote),
		rng:    rng,
	}
}

func (g *TriviaGame) Phase() TriviaPhase { return g.phase }

// Round returns the 1-based current round number.
func (g *TriviaGame) Round() int { return g.round }

func (g *TriviaGame) TotalRounds() int { return g.totalRounds }

// Answerer returns the player ID on the hook for the current question.
func (g *TriviaGame) Answerer() string {
	if len(g.order) == 0 {
		return ""
	}
	return g.order[g.answererIdx]
}

func (g *TriviaGame) CurrentQuestion() Question { return g.question }

// Guess returns the answerer's submitted guess. Only meaningful once the
// phase has reached voting.
func (g *TriviaGame) Guess() float64 { return g.guess }

// Players returns the seat order. The returned slice must not be mutated.
func (g *TriviaGame) Players() []string { return g.order }

// Score returns a player's cumulative score.
func (g *TriviaGame) Score(playerID string) int { return g.scores[playerID] }

// Scores returns a copy of the cumulative score table.
func (g *TriviaGame) Scores() map[string]int {
	out := make(map[string]int, len(g.scores))
	for id, s := range g.scores {
		out[id] = s
	}
	return out
}

// VotesIn returns how many votes have been recorded this round.
func (g *TriviaGame) VotesIn() int { return len(g.votes) }

// VotesNeeded returns how many votes complete the round: one per living
// non-answerer.
func (g *TriviaGame) VotesNeeded() int {
	if len(g.order) == 0 {
		return 0
	}
	return len(g.order) - 1
}

// VotingComplete reports whether every eligible voter has voted.
func (g *TriviaGame) VotingComplete() bool {
	return g.phase == TriviaPhaseVoting && len(g.votes) >= g.VotesNeeded()
}

// Start fixes the seat order, sets one round per player, and opens round 1.
func (g *TriviaGame) Start(playerIDs []string) error {
	if g.phase != TriviaPhaseLobby {
		return ErrWrongPhase
	}
	if len(playerIDs) < 2 {
		return ErrNotEnoughPlayers
	}
	g.order = make([]string, len(playerIDs))
	copy(g.order, playerIDs)
	for _, id := range g.order {
		g.scores[id] = 0
	}
	g.totalRounds = len(g.order)
	g.round = 1
	g.answererIdx = 0
	g.phase = TriviaPhasePlaying
	g.beginRound()
	return nil
}

// beginRound draws a fresh question and opens the answer window for the
// current answerer.
func (g *TriviaGame) beginRound() {
	g.question = g.drawQuestion()
	g.guess = 0
	g.answered = false
	g.votes = make(map[string]Vote)
	g.phase = TriviaPhaseAwaitingAnswer
}

// drawQuestion pops from the shuffled pool, refilling from the full
// catalog when the pool runs dry.
func (g *TriviaGame) drawQuestion() Question {
	if len(g.pool) == 0 {
		g.pool = make([]Question, len(g.bank))
		copy(g.pool, g.bank)
		g.rng.Shuffle(len(g.pool), func(i, j int) {
			g.pool[i], g.pool[j] = g.pool[j], g.pool[i]
		})
	}
	q := g.pool[len(g.pool)-1]
	g.pool = g.pool[:len(g.pool)-1]
	return q
}

// SubmitAnswer records the answerer's numeric guess and opens voting.
// The 30-second voting deadline is the caller's to arm.
func (g *TriviaGame) SubmitAnswer(playerID string, guess float64) error {
	if g.phase != TriviaPhaseAwaitingAnswer {
		if g.phase == TriviaPhaseVoting && playerID == g.Answerer() {
			return ErrAlreadyAnswered
		}
		return ErrWrongPhase
	}
	if playerID != g.Answerer() {
		return ErrNotAnswerer
	}
	if g.answered {
		return ErrAlreadyAnswered
	}
	if !finite(guess) {
		return ErrInvalidAnswer
	}
	g.guess = guess
	g.answered = true
	g.phase = TriviaPhaseVoting
	return nil
}

// SubmitVote records a non-answerer's directional call, once. The returned
// flag reports whether this vote completed the round.
func (g *TriviaGame) SubmitVote(playerID string, v Vote) (bool, error) {
	if g.phase != TriviaPhaseVoting {
		return false, ErrVotingNotActive
	}
	if playerID == g.Answerer() {
		return false, ErrAnswererCannotVote
	}
	if !g.isPlayer(playerID) {
		return false, ErrUnknownPlayer
	}
	if !ValidVote(v) {
		return false, ErrInvalidVote
	}
	if _, dup := g.votes[playerID]; dup {
		return false, ErrAlreadyVoted
	}
	g.votes[playerID] = v
	return g.VotingComplete(), nil
}

// Resolve settles the current round: it grades every vote against the real
// answer, applies awards, and moves to round-results. Legal from the voting
// phase only; callers invoke it when voting completes or the window expires.
func (g *TriviaGame) Resolve() (RoundResult, error) {
	if g.phase != TriviaPhaseVoting {
		return RoundResult{}, ErrVotingNotActive
	}

	var correct Outcome
	switch {
	case g.question.Answer > g.guess:
		correct = OutcomeOver
	case g.question.Answer < g.guess:
		correct = OutcomeUnder
	default:
		correct = OutcomeExact
	}

	awards := make(map[string]int)
	if correct == OutcomeExact {
		// An exact guess pays the room, not the answerer.
		for _, id := range g.order {
			if id != g.Answerer() {
				awards[id] = ExactAward
			}
		}
	} else {
		for id, v := range g.votes {
			if Outcome(v) == correct {
				awards[id] = VoteAward
			}
		}
	}

	winners := make([]string, 0, len(awards))
	for _, id := range g.order {
		if pts, ok := awards[id]; ok && pts > 0 {
			winners = append(winners, id)
			g.scores[id] += pts
		}
	}

	res := RoundResult{
		Question:    g.question,
		Guess:       g.guess,
		CorrectVote: correct,
		Winners:     winners,
		Awards:      awards,
		Scores:      g.Scores(),
		FinalRound:  g.round >= g.totalRounds,
	}
	g.phase = TriviaPhaseRoundResults
	return res, nil
}

// Advance leaves round-results: it either opens the next round with the
// next answerer or ends the game. The returned flag reports game over.
func (g *TriviaGame) Advance() (bool, error) {
	if g.phase != TriviaPhaseRoundResults {
		return false, ErrWrongPhase
	}
	if g.round >= g.totalRounds {
		g.phase = TriviaPhaseOver
		return true, nil
	}
	g.round++
	g.answererIdx = (g.answererIdx + 1) % len(g.order)
	g.beginRound()
	return false, nil
}

// Winner returns the highest-scoring player once the game is over, ties
// going to the earlier seat.
func (g *TriviaGame) Winner() string {
	if g.phase != TriviaPhaseOver || len(g.order) == 0 {
		return ""
	}
	best := g.order[0]
	for _, id := range g.order[1:] {
		if g.scores[id] > g.scores[best] {
			best = id
		}
	}
	return best
}

// RemovePlayer drops a player mid-game. Removing the current answerer
// aborts the round unscored and reopens it, same round number, with the
// next seat answering a fresh question; the returned flag reports that
// restart so the owner can re-announce the question. Removing a pending
// voter may complete voting, which the owner detects via VotingComplete.
func (g *TriviaGame) RemovePlayer(playerID string) (restarted bool) {
	idx := -1
	for i, id := range g.order {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	wasAnswerer := idx == g.answererIdx

	g.order = append(g.order[:idx], g.order[idx+1:]...)
	delete(g.scores, playerID)
	delete(g.votes, playerID)

	if len(g.order) < 2 {
		// Nobody left to vote; the session cannot continue.
		if g.phase != TriviaPhaseLobby {
			g.phase = TriviaPhaseOver
		}
		return false
	}
	if idx < g.answererIdx {
		g.answererIdx--
	}
	if g.answererIdx >= len(g.order) {
		g.answererIdx = 0
	}
	if wasAnswerer && (g.phase == TriviaPhaseAwaitingAnswer || g.phase == TriviaPhaseVoting) {
		g.beginRound()
		return true
	}
	return false
}

func (g *TriviaGame) isPlayer(playerID string) bool {
	for _, id := range g.order {
		if id == playerID {
			return true
		}
	}
	return false
}

// finite reports whether f is a usable numeric value.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
