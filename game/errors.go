package game

import "errors"

// Rule and phase violations. All of these reject the action synchronously
// and leave the session state untouched.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrIllegalCard        = errors.New("card matches neither the active color nor the top rank")
	ErrInvalidCardIndex   = errors.New("card index out of range")
	ErrInvalidColor       = errors.New("color is not in the palette")
	ErrDeckExhausted      = errors.New("deck and discard pile are both empty")
	ErrWrongPhase         = errors.New("action not allowed in the current phase")
	ErrNotEnoughPlayers   = errors.New("at least two players are required")
	ErrNotAnswerer        = errors.New("only the current answerer may answer")
	ErrAlreadyAnswered    = errors.New("an answer was already submitted this round")
	ErrInvalidAnswer      = errors.New("answer must be a finite number")
	ErrAnswererCannotVote = errors.New("the answerer cannot vote on their own guess")
	ErrVotingNotActive    = errors.New("voting is not open")
	ErrInvalidVote        = errors.New("vote must be over or under")
	ErrAlreadyVoted       = errors.New("vote already recorded")
	ErrUnknownPlayer      = errors.New("player is not part of this game")
)
