// network/payloads.go
package network

import (
	"github.com/wfunc/partyserver/game"
)

// PlayerInfo is the public view of a room member. CardCount carries the
// card variant's public stat, Score the trivia variant's.
type PlayerInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     game.Color `json:"color,omitempty"`
	IsFirst   bool       `json:"isFirst"`
	CardCount int        `json:"cardCount,omitempty"`
	Score     int        `json:"score"`
}

// RoomData is the snapshot handed to a player on a successful join.
type RoomData struct {
	RoomCode string       `json:"roomCode"`
	GameType string       `json:"gameType"`
	Started  bool         `json:"started"`
	Players  []PlayerInfo `json:"players"`
}

// CardGameState is the room-wide view of a card-variant session. Hands
// stay private; only counts travel here.
type CardGameState struct {
	Phase         string       `json:"phase"`
	CurrentPlayer string       `json:"currentPlayer,omitempty"`
	ActiveColor   game.Color   `json:"activeColor,omitempty"`
	TopDiscard    *game.Card   `json:"topDiscard,omitempty"`
	DeckCount     int          `json:"deckCount"`
	Players       []PlayerInfo `json:"players"`
}

// TriviaGameState is the room-wide view of a trivia-variant session.
type TriviaGameState struct {
	Phase       string       `json:"phase"`
	RoundNumber int          `json:"roundNumber"`
	TotalRounds int          `json:"totalRounds"`
	Answerer    string       `json:"answerer,omitempty"`
	Players     []PlayerInfo `json:"players"`
}

type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
	GameType string `json:"gameType"`
}

// JoinResultPayload answers a join-room request on the originating
// connection only. Error is set iff Success is false.
type JoinResultPayload struct {
	Success bool        `json:"success"`
	Player  *PlayerInfo `json:"player,omitempty"`
	Room    *RoomData   `json:"roomData,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type PlayerJoinedPayload struct {
	Players []PlayerInfo `json:"players"`
}

type GameStartedPayload struct {
	GameType  string      `json:"gameType"`
	GameState interface{} `json:"gameState"`
}

type GameStateUpdatedPayload struct {
	GameState interface{} `json:"gameState"`
}

type CardPlayedPayload struct {
	PlayerName string      `json:"playerName"`
	Card       game.Card   `json:"card"`
	GameState  interface{} `json:"gameState"`
}

type CardDrawnPayload struct {
	PlayerName string `json:"playerName"`
}

type ColorChosenPayload struct {
	PlayerName string      `json:"playerName"`
	Color      game.Color  `json:"color"`
	GameState  interface{} `json:"gameState"`
}

// YourHandPayload is player-private.
type YourHandPayload struct {
	Hand []game.Card `json:"hand"`
}

type ShowQuestionPayload struct {
	Question    string `json:"question"`
	Answerer    string `json:"answerer"`
	AnswererID  string `json:"answererId"`
	RoundNumber int    `json:"roundNumber"`
	TotalRounds int    `json:"totalRounds"`
}

type VotingPhasePayload struct {
	PlayerAnswer   float64 `json:"playerAnswer"`
	VotingTimeLeft int     `json:"votingTimeLeft"`
}

type VoteSubmittedPayload struct {
	VotesSubmitted   int `json:"votesSubmitted"`
	TotalVotesNeeded int `json:"totalVotesNeeded"`
}

// VoteRecordedPayload is player-private confirmation of a recorded vote.
type VoteRecordedPayload struct {
	Vote game.Vote `json:"vote"`
}

// PlayerScore pairs a display name with a cumulative score.
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoundResultsPayload struct {
	Question      string        `json:"question"`
	PlayerAnswer  float64       `json:"playerAnswer"`
	CorrectAnswer float64       `json:"correctAnswer"`
	CorrectVote   game.Outcome  `json:"correctVote"`
	Winners       []string      `json:"winners"`
	Scores        []PlayerScore `json:"scores"`
}

type GameOverPayload struct {
	Winner      string        `json:"winner"`
	FinalScores []PlayerScore `json:"finalScores"`
}

type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
