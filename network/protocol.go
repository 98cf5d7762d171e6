// network/protocol.go
package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client -> server event names.
const (
	EventCreateRoom   = "create-room"
	EventJoinRoom     = "join-room"
	EventStartGame    = "start-game"
	EventPlayCard     = "play-card"
	EventDrawCard     = "draw-card"
	EventChooseColor  = "choose-color"
	EventSubmitAnswer = "submit-answer"
	EventSubmitVote   = "submit-vote"
	EventRestartGame  = "host-restart-game"
	EventNewPlayers   = "host-new-players"
)

// Server -> client event names.
const (
	EventRoomCreated      = "room-created"
	EventJoinResult       = "join-result"
	EventPlayerJoined     = "player-joined"
	EventGameStarted      = "game-started"
	EventGameStateUpdated = "game-state-updated"
	EventCardPlayed       = "card-played"
	EventCardDrawn        = "card-drawn"
	EventColorChosen      = "color-chosen"
	EventYourHand         = "your-hand"
	EventShowQuestion     = "show-question"
	EventVotingPhase      = "voting-phase"
	EventVoteSubmitted    = "vote-submitted"
	EventVoteRecorded     = "vote-recorded"
	EventRoundResults     = "round-results"
	EventGameOver         = "game-over"
	EventRoomClosed       = "room-closed"
	EventError            = "error"
)

var (
	ErrMalformedEnvelope = errors.New("network: malformed envelope")
	ErrUnknownEvent      = errors.New("network: unknown event")
)

// Envelope is the wire frame for every event in either direction:
// {"event": "<name>", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent frames an outbound event.
func EncodeEvent(event string, data interface{}) ([]byte, error) {
	env := struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{Event: event, Data: data}
	return json.Marshal(env)
}

// DecodeEnvelope parses a raw inbound frame.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEnvelope)
	}
	return &env, nil
}

// ClientEvent is the decoded, shape-checked form of an inbound event.
// Field semantics (palette membership, name policy, turn order) are the
// game's business; the boundary only guarantees structure.
type ClientEvent interface{ isClientEvent() }

type CreateRoomEvent struct {
	GameType string `json:"gameType,omitempty"`
}

type JoinRoomEvent struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type StartGameEvent struct {
	RoomCode string `json:"roomCode"`
}

type PlayCardEvent struct {
	RoomCode    string `json:"roomCode"`
	CardIndex   int    `json:"cardIndex"`
	ChosenColor string `json:"chosenColor,omitempty"`
}

type DrawCardEvent struct {
	RoomCode string `json:"roomCode"`
}

type ChooseColorEvent struct {
	RoomCode string `json:"roomCode"`
	Color    string `json:"color"`
}

type SubmitAnswerEvent struct {
	RoomCode string  `json:"roomCode"`
	Answer   float64 `json:"answer"`
}

type SubmitVoteEvent struct {
	RoomCode string `json:"roomCode"`
	Vote     string `json:"vote"`
}

type RestartGameEvent struct {
	RoomCode string `json:"roomCode"`
}

type NewPlayersEvent struct {
	RoomCode string `json:"roomCode"`
}

func (CreateRoomEvent) isClientEvent()   {}
func (JoinRoomEvent) isClientEvent()     {}
func (StartGameEvent) isClientEvent()    {}
func (PlayCardEvent) isClientEvent()     {}
func (DrawCardEvent) isClientEvent()     {}
func (ChooseColorEvent) isClientEvent()  {}
func (SubmitAnswerEvent) isClientEvent() {}
func (SubmitVoteEvent) isClientEvent()   {}
func (RestartGameEvent) isClientEvent()  {}
func (NewPlayersEvent) isClientEvent()   {}

// DecodeClientEvent maps an envelope to its typed event and checks the
// structural requirements every handler relies on: a known event name, a
// well-formed payload, and a normalized 4-letter room code where one is
// required.
func DecodeClientEvent(env *Envelope) (ClientEvent, error) {
	data := env.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	switch env.Event {
	case EventCreateRoom:
		var ev CreateRoomEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		return ev, nil

	case EventJoinRoom:
		var ev JoinRoomEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		ev.PlayerName = strings.TrimSpace(ev.PlayerName)
		if ev.PlayerName == "" {
			return nil, fmt.Errorf("%w: missing playerName", ErrMalformedEnvelope)
		}
		return ev, nil

	case EventStartGame:
		var ev StartGameEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventPlayCard:
		var ev PlayCardEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventDrawCard:
		var ev DrawCardEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventChooseColor:
		var ev ChooseColorEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventSubmitAnswer:
		var ev SubmitAnswerEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventSubmitVote:
		var ev SubmitVoteEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventRestartGame:
		var ev RestartGameEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	case EventNewPlayers:
		var ev NewPlayersEvent
		if err := unmarshalEvent(data, &ev); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(ev.RoomCode)
		if err != nil {
			return nil, err
		}
		ev.RoomCode = code
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func unmarshalEvent(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return nil
}

// NormalizeRoomCode upper-cases a client-supplied code and checks the
// 4-uppercase-letter format.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 4 {
		return "", fmt.Errorf("%w: room code must be 4 letters", ErrMalformedEnvelope)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: room code must be 4 letters", ErrMalformedEnvelope)
		}
	}
	return code, nil
}
