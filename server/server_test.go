// server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/partyserver/config"
	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/network"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// newTestServer builds a full GameServer and exposes its websocket
// endpoint through an httptest server.
func newTestServer(t *testing.T) (*GameServer, string) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			HTTPAddress:    "127.0.0.1:0",
			RPCAddress:     "127.0.0.1:0",
			MonitorAddress: "127.0.0.1:0",
		},
	}

	srv, err := NewGameServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewGameServer failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)

	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

// wsClient drives one websocket connection through the event protocol.
type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(event string, data interface{}) {
	c.t.Helper()
	raw, err := network.EncodeEvent(event, data)
	if err != nil {
		c.t.Fatalf("Failed to encode %s: %v", event, err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.t.Fatalf("Failed to send %s: %v", event, err)
	}
}

func (c *wsClient) sendRaw(raw string) {
	c.t.Helper()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		c.t.Fatalf("Failed to send raw frame: %v", err)
	}
}

// waitFor reads frames until the named event arrives, skipping everything
// else. Broadcasts from room workers interleave with direct replies, so
// tests never assume exact ordering across event types.
func (c *wsClient) waitFor(event string) json.RawMessage {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	c.conn.SetReadDeadline(deadline)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("Waiting for %s: %v", event, err)
		}
		var env network.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.t.Fatalf("Waiting for %s, got undecodable frame %q: %v", event, raw, err)
		}
		if env.Event == event {
			return env.Data
		}
	}
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("Failed to decode payload %q: %v", raw, err)
	}
}

// createRoom drives the host side of room setup and returns the code.
func createRoom(t *testing.T, host *wsClient, gameType string) string {
	t.Helper()
	host.send(network.EventCreateRoom, network.CreateRoomEvent{GameType: gameType})

	var created network.RoomCreatedPayload
	decode(t, host.waitFor(network.EventRoomCreated), &created)
	if len(created.RoomCode) != 4 {
		t.Fatalf("Expected a 4-letter room code, got %q", created.RoomCode)
	}
	return created.RoomCode
}

// joinRoom drives a player join and returns the assigned player ID.
func joinRoom(t *testing.T, c *wsClient, code, name string) string {
	t.Helper()
	c.send(network.EventJoinRoom, network.JoinRoomEvent{RoomCode: code, PlayerName: name})

	var res network.JoinResultPayload
	decode(t, c.waitFor(network.EventJoinResult), &res)
	if !res.Success {
		t.Fatalf("Expected successful join for %s, got error %q", name, res.Error)
	}
	if res.Player.Name != name {
		t.Fatalf("Expected player name %s, got %s", name, res.Player.Name)
	}
	return res.Player.ID
}

func TestCreateRoomDefaultsToCards(t *testing.T) {
	_, url := newTestServer(t)
	host := dial(t, url)

	host.send(network.EventCreateRoom, network.CreateRoomEvent{})

	var created network.RoomCreatedPayload
	decode(t, host.waitFor(network.EventRoomCreated), &created)
	if created.GameType != "cards" {
		t.Errorf("Expected default game type cards, got %s", created.GameType)
	}
}

func TestJoinDeliversResultAndRoster(t *testing.T) {
	_, url := newTestServer(t)
	host := dial(t, url)
	code := createRoom(t, host, "cards")

	player := dial(t, url)
	player.send(network.EventJoinRoom, network.JoinRoomEvent{RoomCode: code, PlayerName: "Alice"})

	var res network.JoinResultPayload
	decode(t, player.waitFor(network.EventJoinResult), &res)
	if !res.Success {
		t.Fatalf("Expected successful join, got error %q", res.Error)
	}
	if res.Room == nil || res.Room.RoomCode != code {
		t.Errorf("Expected room data for %s, got %+v", code, res.Room)
	}
	if res.Player == nil || !res.Player.IsFirst {
		t.Errorf("Expected the first joiner to be flagged, got %+v", res.Player)
	}

	var roster network.PlayerJoinedPayload
	decode(t, host.waitFor(network.EventPlayerJoined), &roster)
	if len(roster.Players) != 1 || roster.Players[0].Name != "Alice" {
		t.Errorf("Expected host roster [Alice], got %+v", roster.Players)
	}
}

func TestJoinUnknownRoomFails(t *testing.T) {
	_, url := newTestServer(t)
	player := dial(t, url)

	player.send(network.EventJoinRoom, network.JoinRoomEvent{RoomCode: "ZZZZ", PlayerName: "Bob"})

	var res network.JoinResultPayload
	decode(t, player.waitFor(network.EventJoinResult), &res)
	if res.Success {
		t.Fatal("Expected join to fail for an unknown room")
	}
	if res.Error == "" {
		t.Error("Expected an error message on a failed join")
	}
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url)

	c.sendRaw("{this is not json")

	var errPayload network.ErrorPayload
	decode(t, c.waitFor(network.EventError), &errPayload)
	if errPayload.Message == "" {
		t.Error("Expected an error message for a malformed frame")
	}

	// The connection survives and keeps working.
	code := createRoom(t, c, "cards")
	if code == "" {
		t.Error("Expected room creation to work after a malformed frame")
	}
}

func TestUnknownEventReturnsError(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url)

	c.sendRaw(`{"event":"moonwalk","data":{}}`)

	var errPayload network.ErrorPayload
	decode(t, c.waitFor(network.EventError), &errPayload)
	if errPayload.Message == "" {
		t.Error("Expected an error message for an unknown event")
	}
}

func TestStartGameDealsHands(t *testing.T) {
	_, url := newTestServer(t)
	host := dial(t, url)
	code := createRoom(t, host, "cards")

	p1 := dial(t, url)
	joinRoom(t, p1, code, "Alice")
	p2 := dial(t, url)
	joinRoom(t, p2, code, "Bob")

	// Only the first player (or the host) may deal.
	p2.send(network.EventStartGame, network.StartGameEvent{RoomCode: code})
	var errPayload network.ErrorPayload
	decode(t, p2.waitFor(network.EventError), &errPayload)
	if errPayload.Message == "" {
		t.Error("Expected an error when the second player tries to start")
	}

	p1.send(network.EventStartGame, network.StartGameEvent{RoomCode: code})

	var started network.GameStartedPayload
	decode(t, host.waitFor(network.EventGameStarted), &started)
	if started.GameType != "cards" {
		t.Errorf("Expected cards game type, got %s", started.GameType)
	}

	for _, c := range []*wsClient{p1, p2} {
		var hand network.YourHandPayload
		decode(t, c.waitFor(network.EventYourHand), &hand)
		if len(hand.Hand) != 7 {
			t.Errorf("Expected a 7-card opening hand, got %d", len(hand.Hand))
		}
	}
}

func TestTriviaRoundOverWire(t *testing.T) {
	_, url := newTestServer(t)
	host := dial(t, url)
	code := createRoom(t, host, "trivia")

	p1 := dial(t, url)
	id1 := joinRoom(t, p1, code, "Alice")
	p2 := dial(t, url)
	joinRoom(t, p2, code, "Bob")

	p1.send(network.EventStartGame, network.StartGameEvent{RoomCode: code})

	var question network.ShowQuestionPayload
	decode(t, p2.waitFor(network.EventShowQuestion), &question)
	if question.AnswererID != id1 {
		t.Fatalf("Expected the first joiner to answer round 1, got %s", question.AnswererID)
	}
	if question.RoundNumber != 1 || question.TotalRounds != 2 {
		t.Errorf("Expected round 1 of 2, got %d of %d", question.RoundNumber, question.TotalRounds)
	}

	p1.send(network.EventSubmitAnswer, network.SubmitAnswerEvent{RoomCode: code, Answer: 42})

	var voting network.VotingPhasePayload
	decode(t, p2.waitFor(network.EventVotingPhase), &voting)
	if voting.PlayerAnswer != 42 {
		t.Errorf("Expected the guess 42 in the voting phase, got %f", voting.PlayerAnswer)
	}

	p2.send(network.EventSubmitVote, network.SubmitVoteEvent{RoomCode: code, Vote: "over"})

	var recorded network.VoteRecordedPayload
	decode(t, p2.waitFor(network.EventVoteRecorded), &recorded)
	if recorded.Vote != "over" {
		t.Errorf("Expected the recorded vote over, got %s", recorded.Vote)
	}

	// One voter in a two-player game completes the round immediately.
	var results network.RoundResultsPayload
	decode(t, host.waitFor(network.EventRoundResults), &results)
	if results.PlayerAnswer != 42 {
		t.Errorf("Expected guess 42 in the results, got %f", results.PlayerAnswer)
	}
	if len(results.Scores) != 2 {
		t.Errorf("Expected 2 scoreboard entries, got %d", len(results.Scores))
	}
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	_, url := newTestServer(t)
	host := dial(t, url)
	code := createRoom(t, host, "cards")

	player := dial(t, url)
	joinRoom(t, player, code, "Alice")

	host.conn.Close()

	var closed network.RoomClosedPayload
	decode(t, player.waitFor(network.EventRoomClosed), &closed)
	if closed.Reason != "host-disconnected" {
		t.Errorf("Expected reason host-disconnected, got %s", closed.Reason)
	}
}

func TestStatsReflectLiveRooms(t *testing.T) {
	srv, url := newTestServer(t)
	host := dial(t, url)
	code := createRoom(t, host, "trivia")

	player := dial(t, url)
	joinRoom(t, player, code, "Alice")

	stats := srv.registry.Stats()
	if stats.Rooms != 1 || stats.TriviaRooms != 1 {
		t.Errorf("Expected 1 trivia room, got %+v", stats)
	}
	if stats.Players != 1 {
		t.Errorf("Expected 1 seated player, got %+v", stats)
	}
}
