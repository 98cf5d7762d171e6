// room/registry_test.go
package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/wfunc/partyserver/network"
	"github.com/wfunc/partyserver/timer"
)

func newTestRegistry(t *testing.T) (*Registry, *MockBroadcaster) {
	t.Helper()
	b := NewMockBroadcaster()
	tm := timer.NewTimerManager()
	t.Cleanup(tm.Stop)

	reg := NewRegistry(testOptions(), b, tm)
	t.Cleanup(func() { reg.Shutdown(ReasonServerShutdown) })
	return reg, b
}

func TestRegistry_CreateRoomCodes(t *testing.T) {
	reg, _ := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		host := newTestSession(fmt.Sprintf("host-%d", i))
		room, err := reg.CreateRoom(host, "cards")
		if err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}

		if len(room.Code) != 4 {
			t.Fatalf("Expected a 4-letter code, got %q", room.Code)
		}
		for _, c := range room.Code {
			if c < 'A' || c > 'Z' {
				t.Fatalf("Expected uppercase letters only, got %q", room.Code)
			}
		}
		if seen[room.Code] {
			t.Fatalf("Code %q issued twice among live rooms", room.Code)
		}
		seen[room.Code] = true

		if got, ok := reg.RoomOf(host.ID); !ok || got != room {
			t.Fatal("Expected the host to be indexed to the new room")
		}
	}

	if count := reg.RoomCount(); count != 50 {
		t.Errorf("Expected 50 live rooms, got %d", count)
	}
}

func TestRegistry_CreateRoomVariants(t *testing.T) {
	reg, _ := newTestRegistry(t)

	room, err := reg.CreateRoom(newTestSession("h1"), "")
	if err != nil {
		t.Fatalf("CreateRoom with empty type: %v", err)
	}
	if room.Variant != VariantCards {
		t.Errorf("Expected an empty game type to default to cards, got %s", room.Variant)
	}

	trivia, err := reg.CreateRoom(newTestSession("h2"), "trivia")
	if err != nil {
		t.Fatalf("CreateRoom trivia: %v", err)
	}
	if trivia.Variant != VariantTrivia {
		t.Errorf("Expected the trivia variant, got %s", trivia.Variant)
	}

	if _, err := reg.CreateRoom(newTestSession("h3"), "chess"); err != ErrUnknownVariant {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestRegistry_CreateWhileInRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)

	host := newTestSession("host")
	if _, err := reg.CreateRoom(host, "cards"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := reg.CreateRoom(host, "cards"); err != ErrAlreadyInRoom {
		t.Errorf("Expected ErrAlreadyInRoom for a hosting session, got %v", err)
	}
}

func TestRegistry_Join(t *testing.T) {
	reg, _ := newTestRegistry(t)

	host := newTestSession("host")
	created, err := reg.CreateRoom(host, "cards")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	player := newTestSession("p1")
	joined, result, err := reg.Join(player, created.Code, "Alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined != created {
		t.Error("Expected Join to resolve the created room")
	}
	if result.Room.RoomCode != created.Code {
		t.Errorf("Expected room code %s in the result, got %s", created.Code, result.Room.RoomCode)
	}
	if got, ok := reg.RoomOf(player.ID); !ok || got != created {
		t.Error("Expected the player to be indexed to the room")
	}

	// One session, one room.
	if _, _, err := reg.Join(player, created.Code, "Again"); err != ErrAlreadyInRoom {
		t.Errorf("Expected ErrAlreadyInRoom, got %v", err)
	}

	if _, _, err := reg.Join(newTestSession("p2"), "ZZZZ", "Bob"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound for an unknown code, got %v", err)
	}

	// A failed join leaves no index entry behind.
	stranger := newTestSession("p3")
	if _, _, err := reg.Join(stranger, created.Code, "alice"); err != ErrNameTaken {
		t.Errorf("Expected ErrNameTaken, got %v", err)
	}
	if _, ok := reg.RoomOf(stranger.ID); ok {
		t.Error("Expected no index entry after a rejected join")
	}
}

func TestRegistry_HostDisconnectClosesRoom(t *testing.T) {
	reg, b := newTestRegistry(t)

	host := newTestSession("host")
	created, _ := reg.CreateRoom(host, "cards")
	player := newTestSession("p1")
	if _, _, err := reg.Join(player, created.Code, "Alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	reg.HandleDisconnect(host.ID)

	closed, ok := b.Last(network.EventRoomClosed)
	if !ok {
		t.Fatal("Expected a room-closed broadcast")
	}
	if reason := closed.Data.(network.RoomClosedPayload).Reason; reason != ReasonHostDisconnected {
		t.Errorf("Expected reason %q, got %q", ReasonHostDisconnected, reason)
	}

	if _, ok := reg.Lookup(created.Code); ok {
		t.Error("Expected the room to be unregistered")
	}
	if _, ok := reg.RoomOf(player.ID); ok {
		t.Error("Expected the player index to be cleared with the room")
	}
	if !created.Closed() {
		t.Error("Expected the room to be closed")
	}
}

func TestRegistry_PlayerDisconnect(t *testing.T) {
	reg, _ := newTestRegistry(t)

	host := newTestSession("host")
	created, _ := reg.CreateRoom(host, "cards")
	player := newTestSession("p1")
	if _, _, err := reg.Join(player, created.Code, "Alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	reg.HandleDisconnect(player.ID)
	settle(t, created)

	if created.Closed() {
		t.Fatal("A player disconnect must not close the room")
	}
	if count := created.PlayerCount(); count != 0 {
		t.Errorf("Expected 0 players after the disconnect, got %d", count)
	}
	if _, ok := reg.RoomOf(player.ID); ok {
		t.Error("Expected the player index entry to be gone")
	}

	// Unknown sessions are ignored.
	reg.HandleDisconnect("never-seen")
}

func TestRegistry_SweepReapsOldRooms(t *testing.T) {
	reg, b := newTestRegistry(t)

	reaped := 0
	reg.OnRoomReaped = func() { reaped++ }

	oldRoom, _ := reg.CreateRoom(newTestSession("h1"), "cards")
	freshRoom, _ := reg.CreateRoom(newTestSession("h2"), "cards")
	oldRoom.CreatedAt = time.Now().Add(-3 * time.Hour)

	if got := reg.Sweep(2 * time.Hour); got != 1 {
		t.Fatalf("Expected 1 reaped room, got %d", got)
	}
	if reaped != 1 {
		t.Errorf("Expected the reap callback once, got %d", reaped)
	}

	if _, ok := reg.Lookup(oldRoom.Code); ok {
		t.Error("Expected the expired room to be gone")
	}
	if _, ok := reg.Lookup(freshRoom.Code); !ok {
		t.Error("Expected the fresh room to survive")
	}

	closed, ok := b.Last(network.EventRoomClosed)
	if !ok {
		t.Fatal("Expected a room-closed broadcast for the reaped room")
	}
	if reason := closed.Data.(network.RoomClosedPayload).Reason; reason != ReasonTimeout {
		t.Errorf("Expected reason %q, got %q", ReasonTimeout, reason)
	}
}

func TestRegistry_Stats(t *testing.T) {
	reg, _ := newTestRegistry(t)

	cardsRoom, _ := reg.CreateRoom(newTestSession("h1"), "cards")
	triviaRoom, _ := reg.CreateRoom(newTestSession("h2"), "trivia")

	if _, _, err := reg.Join(newTestSession("p1"), cardsRoom.Code, "Alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, _, err := reg.Join(newTestSession("p2"), cardsRoom.Code, "Bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, _, err := reg.Join(newTestSession("p3"), triviaRoom.Code, "Cara"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	stats := reg.Stats()
	want := Stats{Rooms: 2, Players: 3, CardRooms: 1, TriviaRooms: 1}
	if stats != want {
		t.Errorf("Expected stats %+v, got %+v", want, stats)
	}
}

func TestRegistry_Shutdown(t *testing.T) {
	reg, b := newTestRegistry(t)

	reg.CreateRoom(newTestSession("h1"), "cards")
	reg.CreateRoom(newTestSession("h2"), "trivia")

	reg.Shutdown(ReasonServerShutdown)

	if count := reg.RoomCount(); count != 0 {
		t.Errorf("Expected 0 rooms after shutdown, got %d", count)
	}
	if got := len(b.Named(network.EventRoomClosed)); got != 2 {
		t.Errorf("Expected 2 room-closed broadcasts, got %d", got)
	}
}

func TestRegistry_CleanupLoop(t *testing.T) {
	reg, _ := newTestRegistry(t)

	room, _ := reg.CreateRoom(newTestSession("h1"), "cards")
	room.CreatedAt = time.Now().Add(-3 * time.Hour)

	reg.StartCleanup(50*time.Millisecond, 2*time.Hour)
	defer reg.StopCleanup()

	deadline := time.Now().Add(2 * time.Second)
	for reg.RoomCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if count := reg.RoomCount(); count != 0 {
		t.Errorf("Expected the cleanup loop to reap the room, got %d live", count)
	}
}
