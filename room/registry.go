// room/registry.go
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/session"
	"github.com/wfunc/partyserver/timer"
)

// Room codes are four uppercase letters, drawn until unused.
const (
	codeLength  = 4
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Close reasons delivered to clients in the room-closed event.
const (
	ReasonHostDisconnected = "host-disconnected"
	ReasonTimeout          = "timeout"
	ReasonServerShutdown   = "server-shutdown"
)

// Stats is a point-in-time snapshot of the registry, served over the
// admin RPC and scraped into gauges.
type Stats struct {
	Rooms       int
	Players     int
	CardRooms   int
	TriviaRooms int
}

// Registry owns every live room and the session-to-room index. Rooms are
// created here, found here, and always torn down through here so both
// tables stay consistent.
type Registry struct {
	opts        Options
	broadcaster Broadcaster
	timers      *timer.TimerManager

	mutex    sync.RWMutex
	rooms    map[string]*Room
	sessions map[string]string // session ID -> room code
	rng      *rand.Rand

	stopCleanup chan struct{}
	cleanupOnce sync.Once

	// OnRoomReaped, when set, observes every room closed by the TTL sweep.
	OnRoomReaped func()
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options, b Broadcaster, timers *timer.TimerManager) *Registry {
	return &Registry{
		opts:        opts,
		broadcaster: b,
		timers:      timers,
		rooms:       make(map[string]*Room),
		sessions:    make(map[string]string),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCleanup: make(chan struct{}),
	}
}

// CreateRoom opens a new room hosted by the given session. The host owns
// the room's lifetime but is not a seated player.
func (reg *Registry) CreateRoom(host *session.Session, gameType string) (*Room, error) {
	variant, err := ParseVariant(gameType)
	if err != nil {
		return nil, err
	}

	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if _, in := reg.sessions[host.ID]; in {
		return nil, ErrAlreadyInRoom
	}

	code := reg.generateCodeLocked()
	room := NewRoom(code, variant, host, reg.opts, reg.broadcaster, reg.timers)
	reg.rooms[code] = room
	reg.sessions[host.ID] = code

	logger.Log.Infof("registry: room %s created (%s) by %s", code, variant, host.ID)
	return room, nil
}

// generateCodeLocked draws codes until one is free. With 26^4 combinations
// against a handful of live rooms, collisions are rare enough that
// rejection sampling terminates immediately in practice.
func (reg *Registry) generateCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeLetters[reg.rng.Intn(len(codeLetters))]
		}
		code := string(buf)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}

// Join seats a session in the room with the given code. The room itself
// validates the name and capacity; the registry only resolves the code and
// keeps the session index.
func (reg *Registry) Join(sess *session.Session, code, name string) (*Room, *JoinResult, error) {
	reg.mutex.RLock()
	_, in := reg.sessions[sess.ID]
	room, ok := reg.rooms[code]
	reg.mutex.RUnlock()

	if in {
		return nil, nil, ErrAlreadyInRoom
	}
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	result, err := room.Join(sess, name)
	if err != nil {
		return nil, nil, err
	}

	reg.mutex.Lock()
	reg.sessions[sess.ID] = code
	reg.mutex.Unlock()
	return room, result, nil
}

// Lookup resolves a room code.
func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// RoomOf resolves the room a session belongs to, host or player.
func (reg *Registry) RoomOf(sessionID string) (*Room, bool) {
	reg.mutex.RLock()
	code, in := reg.sessions[sessionID]
	room, ok := reg.rooms[code]
	reg.mutex.RUnlock()
	if !in || !ok {
		return nil, false
	}
	return room, true
}

// HandleDisconnect reacts to a dropped connection. A departing host takes
// the whole room down; a departing player is removed from it.
func (reg *Registry) HandleDisconnect(sessionID string) {
	reg.mutex.Lock()
	code, in := reg.sessions[sessionID]
	if !in {
		reg.mutex.Unlock()
		return
	}
	delete(reg.sessions, sessionID)
	room, live := reg.rooms[code]
	reg.mutex.Unlock()

	if !live {
		return
	}
	if room.HostID() == sessionID {
		logger.Log.Infof("registry: host of room %s disconnected", code)
		reg.closeRoom(room, ReasonHostDisconnected)
		return
	}
	if err := room.HandleDisconnect(sessionID); err != nil {
		logger.Log.Debugf("registry: disconnect for closed room %s: %v", code, err)
	}
}

// closeRoom shuts a room down and unregisters it. Close blocks until the
// room's closing broadcast is out, which still resolves through this
// registry, so the tables are only cleaned afterwards.
func (reg *Registry) closeRoom(room *Room, reason string) {
	room.Close(reason)

	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	delete(reg.rooms, room.Code)
	for sid, code := range reg.sessions {
		if code == room.Code {
			delete(reg.sessions, sid)
		}
	}
}

// StartCleanup begins the periodic TTL sweep. Rooms are disposable party
// sessions; anything older than maxAge is torn down regardless of state.
func (reg *Registry) StartCleanup(interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.Sweep(maxAge)
			case <-reg.stopCleanup:
				return
			}
		}
	}()
}

// StopCleanup halts the sweep loop started by StartCleanup. Safe to call
// more than once, or without a running loop.
func (reg *Registry) StopCleanup() {
	reg.cleanupOnce.Do(func() {
		close(reg.stopCleanup)
	})
}

// Sweep closes every room older than maxAge and reports how many went.
func (reg *Registry) Sweep(maxAge time.Duration) int {
	reg.mutex.RLock()
	expired := make([]*Room, 0)
	for _, room := range reg.rooms {
		if room.Age() > maxAge {
			expired = append(expired, room)
		}
	}
	reg.mutex.RUnlock()

	for _, room := range expired {
		logger.Log.Infof("registry: reaping room %s after %s", room.Code, room.Age().Round(time.Second))
		reg.closeRoom(room, ReasonTimeout)
		if reg.OnRoomReaped != nil {
			reg.OnRoomReaped()
		}
	}
	return len(expired)
}

// Shutdown closes every live room, notifying members with the given reason.
func (reg *Registry) Shutdown(reason string) {
	reg.mutex.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mutex.RUnlock()

	for _, room := range rooms {
		reg.closeRoom(room, reason)
	}
}

// RoomCount returns the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

// Stats snapshots the registry for the admin RPC and metric gauges.
func (reg *Registry) Stats() Stats {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	s := Stats{Rooms: len(reg.rooms)}
	for _, room := range reg.rooms {
		s.Players += room.PlayerCount()
		switch room.Variant {
		case VariantTrivia:
			s.TriviaRooms++
		default:
			s.CardRooms++
		}
	}
	return s
}
