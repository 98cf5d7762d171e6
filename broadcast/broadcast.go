// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/room"
	"github.com/wfunc/partyserver/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotAttached     = errors.New("broadcaster has no registry attached")
)

// RoomBroadcaster delivers events to whole rooms and to single sessions.
// It implements room.Broadcaster. Sends go through per-connection
// outboxes, so a slow member is dropped rather than stalling the room
// worker that asked for the broadcast.
type RoomBroadcaster struct {
	registry *room.Registry
	sessions *session.Manager
}

// NewRoomBroadcaster creates a broadcaster over the session table. The
// registry is attached afterwards: it needs the broadcaster to construct,
// so wiring happens in two steps.
func NewRoomBroadcaster(sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessions: sessions}
}

// AttachRegistry completes wiring. Must happen before any traffic.
func (b *RoomBroadcaster) AttachRegistry(registry *room.Registry) {
	b.registry = registry
}

// BroadcastToRoom sends an event to every member of a room, the host
// screen included. Individual delivery failures are skipped; the
// disconnect path cleans dead members out of the room.
func (b *RoomBroadcaster) BroadcastToRoom(roomCode, event string, data interface{}) error {
	if b.registry == nil {
		return ErrNotAttached
	}
	r, exists := b.registry.Lookup(roomCode)
	if !exists {
		return room.ErrRoomNotFound
	}

	for _, s := range r.Sessions() {
		if err := s.SendEvent(event, data); err != nil {
			logger.Log.Debugf("broadcast: %s to %s dropped: %v", event, s.ID, err)
			continue
		}
	}
	return nil
}

// SendToSession sends an event to one session by ID.
func (b *RoomBroadcaster) SendToSession(sessionID, event string, data interface{}) error {
	s, exists := b.sessions.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.SendEvent(event, data)
}
