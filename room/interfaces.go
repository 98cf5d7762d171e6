// room/interfaces.go
package room

// Broadcaster defines the interface for delivering events to a room's
// members. This is defined here to break the import cycle between room
// and broadcast.
type Broadcaster interface {
	// BroadcastToRoom delivers an event to every member, host included.
	BroadcastToRoom(code string, event string, data interface{}) error
	// SendToSession delivers a player-private event.
	SendToSession(sessionID string, event string, data interface{}) error
}
