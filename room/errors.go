// room/errors.go
package room

import "errors"

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomClosed          = errors.New("room closed")
	ErrRoomFull            = errors.New("room is full")
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameNotStarted      = errors.New("game not started")
	ErrNameTaken           = errors.New("name already taken")
	ErrInvalidName         = errors.New("name must be 2-7 characters")
	ErrNoColorsAvailable   = errors.New("no colors available")
	ErrAlreadyInRoom       = errors.New("already in a room")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAnimationInProgress = errors.New("animation in progress")
	ErrUnknownVariant      = errors.New("unknown game type")
)
