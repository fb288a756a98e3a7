package room

import "errors"

// ErrTimerNotFound is returned when an operation addresses a timer id that
// does not exist in the room. Non-fatal; state is left unchanged.
var ErrTimerNotFound = errors.New("timer not found")

// ErrRoomNotFound is returned when a room id resolves to nothing, in memory
// or in the store.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomExists is returned when creating a room with an id already in use.
var ErrRoomExists = errors.New("room already exists")

// ErrInvalidDuration is returned when a timer is created with a
// non-positive duration.
var ErrInvalidDuration = errors.New("invalid duration")
