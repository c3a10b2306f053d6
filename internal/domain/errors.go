package domain

import (
	"errors"
	"fmt"
)

// Rejections returned by Room.AddMember and Room.RemoveMember. AddMember
// checks them in the order listed here.
var (
	ErrWrongType     = errors.New("wrong type: candidate is not a member")
	ErrAlreadyInRoom = errors.New("duplicate: member is already in the room")
	ErrRoomClosed    = errors.New("closed: room is not accepting members")
	ErrRoomEnded     = fmt.Errorf("%w: room has ended", ErrRoomClosed)
	ErrRoomFull      = errors.New("full: room is at capacity")

	ErrMalformedMember = errors.New("malformed member: expected a member or a member id")
	ErrMemberNotFound  = errors.New("member not found")

	ErrInvalidInput        = errors.New("invalid input")
	ErrMemberAlreadyExists = errors.New("member already exists")

	ErrRoomNotFound = errors.New("room not found")
	ErrTooManyRooms = errors.New("lobby is at its room ceiling")
)

// ConfigError reports options that failed validation. Err is usually a
// validator.ValidationErrors and can be inspected with errors.As.
type ConfigError struct {
	Entity string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s options: %v", e.Entity, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
