package lobby

import "errors"

// Errors returned to the requester only. Their text is sent verbatim over
// the wire.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrDuplicateMember = errors.New("name already taken or you are already in the room")
)
