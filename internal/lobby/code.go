package lobby

import (
	"strings"

	"github.com/google/uuid"
)

// CodeLength is the number of characters in a room code.
const CodeLength = 6

// CodeGenerator produces candidate room codes. The registry retries on
// collision, so a generator only has to be practically unique.
type CodeGenerator func() RoomCode

// UUIDCodes derives codes from the hex of a random v4 UUID, upper-cased so
// they read well when spoken aloud or typed on a phone.
func UUIDCodes() RoomCode {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return RoomCode(strings.ToUpper(id[:CodeLength]))
}
