package ws

import (
	"encoding/json"
	"errors"
	"strings"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "joinRoom"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON value
}

// outbound is the encoding side of Envelope; Body is marshalled as-is.
type outbound struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// ──────────────────────────── Inbound events ─────────────────────────────────

const (
	evtCreateRoom = "createRoom"
	evtJoinRoom   = "joinRoom"
	evtLeaveRoom  = "leaveRoom"
	evtKickUser   = "kickUser"
	evtJoinTeam   = "joinTeam"
	evtStartGame  = "startGame"

	evtConnected = "connected"
	evtError     = "error"
)

// CreateRoomRequest is the body for "createRoom".
type CreateRoomRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=32"`
}

func (r *CreateRoomRequest) normalize() {
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

// JoinRoomRequest is the body for "joinRoom".
type JoinRoomRequest struct {
	Code        string `json:"code"        validate:"required,len=6"`
	DisplayName string `json:"displayName" validate:"required,max=32"`
}

func (r *JoinRoomRequest) normalize() {
	r.Code = normalizeCode(r.Code)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

// RoomRequest is the body for "leaveRoom" and "startGame".
type RoomRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

func (r *RoomRequest) normalize() {
	r.Code = normalizeCode(r.Code)
}

// KickRequest is the body for "kickUser".
type KickRequest struct {
	Code     string `json:"code"     validate:"required,len=6"`
	TargetID string `json:"targetId" validate:"required"`
}

func (r *KickRequest) normalize() {
	r.Code = normalizeCode(r.Code)
	r.TargetID = strings.TrimSpace(r.TargetID)
}

// JoinTeamRequest is the body for "joinTeam".
type JoinTeamRequest struct {
	Code string `json:"code" validate:"required,len=6"`
	Team string `json:"team" validate:"required,oneof=red blue unassigned"`
}

func (r *JoinTeamRequest) normalize() {
	r.Code = normalizeCode(r.Code)
	r.Team = strings.ToLower(strings.TrimSpace(r.Team))
}

// normalizeCode trims and upper-cases a client-supplied room code.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ConnectedBody is sent once, right after the upgrade.
type ConnectedBody struct {
	ID string `json:"id"`
}

var (
	errUnknownEvent   = errors.New("unknown event")
	errInvalidPayload = errors.New("invalid payload")
)
