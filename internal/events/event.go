package events

import (
	"context"
	"time"
)

// Type names a room lifecycle fact.
type Type string

const (
	RoomCreated        Type = "room_created"
	MemberJoined       Type = "member_joined"
	MemberLeft         Type = "member_left"
	MemberKicked       Type = "member_kicked"
	MemberDisconnected Type = "member_disconnected"
	GameStarted        Type = "game_started"
	RoomClosed         Type = "room_closed"
)

// Event is emitted by the room registry after every transition that changes
// a room's lifecycle. It is what downstream consumers (game logic, audit)
// receive; it is never fed back into the registry.
type Event struct {
	Type        Type      `json:"type"`
	Room        string    `json:"room"`
	Conn        string    `json:"conn,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

// Sink delivers events somewhere outside the process.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// NopSink drops everything. Used when no broker is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }
