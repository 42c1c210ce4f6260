package lobby

import "lobbyhub/internal/events"

// Op is the kind of work a Directive asks the transport to do.
type Op int

const (
	// OpSubscribe attaches Conn to Room's broadcast channel.
	OpSubscribe Op = iota
	// OpUnsubscribe detaches Conn from Room's broadcast channel.
	OpUnsubscribe
	// OpSendConn delivers Event/Body to Conn alone.
	OpSendConn
	// OpSendRoom delivers Event/Body to everyone subscribed to Room.
	OpSendRoom
	// OpCloseRoom drops Room's channel and every subscription on it.
	OpCloseRoom
)

// Outbound event names.
const (
	EvtRoomCreated   = "roomCreated"
	EvtRoomJoined    = "roomJoined"
	EvtUserList      = "userList"
	EvtHistoryUpdate = "historyUpdate"
	EvtUpdateTeams   = "updateTeams"
	EvtRoomClosed    = "roomClosed"
	EvtKicked        = "kicked"
	EvtGameStarted   = "gameStarted"
)

// Directive is one transport step. Directives must be applied in order.
type Directive struct {
	Op    Op
	Room  RoomCode
	Conn  ConnID
	Event string
	Body  any
}

// Outcome is everything a registry transition asks of the outside world.
// The zero Outcome means nothing happened.
type Outcome struct {
	Directives []Directive
	Events     []events.Event
}

// Empty reports whether the transition was a no-op.
func (o Outcome) Empty() bool {
	return len(o.Directives) == 0 && len(o.Events) == 0
}

func (o *Outcome) merge(other Outcome) {
	o.Directives = append(o.Directives, other.Directives...)
	o.Events = append(o.Events, other.Events...)
}

func (o *Outcome) subscribe(code RoomCode, id ConnID) {
	o.Directives = append(o.Directives, Directive{Op: OpSubscribe, Room: code, Conn: id})
}

func (o *Outcome) unsubscribe(code RoomCode, id ConnID) {
	o.Directives = append(o.Directives, Directive{Op: OpUnsubscribe, Room: code, Conn: id})
}

func (o *Outcome) toConn(id ConnID, event string, body any) {
	o.Directives = append(o.Directives, Directive{Op: OpSendConn, Conn: id, Event: event, Body: body})
}

func (o *Outcome) toRoom(code RoomCode, event string, body any) {
	o.Directives = append(o.Directives, Directive{Op: OpSendRoom, Room: code, Event: event, Body: body})
}

func (o *Outcome) closeRoom(code RoomCode) {
	o.Directives = append(o.Directives, Directive{Op: OpCloseRoom, Room: code})
}

// roster queues the full membership/teams/log view for everyone in r.
func (o *Outcome) roster(r *room) {
	o.toRoom(r.code, EvtUserList, r.memberList())
	o.toRoom(r.code, EvtHistoryUpdate, r.history())
	o.toRoom(r.code, EvtUpdateTeams, r.teamView())
}

func (o *Outcome) emit(ev events.Event) {
	o.Events = append(o.Events, ev)
}
