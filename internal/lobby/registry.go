package lobby

import (
	"fmt"
	"lobbyhub/internal/events"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IRegistry is the room membership state machine as seen by the transport.
type IRegistry interface {
	Create(conn ConnID, displayName string) (RoomCode, Outcome)
	Join(code RoomCode, conn ConnID, displayName string) (Outcome, error)
	Leave(code RoomCode, conn ConnID) Outcome
	Kick(code RoomCode, requester, target ConnID) Outcome
	AssignTeam(code RoomCode, conn ConnID, team Team) Outcome
	StartGame(code RoomCode, requester ConnID) Outcome
	Disconnect(conn ConnID) Outcome

	Snapshot(code RoomCode) (Snapshot, bool)
	Summaries() []Summary
	Len() int
}

// Registry owns every live room. All methods are safe for concurrent use and
// each one is a single atomic transition.
type Registry struct {
	mu    sync.Mutex
	rooms map[RoomCode]*room
	// byConn indexes which rooms a connection sits in, so Disconnect does
	// not scan every room.
	byConn map[ConnID]map[RoomCode]struct{}

	newCode CodeGenerator
	now     func() time.Time
}

var _ IRegistry = (*Registry)(nil)

// Option customises a Registry.
type Option func(*Registry)

// WithCodeGenerator replaces the default UUID-derived room codes.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(r *Registry) { r.newCode = g }
}

// WithClock sets the time source used to stamp lifecycle events.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms:   make(map[RoomCode]*room),
		byConn:  make(map[ConnID]map[RoomCode]struct{}),
		newCode: UUIDCodes,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create opens a new room with conn as its permanent host.
func (reg *Registry) Create(conn ConnID, displayName string) (RoomCode, Outcome) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.freshCode()
	r := newRoom(code)
	r.add(&Member{ID: conn, DisplayName: displayName, IsHost: true})
	line := fmt.Sprintf("%s created the room.", displayName)
	r.appendLog(line)
	reg.rooms[code] = r
	reg.index(conn, code)

	var out Outcome
	out.subscribe(code, conn)
	out.toConn(conn, EvtRoomCreated, RoomRef{Code: code, Users: r.memberList()})
	out.roster(r)
	out.emit(reg.event(events.RoomCreated, code, conn, displayName, line))

	zap.L().Debug("lobby.create", zap.String("room", string(code)), zap.String("conn", string(conn)))
	return code, out
}

// Join seats conn in an existing room. The room is left untouched when the
// code is unknown or when the name or connection is already present.
func (reg *Registry) Join(code RoomCode, conn ConnID, displayName string) (Outcome, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok {
		return Outcome{}, ErrRoomNotFound
	}
	if _, m := r.find(conn); m != nil || r.nameTaken(displayName) {
		return Outcome{}, ErrDuplicateMember
	}

	r.add(&Member{ID: conn, DisplayName: displayName})
	line := fmt.Sprintf("%s joined the room.", displayName)
	r.appendLog(line)
	reg.index(conn, code)

	var out Outcome
	out.subscribe(code, conn)
	out.toConn(conn, EvtRoomJoined, RoomRef{Code: code, Users: r.memberList()})
	out.roster(r)
	out.emit(reg.event(events.MemberJoined, code, conn, displayName, line))

	zap.L().Debug("lobby.join", zap.String("room", string(code)), zap.String("conn", string(conn)))
	return out, nil
}

// Leave removes conn from code. Unknown rooms and members are ignored.
func (reg *Registry) Leave(code RoomCode, conn ConnID) Outcome {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.depart(code, conn, events.MemberLeft, "%s left the room.")
}

// Kick lets the host of code remove target. Anyone else is ignored. A host
// kicking itself is the same as leaving.
func (reg *Registry) Kick(code RoomCode, requester, target ConnID) Outcome {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok || !r.isHost(requester) {
		return Outcome{}
	}
	if requester == target {
		return reg.depart(code, target, events.MemberLeft, "%s left the room.")
	}
	if _, m := r.find(target); m == nil {
		return Outcome{}
	}

	var out Outcome
	out.toConn(target, EvtKicked, nil)
	out.merge(reg.depart(code, target, events.MemberKicked, "%s was kicked by the host."))
	return out
}

// AssignTeam moves conn into team. Unknown rooms, members and teams are
// ignored.
func (reg *Registry) AssignTeam(code RoomCode, conn ConnID, team Team) Outcome {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok || !team.Valid() {
		return Outcome{}
	}
	if _, m := r.find(conn); m == nil {
		return Outcome{}
	}

	r.untag(conn)
	r.teams[team] = append(r.teams[team], conn)

	var out Outcome
	out.toRoom(code, EvtUpdateTeams, r.teamView())
	return out
}

// StartGame broadcasts the start signal when the host asks for it. Room
// state other than the log is not touched.
func (reg *Registry) StartGame(code RoomCode, requester ConnID) Outcome {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok || !r.isHost(requester) {
		return Outcome{}
	}
	host := r.host()
	line := fmt.Sprintf("%s started the game.", host.DisplayName)
	r.appendLog(line)

	var out Outcome
	out.toRoom(code, EvtGameStarted, RoomRef{Code: code, Users: r.memberList()})
	out.toRoom(code, EvtHistoryUpdate, r.history())
	out.emit(reg.event(events.GameStarted, code, requester, host.DisplayName, line))

	zap.L().Debug("lobby.start_game", zap.String("room", string(code)))
	return out
}

// Disconnect removes conn from every room it sits in.
func (reg *Registry) Disconnect(conn ConnID) Outcome {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	codes := make([]RoomCode, 0, len(reg.byConn[conn]))
	for code := range reg.byConn[conn] {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	var out Outcome
	for _, code := range codes {
		out.merge(reg.depart(code, conn, events.MemberDisconnected, "%s was disconnected."))
	}
	return out
}

// Snapshot returns a detached copy of code's state.
func (reg *Registry) Snapshot(code RoomCode) (Snapshot, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[code]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// Summaries lists every live room, ordered by code.
func (reg *Registry) Summaries() []Summary {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := make([]Summary, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len is the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// depart is the shared removal path of Leave, Kick and Disconnect.
// Caller holds reg.mu.
func (reg *Registry) depart(code RoomCode, conn ConnID, typ events.Type, format string) Outcome {
	r, ok := reg.rooms[code]
	if !ok {
		return Outcome{}
	}
	m := r.remove(conn)
	if m == nil {
		return Outcome{}
	}
	reg.unindex(conn, code)
	line := fmt.Sprintf(format, m.DisplayName)
	r.appendLog(line)

	var out Outcome
	out.unsubscribe(code, conn)
	out.emit(reg.event(typ, code, conn, m.DisplayName, line))

	if len(r.members) == 0 || m.IsHost {
		reg.close(r)
		out.toRoom(code, EvtRoomClosed, RoomRef{Code: code})
		out.closeRoom(code)
		out.emit(reg.event(events.RoomClosed, code, conn, m.DisplayName, line))
		zap.L().Debug("lobby.close", zap.String("room", string(code)), zap.Bool("host_left", m.IsHost))
		return out
	}

	out.roster(r)
	return out
}

// close deletes r and drops every index entry still pointing at it.
func (reg *Registry) close(r *room) {
	for _, m := range r.members {
		reg.unindex(m.ID, r.code)
	}
	delete(reg.rooms, r.code)
}

func (reg *Registry) freshCode() RoomCode {
	for {
		code := reg.newCode()
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
		zap.L().Debug("lobby.code_collision", zap.String("room", string(code)))
	}
}

func (reg *Registry) index(conn ConnID, code RoomCode) {
	set, ok := reg.byConn[conn]
	if !ok {
		set = make(map[RoomCode]struct{})
		reg.byConn[conn] = set
	}
	set[code] = struct{}{}
}

func (reg *Registry) unindex(conn ConnID, code RoomCode) {
	set, ok := reg.byConn[conn]
	if !ok {
		return
	}
	delete(set, code)
	if len(set) == 0 {
		delete(reg.byConn, conn)
	}
}

func (reg *Registry) event(typ events.Type, code RoomCode, conn ConnID, name, msg string) events.Event {
	return events.Event{
		Type:        typ,
		Room:        string(code),
		Conn:        string(conn),
		DisplayName: name,
		Message:     msg,
		At:          reg.now().UTC(),
	}
}
