package lobby

// ConnID identifies one live transport connection. Assigned by the
// transport, never by the client.
type ConnID string

// RoomCode is the short shareable key of a live room.
type RoomCode string

// Team is one of the three buckets every member is sorted into.
type Team string

const (
	TeamRed        Team = "red"
	TeamBlue       Team = "blue"
	TeamUnassigned Team = "unassigned"
)

var teamOrder = [...]Team{TeamRed, TeamBlue, TeamUnassigned}

// Valid reports whether t names one of the three team buckets.
func (t Team) Valid() bool {
	switch t {
	case TeamRed, TeamBlue, TeamUnassigned:
		return true
	}
	return false
}

// Member is one connection's seat in a room.
type Member struct {
	ID          ConnID `json:"id"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
}

// Teams is the wire view of a room's team partition.
type Teams struct {
	Red        []Member `json:"red"`
	Blue       []Member `json:"blue"`
	Unassigned []Member `json:"unassigned"`
}

// Snapshot is a detached copy of one room.
type Snapshot struct {
	Code    RoomCode `json:"code"`
	Members []Member `json:"users"`
	Teams   Teams    `json:"teams"`
	Log     []string `json:"history"`
}

// Summary is the per-room row exposed by the REST views and mirrored to
// Postgres.
type Summary struct {
	Code       RoomCode `json:"code"`
	Host       string   `json:"host"`
	Members    int      `json:"members"`
	Red        int      `json:"red"`
	Blue       int      `json:"blue"`
	Unassigned int      `json:"unassigned"`
	LogEntries int      `json:"log_entries"`
}

// RoomRef is the body of roomCreated / roomJoined.
type RoomRef struct {
	Code  RoomCode `json:"code"`
	Users []Member `json:"users,omitempty"`
}

// room is the registry-owned state. members keeps insertion order; teams
// holds ordered id lists that together partition members.
type room struct {
	code    RoomCode
	members []*Member
	teams   map[Team][]ConnID
	log     []string
}

func newRoom(code RoomCode) *room {
	return &room{
		code: code,
		teams: map[Team][]ConnID{
			TeamRed:        nil,
			TeamBlue:       nil,
			TeamUnassigned: nil,
		},
	}
}

func (r *room) find(id ConnID) (int, *Member) {
	for i, m := range r.members {
		if m.ID == id {
			return i, m
		}
	}
	return -1, nil
}

func (r *room) nameTaken(name string) bool {
	for _, m := range r.members {
		if m.DisplayName == name {
			return true
		}
	}
	return false
}

func (r *room) host() *Member {
	for _, m := range r.members {
		if m.IsHost {
			return m
		}
	}
	return nil
}

func (r *room) isHost(id ConnID) bool {
	_, m := r.find(id)
	return m != nil && m.IsHost
}

// teamOf returns the bucket holding id and its index within it.
func (r *room) teamOf(id ConnID) (Team, int) {
	for _, t := range teamOrder {
		for i, cid := range r.teams[t] {
			if cid == id {
				return t, i
			}
		}
	}
	return "", -1
}

func (r *room) add(m *Member) {
	r.members = append(r.members, m)
	r.teams[TeamUnassigned] = append(r.teams[TeamUnassigned], m.ID)
}

// remove drops id from members and from its team bucket.
func (r *room) remove(id ConnID) *Member {
	i, m := r.find(id)
	if m == nil {
		return nil
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	r.untag(id)
	return m
}

func (r *room) untag(id ConnID) {
	if t, i := r.teamOf(id); i >= 0 {
		ids := r.teams[t]
		r.teams[t] = append(ids[:i:i], ids[i+1:]...)
	}
}

func (r *room) appendLog(line string) {
	r.log = append(r.log, line)
}

func (r *room) memberList() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	return out
}

func (r *room) bucket(t Team) []Member {
	out := make([]Member, 0, len(r.teams[t]))
	for _, id := range r.teams[t] {
		if _, m := r.find(id); m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func (r *room) teamView() Teams {
	return Teams{
		Red:        r.bucket(TeamRed),
		Blue:       r.bucket(TeamBlue),
		Unassigned: r.bucket(TeamUnassigned),
	}
}

func (r *room) history() []string {
	out := make([]string, len(r.log))
	copy(out, r.log)
	return out
}

func (r *room) snapshot() Snapshot {
	return Snapshot{
		Code:    r.code,
		Members: r.memberList(),
		Teams:   r.teamView(),
		Log:     r.history(),
	}
}

func (r *room) summary() Summary {
	s := Summary{
		Code:       r.code,
		Members:    len(r.members),
		Red:        len(r.teams[TeamRed]),
		Blue:       len(r.teams[TeamBlue]),
		Unassigned: len(r.teams[TeamUnassigned]),
		LogEntries: len(r.log),
	}
	if h := r.host(); h != nil {
		s.Host = h.DisplayName
	}
	return s
}
