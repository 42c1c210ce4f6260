package ws

import (
	"context"
	"encoding/json"
	"lobbyhub/internal/events"
	"lobbyhub/internal/lobby"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	dispatchTimeout   = 1900 * time.Millisecond
	defaultSendBuffer = 64
)

// EventQueue receives the lifecycle events of every committed transition.
type EventQueue interface {
	Enqueue(evs ...events.Event)
}

// ConnContext is what a handler knows about the connection it serves.
type ConnContext struct {
	ConnID lobby.ConnID
}

type WsServer struct {
	hub      *Hub
	router   *Router
	registry lobby.IRegistry
	events   EventQueue
	upgrader websocket.Upgrader

	sendBuffer int

	// mu serialises "registry transition + directive fan-out" so every
	// connection sees directives in transition order.
	mu sync.Mutex
}

// Option customises a WsServer.
type Option func(*WsServer)

// WithAllowedOrigins restricts the Origin header accepted on upgrade. No
// origins means any origin is accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *WsServer) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[strings.TrimSpace(o)] = struct{}{}
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		}
	}
}

// WithSendBuffer sets how many frames may wait for a slow peer before it is
// dropped.
func WithSendBuffer(n int) Option {
	return func(s *WsServer) {
		if n > 0 {
			s.sendBuffer = n
		}
	}
}

func NewWsServer(h *Hub, registry lobby.IRegistry, queue EventQueue, opts ...Option) *WsServer {
	srv := &WsServer{
		hub:      h,
		router:   NewRouter(),
		registry: registry,
		events:   queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuffer: defaultSendBuffer,
	}
	for _, o := range opts {
		o(srv)
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	// ─────────────────── Client connected ────────────────────────
	conn := newClientConn(lobby.ConnID(uuid.NewString()), rawConn, s.sendBuffer)
	s.hub.Register(conn)
	zap.L().Debug("ws.connected", zap.String("conn", string(conn.id)))

	s.reply(conn, evtConnected, ConnectedBody{ID: string(conn.id)})

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, evtCreateRoom,
		func(ctx context.Context, cc *ConnContext, req CreateRoomRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				_, out := s.registry.Create(cc.ConnID, req.DisplayName)
				return out, nil
			})
		},
	)

	Register(s.router, evtJoinRoom,
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				return s.registry.Join(lobby.RoomCode(req.Code), cc.ConnID, req.DisplayName)
			})
		},
	)

	Register(s.router, evtLeaveRoom,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				return s.registry.Leave(lobby.RoomCode(req.Code), cc.ConnID), nil
			})
		},
	)

	Register(s.router, evtKickUser,
		func(ctx context.Context, cc *ConnContext, req KickRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				return s.registry.Kick(lobby.RoomCode(req.Code), cc.ConnID, lobby.ConnID(req.TargetID)), nil
			})
		},
	)

	Register(s.router, evtJoinTeam,
		func(ctx context.Context, cc *ConnContext, req JoinTeamRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				return s.registry.AssignTeam(lobby.RoomCode(req.Code), cc.ConnID, lobby.Team(req.Team)), nil
			})
		},
	)

	Register(s.router, evtStartGame,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) error {
			return s.commit(func() (lobby.Outcome, error) {
				return s.registry.StartGame(lobby.RoomCode(req.Code), cc.ConnID), nil
			})
		},
	)
}

// commit runs one registry transition and fans its directives out before
// any other transition can start.
func (s *WsServer) commit(transition func() (lobby.Outcome, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := transition()
	if err != nil {
		return err
	}
	s.apply(out)
	return nil
}

func (s *WsServer) apply(out lobby.Outcome) {
	for _, d := range out.Directives {
		switch d.Op {
		case lobby.OpSubscribe:
			s.hub.Join(d.Room, d.Conn)
		case lobby.OpUnsubscribe:
			s.hub.Leave(d.Room, d.Conn)
		case lobby.OpSendConn:
			if msg, ok := encode(d.Event, d.Body); ok {
				s.hub.Send(d.Conn, msg)
			}
		case lobby.OpSendRoom:
			if msg, ok := encode(d.Event, d.Body); ok {
				s.hub.Broadcast(d.Room, msg)
			}
		case lobby.OpCloseRoom:
			s.hub.Close(d.Room)
		}
	}
	if len(out.Events) > 0 && s.events != nil {
		s.events.Enqueue(out.Events...)
	}
}

func (s *WsServer) reader(conn *clientConn) {
	defer s.disconnect(conn)

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id}

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.reply(conn, evtError, errInvalidPayload.Error())
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err = s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":"<message>"} ---------
		if err != nil {
			zap.L().Debug("ws.dispatch",
				zap.String("conn", string(conn.id)),
				zap.String("event", env.Event),
				zap.Error(err),
			)
			s.reply(conn, evtError, err.Error())
		}
	}
}

// disconnect runs once the reader exits for any reason.
func (s *WsServer) disconnect(conn *clientConn) {
	_ = s.commit(func() (lobby.Outcome, error) {
		return s.registry.Disconnect(conn.id), nil
	})
	s.hub.Unregister(conn)
	conn.close()
	zap.L().Debug("ws.disconnected", zap.String("conn", string(conn.id)))
}

func (s *WsServer) reply(conn *clientConn, event string, body any) {
	if msg, ok := encode(event, body); ok {
		conn.enqueue(msg)
	}
}

func encode(event string, body any) ([]byte, bool) {
	msg, err := json.Marshal(outbound{Event: event, Body: body})
	if err != nil {
		zap.L().Error("ws.encode", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return msg, true
}
