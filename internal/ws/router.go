package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, body json.RawMessage) error

// normalizer is implemented by request bodies that tidy their fields
// (trimming, case folding) before validation.
type normalizer interface {
	normalize()
}

// Router keeps a map[event]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(),
	}
}

// Register binds an event to a strongly‑typed handler. The body is decoded
// into Req, normalized when Req supports it, and validated before h runs.
func Register[Req any](
	r *Router,
	event string,
	h func(ctx context.Context, c *ConnContext, req Req) error,
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[event] = func(ctx context.Context, c *ConnContext, body json.RawMessage) error {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				zap.L().Debug("ws.decode", zap.String("event", event), zap.Error(err))
				return errInvalidPayload
			}
		}
		if n, ok := any(&req).(normalizer); ok {
			n.normalize()
		}
		if err := r.validate.Struct(req); err != nil {
			zap.L().Debug("ws.validate", zap.String("event", event), zap.Error(err))
			return errInvalidPayload
		}
		return h(ctx, c, req)
	}
}

// dispatch is called by the server’s reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env Envelope) error {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return errUnknownEvent
	}
	return h(ctx, c, env.Body)
}
