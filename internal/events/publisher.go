package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Publisher decouples room transitions from the sink: Enqueue never blocks
// and a single worker publishes in arrival order.
type Publisher struct {
	sink  Sink
	queue chan Event
}

func NewPublisher(sink Sink, size int) *Publisher {
	if size <= 0 {
		size = 1
	}
	return &Publisher{sink: sink, queue: make(chan Event, size)}
}

// Enqueue hands events to the worker. Events that do not fit are dropped.
func (p *Publisher) Enqueue(evs ...Event) {
	for _, ev := range evs {
		select {
		case p.queue <- ev:
		default:
			zap.L().Warn("events.queue_full",
				zap.String("type", string(ev.Type)),
				zap.String("room", ev.Room),
			)
		}
	}
}

// Run publishes until ctx is done, then drains whatever is already queued.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case ev := <-p.queue:
			p.publish(context.Background(), ev)
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case ev := <-p.queue:
			p.publish(context.Background(), ev)
		default:
			return
		}
	}
}

func (p *Publisher) publish(parent context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(parent, publishTimeout)
	defer cancel()
	if err := p.sink.Publish(ctx, ev); err != nil {
		zap.L().Warn("events.publish",
			zap.String("type", string(ev.Type)),
			zap.String("room", ev.Room),
			zap.Error(err),
		)
	}
}
