package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStream is the Redis stream every lifecycle event is appended to.
	DefaultStream = "lobby_events"
	// streamMaxLen caps the stream; the archiver copies entries out long
	// before they are trimmed.
	streamMaxLen = 100_000
)

// ChannelFor is the pub/sub channel carrying one room's events, the hook
// downstream game logic subscribes to.
func ChannelFor(room string) string {
	return "lobby:" + room + ":events"
}

// RedisSink appends each event to a stream and publishes it on the room's
// channel inside one MULTI/EXEC.
type RedisSink struct {
	rdc    redis.Cmdable
	stream string
}

func NewRedisSink(rdc redis.Cmdable, stream string) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{rdc: rdc, stream: stream}
}

func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = s.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, s.xaddArgs(ev))
		pipe.Publish(ctx, ChannelFor(ev.Room), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s for room %s: %w", ev.Type, ev.Room, err)
	}
	return nil
}

func (s *RedisSink) xaddArgs(ev Event) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: StreamValues(ev),
	}
}

// StreamValues is the flat field list stored per stream entry. A slice keeps
// the field order stable.
func StreamValues(ev Event) []any {
	return []any{
		"type", string(ev.Type),
		"room", ev.Room,
		"conn", ev.Conn,
		"name", ev.DisplayName,
		"msg", ev.Message,
		"at", strconv.FormatInt(ev.At.UnixMilli(), 10),
	}
}
