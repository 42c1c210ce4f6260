package syncevents

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	batchSize = 100
	readBlock = 2000 * time.Millisecond
)

// Run tails the lifecycle event stream and archives every entry in Postgres.
// It starts from the head of the stream on every boot; inserts are keyed on
// the stream id so replays are no-ops.
func Run(ctx context.Context, rdc redis.Cmdable, db *sql.DB, stream string) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			next, err := step(ctx, rdc, db, stream, lastID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("syncevents.step", zap.String("last_id", lastID), zap.Error(err))
				time.Sleep(time.Second)
			}
			lastID = next
		}
	}()
}

// step reads one batch after lastID and persists it. It returns the id to
// resume from, which only advances once the batch is committed.
func step(ctx context.Context, rdc redis.Cmdable, db *sql.DB, stream, lastID string) (string, error) {
	res, err := rdc.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   batchSize,
		Block:   readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return lastID, nil
	}
	if err != nil {
		return lastID, err
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return lastID, nil
	}

	entries := res[0].Messages
	if err := persist(ctx, db, entries); err != nil {
		return lastID, err
	}
	return entries[len(entries)-1].ID, nil
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const ins = `INSERT INTO room_events (stream_id, room_code, event_type, conn_id, display_name, message, at)
	             VALUES ($1, $2, $3, $4, $5, $6, $7)
	             ON CONFLICT (stream_id) DO NOTHING`
	for _, m := range msgs {
		room := field(m, "room")
		typ := field(m, "type")
		if room == "" || typ == "" {
			zap.L().Warn("syncevents.malformed", zap.String("id", m.ID))
			continue
		}
		ms, _ := strconv.ParseInt(field(m, "at"), 10, 64)
		at := time.UnixMilli(ms).UTC()

		if _, err := tx.ExecContext(ctx, ins,
			m.ID, room, typ, field(m, "conn"), field(m, "name"), field(m, "msg"), at); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func field(m redis.XMessage, key string) string {
	s, _ := m.Values[key].(string)
	return s
}
