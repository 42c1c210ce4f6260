package syncrooms

import (
	"context"
	"database/sql"
	"lobbyhub/internal/lobby"
	"time"

	"go.uber.org/zap"
)

// Source is the read side of the room registry.
type Source interface {
	Summaries() []lobby.Summary
}

// Run mirrors the live rooms into lobby_rooms every interval. Rows that were
// not refreshed by a pass belong to rooms that have closed and get closed_at.
func Run(ctx context.Context, src Source, db *sql.DB, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tk.C:
				if err := syncOnce(ctx, src, db, now.UTC()); err != nil {
					zap.L().Error("syncrooms.sync", zap.Error(err))
				}
			}
		}
	}()
}

const (
	upsert = `
	INSERT INTO lobby_rooms (code, host, members, red, blue, unassigned,
	                         log_entries, first_seen, updated_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
	ON CONFLICT (code) DO UPDATE
	       SET host=EXCLUDED.host,
	           members=EXCLUDED.members,
	           red=EXCLUDED.red,
	           blue=EXCLUDED.blue,
	           unassigned=EXCLUDED.unassigned,
	           log_entries=EXCLUDED.log_entries,
	           updated_at=EXCLUDED.updated_at,
	           closed_at=NULL`

	markClosed = `
	UPDATE lobby_rooms
	   SET closed_at=$1
	 WHERE closed_at IS NULL AND updated_at < $1`
)

func syncOnce(ctx context.Context, src Source, db *sql.DB, now time.Time) error {
	rooms := src.Summaries()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rooms {
		if _, err := tx.ExecContext(ctx, upsert,
			string(r.Code), r.Host, r.Members, r.Red, r.Blue, r.Unassigned, r.LogEntries, now); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, markClosed, now)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	closed, _ := res.RowsAffected()
	zap.L().Debug("syncrooms.done",
		zap.Int("live", len(rooms)),
		zap.Int64("closed", closed),
	)
	return nil
}
