package syncevents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var insertSQL = regexp.QuoteMeta(`INSERT INTO room_events`)

func message(id, typ, room, name, msg string) redis.XMessage {
	return redis.XMessage{
		ID: id,
		Values: map[string]interface{}{
			"type": typ,
			"room": room,
			"conn": "c1",
			"name": name,
			"msg":  msg,
			"at":   "1753632305000",
		},
	}
}

func readArgs(lastID string) *redis.XReadArgs {
	return &redis.XReadArgs{
		Streams: []string{"lobby_events", lastID},
		Count:   batchSize,
		Block:   readBlock,
	}
}

func TestStep_PersistsBatchAndAdvances(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream: "lobby_events",
		Messages: []redis.XMessage{
			message("1-0", "room_created", "AAAAAA", "Alice", "Alice created the room."),
			message("2-0", "member_joined", "AAAAAA", "Bob", "Bob joined the room."),
		},
	}})

	at := time.UnixMilli(1753632305000).UTC()
	smock.ExpectBegin()
	smock.ExpectExec(insertSQL).
		WithArgs("1-0", "AAAAAA", "room_created", "c1", "Alice", "Alice created the room.", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(insertSQL).
		WithArgs("2-0", "AAAAAA", "member_joined", "c1", "Bob", "Bob joined the room.", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	next, err := step(context.Background(), rdc, db, "lobby_events", "0-0")
	require.NoError(t, err)
	assert.Equal(t, "2-0", next)
	assert.NoError(t, rmock.ExpectationsWereMet())
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestStep_EmptyReadKeepsPosition(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("5-0")).RedisNil()

	next, err := step(context.Background(), rdc, db, "lobby_events", "5-0")
	require.NoError(t, err)
	assert.Equal(t, "5-0", next)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestStep_FailedInsertDoesNotAdvance(t *testing.T) {
	rdc, rmock := redismock.NewClientMock()
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rmock.ExpectXRead(readArgs("0-0")).SetVal([]redis.XStream{{
		Stream:   "lobby_events",
		Messages: []redis.XMessage{message("1-0", "room_closed", "AAAAAA", "", "")},
	}})
	smock.ExpectBegin()
	smock.ExpectExec(insertSQL).WillReturnError(errors.New("disk full"))
	smock.ExpectRollback()

	next, err := step(context.Background(), rdc, db, "lobby_events", "0-0")
	require.Error(t, err)
	assert.Equal(t, "0-0", next)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestPersist_SkipsMalformedEntries(t *testing.T) {
	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	smock.ExpectBegin()
	smock.ExpectExec(insertSQL).
		WithArgs("2-0", "BBBBBB", "game_started", "c1", "Carol", "Carol started the game.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	err = persist(context.Background(), db, []redis.XMessage{
		{ID: "1-0", Values: map[string]interface{}{"msg": "orphan"}},
		message("2-0", "game_started", "BBBBBB", "Carol", "Carol started the game."),
	})
	require.NoError(t, err)
	assert.NoError(t, smock.ExpectationsWereMet())
}
