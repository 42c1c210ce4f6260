package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu  sync.Mutex
	got []Event
	err error
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return s.err
}

func (s *recordingSink) events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.got...)
}

func sampleEvent(typ Type) Event {
	return Event{
		Type:        typ,
		Room:        "AAAAAA",
		Conn:        "c1",
		DisplayName: "Alice",
		Message:     "Alice created the room.",
		At:          time.Date(2025, 7, 27, 16, 5, 5, 0, time.UTC),
	}
}

func TestPublisher_PreservesOrder(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	p.Enqueue(sampleEvent(RoomCreated), sampleEvent(MemberJoined), sampleEvent(GameStarted))
	require.Eventually(t, func() bool { return len(sink.events()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	got := sink.events()
	assert.Equal(t, RoomCreated, got[0].Type)
	assert.Equal(t, MemberJoined, got[1].Type)
	assert.Equal(t, GameStarted, got[2].Type)
}

func TestPublisher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, 2)
	p.Enqueue(sampleEvent(RoomCreated), sampleEvent(MemberJoined), sampleEvent(MemberLeft))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx) // drains and returns

	got := sink.events()
	require.Len(t, got, 2)
	assert.Equal(t, MemberJoined, got[1].Type)
}

func TestPublisher_SinkErrorsDoNotStopWorker(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	p := NewPublisher(sink, 4)
	p.Enqueue(sampleEvent(RoomCreated), sampleEvent(RoomClosed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)
	assert.Len(t, sink.events(), 2)
}

func TestRedisSink_Publish(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	ev := sampleEvent(GameStarted)
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	sink := NewRedisSink(rdc, "")
	mock.ExpectTxPipeline()
	mock.ExpectXAdd(sink.xaddArgs(ev)).SetVal("1-0")
	mock.ExpectPublish("lobby:AAAAAA:events", payload).SetVal(1)
	mock.ExpectTxPipelineExec()

	require.NoError(t, sink.Publish(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSink_PublishError(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	ev := sampleEvent(RoomClosed)

	sink := NewRedisSink(rdc, "custom")
	mock.ExpectTxPipeline()
	mock.ExpectXAdd(sink.xaddArgs(ev)).SetErr(errors.New("READONLY"))

	err := sink.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room_closed")
}

func TestStreamValues(t *testing.T) {
	ev := sampleEvent(MemberKicked)
	assert.Equal(t, []any{
		"type", "member_kicked",
		"room", "AAAAAA",
		"conn", "c1",
		"name", "Alice",
		"msg", "Alice created the room.",
		"at", "1753632305000",
	}, StreamValues(ev))
}
