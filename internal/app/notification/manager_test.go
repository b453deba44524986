package notification

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// recorder is a Stream that records every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (r *recorder) Send(ev Event) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestGateway_PublishPreservesOrder(t *testing.T) {
	g := NewGateway(0)
	defer g.Close()

	rec := &recorder{}
	g.Subscribe("r1", rec)

	for i := 1; i <= 20; i++ {
		g.Publish("r1", room.State{RTVThreshold: i})
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 20 }, time.Second, 5*time.Millisecond)

	events := rec.snapshot()
	for i, ev := range events {
		assert.Equal(t, EventStateUpdated, ev.Type)
		assert.Equal(t, "r1", ev.RoomID)
		assert.Equal(t, i+1, ev.State.RTVThreshold)
		if i > 0 {
			assert.Greater(t, ev.SequenceNo, events[i-1].SequenceNo)
		}
	}
}

func TestGateway_RoomScoping(t *testing.T) {
	g := NewGateway(0)
	defer g.Close()

	r1, r2, all := &recorder{}, &recorder{}, &recorder{}
	g.Subscribe("r1", r1)
	g.Subscribe("r2", r2)
	g.Subscribe("", all)

	g.Publish("r1", room.State{})
	g.NotifyRoomClosed("r2", "idle")

	require.Eventually(t, func() bool {
		return len(r1.snapshot()) == 1 && len(r2.snapshot()) == 1 && len(all.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, EventStateUpdated, r1.snapshot()[0].Type)
	closed := r2.snapshot()[0]
	assert.Equal(t, EventRoomClosed, closed.Type)
	assert.Equal(t, "idle", closed.Reason)
	assert.Nil(t, closed.State)

	assert.Equal(t, 3, g.SubscriberCount())
	assert.Equal(t, 1, g.RoomSubscriberCount("r1"))
}

func TestGateway_Unsubscribe(t *testing.T) {
	g := NewGateway(0)
	defer g.Close()

	rec := &recorder{}
	id := g.Subscribe("r1", rec)
	g.Unsubscribe(id)
	g.Unsubscribe(id)

	g.Publish("r1", room.State{})
	assert.Equal(t, 0, g.SubscriberCount())
	assert.Never(t, func() bool { return len(rec.snapshot()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestGateway_SendErrorDropsSubscriber(t *testing.T) {
	g := NewGateway(0)
	defer g.Close()

	g.Subscribe("r1", &recorder{err: errors.New("connection reset")})
	g.Publish("r1", room.State{})

	assert.Eventually(t, func() bool { return g.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestGateway_SlowSubscriberIsDropped(t *testing.T) {
	g := NewGateway(1)
	defer g.Close()

	slow := &recorder{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recorder{}
	g.Subscribe("r1", slow)
	g.Subscribe("r1", fast)

	for i := 0; i < 5; i++ {
		g.Publish("r1", room.State{})
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return g.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(fast.snapshot()) == 5 }, time.Second, 5*time.Millisecond)
}

func TestGateway_Close(t *testing.T) {
	g := NewGateway(0)
	g.Subscribe("r1", &recorder{})
	g.Subscribe("", StreamFunc(func(Event) error { return nil }))

	g.Close()
	assert.Equal(t, 0, g.SubscriberCount())
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "state_updated", EventStateUpdated.String())
	assert.Equal(t, "room_closed", EventRoomClosed.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestGateway_SubscribeWithStateDeliversInitialStateFirst(t *testing.T) {
	g := NewGateway(0)
	defer g.Close()

	rec := &recorder{}
	g.SubscribeWithState("r1", rec, room.State{RoomID: "r1", RTVThreshold: 7})
	g.Publish("r1", room.State{RoomID: "r1", RTVThreshold: 8})

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	events := rec.snapshot()
	assert.Equal(t, 7, events[0].State.RTVThreshold)
	assert.Equal(t, 8, events[1].State.RTVThreshold)
}
