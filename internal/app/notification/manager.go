// Package notification provides the broadcast gateway that fans room events
// out to subscribers.
package notification

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// DefaultBufferSize is the number of events a subscriber may lag behind
// before it is dropped.
const DefaultBufferSize = 64

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(Event) error
}

// StreamFunc adapts a function to Stream.
type StreamFunc func(Event) error

// Send calls f(ev).
func (f StreamFunc) Send(ev Event) error { return f(ev) }

// subscription represents a subscriber's subscription. Events are delivered
// by a dedicated goroutine in enqueue order.
type subscription struct {
	id     string
	roomID string // "" receives every room
	stream Stream
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Gateway manages subscriptions and broadcasting.
type Gateway struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	bufferSize    int
}

// NewGateway creates a new gateway. bufferSize <= 0 selects DefaultBufferSize.
func NewGateway(bufferSize int) *Gateway {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Gateway{
		subscriptions: make(map[string]*subscription),
		bufferSize:    bufferSize,
	}
}

// Subscribe adds a new subscription for roomID ("" for all rooms) and
// returns the subscription ID.
func (g *Gateway) Subscribe(roomID string, stream Stream) string {
	return g.subscribe(roomID, stream, nil)
}

// SubscribeWithState subscribes to one room and delivers state as the first
// event. Callers hold the room's lock so no update can slip in between.
func (g *Gateway) SubscribeWithState(roomID string, stream Stream, state room.State) string {
	return g.subscribe(roomID, stream, &Event{Type: EventStateUpdated, RoomID: roomID, State: &state})
}

func (g *Gateway) subscribe(roomID string, stream Stream, initial *Event) string {
	sub := &subscription{
		id:     uuid.New().String(),
		roomID: roomID,
		stream: stream,
		queue:  make(chan Event, g.bufferSize),
		done:   make(chan struct{}),
	}

	g.mu.Lock()
	if initial != nil {
		g.sequenceNo++
		initial.SequenceNo = g.sequenceNo
		sub.queue <- *initial
	}
	g.subscriptions[sub.id] = sub
	g.mu.Unlock()

	go g.deliver(sub)
	return sub.id
}

// deliver drains the subscriber's queue until it is stopped or a send fails.
func (g *Gateway) deliver(sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.queue:
			if err := sub.stream.Send(ev); err != nil {
				zlog.Debug().Msgf("dropping subscriber after send error: subscription_id=%s room_id=%s error=%v",
					sub.id, sub.roomID, err)
				g.Unsubscribe(sub.id)
				return
			}
		}
	}
}

// Unsubscribe removes a subscription.
func (g *Gateway) Unsubscribe(subscriptionID string) {
	g.mu.Lock()
	sub, ok := g.subscriptions[subscriptionID]
	delete(g.subscriptions, subscriptionID)
	g.mu.Unlock()

	if ok {
		sub.stop()
	}
}

// Publish sends the room's sanitized state to the room's subscribers.
func (g *Gateway) Publish(roomID string, state room.State) {
	g.broadcast(Event{Type: EventStateUpdated, RoomID: roomID, State: &state})
}

// NotifyRoomClosed tells the room's subscribers that the room is gone.
func (g *Gateway) NotifyRoomClosed(roomID, reason string) {
	g.broadcast(Event{Type: EventRoomClosed, RoomID: roomID, Reason: reason})
}

// broadcast never blocks: a subscriber whose queue is full is dropped, so
// no subscriber ever observes a gap or reordering.
func (g *Gateway) broadcast(ev Event) {
	var slow []string

	g.mu.Lock()
	g.sequenceNo++
	ev.SequenceNo = g.sequenceNo
	for id, sub := range g.subscriptions {
		if sub.roomID != "" && sub.roomID != ev.RoomID {
			continue
		}
		select {
		case sub.queue <- ev:
		default:
			slow = append(slow, id)
		}
	}
	g.mu.Unlock()

	for _, id := range slow {
		zlog.Warn().Msgf("dropping slow subscriber: subscription_id=%s room_id=%s", id, ev.RoomID)
		g.Unsubscribe(id)
	}
}

// SubscriberCount returns the number of active subscribers.
func (g *Gateway) SubscriberCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subscriptions)
}

// RoomSubscriberCount returns the number of subscribers of one room.
func (g *Gateway) RoomSubscriberCount(roomID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, sub := range g.subscriptions {
		if sub.roomID == roomID {
			n++
		}
	}
	return n
}

// Close closes the gateway and removes all subscriptions.
func (g *Gateway) Close() {
	g.mu.Lock()
	subs := g.subscriptions
	g.subscriptions = make(map[string]*subscription)
	g.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}
