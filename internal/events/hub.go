package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event names pushed over the live stream.
const (
	EventConnected       = "connected"
	EventHeartbeat       = "heartbeat"
	EventIncidentCreated = "incident-created"
	EventIncidentUpdated = "incident-updated"
	EventIncidentDeleted = "incident-deleted"
	EventMessageCreated  = "message-created"
)

// Event is a named frame with an already-serialized payload. The payload
// is marshaled once per Publish call, not once per subscriber.
type Event struct {
	Name string
	Data json.RawMessage
}

// Publisher is the write side of the hub, consumed by anything that
// announces a state change.
type Publisher interface {
	Publish(event string, payload any)
}

// Subscriber is a live connection handle. Events arrive on C; Done is
// closed when the hub evicts the subscriber (failed delivery or explicit
// Unsubscribe). The subscriber carries no identity: authorization happens
// before anything reaches the hub.
type Subscriber struct {
	id   uuid.UUID
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// C is the event delivery channel.
func (s *Subscriber) C() <-chan Event { return s.ch }

// Done is closed once the subscriber has been removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// trySend attempts a non-blocking delivery. A full buffer means the
// subscriber cannot keep up and counts as a failed delivery.
func (s *Subscriber) trySend(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans out named events to every live subscriber. It owns the only
// shared mutable state in the streaming path: the subscriber set. One hub
// instance is constructed at service start and passed explicitly to
// everything that publishes.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*Subscriber
	bufSize int
	logger  *logrus.Logger
}

func NewHub(bufSize int, logger *logrus.Logger) *Hub {
	if bufSize < 1 {
		bufSize = 16
	}
	return &Hub{
		subs:    make(map[uuid.UUID]*Subscriber),
		bufSize: bufSize,
		logger:  logger,
	}
}

// Subscribe registers a new subscriber and immediately pushes the
// "connected" acknowledgement. A subscriber that cannot take even its
// welcome message is closed before it ever joins the set.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		id:   uuid.New(),
		ch:   make(chan Event, h.bufSize),
		done: make(chan struct{}),
	}

	if !s.trySend(Event{Name: EventConnected, Data: json.RawMessage(`"ok"`)}) {
		s.close()
		return s
	}

	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()

	h.logger.WithField("subscriber_id", s.id).Debug("Subscriber registered")
	return s
}

// Unsubscribe removes the subscriber. Removing an already-removed handle
// is a no-op.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	h.remove(s)
}

// Publish serializes payload once and attempts delivery to every current
// subscriber. Failed subscribers are evicted; a failure never aborts
// delivery to the others and never propagates to the caller.
func (h *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Error("Failed to marshal event payload")
		return
	}
	h.broadcast(Event{Name: event, Data: data})
}

// Heartbeat pushes a liveness ping carrying the current epoch millis.
// It exists purely to keep idle connections alive through intermediaries
// and uses the same failure-cleanup rule as Publish.
func (h *Hub) Heartbeat() {
	ts, _ := json.Marshal(time.Now().UnixMilli())
	h.broadcast(Event{Name: EventHeartbeat, Data: ts})
}

// StartHeartbeat runs Heartbeat on a fixed period until ctx is canceled.
func (h *Hub) StartHeartbeat(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.logger.Info("Stopping event hub heartbeat")
				return
			case <-ticker.C:
				h.Heartbeat()
			}
		}
	}()
}

// ActiveCount returns the current number of live subscribers.
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// broadcast snapshots the subscriber set, then sends without holding the
// lock so an iteration in progress never blocks new subscriptions.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	snapshot := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	var dead []*Subscriber
	for _, s := range snapshot {
		if !s.trySend(ev) {
			dead = append(dead, s)
		}
	}
	for _, s := range dead {
		h.logger.WithFields(logrus.Fields{
			"subscriber_id": s.id,
			"event":         ev.Name,
		}).Warn("Dropping unresponsive subscriber")
		h.remove(s)
	}
}

// remove deletes the subscriber from the set and closes its done channel.
// The map check plus sync.Once make concurrent removals safe: no double
// close, no use of a removed handle.
func (h *Hub) remove(s *Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.id)
	h.mu.Unlock()
	s.close()
}
