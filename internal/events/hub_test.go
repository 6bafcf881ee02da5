package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(bufSize int) *Hub {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return NewHub(bufSize, logger)
}

// recvEvent reads one event or fails the test after a timeout so a broken
// hub never hangs the suite.
func recvEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev := <-sub.C():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribe_ConnectedAckIsFirst(t *testing.T) {
	hub := newTestHub(16)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	ev := recvEvent(t, sub)
	assert.Equal(t, EventConnected, ev.Name)
	assert.JSONEq(t, `"ok"`, string(ev.Data))
	assert.Equal(t, 1, hub.ActiveCount())
}

func TestPublish_FansOutToAllSubscribers(t *testing.T) {
	hub := newTestHub(16)

	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = hub.Subscribe()
		recvEvent(t, subs[i]) // drain the connected ack
	}
	require.Equal(t, 3, hub.ActiveCount())

	hub.Publish(EventIncidentCreated, map[string]string{"id": "abc"})

	for _, sub := range subs {
		ev := recvEvent(t, sub)
		assert.Equal(t, EventIncidentCreated, ev.Name)
		assert.JSONEq(t, `{"id":"abc"}`, string(ev.Data))
	}
}

func TestPublish_EvictsOnlyUnresponsiveSubscribers(t *testing.T) {
	// Buffer of one: the connected ack fills a subscriber that never reads.
	hub := newTestHub(1)

	stuck := hub.Subscribe()
	healthy := hub.Subscribe()
	recvEvent(t, healthy)
	require.Equal(t, 2, hub.ActiveCount())

	hub.Publish(EventIncidentUpdated, map[string]int{"n": 1})

	// The stuck subscriber is gone, the healthy one got the event.
	select {
	case <-stuck.Done():
	case <-time.After(time.Second):
		t.Fatal("stuck subscriber was not evicted")
	}
	assert.Equal(t, 1, hub.ActiveCount())

	ev := recvEvent(t, healthy)
	assert.Equal(t, EventIncidentUpdated, ev.Name)
}

func TestSubscribe_RejectsZeroCapacityGracefully(t *testing.T) {
	// A non-positive buffer size falls back to the default, so the welcome
	// message always fits.
	hub := newTestHub(0)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	ev := recvEvent(t, sub)
	assert.Equal(t, EventConnected, ev.Name)
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	hub := newTestHub(16)

	sub := hub.Subscribe()
	recvEvent(t, sub)

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)

	assert.Equal(t, 0, hub.ActiveCount())
	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed after unsubscribe")
	}
}

func TestHeartbeat_CarriesEpochMillis(t *testing.T) {
	hub := newTestHub(16)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	recvEvent(t, sub)

	before := time.Now().UnixMilli()
	hub.Heartbeat()
	after := time.Now().UnixMilli()

	ev := recvEvent(t, sub)
	require.Equal(t, EventHeartbeat, ev.Name)

	var ts int64
	require.NoError(t, json.Unmarshal(ev.Data, &ts))
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestStartHeartbeat_StopsOnContextCancel(t *testing.T) {
	hub := newTestHub(16)
	ctx, cancel := context.WithCancel(context.Background())

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	recvEvent(t, sub)

	hub.StartHeartbeat(ctx, 10*time.Millisecond)

	ev := recvEvent(t, sub)
	assert.Equal(t, EventHeartbeat, ev.Name)

	cancel()
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	hub := newTestHub(64)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe()
			recvEvent(t, sub)
			hub.Unsubscribe(sub)
		}()
		go func(n int) {
			defer wg.Done()
			hub.Publish(EventIncidentCreated, map[string]int{"n": n})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ActiveCount())
	// The hub must stay usable after churn.
	sub := hub.Subscribe()
	ev := recvEvent(t, sub)
	assert.Equal(t, EventConnected, ev.Name)
	hub.Unsubscribe(sub)
}
