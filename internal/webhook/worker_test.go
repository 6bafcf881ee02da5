package webhook

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wittawat/incident_map_system/internal/config"
)

func newTestWorker(cfg *config.Config) *AlertWorker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return NewAlertWorker(nil, logger, cfg)
}

func TestSignHMACSHA256_Deterministic(t *testing.T) {
	sig := signHMACSHA256(`{"a":1}`, "secret")

	assert.Len(t, sig, 64) // hex-encoded sha256
	assert.Equal(t, sig, signHMACSHA256(`{"a":1}`, "secret"))
	assert.NotEqual(t, sig, signHMACSHA256(`{"a":1}`, "other-secret"))
	assert.NotEqual(t, sig, signHMACSHA256(`{"a":2}`, "secret"))
}

func TestDeliver_SignsAndPosts(t *testing.T) {
	payload := `{"incident_id":"x","severity":"urgent"}`

	var gotBody string
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	worker := newTestWorker(&config.Config{
		WebhookURL:        server.URL,
		WebhookSecret:     "secret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	})

	worker.deliver(context.Background(), AlertEvent{IncidentID: uuid.New(), Severity: "urgent"}, payload)

	assert.Equal(t, payload, gotBody)
	assert.Equal(t, signHMACSHA256(payload, "secret"), gotSignature)
}

func TestDeliver_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	worker := newTestWorker(&config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	})

	worker.deliver(context.Background(), AlertEvent{IncidentID: uuid.New()}, `{}`)

	assert.Equal(t, int32(2), calls.Load())
}

func TestDeliver_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	worker := newTestWorker(&config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 2,
		WebhookBaseDelay:  time.Millisecond,
	})

	worker.deliver(context.Background(), AlertEvent{IncidentID: uuid.New()}, `{}`)

	assert.Equal(t, int32(2), calls.Load())
}

func TestDeliver_SkipsWithoutURL(t *testing.T) {
	worker := newTestWorker(&config.Config{
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	})

	// Must return without panicking or dialing anywhere.
	require.NotPanics(t, func() {
		worker.deliver(context.Background(), AlertEvent{IncidentID: uuid.New()}, `{}`)
	})
}

func TestDeliver_NoSignatureWithoutSecret(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	worker := newTestWorker(&config.Config{
		WebhookURL:        server.URL,
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 1,
		WebhookBaseDelay:  time.Millisecond,
	})

	worker.deliver(context.Background(), AlertEvent{IncidentID: uuid.New()}, `{}`)

	assert.Empty(t, gotSignature)
}
