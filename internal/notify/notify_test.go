package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPublisherNeverErrors(t *testing.T) {
	p := LogPublisher{}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), Event{Type: EventRunSummary, Timestamp: time.Now()})
	})
}

func TestHTTPPublisherDeliversToWebhook(t *testing.T) {
	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		received <- e
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewHTTPPublisher(server.URL, nil)
	p.Publish(context.Background(), Event{Type: EventManualSchedule, Timestamp: time.Now()})

	select {
	case e := <-received:
		assert.Equal(t, EventManualSchedule, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestHTTPPublisherFallsBackOnFailure(t *testing.T) {
	p := NewHTTPPublisher("http://127.0.0.1:0/unreachable", nil)
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), Event{Type: EventRunSummary, Timestamp: time.Now()})
	})
}
