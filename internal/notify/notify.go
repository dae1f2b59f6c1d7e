// Package notify publishes post-run summaries and manual-schedule events
// to an external notification system; delivery failures are logged and
// never abort the core operation. The interface shape mirrors
// internal/routing's Client — one narrow interface, one HTTP
// implementation, one log-only fallback that never returns an error up
// to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// EventType distinguishes the two kinds of events the publisher emits.
type EventType string

const (
	EventRunSummary      EventType = "run_summary"
	EventManualSchedule   EventType = "manual_schedule"
)

// Event is the payload handed to a Publisher.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RunSummary is the payload of an EventRunSummary event.
type RunSummary struct {
	CareReceiverIDs []string `json:"care_receiver_ids"`
	Scheduled       int      `json:"scheduled"`
	Failed          int      `json:"failed"`
}

// ManualSchedule is the payload of an EventManualSchedule event, emitted
// when an operator schedules or reassigns a visit by hand.
type ManualSchedule struct {
	AppointmentID string `json:"appointment_id"`
	ActorID       string `json:"actor_id"`
	Action        string `json:"action"`
}

// Publisher emits an Event to whatever downstream fan-out the
// surrounding system provides (admin UI, websockets). Publish never
// returns an error the caller must act on — a Publisher that can fail
// is expected to log and swallow rather than degrade notification
// delivery into the caller's error path.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// LogPublisher logs every event and never reaches a network. It is the
// zero-configuration Publisher and the landing point of every delivery
// failure in HTTPPublisher.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) Publish(_ context.Context, event Event) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notification",
		zap.String("type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	)
}

// HTTPPublisher POSTs events as JSON to a webhook URL, falling back to
// LogPublisher on any delivery failure.
type HTTPPublisher struct {
	URL      string
	HTTP     *http.Client
	Logger   *zap.Logger
	fallback Publisher
}

// NewHTTPPublisher builds an HTTPPublisher posting to url.
func NewHTTPPublisher(url string, logger *zap.Logger) *HTTPPublisher {
	return &HTTPPublisher{
		URL:      url,
		HTTP:     &http.Client{Timeout: 5 * time.Second},
		Logger:   logger,
		fallback: LogPublisher{Logger: logger},
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, event Event) {
	if err := p.deliver(ctx, event); err != nil {
		logger := p.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("notification delivery failed, logging instead",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		p.fallback.Publish(ctx, event)
	}
}

func (p *HTTPPublisher) deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NewDefault returns an HTTPPublisher when url is non-empty, otherwise a
// LogPublisher.
func NewDefault(url string, logger *zap.Logger) Publisher {
	if url == "" {
		return LogPublisher{Logger: logger}
	}
	return NewHTTPPublisher(url, logger)
}
