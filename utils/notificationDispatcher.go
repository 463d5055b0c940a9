package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"lms/events"

	"github.com/go-resty/resty/v2"
)

// NotificationDispatcher forwards attempt events to an external webhook.
// The event ID travels as Idempotency-Key so receivers can drop redeliveries.
type NotificationDispatcher struct {
	url    string
	client *resty.Client
}

// NotificationPayload is the JSON body posted to the webhook
type NotificationPayload struct {
	Event      string       `json:"event"`
	EventID    string       `json:"event_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Data       events.Event `json:"data"`
}

func NewNotificationDispatcher(url string, timeout time.Duration) *NotificationDispatcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json")

	return &NotificationDispatcher{url: url, client: client}
}

// Deliver posts evt to the webhook. Without a URL the event is only logged.
func (d *NotificationDispatcher) Deliver(ctx context.Context, evt events.Event) error {
	if d.url == "" {
		log.Printf("[NOTIFY] %s event_id=%s (no webhook configured)", evt.Name(), evt.EventID())
		return nil
	}

	payload := NotificationPayload{
		Event:      evt.Name(),
		EventID:    evt.EventID().String(),
		OccurredAt: occurredAt(evt),
		Data:       evt,
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", payload.EventID).
		SetBody(payload).
		Post(d.url)
	if err != nil {
		return fmt.Errorf("post %s: %w", evt.Name(), err)
	}
	if resp.IsError() {
		return fmt.Errorf("post %s: webhook responded %d", evt.Name(), resp.StatusCode())
	}

	log.Printf("[NOTIFY] %s event_id=%s delivered", evt.Name(), payload.EventID)
	return nil
}

// Handle is the events.Handler wrapper around Deliver.
func (d *NotificationDispatcher) Handle(ctx context.Context, evt events.Event) {
	if err := d.Deliver(ctx, evt); err != nil {
		log.Printf("[NOTIFY] delivery failed: %v", err)
	}
}

func occurredAt(evt events.Event) time.Time {
	switch e := evt.(type) {
	case events.AttemptSubmitted:
		return e.OccurredAt
	case events.AttemptGraded:
		return e.OccurredAt
	case events.EnrollmentCompleted:
		return e.OccurredAt
	}
	return time.Now()
}
