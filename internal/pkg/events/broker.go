// Package events carries enrollment lifecycle notifications from the
// services to connected admin consoles. Events go through Redis pub/sub so
// every API instance sees them, then fan out to WebSocket clients via the Hub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EnrollmentChannel is the Redis pub/sub channel for enrollment events.
const EnrollmentChannel = "btrade:enrollments"

// Enrollment event actions.
const (
	ActionRegistered = "registered"
	ActionValidated  = "validated"
	ActionApproved   = "approved"
	ActionRejected   = "rejected"
)

// EnrollmentEvent describes a change to an enrollment that admin consoles
// should refresh for.
type EnrollmentEvent struct {
	Action       string    `json:"action"`
	EnrollmentID int64     `json:"enrollmentId"`
	CourseID     int64     `json:"courseId"`
	UserID       int64     `json:"userId"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Broker publishes and subscribes to enrollment events over Redis
type Broker struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewBroker creates a Broker on top of an existing Redis client
func NewBroker(client *redis.Client, logger zerolog.Logger) *Broker {
	return &Broker{
		client: client,
		logger: logger,
	}
}

// Publish sends an enrollment event to all subscribers. A publish failure is
// logged but does not fail the caller's operation.
func (b *Broker) Publish(ctx context.Context, event EnrollmentEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Str("action", event.Action).Msg("Failed to marshal enrollment event")
		return
	}

	if err := b.client.Publish(ctx, EnrollmentChannel, data).Err(); err != nil {
		b.logger.Error().
			Err(err).
			Str("action", event.Action).
			Int64("enrollmentID", event.EnrollmentID).
			Msg("Failed to publish enrollment event")
		return
	}

	b.logger.Debug().
		Str("action", event.Action).
		Int64("enrollmentID", event.EnrollmentID).
		Msg("Enrollment event published")
}

// Run subscribes to the enrollment channel and forwards each event to the
// hub until the context is cancelled. It is meant to run in its own goroutine.
func (b *Broker) Run(ctx context.Context, hub *Hub) error {
	sub := b.client.Subscribe(ctx, EnrollmentChannel)
	defer sub.Close()

	// Fail fast if the subscription could not be established
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EnrollmentChannel, err)
	}

	b.logger.Info().Str("channel", EnrollmentChannel).Msg("Enrollment event subscriber started")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Enrollment event subscriber stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event EnrollmentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Error().Err(err).Str("payload", msg.Payload).Msg("Failed to unmarshal enrollment event")
				continue
			}

			hub.BroadcastEvent(&event)
		}
	}
}
