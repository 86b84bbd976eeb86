// Package events provides a per-user publish/subscribe broker for
// real-time dashboard updates. Events fan out over Redis pub/sub so
// every connected client of a user receives them, regardless of which
// server instance holds the connection.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published by the CRUD handlers and the recurrence worker
const (
	ActivityCreated   = "activity.created"
	ActivityUpdated   = "activity.updated"
	ActivityDeleted   = "activity.deleted"
	TemplateGenerated = "template.generated"
	SpecSelected      = "spec.selected"
)

// Event is a single notification pushed to a user's event stream
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	At   time.Time       `json:"at"`
}

// Broker publishes and subscribes to per-user event channels
type Broker struct {
	client *redis.Client
}

// NewBroker connects to Redis and returns a broker
func NewBroker(address, password string, db int) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Broker{client: client}, nil
}

func channelFor(userID string) string {
	return "events:user:" + userID
}

// Publish sends an event to every subscriber of the user's channel.
// Payload marshalling failures are logged, not propagated: event
// delivery is best-effort and must never fail the originating request.
func (b *Broker) Publish(ctx context.Context, userID, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal event payload", "type", eventType, "error", err)
		return
	}

	ev := Event{Type: eventType, Data: data, At: time.Now().UTC()}
	message, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	if err := b.client.Publish(ctx, channelFor(userID), message).Err(); err != nil {
		slog.Warn("failed to publish event", "type", eventType, "user", userID, "error", err)
		return
	}

	slog.Debug("event published", "type", eventType, "user", userID)
}

// Subscribe registers for a user's events. The returned channel closes
// when ctx is cancelled or unsubscribe is called.
func (b *Broker) Subscribe(ctx context.Context, userID string) (<-chan Event, func()) {
	pubsub := b.client.Subscribe(ctx, channelFor(userID))
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Debug("dropping malformed event", "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
					// Slow consumer; drop rather than block the reader
					slog.Debug("dropping event for slow subscriber", "user", userID, "type", ev.Type)
				}
			}
		}
	}()

	unsubscribe := func() {
		if err := pubsub.Close(); err != nil {
			slog.Debug("pubsub close error", "error", err)
		}
	}

	return out, unsubscribe
}

// HealthCheck verifies Redis connectivity
func (b *Broker) HealthCheck(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (b *Broker) Close() error {
	return b.client.Close()
}
