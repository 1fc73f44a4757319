// Package invalidate fans out the views touched by a mutation over Redis
// pub/sub, one channel per user.
package invalidate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Event struct {
	UserID   uuid.UUID       `json:"user_id"`
	Affected []crm.EntityRef `json:"affected"`
	At       time.Time       `json:"at"`
}

func Channel(userID uuid.UUID) string {
	return "crm:invalidate:" + userID.String()
}

type Publisher struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger, now: time.Now}
}

// Publish sends the affected set to the user's channel. Delivery is best
// effort: failures are logged and the mutation still counts as done.
func (p *Publisher) Publish(ctx context.Context, userID uuid.UUID, affected []crm.EntityRef) {
	if len(affected) == 0 {
		return
	}
	payload, err := json.Marshal(Event{UserID: userID, Affected: affected, At: p.now().UTC()})
	if err != nil {
		p.logger.Error("failed to encode invalidation", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		p.logger.Warn("failed to publish invalidation",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

// Subscription delivers a user's invalidation events until Close is
// called or the context passed to Subscribe is cancelled.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Close() error { return s.pubsub.Close() }

// Subscribe waits for Redis to confirm the subscription before
// returning, so no event published afterwards is missed.
func (p *Publisher) Subscribe(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	pubsub := p.client.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &Subscription{pubsub: pubsub, events: make(chan Event, 16)}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.Warn("dropping malformed invalidation", zap.Error(err))
				continue
			}
			select {
			case sub.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}
