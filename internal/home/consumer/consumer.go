package consumer

import (
	"context"
	"errors"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

type refresher interface {
	RefreshSnapshot(ctx context.Context) (int, error)
}

// Consumer refreshes the home snapshot whenever the catalog reports a change.
type Consumer struct {
	home         refresher
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer constructs a consumer that watches the catalog subscription.
func NewConsumer(home refresher, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if home == nil {
		return nil, errors.New("home service is required")
	}
	if subscription == nil {
		return nil, errors.New("catalog subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		home:         home,
		subscription: subscription,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	attrs := parseAttributes(msg.Attributes)
	logCtx := c.logg.WithFields(ctx, buildLogFields(msg.ID, attrs))

	if !attrs.EventType.TriggersRefresh() {
		c.logg.Info(logCtx, "skipping catalog event")
		return processResult{ack: true}
	}

	started := c.now()
	count, err := c.home.RefreshSnapshot(ctx)
	if err != nil {
		c.logg.Error(logCtx, "home snapshot refresh failed", err)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"product_count": count,
		"duration_ms":   c.now().Sub(started).Milliseconds(),
	})
	c.logg.Info(logCtx, "home snapshot refreshed")
	return processResult{ack: true}
}

type catalogAttributes struct {
	EventType enums.CatalogEventType
	EntityID  string
}

func parseAttributes(attrs map[string]string) catalogAttributes {
	return catalogAttributes{
		EventType: enums.CatalogEventType(strings.ToLower(strings.TrimSpace(attrs["event_type"]))),
		EntityID:  strings.TrimSpace(attrs["entity_id"]),
	}
}

func buildLogFields(messageID string, attrs catalogAttributes) map[string]any {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": attrs.EventType.String(),
	}
	if attrs.EntityID != "" {
		fields["entity_id"] = attrs.EntityID
	}
	return fields
}
