package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

type stubRefresher struct {
	calls int
	count int
	err   error
}

func (s *stubRefresher) RefreshSnapshot(ctx context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestConsumer(home refresher) *Consumer {
	return &Consumer{home: home, logg: logger.Nop(), now: fixedClock()}
}

func buildMessage(eventType string) *pubsub.Message {
	return &pubsub.Message{
		ID: "msg-1",
		Attributes: map[string]string{
			"event_type": eventType,
			"entity_id":  "4b6f2c1e-0000-4000-8000-000000000001",
		},
	}
}

func TestProcessRefreshesOnCatalogChange(t *testing.T) {
	t.Parallel()

	for _, eventType := range []string{"product.created", "product.updated", "product.deleted", "delivery_zone.updated", "market_stand.updated", " Product.Updated "} {
		home := &stubRefresher{count: 4}
		c := newTestConsumer(home)

		result := c.process(context.Background(), buildMessage(eventType))
		if !result.ack || result.nack {
			t.Fatalf("%s: expected ack, got %+v", eventType, result)
		}
		if home.calls != 1 {
			t.Fatalf("%s: expected one refresh, got %d", eventType, home.calls)
		}
	}
}

func TestProcessSkipsUnknownEvents(t *testing.T) {
	t.Parallel()

	home := &stubRefresher{}
	c := newTestConsumer(home)

	for _, eventType := range []string{"", "farm.updated", "order.created"} {
		result := c.process(context.Background(), buildMessage(eventType))
		if !result.ack {
			t.Fatalf("%q: expected ack", eventType)
		}
	}
	if home.calls != 0 {
		t.Fatalf("expected no refresh, got %d", home.calls)
	}
}

func TestProcessNacksOnRefreshFailure(t *testing.T) {
	t.Parallel()

	home := &stubRefresher{err: errors.New("redis unavailable")}
	c := newTestConsumer(home)

	result := c.process(context.Background(), buildMessage("product.updated"))
	if !result.nack || result.ack {
		t.Fatalf("expected nack, got %+v", result)
	}
}

func TestNewConsumerValidatesDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewConsumer(nil, nil, logger.Nop()); err == nil {
		t.Fatal("expected error for missing home service")
	}
	if _, err := NewConsumer(&stubRefresher{}, nil, logger.Nop()); err == nil {
		t.Fatal("expected error for missing subscription")
	}
}
