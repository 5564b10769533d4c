package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// Consumer feeds remote settlement snapshots into the reconciliation store.
type Consumer struct {
	store        *Store
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds a snapshot consumer.
func NewConsumer(store *Store, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if store == nil {
		return nil, fmt.Errorf("reconciliation store required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("settlements subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{store: store, subscription: subscription, logg: logg}, nil
}

// Run processes snapshots until the context is canceled. Every message is
// acked: decode and apply failures are permanent for a given document, so
// redelivery could only replay the same failure.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		c.process(ctx, msg)
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id":    msg.ID,
		"restaurant_id": msg.Attributes["restaurant_id"],
	})

	var doc Document
	if err := json.Unmarshal(msg.Data, &doc); err != nil {
		// A malformed document degrades one restaurant's view, never the
		// whole projection.
		c.logg.Error(logCtx, "failed to decode settlement snapshot", err)
		return
	}

	if err := c.store.ApplySnapshot(ctx, doc); err != nil {
		c.logg.Error(logCtx, "failed to apply settlement snapshot", err)
	}
}
