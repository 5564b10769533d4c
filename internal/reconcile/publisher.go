package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/arjnair/dineflow-backend/pkg/logger"
)

// Publisher announces local settlement changes to the other administrative
// sessions as full-document snapshots.
type Publisher struct {
	publisher *pubsub.Publisher
	logg      *logger.Logger
}

// NewPublisher builds a snapshot publisher.
func NewPublisher(publisher *pubsub.Publisher, logg *logger.Logger) (*Publisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("settlements publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Publisher{publisher: publisher, logg: logg}, nil
}

// Publish sends one restaurant's full settlement snapshot.
func (p *Publisher) Publish(ctx context.Context, state State) error {
	doc := Denormalize(state)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"restaurant_id": doc.RestaurantID,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	ctx = p.logg.WithRestaurantID(ctx, doc.RestaurantID)
	p.logg.Info(ctx, "settlement snapshot published")
	return nil
}
