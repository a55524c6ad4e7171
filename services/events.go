package services

import (
	"context"
	"encoding/json"
	"time"

	"catalog-service/common/logger"
	awspkg "catalog-service/pkg/aws"

	"go.uber.org/zap"
)

// Catalog change events.
const (
	EventProductCreated      = "product.created"
	EventProductUpdated      = "product.updated"
	EventProductDeleted      = "product.deleted"
	EventProductsBulkCreated = "products.bulk_created"
)

// CatalogEvent is the message body published for every catalog change.
type CatalogEvent struct {
	Type       string    `json:"type"`
	ProductIDs []string  `json:"productIds"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher announces catalog changes. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, productIDs ...string)
}

type snsEventPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
}

// NewEventPublisher returns a publisher for topicArn. Without a client or a
// topic events are dropped.
func NewEventPublisher(client awspkg.SNSPublisher, topicArn string, logger *zap.Logger) EventPublisher {
	if client == nil || topicArn == "" {
		return noopPublisher{}
	}
	return &snsEventPublisher{client: client, topicArn: topicArn, logger: logger}
}

func (p *snsEventPublisher) Publish(ctx context.Context, eventType string, productIDs ...string) {
	body, err := json.Marshal(CatalogEvent{
		Type:       eventType,
		ProductIDs: productIDs,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, p.topicArn, body); err != nil {
		logger.FromContext(ctx, p.logger).Warn("Failed to publish catalog event",
			zap.String("event", eventType), zap.Error(err))
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, ...string) {}
