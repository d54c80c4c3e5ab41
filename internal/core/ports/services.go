package ports

import (
	"context"

	"github.com/oyvstu/vegplan/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRoadSelected(ctx context.Context, sessionID string, sel *domain.RoadSelection) error
	PublishPlanUpdated(ctx context.Context, plan *domain.Plan) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePlanUpdates(ctx context.Context, handler func(ctx context.Context, plan *domain.Plan) error) error
	SubscribeRoadSelections(ctx context.Context, handler func(ctx context.Context, sessionID string, sel *domain.RoadSelection) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
