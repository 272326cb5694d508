package ports

import (
	"context"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// EventPublisher publishes footprint events to a message broker.
type EventPublisher interface {
	PublishFootprint(ctx context.Context, rec *domain.FootprintRecord) error
	PublishFootprintRequest(ctx context.Context, req *domain.FootprintRequest) error
}

// EventSubscriber subscribes to footprint events from a message broker.
type EventSubscriber interface {
	SubscribeFootprintRequests(ctx context.Context, handler func(ctx context.Context, req *domain.FootprintRequest) error) error
}

// CacheService provides read-through caching. Get returns an error on a miss.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
