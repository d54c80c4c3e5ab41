package ports

import (
	"context"

	"github.com/oyvstu/vegplan/internal/core/domain"
)

// RoadSource resolves geographic points to road sequences with link
// geometry. The production implementation talks to the national road
// database's REST API.
type RoadSource interface {
	// LookupByPoint returns the road sequence nearest to the given
	// geographic point, searching within radiusMeters.
	LookupByPoint(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error)

	// LookupByReference resolves a textual road reference (e.g. "FV120")
	// to its sequence.
	LookupByReference(ctx context.Context, ref string) (*domain.RoadSequence, error)
}

// PlanRepository persists traffic plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) error
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	List(ctx context.Context, limit, offset int) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	Delete(ctx context.Context, id string) error
}
