package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/geometry"
	"github.com/oyvstu/vegplan/internal/core/ports"
	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// PlanService handles traffic-plan CRUD and the update events the
// realtime relay fans out to connected clients.
type PlanService struct {
	plans  ports.PlanRepository
	cache  ports.CacheService
	events ports.EventPublisher
}

// NewPlanService creates a new PlanService.
func NewPlanService(plans ports.PlanRepository, cache ports.CacheService, events ports.EventPublisher) *PlanService {
	return &PlanService{plans: plans, cache: cache, events: events}
}

// Create persists a new plan and publishes its first update event.
func (s *PlanService) Create(ctx context.Context, plan *domain.Plan) error {
	if plan.Name == "" {
		return fmt.Errorf("plan name must not be empty")
	}

	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if err := s.plans.Create(ctx, plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishPlanUpdated(ctx, plan)
	}
	return nil
}

// GetByID returns a single plan.
func (s *PlanService) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	cacheKey := "plans:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var plan domain.Plan
			if err := json.Unmarshal(data, &plan); err == nil {
				metrics.CacheHits.WithLabelValues("plan_get").Inc()
				return &plan, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("plan_get").Inc()
	}

	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(plan); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return plan, nil
}

// List returns plans ordered by last update, newest first.
func (s *PlanService) List(ctx context.Context, limit, offset int) ([]domain.Plan, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.plans.List(ctx, limit, offset)
}

// Update replaces a plan's contents. The cache entry is dropped before
// the update event goes out so subscribers that read back get the new
// version.
func (s *PlanService) Update(ctx context.Context, plan *domain.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan id must not be empty")
	}

	plan.UpdatedAt = time.Now().UTC()

	if err := s.plans.Update(ctx, plan); err != nil {
		return fmt.Errorf("update plan %s: %w", plan.ID, err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "plans:id:"+plan.ID)
	}
	if s.events != nil {
		_ = s.events.PublishPlanUpdated(ctx, plan)
	}
	return nil
}

// Delete removes a plan.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "plans:id:"+id)
	}
	return nil
}

// Invalidate drops a plan's cache entry. Used when another instance
// publishes an update for a plan this instance may have cached.
func (s *PlanService) Invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, "plans:id:"+id)
}

// LegacyCenterline flattens road geometry that older plans stored as raw
// GeoJSON instead of a sequence reference. Nil when the stored shape
// carries no line geometry.
func (s *PlanService) LegacyCenterline(raw []byte) *domain.Centerline {
	verts := geometry.FlattenGeoJSON(raw)
	if len(verts) < 2 {
		return nil
	}
	return &domain.Centerline{Vertices: verts, Length: geometry.LineLength(verts)}
}
