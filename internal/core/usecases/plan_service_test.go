package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/usecases"
)

// --- Mock PlanRepository ---

type mockPlanRepo struct {
	createFn  func(ctx context.Context, plan *domain.Plan) error
	getByIDFn func(ctx context.Context, id string) (*domain.Plan, error)
	listFn    func(ctx context.Context, limit, offset int) ([]domain.Plan, error)
	updateFn  func(ctx context.Context, plan *domain.Plan) error
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	if m.createFn != nil {
		return m.createFn(ctx, plan)
	}
	return nil
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockPlanRepo) List(ctx context.Context, limit, offset int) ([]domain.Plan, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockPlanRepo) Update(ctx context.Context, plan *domain.Plan) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, plan)
	}
	return nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func TestPlanService_Create(t *testing.T) {
	var created *domain.Plan
	repo := &mockPlanRepo{
		createFn: func(ctx context.Context, plan *domain.Plan) error {
			created = plan
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewPlanService(repo, nil, pub)

	plan := &domain.Plan{ID: "p1", Name: "Graving FV120", RoadRef: "FV120"}
	if err := svc.Create(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("repository was not called")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps should be set on create")
	}
	if len(pub.planUpdated) != 1 || pub.planUpdated[0] != "p1" {
		t.Errorf("expected one plan.updated event for p1, got %v", pub.planUpdated)
	}
}

func TestPlanService_CreateRequiresName(t *testing.T) {
	svc := usecases.NewPlanService(&mockPlanRepo{}, nil, nil)
	if err := svc.Create(context.Background(), &domain.Plan{ID: "p1"}); err == nil {
		t.Fatal("expected an error for empty name")
	}
}

func TestPlanService_GetByID_CachesResult(t *testing.T) {
	calls := 0
	repo := &mockPlanRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Plan, error) {
			calls++
			return &domain.Plan{ID: id, Name: "Graving FV120"}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewPlanService(repo, cache, nil)

	for i := 0; i < 2; i++ {
		plan, err := svc.GetByID(context.Background(), "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Name != "Graving FV120" {
			t.Errorf("unexpected plan %+v", plan)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
}

func TestPlanService_Update_InvalidatesCacheAndPublishes(t *testing.T) {
	repo := &mockPlanRepo{}
	cache := newMockCache()
	cache.data["plans:id:p1"] = []byte(`{"id":"p1","name":"stale"}`)
	pub := &mockPublisher{}
	svc := usecases.NewPlanService(repo, cache, pub)

	plan := &domain.Plan{ID: "p1", Name: "Graving FV120 rev2"}
	if err := svc.Update(context.Background(), plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.deletes) != 1 || cache.deletes[0] != "plans:id:p1" {
		t.Errorf("expected cache invalidation for plans:id:p1, got %v", cache.deletes)
	}
	if len(pub.planUpdated) != 1 {
		t.Errorf("expected one plan.updated event, got %v", pub.planUpdated)
	}
	if plan.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be refreshed")
	}
}

func TestPlanService_UpdateRequiresID(t *testing.T) {
	svc := usecases.NewPlanService(&mockPlanRepo{}, nil, nil)
	if err := svc.Update(context.Background(), &domain.Plan{Name: "x"}); err == nil {
		t.Fatal("expected an error for empty id")
	}
}

func TestPlanService_List_ClampsLimit(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockPlanRepo{
		listFn: func(ctx context.Context, limit, offset int) ([]domain.Plan, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := usecases.NewPlanService(repo, nil, nil)

	if _, err := svc.List(context.Background(), 0, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 50 || gotOffset != 0 {
		t.Errorf("expected clamped limit 50 offset 0, got %d %d", gotLimit, gotOffset)
	}
}

func TestPlanService_Delete(t *testing.T) {
	deleted := ""
	repo := &mockPlanRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	cache := newMockCache()
	cache.data["plans:id:p1"] = []byte(`{}`)
	svc := usecases.NewPlanService(repo, cache, nil)

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "p1" {
		t.Errorf("expected delete of p1, got %q", deleted)
	}
	if _, ok := cache.data["plans:id:p1"]; ok {
		t.Error("cache entry should be removed")
	}
}

func TestPlanService_LegacyCenterline(t *testing.T) {
	svc := usecases.NewPlanService(&mockPlanRepo{}, nil, nil)

	cl := svc.LegacyCenterline([]byte(`{"type":"LineString","coordinates":[[0,0],[0,0.001]]}`))
	if cl == nil {
		t.Fatal("expected a centerline")
	}
	if len(cl.Vertices) != 2 || cl.Length <= 0 {
		t.Errorf("unexpected centerline %+v", cl)
	}

	if cl := svc.LegacyCenterline([]byte(`{"type":"Point","coordinates":[1,2]}`)); cl != nil {
		t.Errorf("point geometry should yield nil, got %+v", cl)
	}
}
