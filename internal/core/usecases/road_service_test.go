package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/usecases"
)

// --- Mock RoadSource ---

type mockRoadSource struct {
	lookupByPointFn     func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error)
	lookupByReferenceFn func(ctx context.Context, ref string) (*domain.RoadSequence, error)
	pointCalls          int
}

func (m *mockRoadSource) LookupByPoint(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
	m.pointCalls++
	if m.lookupByPointFn != nil {
		return m.lookupByPointFn(ctx, lon, lat, radiusMeters)
	}
	return nil, errors.New("not found")
}

func (m *mockRoadSource) LookupByReference(ctx context.Context, ref string) (*domain.RoadSequence, error) {
	if m.lookupByReferenceFn != nil {
		return m.lookupByReferenceFn(ctx, ref)
	}
	return nil, errors.New("not found")
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	roadSelected []string
	planUpdated  []string
	failNext     error
}

func (m *mockPublisher) PublishRoadSelected(ctx context.Context, sessionID string, sel *domain.RoadSelection) error {
	if m.failNext != nil {
		return m.failNext
	}
	m.roadSelected = append(m.roadSelected, sessionID)
	return nil
}

func (m *mockPublisher) PublishPlanUpdated(ctx context.Context, plan *domain.Plan) error {
	if m.failNext != nil {
		return m.failNext
	}
	m.planUpdated = append(m.planUpdated, plan.ID)
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// twoLinkRoad is a northbound road split across two links given out of
// order, the common shape returned by the road database.
func twoLinkRoad() *domain.RoadSequence {
	return &domain.RoadSequence{
		ID:             "1042801",
		Reference:      "FV120",
		DeclaredLength: 250,
		Links: []domain.RoadLink{
			{StartPosition: 100, WKT: "LINESTRING (0 0.001, 0 0.002)", SRID: 4326},
			{StartPosition: 0, WKT: "LINESTRING (0 0, 0 0.001)", SRID: 4326},
		},
	}
}

func TestRoadService_SelectRoad(t *testing.T) {
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			return twoLinkRoad(), nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewRoadService(source, nil, pub)

	sel, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Sequence.Reference != "FV120" {
		t.Errorf("expected FV120, got %s", sel.Sequence.Reference)
	}
	if len(sel.Centerline.Vertices) != 4 {
		t.Errorf("expected 4 centerline vertices, got %d", len(sel.Centerline.Vertices))
	}
	if sel.Centerline.Vertices[0].Lat != 0 || sel.Centerline.Vertices[3].Lat != 0.002 {
		t.Error("centerline links not ordered by start position")
	}
	if len(pub.roadSelected) != 1 || pub.roadSelected[0] != "sess-1" {
		t.Errorf("expected one road.selected event for sess-1, got %v", pub.roadSelected)
	}

	got, err := svc.Selection("sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sel {
		t.Error("Selection should return the stored selection")
	}
}

func TestRoadService_SelectRoad_NotDisplayableKeepsPrior(t *testing.T) {
	good := true
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			if good {
				return twoLinkRoad(), nil
			}
			return &domain.RoadSequence{
				ID:    "999",
				Links: []domain.RoadLink{{StartPosition: 0, WKT: "POINT (1 2)", SRID: 4326}},
			}, nil
		},
	}
	svc := usecases.NewRoadService(source, nil, &mockPublisher{})

	if _, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	good = false
	_, err := svc.SelectRoad(context.Background(), "sess-1", 0.5, 0.5)
	if !errors.Is(err, usecases.ErrRoadNotDisplayable) {
		t.Fatalf("expected ErrRoadNotDisplayable, got %v", err)
	}

	sel, err := svc.Selection("sess-1")
	if err != nil {
		t.Fatalf("prior selection should survive: %v", err)
	}
	if sel.Sequence.ID != "1042801" {
		t.Errorf("expected prior sequence 1042801, got %s", sel.Sequence.ID)
	}
}

func TestRoadService_SelectRoad_LookupError(t *testing.T) {
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			return nil, fmt.Errorf("upstream unavailable")
		},
	}
	svc := usecases.NewRoadService(source, nil, &mockPublisher{})

	if _, err := svc.SelectRoad(context.Background(), "sess-1", 0, 0); err == nil {
		t.Fatal("expected an error")
	}
	if cl := svc.Centerline("sess-1"); cl != nil {
		t.Error("failed selection should not store a centerline")
	}
}

func TestRoadService_SelectRoadByReference(t *testing.T) {
	source := &mockRoadSource{
		lookupByReferenceFn: func(ctx context.Context, ref string) (*domain.RoadSequence, error) {
			if ref != "FV120" {
				return nil, errors.New("not found")
			}
			return twoLinkRoad(), nil
		},
	}
	svc := usecases.NewRoadService(source, nil, &mockPublisher{})

	sel, err := svc.SelectRoadByReference(context.Background(), "sess-1", "FV120")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Centerline == nil {
		t.Fatal("expected a centerline")
	}
}

func TestRoadService_PublishFailureKeepsNewSelection(t *testing.T) {
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			return twoLinkRoad(), nil
		},
	}
	pub := &mockPublisher{failNext: errors.New("relay down")}
	svc := usecases.NewRoadService(source, nil, pub)

	sel, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0)
	if err != nil {
		t.Fatalf("publish failure must not fail the selection: %v", err)
	}

	got, err := svc.Selection("sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sel {
		t.Error("selection should be committed despite the publish failure")
	}
}

func TestRoadService_DegradedDependencies(t *testing.T) {
	// The service runs with no cache and no publisher at all, the shape
	// it gets when those connections fail at startup.
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			return twoLinkRoad(), nil
		},
	}
	svc := usecases.NewRoadService(source, nil, nil)

	sel, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Centerline == nil {
		t.Fatal("expected a centerline")
	}
	if source.pointCalls != 1 {
		t.Errorf("expected one source call without a cache, got %d", source.pointCalls)
	}
}

func TestRoadService_CacheReadThrough(t *testing.T) {
	cache := newMockCache()
	seq := twoLinkRoad()
	data, _ := json.Marshal(seq)
	cache.data["roads:point:0.00100:0.00000"] = data

	source := &mockRoadSource{}
	svc := usecases.NewRoadService(source, cache, &mockPublisher{})

	sel, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Sequence.ID != "1042801" {
		t.Errorf("expected cached sequence, got %s", sel.Sequence.ID)
	}
	if source.pointCalls != 0 {
		t.Errorf("cache hit should not reach the road source, got %d calls", source.pointCalls)
	}
}

func TestRoadService_NoSelection(t *testing.T) {
	svc := usecases.NewRoadService(&mockRoadSource{}, nil, nil)

	if _, err := svc.Selection("ghost"); !errors.Is(err, usecases.ErrNoRoadSelected) {
		t.Errorf("expected ErrNoRoadSelected, got %v", err)
	}
	if cl := svc.Centerline("ghost"); cl != nil {
		t.Error("expected nil centerline for unknown session")
	}
}

func TestRoadService_ClearSession(t *testing.T) {
	source := &mockRoadSource{
		lookupByPointFn: func(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
			return twoLinkRoad(), nil
		},
	}
	svc := usecases.NewRoadService(source, nil, &mockPublisher{})

	if _, err := svc.SelectRoad(context.Background(), "sess-1", 0.001, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.ClearSession("sess-1")
	if _, err := svc.Selection("sess-1"); err == nil {
		t.Error("expected cleared session to have no selection")
	}
}
