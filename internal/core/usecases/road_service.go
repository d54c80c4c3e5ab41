package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/geometry"
	"github.com/oyvstu/vegplan/internal/core/ports"
	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// ErrRoadNotDisplayable is returned when a looked-up sequence yields no
// usable line geometry. The session's previous selection is kept.
var ErrRoadNotDisplayable = errors.New("road cannot be displayed")

// ErrNoRoadSelected is returned by session accessors before any
// successful selection.
var ErrNoRoadSelected = errors.New("no road selected for session")

// RoadService coordinates road selection. It owns all per-session
// selection state; nothing else in the system holds a mutable reference
// to a selection or its centerline.
type RoadService struct {
	roads  ports.RoadSource
	cache  ports.CacheService
	events ports.EventPublisher

	mu       sync.RWMutex
	sessions map[string]*domain.RoadSelection
}

// NewRoadService creates a new RoadService.
func NewRoadService(roads ports.RoadSource, cache ports.CacheService, events ports.EventPublisher) *RoadService {
	return &RoadService{
		roads:    roads,
		cache:    cache,
		events:   events,
		sessions: make(map[string]*domain.RoadSelection),
	}
}

// SelectRoad looks up the road nearest the given point and replaces the
// session's selection with it. The stored selection is swapped in before
// the selection event is published, so subscribers that read back always
// see the new state. Lookup and geometry failures keep the previous
// selection; a publish failure is logged and does not undo the swap.
func (s *RoadService) SelectRoad(ctx context.Context, sessionID string, lat, lon float64) (*domain.RoadSelection, error) {
	seq, err := s.lookupByPoint(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("road lookup: %w", err)
	}

	cl := geometry.BuildCenterline(seq)
	if cl == nil {
		return nil, ErrRoadNotDisplayable
	}

	sel := &domain.RoadSelection{Sequence: seq, Centerline: cl}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.sessions[sessionID] = sel
	s.mu.Unlock()

	s.publishSelected(ctx, sessionID, sel)
	return sel, nil
}

// publishSelected emits the selection event. The selection is already
// committed; a relay outage must not fail the request.
func (s *RoadService) publishSelected(ctx context.Context, sessionID string, sel *domain.RoadSelection) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishRoadSelected(ctx, sessionID, sel); err != nil {
		slog.Warn("road selection event publish failed",
			"session_id", sessionID, "error", err)
	}
}

// SelectRoadByReference resolves a textual road reference instead of a
// point. Selection semantics are identical to SelectRoad.
func (s *RoadService) SelectRoadByReference(ctx context.Context, sessionID, ref string) (*domain.RoadSelection, error) {
	seq, err := s.roads.LookupByReference(ctx, ref)
	if err != nil {
		metrics.RoadLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("road lookup %q: %w", ref, err)
	}
	metrics.RoadLookups.WithLabelValues("ok").Inc()

	cl := geometry.BuildCenterline(seq)
	if cl == nil {
		return nil, ErrRoadNotDisplayable
	}

	sel := &domain.RoadSelection{Sequence: seq, Centerline: cl}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.sessions[sessionID] = sel
	s.mu.Unlock()

	s.publishSelected(ctx, sessionID, sel)
	return sel, nil
}

// Selection returns the session's current road selection.
func (s *RoadService) Selection(sessionID string) (*domain.RoadSelection, error) {
	s.mu.RLock()
	sel, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoRoadSelected
	}
	return sel, nil
}

// Centerline returns the session's current centerline, or nil when no
// road is selected. Callers treat nil as referencing-unavailable and
// degrade rather than fail.
func (s *RoadService) Centerline(sessionID string) *domain.Centerline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sel, ok := s.sessions[sessionID]; ok {
		return sel.Centerline
	}
	return nil
}

// ClearSession drops a session's selection.
func (s *RoadService) ClearSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// lookupByPoint resolves a point to a road sequence with a read-through
// cache. Coordinates are rounded to ~1 m so nearby clicks share entries.
func (s *RoadService) lookupByPoint(ctx context.Context, lat, lon float64) (*domain.RoadSequence, error) {
	cacheKey := fmt.Sprintf("roads:point:%.5f:%.5f", lat, lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var seq domain.RoadSequence
			if err := json.Unmarshal(data, &seq); err == nil {
				metrics.CacheHits.WithLabelValues("road_lookup").Inc()
				return &seq, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("road_lookup").Inc()
	}

	seq, err := s.roads.LookupByPoint(ctx, lon, lat, defaultLookupRadius)
	if err != nil {
		metrics.RoadLookups.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RoadLookups.WithLabelValues("ok").Inc()

	// Road geometry changes rarely; 10 minutes is conservative.
	if s.cache != nil {
		if data, err := json.Marshal(seq); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return seq, nil
}

// defaultLookupRadius bounds the point-to-road search in meters.
const defaultLookupRadius = 50.0
