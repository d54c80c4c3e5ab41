package usecases

import (
	"sync"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/core/geometry"
	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// SnapResult is a point snapped onto the selected road's centerline.
// Snapped is false when no referencing was possible; the point is then
// the unchanged input.
type SnapResult struct {
	Point    domain.GeoPoint `json:"point"`
	Distance *float64        `json:"distance,omitempty"` // meters along the sequence
	Snapped  bool            `json:"snapped"`
}

// PlacementService places work-zone boundaries, snapped signs, markers
// and chainage labels against the session's selected road. Every
// operation degrades when referencing is unavailable: placement never
// fails outright because no road is selected.
type PlacementService struct {
	roads *RoadService

	mu         sync.RWMutex
	boundaries map[string]map[domain.BoundaryKind]domain.WorkZoneBoundary
}

// NewPlacementService creates a new PlacementService.
func NewPlacementService(roads *RoadService) *PlacementService {
	return &PlacementService{
		roads:      roads,
		boundaries: make(map[string]map[domain.BoundaryKind]domain.WorkZoneBoundary),
	}
}

// Snap projects a point onto the session's centerline. Without a
// selection, or when projection fails, the input point is returned
// unsnapped.
func (s *PlacementService) Snap(sessionID string, pt domain.GeoPoint) SnapResult {
	cl := s.roads.Centerline(sessionID)
	if cl == nil {
		metrics.SnapRequests.WithLabelValues("unsnapped").Inc()
		return SnapResult{Point: pt, Snapped: false}
	}

	ref := geometry.ProjectPoint(cl, pt)
	if ref == nil {
		metrics.SnapRequests.WithLabelValues("unsnapped").Inc()
		return SnapResult{Point: pt, Snapped: false}
	}

	metrics.SnapRequests.WithLabelValues("snapped").Inc()
	d := ref.Distance
	return SnapResult{Point: ref.ClosestPoint, Distance: &d, Snapped: true}
}

// SetBoundary places a work-zone start or end boundary. The boundary is
// stored even when it could not be referenced; Distance is then nil and
// SequenceID empty, and the stored point is the raw input.
func (s *PlacementService) SetBoundary(sessionID string, kind domain.BoundaryKind, pt domain.GeoPoint) domain.WorkZoneBoundary {
	b := domain.WorkZoneBoundary{Kind: kind, Point: pt}

	cl := s.roads.Centerline(sessionID)
	if cl != nil {
		if ref := geometry.ProjectPoint(cl, pt); ref != nil {
			d := ref.Distance
			b.Point = ref.ClosestPoint
			b.Distance = &d
			b.SequenceID = cl.SequenceID
		}
	}

	s.mu.Lock()
	if s.boundaries[sessionID] == nil {
		s.boundaries[sessionID] = make(map[domain.BoundaryKind]domain.WorkZoneBoundary)
	}
	s.boundaries[sessionID][kind] = b
	s.mu.Unlock()

	return b
}

// Boundary returns the session's boundary of the given kind, if set.
func (s *PlacementService) Boundary(sessionID string, kind domain.BoundaryKind) (domain.WorkZoneBoundary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boundaries[sessionID][kind]
	return b, ok
}

// SameSequence reports whether both boundaries are set and referenced to
// the same road sequence. Distances are only comparable when it is true.
func (s *PlacementService) SameSequence(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, okS := s.boundaries[sessionID][domain.BoundaryStart]
	end, okE := s.boundaries[sessionID][domain.BoundaryEnd]
	if !okS || !okE || start.Distance == nil || end.Distance == nil {
		return false
	}
	return start.SequenceID == end.SequenceID && start.SequenceID != ""
}

// Markers generates the marker sequence counting outward from a placed
// boundary. Nil when the boundary is missing, unreferenced, or no road
// is selected.
func (s *PlacementService) Markers(sessionID string, kind domain.BoundaryKind, dir geometry.Direction) []domain.Marker {
	cl := s.roads.Centerline(sessionID)
	if cl == nil {
		return nil
	}

	b, ok := s.Boundary(sessionID, kind)
	if !ok || b.Distance == nil || b.SequenceID != cl.SequenceID {
		return nil
	}

	return geometry.Markers(cl, *b.Distance, dir, 0, 0)
}

// Chainage generates the fixed-interval distance labels for the
// session's selected road. Nil when no road is selected.
func (s *PlacementService) Chainage(sessionID string) []domain.ChainageLabel {
	sel, err := s.roads.Selection(sessionID)
	if err != nil {
		return nil
	}
	return geometry.ChainageLabels(sel.Centerline, sel.Sequence.DeclaredLength, 0)
}

// ClearSession drops a session's placed boundaries.
func (s *PlacementService) ClearSession(sessionID string) {
	s.mu.Lock()
	delete(s.boundaries, sessionID)
	s.mu.Unlock()
}
