package geometry

import (
	"math"

	"github.com/oyvstu/vegplan/internal/core/domain"
)

// Direction selects which way markers are counted from the anchor.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

const (
	// DefaultMarkerExtent is how far from a work-zone boundary markers
	// are generated.
	DefaultMarkerExtent = 400.0

	// DefaultMarkerStep is the spacing between consecutive markers.
	DefaultMarkerStep = 20.0

	// largeMarkerEvery promotes every Nth meter offset to a large marker.
	largeMarkerEvery = 50.0

	// DefaultChainageInterval is the spacing between distance labels.
	DefaultChainageInterval = 25.0
)

// Markers generates evenly spaced markers counting outward from the anchor
// distance. Targets falling outside [0, length] are skipped, never
// clamped. Results are ordered by increasing offset from the anchor.
func Markers(cl *domain.Centerline, anchor float64, dir Direction, maxExtent, step float64) []domain.Marker {
	if cl == nil || len(cl.Vertices) < 2 {
		return nil
	}
	if maxExtent <= 0 {
		maxExtent = DefaultMarkerExtent
	}
	if step <= 0 {
		step = DefaultMarkerStep
	}

	var markers []domain.Marker
	for i := 1; float64(i)*step <= maxExtent; i++ {
		d := float64(i) * step

		target := anchor + d
		if dir == DirectionBackward {
			target = anchor - d
		}
		if target < 0 || target > cl.Length {
			continue
		}

		pt := PointAtDistance(cl, target)
		if pt == nil {
			continue
		}

		sizeClass := "small"
		if math.Mod(d, largeMarkerEvery) == 0 {
			sizeClass = "large"
		}

		markers = append(markers, domain.Marker{
			DistanceFromAnchor: d,
			Point:              *pt,
			SizeClass:          sizeClass,
		})
	}
	return markers
}

// ChainageLabels generates fixed-interval distance labels from the start
// of the centerline up to the declared sequence length. The declared
// length may legitimately exceed the geometric length when source data is
// incomplete; labelling then stops at the geometry's end.
func ChainageLabels(cl *domain.Centerline, declaredLength, interval float64) []domain.ChainageLabel {
	if cl == nil || len(cl.Vertices) < 2 {
		return nil
	}
	if interval <= 0 {
		interval = DefaultChainageInterval
	}

	limit := declaredLength
	if cl.Length < limit {
		limit = cl.Length
	}

	var labels []domain.ChainageLabel
	for i := 0; float64(i)*interval <= limit; i++ {
		d := float64(i) * interval
		pt := PointAtDistance(cl, d)
		if pt == nil {
			continue
		}
		labels = append(labels, domain.ChainageLabel{Distance: d, Point: *pt})
	}
	return labels
}
