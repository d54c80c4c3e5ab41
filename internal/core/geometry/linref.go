package geometry

import (
	"math"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/pkg/geospatial"
)

// ProjectPoint finds the nearest point on the centerline to q and the
// distance along the centerline to reach it. Per-segment projection runs
// in a local equirectangular meter frame so that longitude spans are
// latitude-corrected rather than compared in raw degrees. When two
// segments are equally close (coincident or zero-length segments) the
// earlier segment wins, which keeps the result deterministic.
//
// Returns nil for a centerline with fewer than 2 vertices or a non-finite
// query point.
func ProjectPoint(cl *domain.Centerline, q domain.GeoPoint) *domain.LinearRef {
	if cl == nil || len(cl.Vertices) < 2 {
		return nil
	}
	if !finite(q.Lon) || !finite(q.Lat) {
		return nil
	}

	bestDist := math.Inf(1)
	bestSeg := -1
	bestT := 0.0

	for i := 1; i < len(cl.Vertices); i++ {
		a := cl.Vertices[i-1]
		b := cl.Vertices[i]
		t, dist := geospatial.NearestOnSegment(a.Lat, a.Lon, b.Lat, b.Lon, q.Lat, q.Lon)
		if dist < bestDist {
			bestDist = dist
			bestSeg = i - 1
			bestT = t
		}
	}

	// Along-distance: full lengths of the segments preceding the winner
	// plus the partial distance into it.
	var along float64
	for i := 1; i <= bestSeg; i++ {
		along += geospatial.Haversine(
			cl.Vertices[i-1].Lat, cl.Vertices[i-1].Lon,
			cl.Vertices[i].Lat, cl.Vertices[i].Lon)
	}
	a := cl.Vertices[bestSeg]
	b := cl.Vertices[bestSeg+1]
	along += bestT * geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)

	return &domain.LinearRef{
		Distance:     along,
		ClosestPoint: lerp(a, b, bestT),
	}
}

// PointAtDistance returns the point at the given distance (meters) along
// the centerline, linearly interpolated within the containing segment.
// Distances outside [0, length] yield nil; the engine never extrapolates
// past the ends.
func PointAtDistance(cl *domain.Centerline, distance float64) *domain.GeoPoint {
	if cl == nil || len(cl.Vertices) < 2 {
		return nil
	}
	if !finite(distance) || distance < 0 || distance > cl.Length {
		return nil
	}

	var walked float64
	for i := 1; i < len(cl.Vertices); i++ {
		a := cl.Vertices[i-1]
		b := cl.Vertices[i]
		seg := geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		if walked+seg >= distance {
			if seg == 0 {
				pt := a
				return &pt
			}
			t := (distance - walked) / seg
			pt := lerp(a, b, t)
			return &pt
		}
		walked += seg
	}

	// Accumulated rounding left us marginally short of the final vertex.
	pt := cl.Vertices[len(cl.Vertices)-1]
	return &pt
}

// Length returns the total centerline length in meters. The value is
// computed once at build time and invariant for a given centerline.
func Length(cl *domain.Centerline) float64 {
	if cl == nil {
		return 0
	}
	return cl.Length
}

func lerp(a, b domain.GeoPoint, t float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lon: a.Lon + t*(b.Lon-a.Lon),
		Lat: a.Lat + t*(b.Lat-a.Lat),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
