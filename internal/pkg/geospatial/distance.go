package geospatial

import "math"

const (
	earthRadiusKm   = 6371.0
	metersPerDegree = 111320.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// PlanarOffset converts the displacement from (refLat, refLon) to
// (lat, lon) into meters on a local equirectangular plane. Valid over the
// short spans of individual road segments; the longitude axis is corrected
// by the cosine of the reference latitude.
func PlanarOffset(refLat, refLon, lat, lon float64) (x, y float64) {
	x = (lon - refLon) * metersPerDegree * math.Cos(toRad(refLat))
	y = (lat - refLat) * metersPerDegree
	return x, y
}

// NearestOnSegment projects point q onto the segment a→b in a local meter
// frame anchored at a. It returns the clamped interpolation parameter
// t in [0,1] and the planar distance in meters from q to the projected
// point.
func NearestOnSegment(aLat, aLon, bLat, bLon, qLat, qLon float64) (t, dist float64) {
	bx, by := PlanarOffset(aLat, aLon, bLat, bLon)
	qx, qy := PlanarOffset(aLat, aLon, qLat, qLon)

	segLenSq := bx*bx + by*by
	if segLenSq == 0 {
		// Degenerate (zero-length) segment: the nearest point is a itself.
		return 0, math.Hypot(qx, qy)
	}

	t = (qx*bx + qy*by) / segLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	px := t * bx
	py := t * by
	return t, math.Hypot(qx-px, qy-py)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / metersPerDegree
	lonDelta := radiusMeters / (metersPerDegree * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
