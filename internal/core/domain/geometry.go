package domain

// GeoPoint represents a geographic coordinate (WGS 84 / ETRS89 degrees).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// GeometryType tags the variant held by a Geometry.
type GeometryType string

const (
	GeometryPoint           GeometryType = "Point"
	GeometryLineString      GeometryType = "LineString"
	GeometryPolygon         GeometryType = "Polygon"
	GeometryMultiLineString GeometryType = "MultiLineString"
)

// Geometry is the parsed form of a road-database geometry. All coordinates
// are geographic degrees; no projected values escape the parser.
//
// Coordinates holds the single vertex for a Point, the vertex sequence for
// a LineString, and the outer ring for a Polygon (holes unsupported).
// Lines is set only for MultiLineString.
type Geometry struct {
	Type        GeometryType `json:"type"`
	Coordinates []GeoPoint   `json:"coordinates,omitempty"`
	Lines       [][]GeoPoint `json:"lines,omitempty"`
}

// Centerline is a single ordered vertex sequence derived from a road
// sequence, the sole basis for every distance computation. Length is the
// haversine sum over consecutive vertices, computed once at build time.
type Centerline struct {
	SequenceID string     `json:"sequence_id"`
	Vertices   []GeoPoint `json:"vertices"`
	Length     float64    `json:"length"` // meters
}

// LinearRef is the result of projecting a point onto a centerline.
type LinearRef struct {
	Distance     float64  `json:"distance"` // meters along the centerline
	ClosestPoint GeoPoint `json:"closest_point"`
}

// Marker is one evenly spaced work-zone marker counted outward from an
// anchor distance.
type Marker struct {
	DistanceFromAnchor float64  `json:"distance_from_anchor"`
	Point              GeoPoint `json:"point"`
	SizeClass          string   `json:"size_class"` // "large" | "small"
}

// ChainageLabel is a fixed-interval distance label along a centerline.
type ChainageLabel struct {
	Distance float64  `json:"distance"`
	Point    GeoPoint `json:"point"`
}
