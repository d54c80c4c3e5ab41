package domain

import "time"

// RoadLink ("veglenke") is one contiguous geometry fragment of a road
// sequence. StartPosition is the fragment's offset within the parent
// sequence and is used only for ordering.
type RoadLink struct {
	StartPosition float64 `json:"start_position"`
	WKT           string  `json:"wkt"`
	SRID          int     `json:"srid"` // source reference system; 0 = use default
}

// RoadSequence is a user-selected road entity from the national road
// database. DeclaredLength is authoritative and may exceed the sum of the
// link geometry lengths when source data is incomplete. It is replaced
// wholesale on each new selection, never mutated in place.
type RoadSequence struct {
	ID             string     `json:"id"`
	Reference      string     `json:"reference"` // category/number/section, display only
	DeclaredLength float64    `json:"declared_length"`
	Links          []RoadLink `json:"links"`
}

// RoadSelection is the outcome of selecting a road for a session: the
// sequence plus the centerline built from it.
type RoadSelection struct {
	Sequence   *RoadSequence `json:"sequence"`
	Centerline *Centerline   `json:"centerline"`
}

// BoundaryKind identifies which end of the work zone a boundary marks.
type BoundaryKind string

const (
	BoundaryStart BoundaryKind = "start"
	BoundaryEnd   BoundaryKind = "end"
)

// WorkZoneBoundary is a placed start/end marker. Distance is nil when
// projection onto the centerline failed.
type WorkZoneBoundary struct {
	Kind       BoundaryKind `json:"kind"`
	Point      GeoPoint     `json:"point"`
	Distance   *float64     `json:"distance,omitempty"` // meters along the sequence
	SequenceID string       `json:"sequence_id"`
}

// PlacedSign is a point-type traffic-sign symbol. Only signs snap to the
// centerline; polygons and polylines are placed freely.
type PlacedSign struct {
	SignCode string   `json:"sign_code"` // e.g. "110", "156"
	Point    GeoPoint `json:"point"`
	Rotation float64  `json:"rotation"` // degrees clockwise from north
}

// PlacedPolygon is a freely drawn area annotation.
type PlacedPolygon struct {
	Vertices []GeoPoint `json:"vertices"`
	Style    string     `json:"style,omitempty"`
}

// PlacedPolyline is a freely drawn line annotation.
type PlacedPolyline struct {
	Vertices []GeoPoint `json:"vertices"`
	Style    string     `json:"style,omitempty"`
}

// Plan is a saved traffic plan: the selected road, the work-zone extent
// and all placed annotations.
type Plan struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	RoadRef    string             `json:"road_ref,omitempty"`
	SequenceID string             `json:"sequence_id,omitempty"`
	Boundaries []WorkZoneBoundary `json:"boundaries,omitempty"`
	Signs      []PlacedSign       `json:"signs,omitempty"`
	Polygons   []PlacedPolygon    `json:"polygons,omitempty"`
	Polylines  []PlacedPolyline   `json:"polylines,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
