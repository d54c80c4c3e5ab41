package geometry

import (
	"math"
	"testing"

	"github.com/oyvstu/vegplan/internal/core/domain"
)

func twoLinkSequence() *domain.RoadSequence {
	return &domain.RoadSequence{
		ID:             "seq-1",
		DeclaredLength: 250,
		Links: []domain.RoadLink{
			{StartPosition: 100, WKT: "LINESTRING (0 0.001, 0 0.002)", SRID: 4326},
			{StartPosition: 0, WKT: "LINESTRING (0 0, 0 0.001)", SRID: 4326},
		},
	}
}

func TestBuildCenterline_SortsAndConcatenates(t *testing.T) {
	cl := BuildCenterline(twoLinkSequence())
	if cl == nil {
		t.Fatal("expected a centerline")
	}
	if cl.SequenceID != "seq-1" {
		t.Errorf("expected sequence id seq-1, got %s", cl.SequenceID)
	}

	want := []domain.GeoPoint{
		{Lon: 0, Lat: 0},
		{Lon: 0, Lat: 0.001},
		{Lon: 0, Lat: 0.001},
		{Lon: 0, Lat: 0.002},
	}
	if len(cl.Vertices) != len(want) {
		t.Fatalf("expected %d vertices (no endpoint dedup), got %d", len(want), len(cl.Vertices))
	}
	for i, w := range want {
		if cl.Vertices[i] != w {
			t.Errorf("vertex %d: expected %v, got %v", i, w, cl.Vertices[i])
		}
	}
}

func TestBuildCenterline_DoesNotMutateInput(t *testing.T) {
	seq := twoLinkSequence()
	BuildCenterline(seq)
	if seq.Links[0].StartPosition != 100 {
		t.Error("input link order was mutated")
	}
}

func TestBuildCenterline_SingleLink(t *testing.T) {
	seq := &domain.RoadSequence{
		ID: "seq-2",
		Links: []domain.RoadLink{
			{StartPosition: 0, WKT: "LINESTRING (10 60, 10.001 60)", SRID: 4326},
		},
	}
	cl := BuildCenterline(seq)
	if cl == nil {
		t.Fatal("expected a centerline")
	}
	if len(cl.Vertices) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(cl.Vertices))
	}
	if cl.Length <= 0 {
		t.Errorf("expected positive length, got %f", cl.Length)
	}
}

func TestBuildCenterline_SkipsUnparseableLinks(t *testing.T) {
	seq := &domain.RoadSequence{
		ID: "seq-3",
		Links: []domain.RoadLink{
			{StartPosition: 0, WKT: "LINESTRING (0 0, 0 0.001)", SRID: 4326},
			{StartPosition: 50, WKT: "GEOMETRYCOLLECTION (POINT (1 2))", SRID: 4326},
		},
	}
	cl := BuildCenterline(seq)
	if cl == nil {
		t.Fatal("expected centerline despite one bad link")
	}
	if len(cl.Vertices) != 2 {
		t.Errorf("expected 2 vertices from the good link, got %d", len(cl.Vertices))
	}
}

func TestBuildCenterline_NoUsableGeometry(t *testing.T) {
	seq := &domain.RoadSequence{
		ID: "seq-4",
		Links: []domain.RoadLink{
			{StartPosition: 0, WKT: "POINT (1 2)", SRID: 4326},
			{StartPosition: 1, WKT: "not wkt at all", SRID: 4326},
		},
	}
	if cl := BuildCenterline(seq); cl != nil {
		t.Errorf("expected nil centerline, got %v", cl)
	}
	if cl := BuildCenterline(nil); cl != nil {
		t.Error("expected nil for nil sequence")
	}
}

func TestBuildCenterline_LengthAdditivity(t *testing.T) {
	// The same vertex sequence must yield the same length whether it came
	// from one geometry or from concatenated links.
	single := &domain.RoadSequence{
		ID: "a",
		Links: []domain.RoadLink{
			{StartPosition: 0, WKT: "LINESTRING (0 0, 0 0.001, 0 0.002)", SRID: 4326},
		},
	}
	split := twoLinkSequence()

	clSingle := BuildCenterline(single)
	clSplit := BuildCenterline(split)
	if clSingle == nil || clSplit == nil {
		t.Fatal("expected centerlines")
	}
	if math.Abs(clSingle.Length-clSplit.Length) > 1e-9 {
		t.Errorf("lengths differ: %f vs %f", clSingle.Length, clSplit.Length)
	}
}

func TestFlatten_MultiLineStringIgnoresGrouping(t *testing.T) {
	g := &domain.Geometry{
		Type: domain.GeometryMultiLineString,
		Lines: [][]domain.GeoPoint{
			{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}},
			{{Lon: 0, Lat: 1}, {Lon: 0, Lat: 2}},
		},
	}
	verts := Flatten(g)
	if len(verts) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(verts))
	}
	if verts[3].Lat != 2 {
		t.Errorf("expected last vertex lat 2, got %f", verts[3].Lat)
	}
}

func TestFlatten_PointYieldsNil(t *testing.T) {
	g := &domain.Geometry{
		Type:        domain.GeometryPoint,
		Coordinates: []domain.GeoPoint{{Lon: 1, Lat: 2}},
	}
	if verts := Flatten(g); verts != nil {
		t.Errorf("expected nil, got %v", verts)
	}
}

func TestFlattenGeoJSON_LineString(t *testing.T) {
	raw := []byte(`{"type":"LineString","coordinates":[[10,60],[10.001,60]]}`)
	verts := FlattenGeoJSON(raw)
	if len(verts) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(verts))
	}
	if verts[0].Lon != 10 || verts[0].Lat != 60 {
		t.Errorf("unexpected first vertex: %v", verts[0])
	}
}

func TestFlattenGeoJSON_FeatureCollectionSkipsNonLineStrings(t *testing.T) {
	raw := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[0,1]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,1],[0,2]]}}
	]}`)
	verts := FlattenGeoJSON(raw)
	if len(verts) != 4 {
		t.Fatalf("expected 4 vertices from the two linestrings, got %d", len(verts))
	}
}

func TestFlattenGeoJSON_Invalid(t *testing.T) {
	if verts := FlattenGeoJSON([]byte(`{"type":"Polygon"`)); verts != nil {
		t.Errorf("expected nil for invalid JSON, got %v", verts)
	}
}
