package geometry

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/pkg/geospatial"
)

// BuildCenterline normalizes a road sequence's possibly-fragmented
// geometry into one ordered polyline. Links are stable-sorted by start
// position and their parsed geometries concatenated in that order; a
// single-link sequence is used directly. Shared endpoints between adjacent
// links are NOT deduplicated; the referencing engine treats the resulting
// zero-length segments as contributing zero distance.
//
// Links that fail to parse are skipped with a warning. Returns nil when no
// usable line geometry exists.
func BuildCenterline(seq *domain.RoadSequence) *domain.Centerline {
	if seq == nil || len(seq.Links) == 0 {
		return nil
	}

	links := make([]domain.RoadLink, len(seq.Links))
	copy(links, seq.Links)
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].StartPosition < links[j].StartPosition
	})

	var parts [][]domain.GeoPoint
	for _, link := range links {
		g, err := ParseWKT(link.WKT, link.SRID)
		if err != nil {
			slog.Warn("skipping unparseable road link",
				"sequence_id", seq.ID,
				"start_position", link.StartPosition,
				"error", err)
			continue
		}
		verts := Flatten(g)
		if len(verts) == 0 {
			continue
		}
		parts = append(parts, verts)
	}

	if len(parts) == 0 {
		return nil
	}

	var vertices []domain.GeoPoint
	if len(parts) == 1 {
		vertices = parts[0]
	} else {
		total := 0
		for _, p := range parts {
			total += len(p)
		}
		vertices = make([]domain.GeoPoint, 0, total)
		for _, p := range parts {
			vertices = append(vertices, p...)
		}
	}

	return &domain.Centerline{
		SequenceID: seq.ID,
		Vertices:   vertices,
		Length:     LineLength(vertices),
	}
}

// Flatten reduces a parsed geometry to one ordered vertex sequence by the
// uniform ingestion rule: a LineString is used as-is, a MultiLineString's
// component lines are concatenated in given order ignoring the declared
// grouping. Points and polygons carry no centerline and yield nil.
func Flatten(g *domain.Geometry) []domain.GeoPoint {
	if g == nil {
		return nil
	}
	switch g.Type {
	case domain.GeometryLineString:
		return g.Coordinates
	case domain.GeometryMultiLineString:
		var out []domain.GeoPoint
		for _, line := range g.Lines {
			out = append(out, line...)
		}
		return out
	default:
		return nil
	}
}

// FlattenGeoJSON applies the same ingestion rule to the legacy saved-plan
// geometry shapes: a GeoJSON LineString, MultiLineString, Feature or
// FeatureCollection. LineString features are concatenated in iteration
// order; features of any other type are skipped. Coordinates are taken to
// be geographic degrees already.
func FlattenGeoJSON(raw []byte) []domain.GeoPoint {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil
		}
		var out []domain.GeoPoint
		for _, f := range fc.Features {
			if f == nil {
				continue
			}
			if ls, ok := f.Geometry.(*geom.LineString); ok {
				out = append(out, coordsToPoints(ls.Coords())...)
			}
		}
		return out

	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil
		}
		if ls, ok := f.Geometry.(*geom.LineString); ok {
			return coordsToPoints(ls.Coords())
		}
		return nil

	default:
		var g geom.T
		if err := geojson.Unmarshal(raw, &g); err != nil {
			return nil
		}
		switch t := g.(type) {
		case *geom.LineString:
			return coordsToPoints(t.Coords())
		case *geom.MultiLineString:
			var out []domain.GeoPoint
			for i := 0; i < t.NumLineStrings(); i++ {
				out = append(out, coordsToPoints(t.LineString(i).Coords())...)
			}
			return out
		}
		return nil
	}
}

func coordsToPoints(coords []geom.Coord) []domain.GeoPoint {
	out := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		out = append(out, domain.GeoPoint{Lon: c[0], Lat: c[1]})
	}
	return out
}

// LineLength sums consecutive-vertex great-circle distances in meters.
func LineLength(vertices []domain.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(vertices); i++ {
		total += geospatial.Haversine(
			vertices[i-1].Lat, vertices[i-1].Lon,
			vertices[i].Lat, vertices[i].Lon)
	}
	return total
}
