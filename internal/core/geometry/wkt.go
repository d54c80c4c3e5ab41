// Package geometry implements the road-geometry core: WKT parsing,
// centerline assembly and linear referencing along a centerline.
package geometry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/pkg/metrics"
	"github.com/oyvstu/vegplan/internal/pkg/projection"
)

// ErrUnsupportedGeometry is returned for well-formed WKT of a type this
// service does not handle (GEOMETRYCOLLECTION, MULTIPOINT, ...). Callers
// treat the road as "cannot be displayed".
var ErrUnsupportedGeometry = errors.New("unsupported geometry type")

// ParseWKT parses a road-database WKT string into a domain geometry with
// every vertex converted to geographic degrees. srid identifies the source
// reference system of the input coordinates; 0 selects the national
// default. Z and M ordinates are consumed and discarded; the planner is
// strictly 2D. Polygon holes are dropped; only the outer ring is kept.
func ParseWKT(raw string, srid int) (*domain.Geometry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		metrics.ParseFailures.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("empty WKT input")
	}

	g, err := wkt.Unmarshal(raw)
	if err != nil {
		metrics.ParseFailures.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("parse wkt: %w", err)
	}

	switch t := g.(type) {
	case *geom.Point:
		if len(t.FlatCoords()) < 2 {
			metrics.ParseFailures.WithLabelValues("empty").Inc()
			return nil, fmt.Errorf("empty point geometry")
		}
		pt := projectCoord(t.Coords(), srid)
		return &domain.Geometry{
			Type:        domain.GeometryPoint,
			Coordinates: []domain.GeoPoint{pt},
		}, nil

	case *geom.LineString:
		return &domain.Geometry{
			Type:        domain.GeometryLineString,
			Coordinates: projectCoords(t.Coords(), srid),
		}, nil

	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			metrics.ParseFailures.WithLabelValues("empty").Inc()
			return nil, fmt.Errorf("empty polygon geometry")
		}
		// Outer ring only; interior rings are out of scope.
		return &domain.Geometry{
			Type:        domain.GeometryPolygon,
			Coordinates: projectCoords(t.LinearRing(0).Coords(), srid),
		}, nil

	case *geom.MultiLineString:
		lines := make([][]domain.GeoPoint, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			lines = append(lines, projectCoords(t.LineString(i).Coords(), srid))
		}
		return &domain.Geometry{
			Type:  domain.GeometryMultiLineString,
			Lines: lines,
		}, nil

	default:
		metrics.ParseFailures.WithLabelValues("unsupported_type").Inc()
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
}

// projectCoord converts one coordinate to geographic degrees, keeping only
// the first two ordinates.
func projectCoord(c geom.Coord, srid int) domain.GeoPoint {
	lon, lat := projection.Project(c[0], c[1], srid)
	return domain.GeoPoint{Lon: lon, Lat: lat}
}

func projectCoords(coords []geom.Coord, srid int) []domain.GeoPoint {
	out := make([]domain.GeoPoint, 0, len(coords))
	for _, c := range coords {
		out = append(out, projectCoord(c, srid))
	}
	return out
}
