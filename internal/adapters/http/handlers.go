package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/oyvstu/vegplan/internal/adapters/nvdb"
	"github.com/oyvstu/vegplan/internal/adapters/postgres"
	"github.com/oyvstu/vegplan/internal/core/domain"
	geomcore "github.com/oyvstu/vegplan/internal/core/geometry"
	"github.com/oyvstu/vegplan/internal/core/usecases"
)

// pointRequest is the body for point-based operations.
type pointRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p pointRequest) validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return errors.New("lat must be between -90 and 90")
	}
	if p.Lon < -180 || p.Lon > 180 {
		return errors.New("lon must be between -180 and 180")
	}
	return nil
}

// selectRoadRequest selects a road either by point or by reference.
type selectRoadRequest struct {
	pointRequest
	Reference string `json:"reference"`
}

// roadResponse is the wire form of a road selection. The centerline goes
// out as GeoJSON so the rendering client can draw it directly.
type roadResponse struct {
	Sequence   *domain.RoadSequence `json:"sequence"`
	Centerline json.RawMessage      `json:"centerline"`
	Length     float64              `json:"length"`
}

func newRoadResponse(sel *domain.RoadSelection) (*roadResponse, error) {
	cl, err := centerlineGeoJSON(sel.Centerline)
	if err != nil {
		return nil, err
	}
	// Link WKT is bulky and already represented by the centerline.
	seq := *sel.Sequence
	seq.Links = nil
	return &roadResponse{
		Sequence:   &seq,
		Centerline: cl,
		Length:     sel.Centerline.Length,
	}, nil
}

// SelectRoadHandler selects the road nearest a clicked point (or a road
// reference) for the session.
func SelectRoadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Params are backed by fiber's reusable request buffer; the
		// services keep session ids as map keys, so every param that
		// leaves the handler must be copied.
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		var req selectRoadRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		var (
			sel *domain.RoadSelection
			err error
		)
		if req.Reference != "" {
			sel, err = deps.Roads.SelectRoadByReference(c.UserContext(), sessionID, req.Reference)
		} else {
			if req.Lat == 0 && req.Lon == 0 {
				return errBadRequest(c, "lat/lon or reference is required")
			}
			if vErr := req.validate(); vErr != nil {
				return errBadRequest(c, vErr.Error())
			}
			sel, err = deps.Roads.SelectRoad(c.UserContext(), sessionID, req.Lat, req.Lon)
		}

		switch {
		case errors.Is(err, usecases.ErrRoadNotDisplayable):
			return errUnprocessable(c, err.Error())
		case errors.Is(err, nvdb.ErrNoRoadFound):
			return errNotFound(c, "no road near the given position")
		case err != nil:
			return errUpstream(c, err.Error())
		}

		resp, err := newRoadResponse(sel)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(resp)
	}
}

// GetRoadHandler returns the session's current road selection.
func GetRoadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		sel, err := deps.Roads.Selection(sessionID)
		if err != nil {
			return errNotFound(c, "no road selected for session")
		}

		resp, err := newRoadResponse(sel)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(resp)
	}
}

// ClearSessionHandler drops the session's selection and boundaries.
func ClearSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}
		deps.Roads.ClearSession(sessionID)
		deps.Placement.ClearSession(sessionID)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SnapHandler projects a point onto the session's selected centerline.
// Without a selection the point comes back unchanged with snapped=false.
func SnapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		var req pointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		res := deps.Placement.Snap(sessionID, domain.GeoPoint{Lon: req.Lon, Lat: req.Lat})
		return c.JSON(res)
	}
}

// SetBoundaryHandler places a work-zone start or end boundary.
func SetBoundaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		which := domain.BoundaryKind(utils.CopyString(c.Params("which")))
		if which != domain.BoundaryStart && which != domain.BoundaryEnd {
			return errBadRequest(c, "boundary must be 'start' or 'end'")
		}

		var req pointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := req.validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		b := deps.Placement.SetBoundary(sessionID, which, domain.GeoPoint{Lon: req.Lon, Lat: req.Lat})
		return c.JSON(fiber.Map{
			"boundary":      b,
			"same_sequence": deps.Placement.SameSequence(sessionID),
		})
	}
}

// MarkersHandler returns the marker sequence counting outward from a
// placed boundary, as a GeoJSON FeatureCollection.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		which := domain.BoundaryKind(c.Query("boundary", string(domain.BoundaryStart)))
		if which != domain.BoundaryStart && which != domain.BoundaryEnd {
			return errBadRequest(c, "boundary must be 'start' or 'end'")
		}

		dir := geomcore.Direction(c.Query("direction", string(geomcore.DirectionForward)))
		if dir != geomcore.DirectionForward && dir != geomcore.DirectionBackward {
			return errBadRequest(c, "direction must be 'forward' or 'backward'")
		}

		markers := deps.Placement.Markers(sessionID, which, dir)
		fc, err := markersGeoJSON(markers)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(fc)
	}
}

// ChainageHandler returns the fixed-interval distance labels for the
// session's selected road, as a GeoJSON FeatureCollection.
func ChainageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := utils.CopyString(c.Params("id"))
		if sessionID == "" {
			return errBadRequest(c, "session id is required")
		}

		labels := deps.Placement.Chainage(sessionID)
		fc, err := chainageGeoJSON(labels)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(fc)
	}
}

// CreatePlanHandler persists a new traffic plan.
func CreatePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var plan domain.Plan
		if err := c.BodyParser(&plan); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}

		if err := deps.Plans.Create(c.UserContext(), &plan); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(plan)
	}
}

// GetPlanHandler returns a single plan by ID.
func GetPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}
		plan, err := deps.Plans.GetByID(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "plan not found")
		}
		return c.JSON(plan)
	}
}

// ListPlansHandler lists plans, newest first.
func ListPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		plans, err := deps.Plans.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		total := offset + len(plans)
		if deps.DB != nil {
			row := deps.DB.Pool.QueryRow(c.Context(), `SELECT count(*) FROM plans`)
			if err := row.Scan(&total); err != nil {
				return errInternal(c, err.Error())
			}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: plans, Pagination: pg})
	}
}

// UpdatePlanHandler replaces a plan's contents.
func UpdatePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}

		var plan domain.Plan
		if err := c.BodyParser(&plan); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		plan.ID = id

		if err := deps.Plans.Update(c.UserContext(), &plan); err != nil {
			if errors.Is(err, postgres.ErrPlanNotFound) {
				return errNotFound(c, "plan not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(plan)
	}
}

// DeletePlanHandler removes a plan.
func DeletePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Params("id"))
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}
		if err := deps.Plans.Delete(c.UserContext(), id); err != nil {
			return errNotFound(c, "plan not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LegacyCenterlineHandler flattens road geometry posted as raw GeoJSON,
// the shape plans saved before sequence references existed. Deprecated in
// favor of session road selection.
func LegacyCenterlineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return errBadRequest(c, "GeoJSON body is required")
		}

		cl := deps.Plans.LegacyCenterline(body)
		if cl == nil {
			return errUnprocessable(c, "no line geometry in the given GeoJSON")
		}

		out, err := centerlineGeoJSON(cl)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"centerline": json.RawMessage(out),
			"length":     cl.Length,
		})
	}
}

// --- GeoJSON encoding helpers ---

func centerlineGeoJSON(cl *domain.Centerline) (json.RawMessage, error) {
	coords := make([]geom.Coord, len(cl.Vertices))
	for i, v := range cl.Vertices {
		coords[i] = geom.Coord{v.Lon, v.Lat}
	}
	ls := geom.NewLineString(geom.XY)
	if _, err := ls.SetCoords(coords); err != nil {
		return nil, err
	}
	return geojson.Marshal(ls)
}

func markersGeoJSON(markers []domain.Marker) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(markers))}
	for _, m := range markers {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{m.Point.Lon, m.Point.Lat}),
			Properties: map[string]interface{}{
				"distance_from_anchor": m.DistanceFromAnchor,
				"size_class":           m.SizeClass,
			},
		})
	}
	return fc.MarshalJSON()
}

func chainageGeoJSON(labels []domain.ChainageLabel) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(labels))}
	for _, l := range labels {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{l.Point.Lon, l.Point.Lat}),
			Properties: map[string]interface{}{
				"distance": l.Distance,
			},
		})
	}
	return fc.MarshalJSON()
}
