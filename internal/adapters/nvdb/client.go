package nvdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oyvstu/vegplan/internal/core/domain"
	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// ErrNoRoadFound is returned when no road exists near the query point or
// no sequence matches the reference.
var ErrNoRoadFound = errors.New("no road found")

// Client implements ports.RoadSource against the national road database's
// REST API (NVDB). Two calls per lookup: position search resolves the
// sequence id, then the sequence endpoint returns the link geometry.
type Client struct {
	baseURL     string
	defaultSRID int
	http        *http.Client
}

// NewClient creates a road-database client.
func NewClient(baseURL string, timeout time.Duration, defaultSRID int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		defaultSRID: defaultSRID,
		http:        &http.Client{Timeout: timeout},
	}
}

// positionResponse is the shape of GET /posisjon.
type positionResponse []struct {
	Vegsystemreferanse struct {
		Kortform string `json:"kortform"`
	} `json:"vegsystemreferanse"`
	Veglenkesekvens struct {
		ID int64 `json:"veglenkesekvensid"`
	} `json:"veglenkesekvens"`
}

// sequenceResponse is the shape of GET /vegnett/veglenkesekvenser/{id}.
type sequenceResponse struct {
	ID     int64   `json:"veglenkesekvensid"`
	Lengde float64 `json:"lengde"`
	Lenker []struct {
		Startposisjon float64 `json:"startposisjon"`
		Geometri      struct {
			WKT  string `json:"wkt"`
			SRID int    `json:"srid"`
		} `json:"geometri"`
	} `json:"veglenker"`
}

// LookupByPoint returns the road sequence nearest the given geographic
// point, searching within radiusMeters.
func (c *Client) LookupByPoint(ctx context.Context, lon, lat, radiusMeters float64) (*domain.RoadSequence, error) {
	start := time.Now()
	defer func() {
		metrics.RoadLookupDuration.Observe(time.Since(start).Seconds())
	}()

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("maks_avstand", fmt.Sprintf("%.0f", radiusMeters))
	q.Set("srid", "4326")

	var pos positionResponse
	if err := c.getJSON(ctx, "/posisjon?"+q.Encode(), &pos); err != nil {
		return nil, fmt.Errorf("position search: %w", err)
	}
	if len(pos) == 0 {
		return nil, ErrNoRoadFound
	}

	seq, err := c.fetchSequence(ctx, pos[0].Veglenkesekvens.ID)
	if err != nil {
		return nil, err
	}
	seq.Reference = pos[0].Vegsystemreferanse.Kortform
	return seq, nil
}

// LookupByReference resolves a textual road reference (e.g. "FV120").
func (c *Client) LookupByReference(ctx context.Context, ref string) (*domain.RoadSequence, error) {
	start := time.Now()
	defer func() {
		metrics.RoadLookupDuration.Observe(time.Since(start).Seconds())
	}()

	q := url.Values{}
	q.Set("vegsystemreferanse", ref)

	var pos positionResponse
	if err := c.getJSON(ctx, "/veg?"+q.Encode(), &pos); err != nil {
		return nil, fmt.Errorf("reference search %q: %w", ref, err)
	}
	if len(pos) == 0 {
		return nil, ErrNoRoadFound
	}

	seq, err := c.fetchSequence(ctx, pos[0].Veglenkesekvens.ID)
	if err != nil {
		return nil, err
	}
	seq.Reference = pos[0].Vegsystemreferanse.Kortform
	return seq, nil
}

func (c *Client) fetchSequence(ctx context.Context, id int64) (*domain.RoadSequence, error) {
	var sr sequenceResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/vegnett/veglenkesekvenser/%d", id), &sr); err != nil {
		return nil, fmt.Errorf("fetch sequence %d: %w", id, err)
	}

	seq := &domain.RoadSequence{
		ID:             fmt.Sprintf("%d", sr.ID),
		DeclaredLength: sr.Lengde,
		Links:          make([]domain.RoadLink, 0, len(sr.Lenker)),
	}
	for _, l := range sr.Lenker {
		srid := l.Geometri.SRID
		if srid == 0 {
			srid = c.defaultSRID
		}
		seq.Links = append(seq.Links, domain.RoadLink{
			StartPosition: l.Startposisjon,
			WKT:           l.Geometri.WKT,
			SRID:          srid,
		})
	}
	return seq, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoRoadFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
