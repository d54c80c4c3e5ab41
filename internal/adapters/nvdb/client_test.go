package nvdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/posisjon", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			http.Error(w, "missing coordinates", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"vegsystemreferanse": {"kortform": "FV120"},
			"veglenkesekvens": {"veglenkesekvensid": 1042801}
		}]`))
	})
	mux.HandleFunc("/veg", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vegsystemreferanse") != "FV120" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"vegsystemreferanse": {"kortform": "FV120"},
			"veglenkesekvens": {"veglenkesekvensid": 1042801}
		}]`))
	})
	mux.HandleFunc("/vegnett/veglenkesekvenser/1042801", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"veglenkesekvensid": 1042801,
			"lengde": 250.5,
			"veglenker": [
				{"startposisjon": 0, "geometri": {"wkt": "LINESTRING (262000 6650000, 262100 6650100)", "srid": 25833}},
				{"startposisjon": 100, "geometri": {"wkt": "LINESTRING (262100 6650100, 262200 6650200)"}}
			]
		}`))
	})
	return httptest.NewServer(mux)
}

func TestClient_LookupByPoint(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	seq, err := c.LookupByPoint(context.Background(), 10.9, 59.7, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.ID != "1042801" {
		t.Errorf("expected sequence 1042801, got %s", seq.ID)
	}
	if seq.Reference != "FV120" {
		t.Errorf("expected reference FV120, got %s", seq.Reference)
	}
	if seq.DeclaredLength != 250.5 {
		t.Errorf("expected declared length 250.5, got %f", seq.DeclaredLength)
	}
	if len(seq.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(seq.Links))
	}
	if seq.Links[0].SRID != 25833 {
		t.Errorf("expected explicit srid 25833, got %d", seq.Links[0].SRID)
	}
	if seq.Links[1].SRID != 25833 {
		t.Errorf("missing srid should fall back to the default, got %d", seq.Links[1].SRID)
	}
}

func TestClient_LookupByReference(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	seq, err := c.LookupByReference(context.Background(), "FV120")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.ID != "1042801" || len(seq.Links) != 2 {
		t.Errorf("unexpected sequence %+v", seq)
	}
}

func TestClient_LookupByReference_NotFound(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	_, err := c.LookupByReference(context.Background(), "FV999")
	if !errors.Is(err, ErrNoRoadFound) {
		t.Fatalf("expected ErrNoRoadFound, got %v", err)
	}
}

func TestClient_EmptyPositionResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	_, err := c.LookupByPoint(context.Background(), 10.9, 59.7, 50)
	if !errors.Is(err, ErrNoRoadFound) {
		t.Fatalf("expected ErrNoRoadFound, got %v", err)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	_, err := c.LookupByPoint(context.Background(), 10.9, 59.7, 50)
	if err == nil || !strings.Contains(err.Error(), "unexpected status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, 25833)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.LookupByPoint(ctx, 10.9, 59.7, 50); err == nil {
		t.Fatal("expected a context error")
	}
}
