package projection

import (
	"math"
	"testing"
)

func TestProject_GeographicPassThrough(t *testing.T) {
	lon, lat := Project(10.7522, 59.9139, 4326)
	if lon != 10.7522 || lat != 59.9139 {
		t.Errorf("expected identical pair, got (%f, %f)", lon, lat)
	}
}

func TestProject_UnknownSRIDReturnsInputUnchanged(t *testing.T) {
	x, y := Project(123456.0, 654321.0, 99999)
	if x != 123456.0 || y != 654321.0 {
		t.Errorf("expected unchanged input on unknown SRID, got (%f, %f)", x, y)
	}
}

func TestProject_DefaultSRIDIsUTM33(t *testing.T) {
	// SRID 0 must fall back to the national default, not to identity.
	lon, lat := Project(262000, 6650000, 0)
	lon33, lat33 := Project(262000, 6650000, 25833)
	if lon != lon33 || lat != lat33 {
		t.Errorf("default SRID mismatch: (%f,%f) vs (%f,%f)", lon, lat, lon33, lat33)
	}
}

func TestUTM33_RoundTrip(t *testing.T) {
	points := []struct{ lon, lat float64 }{
		{10.7522, 59.9139}, // Oslo
		{5.3221, 60.3913},  // Bergen
		{18.9553, 69.6496}, // Tromsø
		{15.0, 65.0},       // on the central meridian
	}

	utm := NewUTM(25833, 33)
	for _, p := range points {
		x, y := utm.FromWGS84(p.lon, p.lat)
		lon, lat := utm.ToWGS84(x, y)
		if math.Abs(lon-p.lon) > 1e-7 || math.Abs(lat-p.lat) > 1e-7 {
			t.Errorf("round trip for (%f, %f) gave (%f, %f)", p.lon, p.lat, lon, lat)
		}
	}
}

func TestUTM33_WestCoastRoundTripTight(t *testing.T) {
	// Bergen and Stad sit 9-10 degrees west of the zone 33 central
	// meridian; sign placement needs sub-meter accuracy even there.
	points := []struct{ lon, lat float64 }{
		{5.3221, 60.3913},
		{5.1167, 62.1914},
	}

	utm := NewUTM(25833, 33)
	for _, p := range points {
		x, y := utm.FromWGS84(p.lon, p.lat)
		lon, lat := utm.ToWGS84(x, y)
		if math.Abs(lon-p.lon) > 1e-9 || math.Abs(lat-p.lat) > 1e-9 {
			t.Errorf("round trip for (%f, %f) gave (%.10f, %.10f)", p.lon, p.lat, lon, lat)
		}
	}
}

func TestUTM33_SymmetricAboutCentralMeridian(t *testing.T) {
	// A transverse-Mercator mapping mirrors eastings about the central
	// meridian at equal northing.
	utm := NewUTM(25833, 33)
	for _, offset := range []float64{1, 5, 9.7} {
		xW, yW := utm.FromWGS84(15-offset, 63)
		xE, yE := utm.FromWGS84(15+offset, 63)
		if math.Abs(xW+xE-2*falseEasting) > 1e-5 {
			t.Errorf("offset %.1f: eastings %f and %f are not mirrored", offset, xW, xE)
		}
		if math.Abs(yW-yE) > 1e-5 {
			t.Errorf("offset %.1f: northings %f and %f differ", offset, yW, yE)
		}
	}
}

func TestUTM33_OsloPlausibleEastingNorthing(t *testing.T) {
	// Oslo lies well west of the zone 33 central meridian (15°E), so the
	// easting must be below the 500 km false easting; the northing is in
	// the 6.6–6.7 Mm band.
	utm := NewUTM(25833, 33)
	x, y := utm.FromWGS84(10.7522, 59.9139)
	if x >= falseEasting || x < 200000 {
		t.Errorf("implausible easting %f", x)
	}
	if y < 6.6e6 || y > 6.7e6 {
		t.Errorf("implausible northing %f", y)
	}
}

func TestCompoundAliasMatchesPlainZone(t *testing.T) {
	// 5973 is 25833 plus a height component this package never consumes.
	lonA, latA := Project(262000, 6650000, 5973)
	lonB, latB := Project(262000, 6650000, 25833)
	if lonA != lonB || latA != latB {
		t.Errorf("alias mismatch: (%f,%f) vs (%f,%f)", lonA, latA, lonB, latB)
	}
}

func TestForSRID_UnknownIsNil(t *testing.T) {
	if p := ForSRID(2276); p != nil {
		t.Errorf("expected nil projection for unregistered SRID, got %v", p)
	}
}
