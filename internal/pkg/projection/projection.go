// Package projection converts coordinates from the projected reference
// systems used by the national road database into geographic degrees.
// The road database delivers geometry in ETRS89 / UTM (EPSG 25832/25833/
// 25835, or the 5972/5973/5975 aliases that add NN2000 heights); the map
// client works in WGS 84 degrees, and at this accuracy ETRS89 and WGS 84
// are treated as identical.
package projection

import (
	"log/slog"
	"math"
	"sync"

	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// DefaultSRID is the reference system assumed when a road link does not
// declare one: ETRS89 / UTM zone 33N, the national default.
const DefaultSRID = 25833

// Projection converts between a source reference system and geographic
// degrees.
type Projection interface {
	// ToWGS84 converts source coordinates to (lon, lat) degrees.
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts (lon, lat) degrees to source coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// SRID returns the EPSG code for this projection.
	SRID() int
}

var (
	mu       sync.RWMutex
	registry = map[int]Projection{}
)

// Register makes a projection available to ForSRID. Definitions must be
// registered before first use; the standard Norwegian zones are registered
// at package init.
func Register(p Projection) {
	mu.Lock()
	defer mu.Unlock()
	registry[p.SRID()] = p
}

// ForSRID returns the projection registered for the given EPSG code, or
// nil if the code is unknown.
func ForSRID(srid int) Projection {
	mu.RLock()
	defer mu.RUnlock()
	return registry[srid]
}

// Project converts one (x, y) pair from the given source system to
// (lon, lat) degrees. Geographic codes pass through untouched. An unknown
// code degrades to the identity transform: the pair is returned unchanged
// and the degradation is logged and counted, so a visibly wrong geometry
// is preferred over a crash.
func Project(x, y float64, srid int) (lon, lat float64) {
	if srid == 0 {
		srid = DefaultSRID
	}

	p := ForSRID(srid)
	if p == nil {
		slog.Warn("projection definition unavailable, returning coordinates unchanged",
			"srid", srid)
		metrics.ProjectionFallbacks.WithLabelValues("unknown_srid").Inc()
		return x, y
	}

	return p.ToWGS84(x, y)
}

func init() {
	// Geographic systems: identity.
	Register(Geographic{Code: 4326}) // WGS 84
	Register(Geographic{Code: 4258}) // ETRS89

	// ETRS89 / UTM zones covering Norway, plus the road database's
	// compound-CRS aliases (the height component is never consumed).
	for _, z := range []struct{ code, zone int }{
		{25832, 32}, {25833, 33}, {25835, 35},
		{5972, 32}, {5973, 33}, {5975, 35},
	} {
		Register(NewUTM(z.code, z.zone))
	}
}

// Geographic is the no-op projection for data already in degrees.
// Input order for geographic codes is (lon, lat).
type Geographic struct {
	Code int
}

func (g Geographic) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (g Geographic) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (g Geographic) SRID() int                                 { return g.Code }

// UTM is an ellipsoidal transverse-Mercator zone on the GRS80 ellipsoid
// with the standard UTM false origin. The mapping uses the Krüger series
// in the third flattening (Karney 2011, order n^4), which stays well
// below survey accuracy across the full width Norwegian road data spans
// around a zone's central meridian.
type UTM struct {
	code int
	lon0 float64 // central meridian, radians
}

// GRS80 ellipsoid.
const (
	semiMajor = 6378137.0
	flat      = 1.0 / 298.257222101

	scale        = 0.9996
	falseEasting = 500000.0
)

var (
	e2  = flat * (2 - flat) // first eccentricity squared
	ecc = math.Sqrt(e2)

	thirdFlat  = flat / (2 - flat)
	rectRadius = semiMajor / (1 + thirdFlat) *
		(1 + thirdFlat*thirdFlat/4 + thirdFlat*thirdFlat*thirdFlat*thirdFlat/64)
	fwdCoef = krugerForward(thirdFlat)
	invCoef = krugerInverse(thirdFlat)
)

// krugerForward returns the alpha series terms mapping conformal to
// rectifying coordinates.
func krugerForward(n float64) [4]float64 {
	n2, n3, n4 := n*n, n*n*n, n*n*n*n
	return [4]float64{
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
		13*n2/48 - 3*n3/5 + 557*n4/1440,
		61*n3/240 - 103*n4/140,
		49561 * n4 / 161280,
	}
}

// krugerInverse returns the beta series terms for the reverse mapping.
func krugerInverse(n float64) [4]float64 {
	n2, n3, n4 := n*n, n*n*n, n*n*n*n
	return [4]float64{
		n/2 - 2*n2/3 + 37*n3/96 - n4/360,
		n2/48 + n3/15 - 437*n4/1440,
		17*n3/480 - 37*n4/840,
		4397 * n4 / 161280,
	}
}

// NewUTM returns the northern-hemisphere UTM zone with the given EPSG code.
func NewUTM(code, zone int) UTM {
	lon0Deg := float64(zone)*6 - 183
	return UTM{code: code, lon0: toRad(lon0Deg)}
}

func (u UTM) SRID() int { return u.code }

// tauPrime maps tan(phi) to the tangent of the conformal latitude.
func tauPrime(tau float64) float64 {
	sig := math.Sinh(ecc * math.Atanh(ecc*tau/math.Hypot(1, tau)))
	return tau*math.Hypot(1, sig) - sig*math.Hypot(1, tau)
}

// tauInverse recovers tan(phi) from the conformal tangent by Newton
// iteration on tauPrime. A handful of steps converges anywhere on the
// ellipsoid.
func tauInverse(taup float64) float64 {
	e2m := 1 - e2
	tau := taup / e2m
	for i := 0; i < 6; i++ {
		taupApprox := tauPrime(tau)
		dtau := (taup - taupApprox) * (1 + e2m*tau*tau) /
			(e2m * math.Hypot(1, tau) * math.Hypot(1, taupApprox))
		tau += dtau
		if math.Abs(dtau) <= 1e-15*math.Max(1, math.Abs(tau)) {
			break
		}
	}
	return tau
}

func (u UTM) FromWGS84(lon, lat float64) (x, y float64) {
	phi := toRad(lat)
	dlam := toRad(lon) - u.lon0

	taup := tauPrime(math.Tan(phi))
	cosDlam := math.Cos(dlam)

	xiP := math.Atan2(taup, cosDlam)
	etaP := math.Asinh(math.Sin(dlam) / math.Hypot(taup, cosDlam))

	xi, eta := xiP, etaP
	for j, a := range fwdCoef {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	return falseEasting + scale*rectRadius*eta, scale * rectRadius * xi
}

func (u UTM) ToWGS84(x, y float64) (lon, lat float64) {
	xi := y / (scale * rectRadius)
	eta := (x - falseEasting) / (scale * rectRadius)

	xiP, etaP := xi, eta
	for j, b := range invCoef {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	sinhEtaP := math.Sinh(etaP)
	cosXiP := math.Cos(xiP)

	taup := math.Sin(xiP) / math.Hypot(sinhEtaP, cosXiP)
	lam := u.lon0 + math.Atan2(sinhEtaP, cosXiP)
	phi := math.Atan(tauInverse(taup))

	return toDeg(lam), toDeg(phi)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }
