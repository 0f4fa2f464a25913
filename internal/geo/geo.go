package geo

import (
	"encoding/json"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies in the representable range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Fence is a circular allowed area around a center point.
type Fence struct {
	Center       Coordinate
	RadiusMeters int
}

// DistanceTo returns the distance in meters from c to the fence center.
func (f Fence) DistanceTo(c Coordinate) float64 {
	return Distance(c, f.Center)
}

// Contains reports whether c lies within the fence radius.
func (f Fence) Contains(c Coordinate) bool {
	return f.DistanceTo(c) <= float64(f.RadiusMeters)
}

// fenceJSON is the flat wire shape: {lat, lng, radius_meters}.
type fenceJSON struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters int     `json:"radius_meters"`
}

func (f Fence) MarshalJSON() ([]byte, error) {
	return json.Marshal(fenceJSON{Lat: f.Center.Lat, Lng: f.Center.Lng, RadiusMeters: f.RadiusMeters})
}

func (f *Fence) UnmarshalJSON(data []byte) error {
	var raw fenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Center = Coordinate{Lat: raw.Lat, Lng: raw.Lng}
	f.RadiusMeters = raw.RadiusMeters
	return nil
}

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula. Identical points yield exactly 0.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Clamp guards against h creeping past 1 for near-antipodal points.
	if h > 1 {
		h = 1
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}
