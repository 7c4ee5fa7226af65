package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	// EarthRadius is the mean earth radius in meters.
	EarthRadius = 6371e3

	// MetersPerDegree is the length of one degree of latitude, used to turn
	// the planar length scale into a geodesic distance.
	MetersPerDegree = 111_320.0
)

// LatLon is a WGS84 position in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// String formats the position as "lat, lon", the same form Resolve accepts.
func (p LatLon) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

// MarshalJSON encodes the position as a [lat, lon] pair.
func (p LatLon) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lon})
}

// UnmarshalJSON decodes a [lat, lon] pair.
func (p *LatLon) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate pair must have 2 values, got %d", len(pair))
	}
	p.Lat, p.Lon = pair[0], pair[1]
	return nil
}

// Endpoint returns the end of a bearing ray of length*scale degrees.
//
// It treats latitude and longitude as a flat plane: the northing offset is
// length*scale*cos(bearing) and the easting offset is length*scale*sin(bearing),
// both in degrees. This is not geodesically accurate over long distances or at
// high latitudes; existing maps depend on this exact shape. Bearings outside
// [0, 360] alias through cos and sin.
func Endpoint(origin LatLon, bearingDeg, length, scale float64) LatLon {
	rad := toRadians(bearingDeg)
	d := length * scale

	return LatLon{
		Lat: origin.Lat + d*math.Cos(rad),
		Lon: origin.Lon + d*math.Sin(rad),
	}
}

// Destination returns the point reached by travelling distance meters from
// origin along the great circle with the given initial bearing.
func Destination(origin LatLon, bearingDeg, distance float64) LatLon {
	δ := distance / EarthRadius
	θ := toRadians(bearingDeg)

	φ1 := toRadians(origin.Lat)
	λ1 := toRadians(origin.Lon)

	sinφ2 := math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(θ)
	φ2 := math.Asin(sinφ2)
	y := math.Sin(θ) * math.Sin(δ) * math.Cos(φ1)
	x := math.Cos(δ) - math.Sin(φ1)*sinφ2
	λ2 := λ1 + math.Atan2(y, x)

	return LatLon{
		Lat: toDegrees(φ2),
		Lon: wrap180(toDegrees(λ2)),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// wrap180 constrains degrees to the range (-180, 180].
func wrap180(deg float64) float64 {
	if -180 < deg && deg <= 180 {
		return deg
	}
	return math.Mod(math.Mod(deg+180, 360)+360, 360) - 180
}
