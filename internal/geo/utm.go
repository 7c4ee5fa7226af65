package geo

import (
	"errors"
	"fmt"

	utm "github.com/im7mortal/UTM"
)

// ErrOutOfUTMRange is returned for latitudes outside the UTM coverage (80S..84N).
var ErrOutOfUTMRange = errors.New("latitude outside UTM range")

// UTM is a Universal Transverse Mercator coordinate on WGS84.
type UTM struct {
	Zone     int
	North    bool
	Easting  float64
	Northing float64
}

// ToUTM projects p into its own UTM zone. Zone selection follows the
// Norway and Svalbard exceptions.
func ToUTM(p LatLon) (UTM, error) {
	if p.Lat < -80 || p.Lat > 84 {
		return UTM{}, fmt.Errorf("%w: %.6f", ErrOutOfUTMRange, p.Lat)
	}

	north := p.Lat >= 0
	easting, northing, zone, _, err := utm.FromLatLon(p.Lat, p.Lon, north)
	if err != nil {
		return UTM{}, fmt.Errorf("project %s: %w", p, err)
	}

	return UTM{Zone: zone, North: north, Easting: easting, Northing: northing}, nil
}

// LatLon converts the UTM coordinate back to geographic coordinates.
func (u UTM) LatLon() (LatLon, error) {
	lat, lon, err := utm.ToLatLon(u.Easting, u.Northing, u.Zone, "", u.North)
	if err != nil {
		return LatLon{}, fmt.Errorf("zone %d easting %.0f northing %.0f: %w", u.Zone, u.Easting, u.Northing, err)
	}

	return LatLon{Lat: lat, Lon: wrap180(lon)}, nil
}
