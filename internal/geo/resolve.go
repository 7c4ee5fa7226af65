package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinates is returned when "lat, lon" input does not parse.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Resolve turns free-form location text into a position.
//
// Text splitting into exactly two comma separated parts must be a decimal
// "lat, lon" pair; a pair that fails to parse is an error and is not retried
// as a grid reference. Any other text is parsed as an MGRS reference.
func Resolve(input string) (LatLon, error) {
	parts := strings.Split(input, ",")
	if len(parts) == 2 {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err := errors.Join(errLat, errLon); err != nil {
			return LatLon{}, fmt.Errorf("%w: %q: %w", ErrInvalidCoordinates, input, err)
		}
		if !finite(lat) || !finite(lon) {
			return LatLon{}, fmt.Errorf("%w: %q: not a finite number", ErrInvalidCoordinates, input)
		}
		return LatLon{Lat: lat, Lon: lon}, nil
	}

	return MGRSToLatLon(input)
}

// finite rejects the NaN and Inf spellings strconv accepts.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
