package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMGRS is returned for a malformed or unsupported grid reference.
var ErrInvalidMGRS = errors.New("invalid MGRS reference")

const (
	// latitude bands C..X, X repeated to cover 80..84N
	latBands = "CDEFGHJKLMNPQRSTUVWXX"

	gridSquare = 100e3
	twoMillion = 2000e3

	// bandTolerance allows a cell corner to fall slightly outside its band.
	bandTolerance = 0.5
)

// 100 km column letters per zone set, row letters per odd/even zone.
var (
	e100kLetters = [3]string{"ABCDEFGH", "JKLMNPQR", "STUVWXYZ"}
	n100kLetters = [2]string{"ABCDEFGHJKLMNPQRSTUV", "FGHJKLMNPQRSTUVABCDE"}
)

// MGRS is a parsed Military Grid Reference.
type MGRS struct {
	Zone      int
	Band      byte
	Column    byte
	Row       byte
	Easting   float64 // meters within the 100 km square
	Northing  float64 // meters within the 100 km square
	Precision int     // digits per axis, 0..5
}

// ParseMGRS parses a grid reference such as "33TWN0000466206" or
// "33T WN 00004 66206". Letters are case-insensitive.
func ParseMGRS(ref string) (MGRS, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(ref), ""))
	if s == "" {
		return MGRS{}, fmt.Errorf("%w: empty", ErrInvalidMGRS)
	}

	i := 0
	for i < len(s) && i < 2 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return MGRS{}, fmt.Errorf("%w: %q: missing zone number", ErrInvalidMGRS, ref)
	}
	zone, _ := strconv.Atoi(s[:i])
	if zone < 1 || zone > 60 {
		return MGRS{}, fmt.Errorf("%w: %q: zone %d out of range", ErrInvalidMGRS, ref, zone)
	}

	if len(s) < i+3 {
		return MGRS{}, fmt.Errorf("%w: %q: too short", ErrInvalidMGRS, ref)
	}

	m := MGRS{Zone: zone, Band: s[i], Column: s[i+1], Row: s[i+2]}
	if strings.IndexByte(latBands, m.Band) < 0 {
		return MGRS{}, fmt.Errorf("%w: %q: unsupported latitude band %q", ErrInvalidMGRS, ref, m.Band)
	}
	if strings.IndexByte(e100kLetters[(zone-1)%3], m.Column) < 0 {
		return MGRS{}, fmt.Errorf("%w: %q: column letter %q not valid in zone %d", ErrInvalidMGRS, ref, m.Column, zone)
	}
	if strings.IndexByte(n100kLetters[(zone-1)%2], m.Row) < 0 {
		return MGRS{}, fmt.Errorf("%w: %q: invalid row letter %q", ErrInvalidMGRS, ref, m.Row)
	}

	digits := s[i+3:]
	if len(digits)%2 != 0 || len(digits) > 10 {
		return MGRS{}, fmt.Errorf("%w: %q: easting and northing must have equal length", ErrInvalidMGRS, ref)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return MGRS{}, fmt.Errorf("%w: %q: unexpected character %q", ErrInvalidMGRS, ref, c)
		}
	}

	m.Precision = len(digits) / 2
	if m.Precision > 0 {
		unit := math.Pow(10, float64(5-m.Precision))
		e, _ := strconv.Atoi(digits[:m.Precision])
		n, _ := strconv.Atoi(digits[m.Precision:])
		m.Easting = float64(e) * unit
		m.Northing = float64(n) * unit
	}

	return m, nil
}

// UTM converts the reference to the UTM coordinate of its south-west corner.
func (m MGRS) UTM() (UTM, error) {
	col := strings.IndexByte(e100kLetters[(m.Zone-1)%3], m.Column)
	row := strings.IndexByte(n100kLetters[(m.Zone-1)%2], m.Row)
	band := strings.IndexByte(latBands, m.Band)
	if col < 0 || row < 0 || band < 0 {
		return UTM{}, fmt.Errorf("%w: %s", ErrInvalidMGRS, m)
	}

	north := m.Band >= 'N'
	e100k := float64(col+1) * gridSquare
	n100k := float64(row) * gridSquare

	// the 100 km row letters repeat every 2000 km; pick the cycle that
	// lands at or above the bottom of the latitude band, measured on the
	// zone 1 central meridian where no zone exception applies
	bandLat := float64((band - 10) * 8)
	bottom, err := ToUTM(LatLon{Lat: bandLat, Lon: -177})
	if err != nil {
		return UTM{}, err
	}
	bandNorthing := math.Floor(bottom.Northing/gridSquare) * gridSquare
	if bandLat == 0 {
		bandNorthing = 0
	}

	n2M := 0.0
	for n2M+n100k+m.Northing < bandNorthing {
		n2M += twoMillion
	}

	return UTM{
		Zone:     m.Zone,
		North:    north,
		Easting:  e100k + m.Easting,
		Northing: n2M + n100k + m.Northing,
	}, nil
}

// LatLon converts the reference to the position of its south-west corner.
func (m MGRS) LatLon() (LatLon, error) {
	u, err := m.UTM()
	if err != nil {
		return LatLon{}, err
	}

	p, err := u.LatLon()
	if err != nil {
		return LatLon{}, fmt.Errorf("%w: %s: %w", ErrInvalidMGRS, m, err)
	}

	band := strings.IndexByte(latBands, m.Band)
	minLat := float64((band - 10) * 8)
	maxLat := minLat + 8
	if m.Band == 'X' {
		maxLat = 84
	}
	if p.Lat < minLat-bandTolerance || p.Lat > maxLat+bandTolerance {
		return LatLon{}, fmt.Errorf("%w: %s: row %q does not fall in band %q", ErrInvalidMGRS, m, m.Row, m.Band)
	}

	return p, nil
}

// String formats the reference without separators.
func (m MGRS) String() string {
	if m.Precision == 0 {
		return fmt.Sprintf("%02d%c%c%c", m.Zone, m.Band, m.Column, m.Row)
	}

	unit := math.Pow(10, float64(5-m.Precision))
	e := int(math.Floor(m.Easting / unit))
	n := int(math.Floor(m.Northing / unit))

	return fmt.Sprintf("%02d%c%c%c%0*d%0*d", m.Zone, m.Band, m.Column, m.Row, m.Precision, e, m.Precision, n)
}

// MGRSToLatLon parses ref and returns the south-west corner of its cell.
func MGRSToLatLon(ref string) (LatLon, error) {
	m, err := ParseMGRS(ref)
	if err != nil {
		return LatLon{}, err
	}
	return m.LatLon()
}

// LatLonToMGRS encodes p as a grid reference with precision digits per axis.
func LatLonToMGRS(p LatLon, precision int) (MGRS, error) {
	if precision < 0 || precision > 5 {
		return MGRS{}, fmt.Errorf("precision %d out of range 0..5", precision)
	}

	u, err := ToUTM(p)
	if err != nil {
		return MGRS{}, err
	}

	bandIdx := int(math.Floor(p.Lat/8 + 10))
	if bandIdx > len(latBands)-1 {
		bandIdx = len(latBands) - 1
	}

	// round away float noise before truncating to the cell
	easting := math.Round(u.Easting*1e6) / 1e6
	northing := math.Round(u.Northing*1e6) / 1e6

	col := int(math.Floor(easting / gridSquare))
	row := int(math.Floor(northing/gridSquare)) % 20
	if col < 1 || col > 8 {
		return MGRS{}, fmt.Errorf("%w: easting %.0f outside zone %d", ErrInvalidMGRS, easting, u.Zone)
	}

	m := MGRS{
		Zone:      u.Zone,
		Band:      latBands[bandIdx],
		Column:    e100kLetters[(u.Zone-1)%3][col-1],
		Row:       n100kLetters[(u.Zone-1)%2][row],
		Precision: precision,
	}

	if precision > 0 {
		unit := math.Pow(10, float64(5-precision))
		m.Easting = math.Floor(math.Mod(easting, gridSquare)/unit) * unit
		m.Northing = math.Floor(math.Mod(northing, gridSquare)/unit) * unit
	}

	return m, nil
}
