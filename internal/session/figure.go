package session

import (
	"encoding/json"
	"fmt"

	"github.com/woozymasta/sensormap/internal/geo"
)

// Element types of the render payload.
const (
	ElementPoint = "point"
	ElementLine  = "line"
)

// Element is one rendered map item: a sensor marker or a bearing line.
type Element struct {
	Type   string       `json:"type"`
	Color  string       `json:"color"`
	Label  string       `json:"label"`
	Points []geo.LatLon `json:"points,omitempty"`
	Lat    float64      `json:"lat"`
	Lon    float64      `json:"lon"`
	Width  float64      `json:"width,omitempty"`
}

// Figure is the append-only list of rendered elements.
type Figure []Element

// MarshalJSON writes lat/lon for points and points for lines only.
func (e Element) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case ElementPoint:
		return json.Marshal(struct {
			Type  string  `json:"type"`
			Lat   float64 `json:"lat"`
			Lon   float64 `json:"lon"`
			Color string  `json:"color"`
			Label string  `json:"label"`
		}{e.Type, e.Lat, e.Lon, e.Color, e.Label})
	case ElementLine:
		return json.Marshal(struct {
			Type   string       `json:"type"`
			Points []geo.LatLon `json:"points"`
			Color  string       `json:"color"`
			Label  string       `json:"label"`
			Width  float64      `json:"width,omitempty"`
		}{e.Type, e.Points, e.Color, e.Label, e.Width})
	default:
		return nil, fmt.Errorf("unknown element type %q", e.Type)
	}
}

// Validate checks that every element is a well-formed point or line.
func (f Figure) Validate() error {
	for i, e := range f {
		switch e.Type {
		case ElementPoint:
		case ElementLine:
			if len(e.Points) != 2 {
				return fmt.Errorf("element %d: line needs 2 points, got %d", i, len(e.Points))
			}
		default:
			return fmt.Errorf("element %d: unknown type %q", i, e.Type)
		}
	}
	return nil
}

// GeoJSON converts the figure into a feature collection for export.
func (f Figure) GeoJSON() geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection()
	for _, e := range f {
		props := map[string]any{
			"name":  e.Label,
			"color": e.Color,
		}

		switch e.Type {
		case ElementPoint:
			fc.Features = append(fc.Features, geo.PointFeature(geo.LatLon{Lat: e.Lat, Lon: e.Lon}, props))
		case ElementLine:
			fc.Features = append(fc.Features, geo.LineFeature(e.Points, props))
		}
	}
	return fc
}
