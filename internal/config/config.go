// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/woozymasta/sensormap/internal/geo"

	"gopkg.in/yaml.v3"
)

// Bearing projections.
const (
	ProjectionPlanar   = "planar"
	ProjectionGeodesic = "geodesic"
)

// Config represents the root configuration file structure.
type Config struct {
	Title        string   `yaml:"title" json:"title"`
	Attribution  string   `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	DefaultColor string   `yaml:"default_color" json:"default_color"`
	Sensors      []Sensor `yaml:"sensors" json:"sensors"`
	Map          MapView  `yaml:"map" json:"map"`
	Bearing      Bearing  `yaml:"bearing" json:"bearing"`
}

// Sensor is one entry of the fixed set of placeable sensors.
type Sensor struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color,omitempty" json:"color"`
}

// MapView is the initial view of the map.
type MapView struct {
	Tiles  string     `yaml:"tiles" json:"tiles"`
	Center geo.LatLon `yaml:"center" json:"center"`
	Zoom   int        `yaml:"zoom" json:"zoom"`
}

// Bearing controls how bearing lines are computed and drawn.
type Bearing struct {
	Projection string  `yaml:"projection" json:"projection"`
	Length     Slider  `yaml:"length" json:"length"`
	Scale      float64 `yaml:"scale" json:"scale"`
	Width      float64 `yaml:"width" json:"width"`
}

// Slider bounds for the bearing length input.
type Slider struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Default float64 `yaml:"default" json:"default"`
	Step    float64 `yaml:"step" json:"step"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Title:        "Interactive Map",
		Attribution:  "&copy; OpenStreetMap contributors",
		DefaultColor: "black",
		Sensors: []Sensor{
			{Name: "S1", Color: "blue"},
			{Name: "S2", Color: "red"},
			{Name: "S3", Color: "green"},
			{Name: "S4", Color: "purple"},
			{Name: "S5", Color: "orange"},
			{Name: "S6", Color: "pink"},
			{Name: "SGC 1", Color: "cyan"},
			{Name: "SGC 2", Color: "magenta"},
			{Name: "SGC 3", Color: "yellow"},
			{Name: "TSARC 1", Color: "brown"},
			{Name: "TSARC 2", Color: "grey"},
			{Name: "TSARC 3", Color: "black"},
		},
		Map: MapView{
			Tiles:  "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Center: geo.LatLon{Lat: 51.8007, Lon: -4.9691},
			Zoom:   10,
		},
		Bearing: Bearing{
			Projection: ProjectionPlanar,
			Scale:      5,
			Width:      1.5,
			Length: Slider{
				Min:     0.01,
				Max:     1,
				Default: 0.05,
				Step:    0.01,
			},
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Normalize fills derived defaults and validates the configuration.
func (c *Config) Normalize() error {
	if c.DefaultColor == "" {
		c.DefaultColor = "black"
	}
	if c.Bearing.Projection == "" {
		c.Bearing.Projection = ProjectionPlanar
	}

	var errs []error

	if len(c.Sensors) == 0 {
		errs = append(errs, errors.New("at least one sensor is required"))
	}
	seen := make(map[string]bool, len(c.Sensors))
	for i := range c.Sensors {
		s := &c.Sensors[i]
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("sensor #%d has no name", i+1))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate sensor %q", s.Name))
		}
		seen[s.Name] = true
	}

	switch c.Bearing.Projection {
	case ProjectionPlanar, ProjectionGeodesic:
	default:
		errs = append(errs, fmt.Errorf("unknown bearing projection %q", c.Bearing.Projection))
	}

	if c.Bearing.Scale <= 0 {
		errs = append(errs, fmt.Errorf("bearing scale must be > 0, got %v", c.Bearing.Scale))
	}

	l := c.Bearing.Length
	if l.Min >= l.Max {
		errs = append(errs, fmt.Errorf("bearing length min %v must be below max %v", l.Min, l.Max))
	} else if l.Default < l.Min || l.Default > l.Max {
		errs = append(errs, fmt.Errorf("bearing length default %v outside [%v, %v]", l.Default, l.Min, l.Max))
	}
	if l.Step <= 0 {
		errs = append(errs, fmt.Errorf("bearing length step must be > 0, got %v", l.Step))
	}

	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Errorf("map zoom %d out of range 0..22", c.Map.Zoom))
	}

	return errors.Join(errs...)
}

// SensorNames returns the configured sensor names in order.
func (c *Config) SensorNames() []string {
	names := make([]string, 0, len(c.Sensors))
	for _, s := range c.Sensors {
		names = append(names, s.Name)
	}
	return names
}

// Colors returns the sensor name to display color table.
// Sensors without a color are left out and fall back to DefaultColor.
func (c *Config) Colors() map[string]string {
	colors := make(map[string]string, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.Color != "" {
			colors[s.Name] = s.Color
		}
	}
	return colors
}
