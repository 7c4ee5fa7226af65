package session

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/woozymasta/sensormap/internal/geo"
)

// Registry maps a sensor name to its current position.
type Registry map[string]geo.LatLon

// Clone returns an independent copy, never nil.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	maps.Copy(out, r)
	return out
}

// Names returns the registered sensor names in sorted order.
func (r Registry) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// Option is an entry of the bearing source selector.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Options lists the sensors that can be used as a bearing source.
func Options(r Registry) []Option {
	names := r.Names()
	opts := make([]Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, Option{Label: name, Value: name})
	}
	return opts
}

// EncodeRegistry serializes the registry as {"name": [lat, lon]}.
func EncodeRegistry(r Registry) (string, error) {
	if r == nil {
		r = Registry{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeRegistry parses the output of EncodeRegistry. Blank input is an
// empty registry.
func DecodeRegistry(s string) (Registry, error) {
	r := Registry{}
	if strings.TrimSpace(s) == "" {
		return r, nil
	}
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Registry{}
	}
	return r, nil
}
