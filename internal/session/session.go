// Package session applies sensor and bearing actions to a map session.
//
// A session is a registry of placed sensors plus the figure rendered so far.
// The server keeps no session of its own: the client sends its state with
// every action and receives the next state back. Each action either applies
// completely or leaves the state untouched.
package session

import (
	"errors"
	"fmt"

	"github.com/woozymasta/sensormap/internal/config"
	"github.com/woozymasta/sensormap/internal/geo"
)

// Action kinds.
const (
	AddSensor  = "add-sensor"
	AddBearing = "add-bearing"
)

// Reasons an action is declined.
var (
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownSensor   = errors.New("unknown sensor")
	ErrInvalidLocation = errors.New("invalid location")
	ErrSensorNotPlaced = errors.New("sensor not placed")
	ErrMissingAngle    = errors.New("bearing angle missing")
)

// State is everything a client round-trips between actions.
type State struct {
	Sensors Registry `json:"sensors"`
	Figure  Figure   `json:"figure"`
}

// Action is a single user request. Only the fields of its kind are read.
type Action struct {
	Angle         *float64 `json:"angle,omitempty"`
	Kind          string   `json:"action"`
	Sensor        string   `json:"sensor,omitempty"`
	Location      string   `json:"location,omitempty"`
	BearingSensor string   `json:"bearing_sensor,omitempty"`
	Length        float64  `json:"length,omitempty"`
}

// Result reports whether an action changed the state.
type Result struct {
	Err     error
	Applied bool
}

// Reason is the error text of a declined action, empty when applied.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func declined(err error) Result {
	return Result{Err: err}
}

// Engine applies actions using the configured sensors and bearing settings.
type Engine struct {
	palette    Palette
	allowed    map[string]bool
	projection string
	scale      float64
	width      float64
}

// NewEngine builds an engine from a normalized configuration.
func NewEngine(cfg *config.Config) *Engine {
	allowed := make(map[string]bool, len(cfg.Sensors))
	for _, name := range cfg.SensorNames() {
		allowed[name] = true
	}

	return &Engine{
		palette:    NewPalette(cfg.Colors(), cfg.DefaultColor),
		allowed:    allowed,
		projection: cfg.Bearing.Projection,
		scale:      cfg.Bearing.Scale,
		width:      cfg.Bearing.Width,
	}
}

// Palette returns the color table in use.
func (e *Engine) Palette() Palette {
	return e.palette
}

// Apply runs a on state. On success it returns a new state; on failure it
// returns state unchanged together with the reason. The input is never
// modified.
func (e *Engine) Apply(state State, a Action) (State, Result) {
	switch a.Kind {
	case AddSensor:
		return e.addSensor(state, a)
	case AddBearing:
		return e.addBearing(state, a)
	default:
		return state, declined(fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind))
	}
}

func (e *Engine) addSensor(state State, a Action) (State, Result) {
	if !e.allowed[a.Sensor] {
		return state, declined(fmt.Errorf("%w: %q", ErrUnknownSensor, a.Sensor))
	}

	pos, err := geo.Resolve(a.Location)
	if err != nil {
		return state, declined(fmt.Errorf("%w: %w", ErrInvalidLocation, err))
	}

	next := State{
		Sensors: state.Sensors.Clone(),
		Figure: appendElement(state.Figure, Element{
			Type:  ElementPoint,
			Lat:   pos.Lat,
			Lon:   pos.Lon,
			Color: e.palette.ColorFor(a.Sensor),
			Label: a.Sensor,
		}),
	}
	next.Sensors[a.Sensor] = pos

	return next, Result{Applied: true}
}

func (e *Engine) addBearing(state State, a Action) (State, Result) {
	origin, ok := state.Sensors[a.BearingSensor]
	if !ok {
		return state, declined(fmt.Errorf("%w: %q", ErrSensorNotPlaced, a.BearingSensor))
	}
	if a.Angle == nil {
		return state, declined(ErrMissingAngle)
	}

	end := e.Endpoint(origin, *a.Angle, a.Length)

	next := State{
		Sensors: state.Sensors.Clone(),
		Figure: appendElement(state.Figure, Element{
			Type:   ElementLine,
			Points: []geo.LatLon{origin, end},
			Color:  e.palette.ColorFor(a.BearingSensor),
			Label:  a.BearingSensor + " Bearing",
			Width:  e.width,
		}),
	}

	return next, Result{Applied: true}
}

// Endpoint computes the far end of a bearing line with the configured
// projection.
func (e *Engine) Endpoint(origin geo.LatLon, bearingDeg, length float64) geo.LatLon {
	if e.projection == config.ProjectionGeodesic {
		return geo.Destination(origin, bearingDeg, length*e.scale*geo.MetersPerDegree)
	}
	return geo.Endpoint(origin, bearingDeg, length, e.scale)
}

// appendElement copies f before appending so the caller's figure stays intact.
func appendElement(f Figure, el Element) Figure {
	out := make(Figure, len(f), len(f)+1)
	copy(out, f)
	return append(out, el)
}
