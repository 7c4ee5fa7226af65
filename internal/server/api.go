package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/sensormap/internal/config"
	"github.com/woozymasta/sensormap/internal/geo"
	"github.com/woozymasta/sensormap/internal/session"
)

type sensorView struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type configView struct {
	Title       string         `json:"title"`
	Attribution string         `json:"attribution,omitempty"`
	Sensors     []sensorView   `json:"sensors"`
	Map         config.MapView `json:"map"`
	Bearing     config.Bearing `json:"bearing"`
}

type errorView struct {
	Error string `json:"error"`
}

// actionRequest is an action plus the session state the client holds.
type actionRequest struct {
	session.Action
	Store  string         `json:"store"`
	Figure session.Figure `json:"figure"`
}

// actionResponse is the next session state. When Updated is false the state
// is the one that was sent.
type actionResponse struct {
	Reason  string           `json:"reason,omitempty"`
	Store   string           `json:"store"`
	Figure  session.Figure   `json:"figure"`
	Options []session.Option `json:"options"`
	Updated bool             `json:"updated"`
}

type resolveRequest struct {
	Location string `json:"location"`
}

type resolveResponse struct {
	MGRS string  `json:"mgrs,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type geoJSONRequest struct {
	Figure session.Figure `json:"figure"`
}

// HandleAction applies one add-sensor or add-bearing action.
// Declined actions are not errors: they return the unchanged state.
func (s *ServerContext) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	registry, err := session.DecodeRegistry(req.Store)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid store: "+err.Error())
		return
	}
	if err := req.Figure.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid figure: "+err.Error())
		return
	}
	if req.Figure == nil {
		req.Figure = session.Figure{}
	}

	state := session.State{Sensors: registry, Figure: req.Figure}
	next, res := s.Engine.Apply(state, req.Action)

	if !res.Applied {
		log.Debug().
			Str("action", req.Kind).
			Str("reason", res.Reason()).
			Msg("Action declined")
	} else {
		log.Debug().
			Str("action", req.Kind).
			Int("sensors", len(next.Sensors)).
			Int("elements", len(next.Figure)).
			Msg("Action applied")
	}

	store, err := session.EncodeRegistry(next.Sensors)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode registry")
		writeError(w, http.StatusInternalServerError, "encode store")
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{
		Updated: res.Applied,
		Reason:  res.Reason(),
		Figure:  next.Figure,
		Options: session.Options(next.Sensors),
		Store:   store,
	})
}

// HandleResolve resolves location text without changing any state, for
// validating input as it is typed.
func (s *ServerContext) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := geo.Resolve(req.Location)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := resolveResponse{Lat: p.Lat, Lon: p.Lon}
	if m, err := geo.LatLonToMGRS(p, 5); err == nil {
		resp.MGRS = m.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGeoJSON exports a figure as a GeoJSON feature collection.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	var req geoJSONRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Figure.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid figure: "+err.Error())
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="sensors.geojson"`)
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(req.Figure.GeoJSON())
}
