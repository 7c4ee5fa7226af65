package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/woozymasta/sensormap/internal/config"
	"github.com/woozymasta/sensormap/internal/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"
)

// newTestServer starts a server with the default configuration.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, config.Default())
}

// newTestServerWith starts a server with cfg after normalizing it.
func newTestServerWith(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	require.NoError(t, cfg.Normalize())

	mux := http.NewServeMux()
	NewServerContext(cfg).SetRoutes(mux)

	srv := httptest.NewServer(RequestLogger(mux))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type actionResult struct {
	Reason  string           `json:"reason"`
	Store   string           `json:"store"`
	Figure  session.Figure   `json:"figure"`
	Options []session.Option `json:"options"`
	Updated bool             `json:"updated"`
}

func sendAction(t *testing.T, srv *httptest.Server, body map[string]any) actionResult {
	t.Helper()

	resp := postJSON(t, srv, "/api/action", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res actionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	cached, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = cached.Body.Close() }()
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)

	missing, err := http.Get(srv.URL + "/missing.js")
	require.NoError(t, err)
	defer func() { _ = missing.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestIndexETagFollowsContent(t *testing.T) {
	etagOf := func(page string) string {
		s := &ServerContext{IndexHTML: []byte(page)}
		rec := httptest.NewRecorder()
		s.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Header().Get("ETag")
	}

	// same length, different bytes
	a := etagOf("<p>one</p>")
	b := etagOf("<p>two</p>")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, etagOf("<p>one</p>"))
	assert.Equal(t, contentETag([]byte("<p>one</p>")), a)
}

func TestFavicon(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/favicon.svg")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
}

func TestConfig(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg struct {
		Title   string       `json:"title"`
		Sensors []sensorView `json:"sensors"`
		Map     struct {
			Center []float64 `json:"center"`
			Zoom   int       `json:"zoom"`
		} `json:"map"`
		Bearing struct {
			Length config.Slider `json:"length"`
		} `json:"bearing"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))

	assert.Equal(t, "Interactive Map", cfg.Title)
	require.Len(t, cfg.Sensors, 12)
	assert.Equal(t, sensorView{Name: "S1", Color: "blue"}, cfg.Sensors[0])
	assert.Equal(t, []float64{51.8007, -4.9691}, cfg.Map.Center)
	assert.Equal(t, 10, cfg.Map.Zoom)
	assert.Equal(t, 0.05, cfg.Bearing.Length.Default)
}

func TestActionRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Sensors = append(cfg.Sensors, config.Sensor{Name: "Spare"})
	srv := newTestServerWith(t, cfg)

	first := sendAction(t, srv, map[string]any{
		"action":   "add-sensor",
		"sensor":   "S1",
		"location": "0, 0",
	})
	require.True(t, first.Updated)
	assert.Empty(t, first.Reason)
	assert.JSONEq(t, `{"S1": [0, 0]}`, first.Store)
	assert.Equal(t, []session.Option{{Label: "S1", Value: "S1"}}, first.Options)
	require.Len(t, first.Figure, 1)
	assert.Equal(t, session.ElementPoint, first.Figure[0].Type)

	second := sendAction(t, srv, map[string]any{
		"action":         "add-bearing",
		"bearing_sensor": "S1",
		"angle":          90,
		"length":         1,
		"store":          first.Store,
		"figure":         first.Figure,
	})
	require.True(t, second.Updated)
	assert.Equal(t, first.Store, second.Store)
	require.Len(t, second.Figure, 2)

	line := second.Figure[1]
	assert.Equal(t, session.ElementLine, line.Type)
	assert.Equal(t, "S1 Bearing", line.Label)
	assert.Equal(t, "blue", line.Color)
	assert.InDelta(t, 0.0, line.Points[1].Lat, 1e-9)
	assert.InDelta(t, 5.0, line.Points[1].Lon, 1e-9)

	// a configured sensor without a color is drawn in the default color
	third := sendAction(t, srv, map[string]any{
		"action":   "add-sensor",
		"sensor":   "Spare",
		"location": "1, 1",
		"store":    second.Store,
		"figure":   second.Figure,
	})
	require.True(t, third.Updated)
	require.Len(t, third.Figure, 3)
	assert.Equal(t, "Spare", third.Figure[2].Label)
	assert.Equal(t, "black", third.Figure[2].Color)
	assert.Equal(t, []session.Option{{Label: "S1", Value: "S1"}, {Label: "Spare", Value: "Spare"}}, third.Options)
}

func TestActionDeclinedEchoesState(t *testing.T) {
	srv := newTestServer(t)
	store := `{"S2":[1,2]}`
	figure := []map[string]any{{"type": "point", "lat": 1, "lon": 2, "color": "red", "label": "S2"}}

	tests := []struct {
		name   string
		body   map[string]any
		reason string
	}{
		{"bad decimal pair", map[string]any{"action": "add-sensor", "sensor": "S1", "location": "abc, def"}, "invalid location"},
		{"bad grid reference", map[string]any{"action": "add-sensor", "sensor": "S1", "location": "notAGridRef!"}, "invalid location"},
		{"NaN latitude", map[string]any{"action": "add-sensor", "sensor": "S1", "location": "NaN, 0"}, "invalid location"},
		{"infinite latitude", map[string]any{"action": "add-sensor", "sensor": "S1", "location": "inf, 10"}, "invalid location"},
		{"unplaced source", map[string]any{"action": "add-bearing", "bearing_sensor": "S1", "angle": 10, "length": 0.1}, "sensor not placed"},
		{"missing angle", map[string]any{"action": "add-bearing", "bearing_sensor": "S2", "length": 0.1}, "bearing angle missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.body["store"] = store
			tt.body["figure"] = figure

			res := sendAction(t, srv, tt.body)
			assert.False(t, res.Updated)
			assert.Contains(t, res.Reason, tt.reason)
			assert.JSONEq(t, store, res.Store)
			assert.Len(t, res.Figure, 1)
			assert.Equal(t, []session.Option{{Label: "S2", Value: "S2"}}, res.Options)
		})
	}
}

func TestActionBadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/action", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	badStore := postJSON(t, srv, "/api/action", map[string]any{"action": "add-sensor", "store": "[1,2]"})
	assert.Equal(t, http.StatusBadRequest, badStore.StatusCode)

	badFigure := postJSON(t, srv, "/api/action", map[string]any{
		"action": "add-sensor",
		"figure": []map[string]any{{"type": "circle"}},
	})
	assert.Equal(t, http.StatusBadRequest, badFigure.StatusCode)

	get, err := http.Get(srv.URL + "/api/action")
	require.NoError(t, err)
	defer func() { _ = get.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestResolve(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/api/resolve", map[string]string{"location": "15TWG0000049776"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res resolveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.InDelta(t, 42.0, res.Lat, 1e-5)
	assert.InDelta(t, -93.0, res.Lon, 1e-9)
	assert.Equal(t, "15TWG0000049776", res.MGRS)

	bad := postJSON(t, srv, "/api/resolve", map[string]string{"location": "abc, def"})
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)

	var e errorView
	require.NoError(t, json.NewDecoder(bad.Body).Decode(&e))
	assert.Contains(t, e.Error, "invalid coordinates")

	nan := postJSON(t, srv, "/api/resolve", map[string]string{"location": "NaN, 0"})
	assert.Equal(t, http.StatusUnprocessableEntity, nan.StatusCode)
}

func TestWriteJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, resolveResponse{Lat: math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"encode response"}`, rec.Body.String())
}

func TestGeoJSONExport(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/api/geojson", map[string]any{
		"figure": []map[string]any{
			{"type": "point", "lat": 1, "lon": 2, "color": "blue", "label": "S1"},
			{"type": "line", "points": [][]float64{{1, 2}, {3, 4}}, "color": "blue", "label": "S1 Bearing"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 2)
}

func TestIcon(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/icons/" + url.PathEscape("SGC 1") + ".webp")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))

	img, err := webp.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())

	png, err := http.Get(srv.URL + "/icons/S1.png")
	require.NoError(t, err)
	defer func() { _ = png.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, png.StatusCode)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/action", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/api/action", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(15), entry["bytes"])
	assert.Equal(t, "Request processed", entry["message"])
}

func TestPanicLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	PanicLogger{}.Println("boom", 42)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom 42", entry["message"])
}
