package server

import (
	"fmt"
	"hash/crc32"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/sensormap/assets"
	"github.com/woozymasta/sensormap/internal/config"
	"github.com/woozymasta/sensormap/internal/render"
	"github.com/woozymasta/sensormap/internal/session"
)

// maxBodySize caps action and export request bodies.
const maxBodySize = 1 << 20

// iconSize is the marker icon width in pixels.
const iconSize = 24

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Engine    *session.Engine
	Icons     *render.IconCache
	IndexHTML []byte
	Favicon   []byte

	indexETag string
}

// NewServerContext initializes the context from a normalized configuration.
func NewServerContext(cfg *config.Config) *ServerContext {
	log.Info().Int("sensors", len(cfg.Sensors)).Msg("Initializing server context")

	for _, s := range cfg.Sensors {
		if s.Color == "" {
			log.Debug().
				Str("sensor", s.Name).
				Str("color", cfg.DefaultColor).
				Msg("Sensor has no color, using default")
			continue
		}
		if _, err := render.ParseColor(s.Color); err != nil {
			log.Warn().
				Err(err).
				Str("sensor", s.Name).
				Msg("Sensor color cannot be drawn as an icon")
		}
	}

	log.Info().
		Str("projection", cfg.Bearing.Projection).
		Float64("scale", cfg.Bearing.Scale).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:    cfg,
		Engine:    session.NewEngine(cfg),
		Icons:     render.NewIconCache(iconSize),
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
		indexETag: contentETag(assets.Index),
	}
}

// contentETag is a strong ETag derived from the page bytes.
func contentETag(b []byte) string {
	return fmt.Sprintf(`"%08x"`, crc32.ChecksumIEEE(b))
}

// SetRoutes registers all handlers on mux.
func (s *ServerContext) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/config", s.HandleConfig)
	mux.HandleFunc("POST /api/action", s.HandleAction)
	mux.HandleFunc("POST /api/resolve", s.HandleResolve)
	mux.HandleFunc("POST /api/geojson", s.HandleGeoJSON)
	mux.HandleFunc("GET /icons/{name}", s.HandleIcon)
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("GET /", s.HandleIndex)
}
