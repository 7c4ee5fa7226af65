package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/sensormap/internal/config"
	"github.com/woozymasta/sensormap/internal/logger"
	"github.com/woozymasta/sensormap/internal/server"

	"github.com/gorilla/handlers"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string  `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string  `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Projection string  `short:"P" long:"projection" env:"PROJECTION"     description:"Override bearing projection" choice:"planar" choice:"geodesic"`
	Scale      float64 `short:"s" long:"scale"      env:"BEARING_SCALE"  description:"Override bearing length scale factor"`
	Port       int     `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().
			Str("path", opts.ConfigFile).
			Msg("Configuration file not found, using built-in defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Projection != "" {
		cfg.Bearing.Projection = opts.Projection
	}
	if opts.Scale > 0 {
		cfg.Bearing.Scale = opts.Scale
	}
	if err := cfg.Normalize(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	srvCtx := server.NewServerContext(cfg)

	// Routes
	mux := http.NewServeMux()
	srvCtx.SetRoutes(mux)

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(server.PanicLogger{}),
		handlers.PrintRecoveryStack(true),
	)
	handler := server.RequestLogger(recovery(handlers.CompressHandler(mux)))

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("addr", listenAddr).
		Int("sensors", len(cfg.Sensors)).
		Str("projection", cfg.Bearing.Projection).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
