// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/api-relay/pkg/config"
	"github.com/go-core-stack/api-relay/pkg/metrics"
	"github.com/go-core-stack/api-relay/pkg/relay"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if path, loaded := config.LoadEnvFile(); !loaded {
		log.Debug().Str("env_file", path).Msg("no env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	log.Logger = log.Level(level)

	recorder := metrics.NewRecorder()
	handler := relay.New(cfg, relay.WithMetrics(recorder))

	servers := []*http.Server{{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		servers = append(servers, &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      mux,
			ReadTimeout:  cfg.ServerReadTimeout,
			WriteTimeout: cfg.ServerWriteTimeout,
			IdleTimeout:  cfg.ServerIdleTimeout,
		})
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info().
				Str("listen_addr", srv.Addr).
				Msg("starting listener")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Str("listen_addr", srv.Addr).Msg("listener exited unexpectedly")
			}
		}(srv)
	}

	waitForShutdown(context.Background(), servers, cfg.GracefulShutdownTimeout)
}

func waitForShutdown(ctx context.Context, servers []*http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down API relay")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("listen_addr", srv.Addr).Msg("graceful shutdown failed; forcing close")
			if closeErr := srv.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("forced close failed")
			}
		}
	}

	log.Info().Msg("relay stopped")
}
