package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JanKosminski/HousingPricesInPoland/internal/artifact"
	"github.com/JanKosminski/HousingPricesInPoland/internal/observability"
	perrors "github.com/JanKosminski/HousingPricesInPoland/internal/pkg/errors"
	"github.com/JanKosminski/HousingPricesInPoland/internal/server"
	"github.com/JanKosminski/HousingPricesInPoland/internal/shared"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)
	installWarningHook()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// The model loads exactly once; there is no hot reload. A load failure
	// here is fatal: the service must not come up without a model.
	art, err := loadArtifact(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("artifact load failed, refusing to start")
	}
	log.Info().
		Time("trained_at", art.TrainedAt).
		Int("features", len(art.Pipeline.FeatureNames)).
		Object("metrics", art.Metrics).
		Msg("model artifact loaded")

	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewService(art))

	log.Info().Str("addr", cfg.HTTPAddr).Msg("prediction API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func loadArtifact(cfg shared.Config) (*artifact.Artifact, error) {
	if cfg.ModelURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		log.Info().Str("url", cfg.ModelURL).Msg("fetching model artifact")
		return artifact.Fetch(ctx, cfg.ModelURL)
	}
	return artifact.Load(cfg.ModelPath)
}

func installWarningHook() {
	perrors.SetWarningHandler(func(w error) {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			log.Warn().Object("warning", obj).Msg("data quality warning")
			return
		}
		log.Warn().Err(w).Msg("data quality warning")
	})
}
