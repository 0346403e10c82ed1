package daemon

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/AgencyDesk/AgencyDesk/internal/config"
)

const metricsReadHeaderTimeout = 5 * time.Second

// startMetrics exposes the prometheus registry on its own listener when
// enabled. It never blocks the caller.
func startMetrics(cfg *config.Config) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener failed")
		}
	}()
}
