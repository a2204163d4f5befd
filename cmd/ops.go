package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/KeyurIITGN/Strife/libs/logging"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartOpsServer runs the operational http listener (metrics and health)
// beside a grpc service. It returns the server so callers can shut it down.
func StartOpsServer(ctx context.Context, addr string) *http.Server {
	logger := logging.Logger(ctx, "cmd.StartOpsServer")

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving ops http listener")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops http listener failed")
		}
	}()

	return srv
}
