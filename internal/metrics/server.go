package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stickerbot/internal/logging"
)

// NewMux serves /metrics and /healthz.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartServer listens on bind in the background. Callers shut it down with
// Shutdown on the returned server. An empty bind returns nil.
func StartServer(bind string, logger *slog.Logger) *http.Server {
	if strings.TrimSpace(bind) == "" {
		return nil
	}
	logger = logging.NewComponentLogger(logger, "metrics")
	srv := &http.Server{
		Addr:              bind,
		Handler:           NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server starting", logging.String("bind", bind))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(logger, "metrics server error", "metrics_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.bind is a free address"),
			)
		}
	}()
	return srv
}

// Shutdown stops srv, waiting at most timeout.
func Shutdown(srv *http.Server, timeout time.Duration) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
