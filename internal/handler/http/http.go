package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jgivc/musicsync/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SnapshotSource interface {
	Snapshot() entity.Snapshot
}

type statusResponse struct {
	entity.Snapshot
	Done      int `json:"done"`
	Remaining int `json:"remaining"`
}

func NewStatusHandler(src SnapshotSource, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "StatusHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		snap := src.Snapshot()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statusResponse{
			Snapshot:  snap,
			Done:      snap.Done(),
			Remaining: snap.Remaining(),
		}); err != nil {
			log.Error("Cannot encode status", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// NewMetricsHandler serves only the collectors registered in reg.
func NewMetricsHandler(reg *prometheus.Registry, log *slog.Logger) http.Handler {
	log = log.With(slog.String("handler", "MetricsHandler"))

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(log.Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func NewMux(src SnapshotSource, reg *prometheus.Registry, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /status/{$}", NewStatusHandler(src, log))
	mux.Handle("GET /metrics", NewMetricsHandler(reg, log))

	return mux
}
