// Package health serves the liveness and readiness probes.
//
//	/health/live  — the process is up
//	/health/ready — the database answers a ping
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/siswa-api/internal/utils/response"
)

// Pinger is satisfied by the storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// pingTimeout bounds the readiness check so a stuck database cannot hang probes.
const pingTimeout = 2 * time.Second

// Status is the probe response body.
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Message   string `json:"message,omitempty"`
}

// Live always answers 200 while the process can serve HTTP.
func Live(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, Status{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   version,
		})
	}
}

// Ready answers 200 when db responds to a ping, 503 otherwise.
func Ready(db Pinger, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		status := Status{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   version,
		}

		if err := db.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			status.Status = "fail"
			status.Message = "database unavailable"
			response.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}

		response.WriteJSON(w, http.StatusOK, status)
	}
}
