// Package router builds the explicit routing table of the service.
//
// Route table (all student routes under /api):
//
//	GET    /api/siswa/            → list all students
//	POST   /api/siswa/            → create a student
//	GET    /api/siswa/{id}        → get one student
//	PUT    /api/siswa/{id}        → update nama/alamat
//	DELETE /api/siswa/{id}        → delete a student
//	POST   /api/siswa/{id}/foto   → upload a photo (multipart "file")
//	GET    /health/live           → liveness probe
//	GET    /health/ready          → readiness probe
//	GET    /metrics               → Prometheus metrics
package router

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/siswa-api/internal/http/handlers/health"
	"github.com/aanand-mishra/siswa-api/internal/http/handlers/siswa"
	"github.com/aanand-mishra/siswa-api/internal/http/middleware"
)

// Deps are the collaborators the handlers are built from.
type Deps struct {
	Service       siswa.Service
	DB            health.Pinger
	MaxUploadSize int64
	Logger        *slog.Logger
	Registry      *prometheus.Registry
	Version       string
}

// New returns the fully wrapped HTTP handler.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	// {$} anchors the collection route so it does not swallow every
	// /api/siswa/... path. The slash-less form is accepted as well.
	mux.HandleFunc("GET /api/siswa/{$}", siswa.List(d.Service))
	mux.HandleFunc("GET /api/siswa", siswa.List(d.Service))
	mux.HandleFunc("POST /api/siswa/{$}", siswa.Create(d.Service))
	mux.HandleFunc("POST /api/siswa", siswa.Create(d.Service))
	mux.HandleFunc("GET /api/siswa/{id}", siswa.Get(d.Service))
	mux.HandleFunc("PUT /api/siswa/{id}", siswa.Update(d.Service))
	mux.HandleFunc("DELETE /api/siswa/{id}", siswa.Delete(d.Service))
	mux.HandleFunc("POST /api/siswa/{id}/foto", siswa.UploadFoto(d.Service, d.MaxUploadSize))

	mux.HandleFunc("GET /health/live", health.Live(d.Version))
	mux.HandleFunc("GET /health/ready", health.Ready(d.DB, d.Version))
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))

	// Metrics must sit directly on the mux: it reads r.Pattern, which the
	// mux sets on the *http.Request it is handed, and RequestID replaces
	// the request via WithContext.
	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		middleware.NewMetrics(d.Registry).Middleware(),
	)
}
