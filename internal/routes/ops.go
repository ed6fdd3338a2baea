package routes

import (
	"net/http"

	"github.com/emberhall/vanir/internal/router"
)

// RegisterOpsRoutes registers health and metrics endpoints. These bypass the
// operator requirement; they are scraped by infrastructure, not people.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle(http.MethodGet, "/metrics", deps.MetricsHandler)
}
