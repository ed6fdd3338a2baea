package routes

import (
	"time"

	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/router"
)

const defaultCleanupInterval = time.Minute

// RegisterInventoryRoutes registers stock record and adjustment routes.
func RegisterInventoryRoutes(r *router.Router, deps InventoryDeps) {
	r.Get("/inventory", deps.Handler.List)
	r.Get("/inventory/{productID}", deps.Handler.Get)
	r.Get("/inventory/{productID}/history", deps.Handler.History)

	inv := r.Group(middleware.RequireOperator)
	inv.Post("/inventory/adjust", deps.Handler.Adjust)
	inv.Post("/inventory/reorder", deps.Handler.Reorder)
}
