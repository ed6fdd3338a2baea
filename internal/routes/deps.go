// Package routes wires handlers onto the router. Registration is grouped by
// surface so each area's middleware stack is visible in one place.
package routes

import (
	"net/http"

	"github.com/emberhall/vanir/internal/handler"
)

// POSDeps contains dependencies for register routes
type POSDeps struct {
	Handler *handler.POSHandler
}

// InventoryDeps contains dependencies for inventory routes
type InventoryDeps struct {
	Handler *handler.InventoryHandler
}

// OpsDeps contains dependencies for operational routes
type OpsDeps struct {
	MetricsHandler http.Handler
}
