package routes

import (
	"github.com/emberhall/vanir/internal/middleware"
	"github.com/emberhall/vanir/internal/router"
)

// RegisterPOSRoutes registers the register-facing transaction routes.
// Mutating routes require an operator identifier for audit attribution.
func RegisterPOSRoutes(r *router.Router, deps POSDeps) {
	// Cart reads
	r.Get("/pos/cart", deps.Handler.GetCart)
	r.Get("/pos/methods", deps.Handler.ListMethods)

	// Fee preview; read-only despite the verb, the payload names the method
	r.Post("/pos/quote", deps.Handler.Quote)

	// Cart mutations
	pos := r.Group(middleware.RequireOperator)
	pos.Post("/pos/cart/items", deps.Handler.AddItem)
	pos.Post("/pos/cart/update", deps.Handler.UpdateItem)
	pos.Post("/pos/cart/remove", deps.Handler.RemoveItem)
	pos.Post("/pos/cart/clear", deps.Handler.ClearCart)

	// Checkout gets its own rate limit: a stuck client retrying settlement
	// must not be able to hammer the gateway.
	pos.Post("/pos/checkout", deps.Handler.Checkout,
		middleware.RateLimit(middleware.RateLimiterConfig{
			RequestsPerSecond: 1,
			BurstSize:         3,
			CleanupInterval:   defaultCleanupInterval,
		}))
}
