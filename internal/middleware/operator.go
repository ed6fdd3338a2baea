package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	// OperatorHeader carries the opaque operator identifier set by the
	// register shell. No authentication is attached to it; it exists so
	// adjustments and settlements can be attributed in the audit trail.
	OperatorHeader = "X-Operator-ID"

	// OperatorContextKey is the context key for the operator identifier
	OperatorContextKey contextKey = "operator"
)

// WithOperator extracts the operator identifier from the request header and
// adds it to the context. Optional: requests without the header pass through
// unattributed.
func WithOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
		if operator == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorContextKey, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOperator rejects requests without an operator identifier. Applied
// to mutating routes where the audit trail needs attribution.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetOperator(r.Context()) == "" {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetOperator retrieves the operator identifier from the context.
// Returns an empty string when the request was unattributed.
func GetOperator(ctx context.Context) string {
	if op, ok := ctx.Value(OperatorContextKey).(string); ok {
		return op
	}
	return ""
}
