package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for register-level observability.
// Register_id labels let a multi-lane store segment dashboards per lane.
type BusinessMetrics struct {
	// Cart activity
	CartUpdated   *prometheus.CounterVec
	CartCleared   *prometheus.CounterVec
	CartValue     *prometheus.HistogramVec
	CartItemCount *prometheus.HistogramVec

	// Settlement funnel
	SettlementsStarted   *prometheus.CounterVec
	SettlementsSucceeded *prometheus.CounterVec
	SettlementsFailed    *prometheus.CounterVec
	SettlementLatency    *prometheus.HistogramVec
	FeesCollected        *prometheus.CounterVec
	RevenueCollected     *prometheus.CounterVec

	// Inventory
	AdjustmentsApplied  *prometheus.CounterVec
	AdjustmentsRejected *prometheus.CounterVec
	OversellClamped     *prometheus.CounterVec
	ReordersIssued      *prometheus.CounterVec
	LowStockProducts    prometheus.Gauge
	OutOfStockProducts  prometheus.Gauge
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "vanir"
	}

	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Cart Activity
		// =======================================================================
		CartUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart mutation operations",
			},
			[]string{"register_id", "action"}, // action: add, remove, update_quantity, clear
		),
		CartCleared: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared (after settlement or manually)",
			},
			[]string{"register_id", "reason"}, // reason: settled, manual
		),
		CartValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value_cents",
				Help:      "Cart total at checkout in cents",
				Buckets:   []float64{500, 1000, 2500, 5000, 7500, 10000, 25000, 50000, 100000},
			},
			[]string{"register_id"},
		),
		CartItemCount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_item_count",
				Help:      "Number of units per settled cart",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"register_id"},
		),

		// =======================================================================
		// Settlement Funnel
		// =======================================================================
		SettlementsStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlements_started_total",
				Help:      "Total settlement attempts initiated",
			},
			[]string{"register_id", "method"},
		),
		SettlementsSucceeded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlements_succeeded_total",
				Help:      "Total settlements reaching the succeeded state",
			},
			[]string{"register_id", "method"},
		),
		SettlementsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlements_failed_total",
				Help:      "Total settlements reaching the failed state",
			},
			[]string{"register_id", "method", "failure_reason"},
		),
		SettlementLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "settlement_duration_seconds",
				Help:      "Time from settlement initiation to terminal state",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"register_id", "method"},
		),
		FeesCollected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fees_collected_cents",
				Help:      "Total method surcharges collected in cents",
			},
			[]string{"register_id", "method"},
		),
		RevenueCollected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "revenue_collected_cents",
				Help:      "Total revenue collected in cents, fees included",
			},
			[]string{"register_id", "method"},
		),

		// =======================================================================
		// Inventory
		// =======================================================================
		AdjustmentsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_adjustments_applied_total",
				Help:      "Total stock adjustments applied",
			},
			[]string{"reason_code"},
		),
		AdjustmentsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_adjustments_rejected_total",
				Help:      "Total stock adjustments rejected at validation",
			},
			[]string{"error_type"}, // error_type: missing_reason, zero_delta, not_found
		),
		OversellClamped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "oversell_clamped_total",
				Help:      "Total adjustments clamped at the zero-stock floor",
			},
			[]string{"product_id"},
		),
		ReordersIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reorders_issued_total",
				Help:      "Total reorder receipts applied",
			},
			[]string{"product_id"},
		),
		LowStockProducts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "low_stock_products",
				Help:      "Current number of products at or below their minimum threshold",
			},
		),
		OutOfStockProducts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "out_of_stock_products",
				Help:      "Current number of products with zero stock",
			},
		),
	}

	return m
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
