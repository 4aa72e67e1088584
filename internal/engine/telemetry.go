package engine

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("combatlens.engine")
	meter  = otel.Meter("combatlens.engine")
)

// engineMetrics are created on first use against the global meter
// provider. Creation failures degrade observability but never fail a run.
type engineMetrics struct {
	once        sync.Once
	runs        metric.Int64Counter
	failures    metric.Int64Counter
	dispatched  metric.Int64Counter
	fabricated  metric.Int64Counter
	malformed   metric.Int64Counter
	runDuration metric.Float64Histogram
}

func (m *engineMetrics) init(logger *slog.Logger) {
	m.once.Do(func() {
		var initErrors []string
		var err error

		m.runs, err = meter.Int64Counter("combatlens_runs_total",
			metric.WithDescription("Number of completed analysis runs"),
		)
		if err != nil {
			initErrors = append(initErrors, "runs: "+err.Error())
		}

		m.failures, err = meter.Int64Counter("combatlens_run_failures_total",
			metric.WithDescription("Number of aborted analysis runs"),
		)
		if err != nil {
			initErrors = append(initErrors, "failures: "+err.Error())
		}

		m.dispatched, err = meter.Int64Counter("combatlens_events_dispatched_total",
			metric.WithDescription("Events dispatched, native and fabricated"),
		)
		if err != nil {
			initErrors = append(initErrors, "dispatched: "+err.Error())
		}

		m.fabricated, err = meter.Int64Counter("combatlens_events_fabricated_total",
			metric.WithDescription("Events fabricated by modules"),
		)
		if err != nil {
			initErrors = append(initErrors, "fabricated: "+err.Error())
		}

		m.malformed, err = meter.Int64Counter("combatlens_events_malformed_total",
			metric.WithDescription("Input events skipped as malformed"),
		)
		if err != nil {
			initErrors = append(initErrors, "malformed: "+err.Error())
		}

		m.runDuration, err = meter.Float64Histogram("combatlens_run_duration_seconds",
			metric.WithDescription("Wall time of one analysis run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "run_duration: "+err.Error())
		}

		if len(initErrors) > 0 {
			logger.Error("failed to initialize some engine metrics (observability degraded)",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
}
