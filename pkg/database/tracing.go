package database

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
)

const tracerName = "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/database"

// Query outcomes recorded on spans and in db_query_duration_seconds.
const (
	OutcomeOK     = "ok"
	OutcomeNoRows = "no_rows"
	OutcomeError  = "error"
)

var queryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Statement latency in seconds by operation and outcome",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"operation", "outcome"},
)

// Query names one statement issued by a repository.
type Query struct {
	Operation string
	Table     string
	Statement string
}

func (q Query) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", q.Operation),
		attribute.String("db.statement", q.Statement),
	}
	if q.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", q.Table))
	}
	return attrs
}

type slowQueryLog struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueries atomic.Pointer[slowQueryLog]

// SetSlowQueryLogging warns through logger about statements that run for at
// least threshold. A zero threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueries.Store(nil)
		return
	}
	slowQueries.Store(&slowQueryLog{threshold: threshold, logger: logger})
}

// TraceQuery opens a client span for q and returns the func that closes it:
//
//	ctx, end := database.TraceQuery(ctx, database.Query{Operation: "GetReview", Table: "reviews", Statement: getReviewSQL})
//	defer func() { end(err) }()
//
// A missing row (pgx.ErrNoRows or apperrors.ErrNotFound) is reported as its
// own outcome and does not mark the span as failed.
func TraceQuery(ctx context.Context, q Query) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+q.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(q.attributes()...),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		outcome := outcomeOf(err)

		span.SetAttributes(attribute.String("db.outcome", outcome))
		if outcome == OutcomeError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		queryDuration.WithLabelValues(q.Operation, outcome).Observe(elapsed.Seconds())

		slow := slowQueries.Load()
		if slow == nil || elapsed < slow.threshold {
			return
		}
		attrs := []any{
			slog.String("operation", q.Operation),
			slog.String("table", q.Table),
			slog.String("statement", q.Statement),
			slog.String("outcome", outcome),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slow.logger.WarnContext(ctx, "slow query detected", attrs...)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, apperrors.ErrNotFound):
		return OutcomeNoRows
	default:
		return OutcomeError
	}
}
