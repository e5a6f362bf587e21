package database

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/errors"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func histogramCount(t *testing.T, operation, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, queryDuration.WithLabelValues(operation, outcome).(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

var getReview = Query{
	Operation: "GetReview",
	Table:     "reviews",
	Statement: "SELECT * FROM reviews WHERE review_id = $1",
}

func TestTraceQuery_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantOut    string
		wantStatus codes.Code
	}{
		{"ok", nil, OutcomeOK, codes.Unset},
		{"pgx no rows", pgx.ErrNoRows, OutcomeNoRows, codes.Unset},
		{"not found", apperrors.NotFound("Review", "rev-1"), OutcomeNoRows, codes.Unset},
		{"failure", errors.New("connection refused"), OutcomeError, codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := setupTestTracer(t)
			before := histogramCount(t, getReview.Operation, tt.wantOut)

			_, end := TraceQuery(context.Background(), getReview)
			end(tt.err)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "db.GetReview", spans[0].Name)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)

			attrs := spanAttrs(spans[0])
			assert.Equal(t, "postgresql", attrs["db.system"])
			assert.Equal(t, "GetReview", attrs["db.operation"])
			assert.Equal(t, "reviews", attrs["db.sql.table"])
			assert.Equal(t, getReview.Statement, attrs["db.statement"])
			assert.Equal(t, tt.wantOut, attrs["db.outcome"])

			assert.Equal(t, before+1, histogramCount(t, getReview.Operation, tt.wantOut))
		})
	}
}

func TestTraceQuery_NoTableAttributeWhenUnset(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), Query{Operation: "Ping", Statement: "SELECT 1"})
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	_, ok := spanAttrs(spans[0])["db.sql.table"]
	assert.False(t, ok)
}

func TestTraceQuery_ChildOfParentSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, end := TraceQuery(ctx, Query{Operation: "ListReviews", Table: "reviews", Statement: "SELECT * FROM reviews"})
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSlowQueryLogging(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		logger    bool
		queryErr  error
		wantLog   bool
	}{
		{name: "slow query logged", threshold: time.Nanosecond, logger: true, wantLog: true},
		{name: "slow failing query logs error", threshold: time.Nanosecond, logger: true, queryErr: errors.New("unique constraint violation"), wantLog: true},
		{name: "fast query not logged", threshold: time.Hour, logger: true},
		{name: "zero threshold", threshold: 0, logger: true},
		{name: "nil logger", threshold: time.Nanosecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestTracer(t)

			var buf bytes.Buffer
			var logger *slog.Logger
			if tt.logger {
				logger = slog.New(slog.NewJSONHandler(&buf, nil))
			}
			SetSlowQueryLogging(tt.threshold, logger)
			t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

			q := Query{Operation: "ReviewStats", Table: "reviews", Statement: "SELECT rating, COUNT(*) FROM reviews GROUP BY rating"}
			_, end := TraceQuery(context.Background(), q)
			end(tt.queryErr)

			out := buf.String()
			if !tt.wantLog {
				assert.NotContains(t, out, "slow query detected")
				return
			}
			assert.Contains(t, out, "slow query detected")
			assert.Contains(t, out, `"operation":"ReviewStats"`)
			assert.Contains(t, out, `"table":"reviews"`)
			assert.Contains(t, out, q.Statement)
			if tt.queryErr != nil {
				assert.Contains(t, out, tt.queryErr.Error())
				assert.Contains(t, out, `"outcome":"error"`)
			}
		})
	}
}

func TestSetSlowQueryLogging_Concurrent(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Millisecond, logger)
		}
	}()
	for i := 0; i < 100; i++ {
		_, end := TraceQuery(context.Background(), Query{Operation: "Ping", Statement: "SELECT 1"})
		end(nil)
	}
	<-done
}
