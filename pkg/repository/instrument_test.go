package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/nimburion/mongorepo/pkg/observability/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	previous := otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestInstrumentation_SpansAndMetrics(t *testing.T) {
	recorder := recordSpans(t)
	m := metrics.NewStoreMetrics()
	repo, _ := newTestRepository(t, WithInstrumentation("shop", m))
	ctx := context.Background()

	doc := &customer{Name: "Harun"}
	require.NoError(t, repo.Insert(ctx, doc))
	_, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	_, err = repo.Count(ctx)
	require.NoError(t, err)
	removed, err := repo.DeleteWhere(ctx, nameIs("nobody"))
	require.NoError(t, err)
	require.False(t, removed)

	names := make([]string, 0, 4)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
		require.Equal(t, codes.Ok, span.Status().Code, span.Name())
	}
	require.Equal(t, []string{"insert customer", "find customer", "count customer", "findAndModify customer"}, names)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations().WithLabelValues("customer", "insert", metrics.OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations().WithLabelValues("customer", "findAndModify", metrics.OutcomeOK)))
}

func TestInstrumentation_RecordsFailures(t *testing.T) {
	recorder := recordSpans(t)
	m := metrics.NewStoreMetrics()
	repo, exec := newTestRepository(t, WithInstrumentation("shop", m), WithInsertFailurePolicy(PropagateInsertFailure))
	exec.insertErr = errors.New("duplicate key")

	err := repo.Insert(context.Background(), &customer{Name: "Harun"})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations().WithLabelValues("customer", "insert", metrics.OutcomeError)))
}

func TestInstrumentation_HealthAndCloseDelegate(t *testing.T) {
	recorder := recordSpans(t)
	repo, exec := newTestRepository(t, WithInstrumentation("shop", nil))

	require.NoError(t, repo.db.HealthCheck(context.Background()))
	require.Len(t, recorder.Ended(), 1)
	require.Equal(t, "ping", recorder.Ended()[0].Name())

	require.NoError(t, repo.db.Close())
	require.True(t, exec.closed)
}
