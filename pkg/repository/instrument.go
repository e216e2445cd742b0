package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimburion/mongorepo/pkg/observability/metrics"
	"github.com/nimburion/mongorepo/pkg/observability/tracing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

// WithInstrumentation wraps the executor so every store command opens a
// client span and, when m is non-nil, is counted and timed.
func WithInstrumentation(database string, m *metrics.StoreMetrics) Option {
	return func(d *Database) {
		d.exec = &instrumentedExecutor{next: d.exec, database: database, metrics: m}
	}
}

type instrumentedExecutor struct {
	next     Executor
	database string
	metrics  *metrics.StoreMetrics
}

var _ Executor = (*instrumentedExecutor)(nil)

func (e *instrumentedExecutor) start(ctx context.Context, collection string, op tracing.SpanOperation, opts ...tracing.DatabaseSpanOption) (context.Context, func(error)) {
	opts = append(opts, tracing.WithCollection(collection), tracing.WithDBName(e.database))
	ctx, span := tracing.StartDatabaseSpan(ctx, op, opts...)
	began := time.Now()
	return ctx, func(err error) {
		finish(span, err)
		e.metrics.Observe(collection, string(op), err, time.Since(began))
	}
}

func finish(span trace.Span, err error) {
	defer span.End()
	if err != nil {
		tracing.RecordError(span, err)
		return
	}
	tracing.RecordSuccess(span)
}

func (e *instrumentedExecutor) InsertOne(ctx context.Context, collection string, doc any) error {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationInsert, tracing.WithMany(false))
	err := e.next.InsertOne(ctx, collection, doc)
	done(err)
	return err
}

func (e *instrumentedExecutor) InsertMany(ctx context.Context, collection string, docs []any) error {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationInsert, tracing.WithMany(true))
	err := e.next.InsertMany(ctx, collection, docs)
	done(err)
	return err
}

func (e *instrumentedExecutor) Find(ctx context.Context, collection string, filter any, opts FindOptions) (*mongo.Cursor, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationFind)
	cur, err := e.next.Find(ctx, collection, filter, opts)
	done(err)
	return cur, err
}

func (e *instrumentedExecutor) FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationFindAndModify)
	err := e.next.FindOneAndDelete(ctx, collection, filter, result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
	} else {
		done(err)
	}
	return err
}

func (e *instrumentedExecutor) DeleteOne(ctx context.Context, collection string, filter any) (int64, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationDelete, tracing.WithMany(false))
	n, err := e.next.DeleteOne(ctx, collection, filter)
	done(err)
	return n, err
}

func (e *instrumentedExecutor) DeleteMany(ctx context.Context, collection string, filter any) (int64, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationDelete, tracing.WithMany(true))
	n, err := e.next.DeleteMany(ctx, collection, filter)
	done(err)
	return n, err
}

func (e *instrumentedExecutor) UpdateOne(ctx context.Context, collection string, filter, update any) (bool, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationUpdate, tracing.WithMany(false))
	ok, err := e.next.UpdateOne(ctx, collection, filter, update)
	done(err)
	return ok, err
}

func (e *instrumentedExecutor) UpdateMany(ctx context.Context, collection string, filter, update any) (bool, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationUpdate, tracing.WithMany(true))
	ok, err := e.next.UpdateMany(ctx, collection, filter, update)
	done(err)
	return ok, err
}

func (e *instrumentedExecutor) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationCount)
	n, err := e.next.CountDocuments(ctx, collection, filter)
	done(err)
	return n, err
}

func (e *instrumentedExecutor) Aggregate(ctx context.Context, collection string, pipeline any) (*mongo.Cursor, error) {
	ctx, done := e.start(ctx, collection, tracing.SpanOperationAggregate)
	cur, err := e.next.Aggregate(ctx, collection, pipeline)
	done(err)
	return cur, err
}

func (e *instrumentedExecutor) HealthCheck(ctx context.Context) error {
	ctx, span := tracing.StartDatabaseSpan(ctx, tracing.SpanOperationPing, tracing.WithDBName(e.database))
	err := e.next.HealthCheck(ctx)
	finish(span, err)
	return err
}

func (e *instrumentedExecutor) Close() error {
	return e.next.Close()
}
