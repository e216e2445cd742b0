package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer scope used for store spans.
const InstrumentationName = "github.com/nimburion/mongorepo"

// DBSystem is reported as db.system on every store span.
const DBSystem = "mongodb"

// SpanOperation represents a traced store command.
type SpanOperation string

// Span operation constants, one per driver command issued by the repository
const (
	SpanOperationFind          SpanOperation = "find"
	SpanOperationInsert        SpanOperation = "insert"
	SpanOperationUpdate        SpanOperation = "update"
	SpanOperationDelete        SpanOperation = "delete"
	SpanOperationFindAndModify SpanOperation = "findAndModify"
	SpanOperationCount         SpanOperation = "count"
	SpanOperationAggregate     SpanOperation = "aggregate"
	SpanOperationPing          SpanOperation = "ping"
)

// StartDatabaseSpan creates a client span for a store command.
// The span is named "<operation> <collection>" when a collection is set.
func StartDatabaseSpan(ctx context.Context, operation SpanOperation, opts ...DatabaseSpanOption) (context.Context, trace.Span) {
	tracer := otel.Tracer(InstrumentationName)

	spanOpts := &databaseSpanOptions{
		attributes: []attribute.KeyValue{
			attribute.String("db.system", DBSystem),
			attribute.String("db.operation", string(operation)),
		},
	}
	for _, opt := range opts {
		opt(spanOpts)
	}

	spanName := string(operation)
	if spanOpts.collection != "" {
		spanName = fmt.Sprintf("%s %s", operation, spanOpts.collection)
	}

	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(spanOpts.attributes...),
	)
}

// DatabaseSpanOption configures a database span.
type DatabaseSpanOption func(*databaseSpanOptions)

type databaseSpanOptions struct {
	collection string
	attributes []attribute.KeyValue
}

// WithCollection sets the collection the command targets.
func WithCollection(collection string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.collection = collection
		opts.attributes = append(opts.attributes, attribute.String("db.mongodb.collection", collection))
	}
}

// WithDBName sets the database name.
func WithDBName(name string) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		if name == "" {
			return
		}
		opts.attributes = append(opts.attributes, attribute.String("db.name", name))
	}
}

// WithMany marks commands that may touch more than one document.
func WithMany(many bool) DatabaseSpanOption {
	return func(opts *databaseSpanOptions) {
		opts.attributes = append(opts.attributes, attribute.Bool("db.mongodb.many", many))
	}
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
