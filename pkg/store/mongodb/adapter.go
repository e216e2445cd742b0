// Package mongodb owns the MongoDB client lifecycle and exposes collection
// scoped operations bounded by the configured operation timeout.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimburion/mongorepo/pkg/observability/logger"
	"github.com/nimburion/mongorepo/pkg/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrClosed is returned by every operation once Close has been called.
var ErrClosed = errors.New("mongodb adapter is closed")

const (
	defaultConnectTimeout = 10 * time.Second
	healthCheckTimeout    = 2 * time.Second
	disconnectTimeout     = 5 * time.Second
)

var _ store.Adapter = (*Adapter)(nil)

// Adapter provides MongoDB connectivity.
type Adapter struct {
	client   *mongo.Client
	database string
	logger   logger.Logger
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// Config holds MongoDB adapter configuration.
type Config struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
	// OperationTimeout of zero leaves every call to the driver defaults.
	OperationTimeout time.Duration
}

// NewAdapter connects to MongoDB and verifies the connection with a ping.
// It does not create databases, collections or indexes.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mongodb URL is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	log.Info("MongoDB connection established", "database", cfg.Database)
	return &Adapter{
		client:   client,
		database: cfg.Database,
		logger:   log,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (a *Adapter) collection(name string) (*mongo.Collection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}
	return a.client.Database(a.database).Collection(name), nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return a.client.Ping(ctx, readpref.Primary())
}

// HealthCheck pings the primary. A caller deadline takes precedence over the
// default health check timeout.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := healthCheckContext(ctx)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("MongoDB health check failed", "error", err)
		return fmt.Errorf("mongodb health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client. Calling it more than once is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}

func (a *Adapter) InsertOne(ctx context.Context, collection string, doc any) (*mongo.InsertOneResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.InsertOne(opCtx, doc)
}

func (a *Adapter) InsertMany(ctx context.Context, collection string, docs []any) (*mongo.InsertManyResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.InsertMany(opCtx, docs)
}

// Find opens a cursor over the matching documents. The operation timeout
// bounds the initial query only; iterate the cursor with the caller's context.
func (a *Adapter) Find(ctx context.Context, collection string, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.Find(opCtx, filter, opts...)
}

// FindOneAndDelete removes the first match and decodes it into result.
// It returns mongo.ErrNoDocuments when nothing matched.
func (a *Adapter) FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error {
	coll, err := a.collection(collection)
	if err != nil {
		return err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.FindOneAndDelete(opCtx, filter).Decode(result)
}

func (a *Adapter) UpdateOne(ctx context.Context, collection string, filter, update any) (*mongo.UpdateResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.UpdateOne(opCtx, filter, update)
}

func (a *Adapter) UpdateMany(ctx context.Context, collection string, filter, update any) (*mongo.UpdateResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.UpdateMany(opCtx, filter, update)
}

func (a *Adapter) DeleteOne(ctx context.Context, collection string, filter any) (*mongo.DeleteResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.DeleteOne(opCtx, filter)
}

func (a *Adapter) DeleteMany(ctx context.Context, collection string, filter any) (*mongo.DeleteResult, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.DeleteMany(opCtx, filter)
}

func (a *Adapter) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return 0, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.CountDocuments(opCtx, filter)
}

// Aggregate runs pipeline and returns a cursor over its output.
func (a *Adapter) Aggregate(ctx context.Context, collection string, pipeline any) (*mongo.Cursor, error) {
	coll, err := a.collection(collection)
	if err != nil {
		return nil, err
	}
	opCtx, cancel := a.withOperationTimeout(ctx)
	defer cancel()
	return coll.Aggregate(opCtx, pipeline)
}

func healthCheckContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, healthCheckTimeout)
}

func (a *Adapter) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
