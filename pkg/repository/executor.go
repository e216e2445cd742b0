package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimburion/mongorepo/pkg/store"
	mongostore "github.com/nimburion/mongorepo/pkg/store/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Executor is the collection scoped document store contract used by repositories.
//
// Update methods report whether the server acknowledged the write.
// FindOneAndDelete returns mongo.ErrNoDocuments when nothing matched.
type Executor interface {
	InsertOne(ctx context.Context, collection string, doc any) error
	InsertMany(ctx context.Context, collection string, docs []any) error
	Find(ctx context.Context, collection string, filter any, opts FindOptions) (*mongo.Cursor, error)
	FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error
	DeleteOne(ctx context.Context, collection string, filter any) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter any) (int64, error)
	UpdateOne(ctx context.Context, collection string, filter, update any) (bool, error)
	UpdateMany(ctx context.Context, collection string, filter, update any) (bool, error)
	CountDocuments(ctx context.Context, collection string, filter any) (int64, error)
	Aggregate(ctx context.Context, collection string, pipeline any) (*mongo.Cursor, error)
	store.Adapter
}

var _ Executor = (*MongoDBExecutor)(nil)

// MongoDBExecutor adapts the store/mongodb adapter to the Executor contract.
type MongoDBExecutor struct {
	adapter *mongostore.Adapter
}

// NewMongoDBExecutor creates a new MongoDBExecutor instance.
func NewMongoDBExecutor(adapter *mongostore.Adapter) (*MongoDBExecutor, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mongodb adapter is required")
	}
	return &MongoDBExecutor{adapter: adapter}, nil
}

func (e *MongoDBExecutor) InsertOne(ctx context.Context, collection string, doc any) error {
	_, err := e.adapter.InsertOne(ctx, collection, doc)
	return ignoreUnacknowledged(err)
}

func (e *MongoDBExecutor) InsertMany(ctx context.Context, collection string, docs []any) error {
	_, err := e.adapter.InsertMany(ctx, collection, docs)
	return ignoreUnacknowledged(err)
}

func (e *MongoDBExecutor) Find(ctx context.Context, collection string, filter any, opts FindOptions) (*mongo.Cursor, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	return e.adapter.Find(ctx, collection, filter, findOpts)
}

func (e *MongoDBExecutor) FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error {
	return e.adapter.FindOneAndDelete(ctx, collection, filter, result)
}

func (e *MongoDBExecutor) DeleteOne(ctx context.Context, collection string, filter any) (int64, error) {
	result, err := e.adapter.DeleteOne(ctx, collection, filter)
	if err != nil {
		return 0, ignoreUnacknowledged(err)
	}
	return result.DeletedCount, nil
}

func (e *MongoDBExecutor) DeleteMany(ctx context.Context, collection string, filter any) (int64, error) {
	result, err := e.adapter.DeleteMany(ctx, collection, filter)
	if err != nil {
		return 0, ignoreUnacknowledged(err)
	}
	return result.DeletedCount, nil
}

func (e *MongoDBExecutor) UpdateOne(ctx context.Context, collection string, filter, update any) (bool, error) {
	_, err := e.adapter.UpdateOne(ctx, collection, filter, update)
	return acknowledged(err)
}

func (e *MongoDBExecutor) UpdateMany(ctx context.Context, collection string, filter, update any) (bool, error) {
	_, err := e.adapter.UpdateMany(ctx, collection, filter, update)
	return acknowledged(err)
}

func (e *MongoDBExecutor) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	return e.adapter.CountDocuments(ctx, collection, filter)
}

func (e *MongoDBExecutor) Aggregate(ctx context.Context, collection string, pipeline any) (*mongo.Cursor, error) {
	return e.adapter.Aggregate(ctx, collection, pipeline)
}

func (e *MongoDBExecutor) HealthCheck(ctx context.Context) error {
	return e.adapter.HealthCheck(ctx)
}

func (e *MongoDBExecutor) Close() error {
	return e.adapter.Close()
}

// acknowledged maps an unacknowledged write concern onto (false, nil).
func acknowledged(err error) (bool, error) {
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func ignoreUnacknowledged(err error) error {
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return nil
	}
	return err
}
