// Package repository provides typed CRUD access to MongoDB collections.
//
// A Database is opened once per process; Repository values are cheap typed
// views over it, one per stored type:
//
//	db, err := repository.Open(cfg, log)
//	customers, err := repository.New[Customer](db)
//	err = customers.Insert(ctx, &Customer{Name: "Harun"})
//
// Filters, updates and projections are passed as builder callbacks so
// field names are resolved from typed selectors, never spelled by hand.
package repository

import (
	"context"
	"errors"
	"reflect"

	"github.com/google/uuid"
	"github.com/nimburion/mongorepo/pkg/builder"
	"github.com/nimburion/mongorepo/pkg/field"
	"github.com/nimburion/mongorepo/pkg/observability/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository is a typed view of one collection. PT is always *T and is
// inferred: New[Customer](db).
type Repository[T any, PT interface {
	*T
	Document
}] struct {
	db         *Database
	collection string
	log        logger.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*repositoryOptions)

type repositoryOptions struct {
	collection string
}

// WithCollection overrides the collection the repository reads and writes.
func WithCollection(name string) RepositoryOption {
	return func(o *repositoryOptions) {
		o.collection = name
	}
}

// New creates the repository for T. The collection is, in order: the
// WithCollection option, the database's collection mapping for T's type
// name, T's type name.
func New[T any, PT interface {
	*T
	Document
}](db *Database, opts ...RepositoryOption) (*Repository[T, PT], error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	var o repositoryOptions
	for _, opt := range opts {
		opt(&o)
	}
	collection := o.collection
	if collection == "" {
		collection = db.collectionFor(reflect.TypeFor[T]().Name())
	}
	return &Repository[T, PT]{
		db:         db,
		collection: collection,
		log:        db.log.With("collection", collection),
	}, nil
}

// Collection returns the collection name.
func (r *Repository[T, PT]) Collection() string {
	return r.collection
}

// Insert assigns a new identifier to doc and stores it. Any identifier the
// caller set is overwritten. A store failure is returned only under
// PropagateInsertFailure; otherwise it is logged and Insert returns nil.
func (r *Repository[T, PT]) Insert(ctx context.Context, doc PT) error {
	if doc == nil {
		return ErrNilDocument
	}
	doc.SetID(uuid.NewString())

	if err := r.db.exec.InsertOne(ctx, r.collection, doc); err != nil {
		err = storeError("insert", r.collection, err)
		if r.db.policy == PropagateInsertFailure {
			return err
		}
		r.log.WithContext(ctx).Error("insert failed", "id", doc.GetID(), "error", err)
		return nil
	}
	r.log.WithContext(ctx).Debug("document inserted", "id", doc.GetID())
	return nil
}

// InsertMany assigns a distinct identifier to each document and stores them
// in one call. Failures are always returned. An empty slice is a no-op.
func (r *Repository[T, PT]) InsertMany(ctx context.Context, docs []PT) error {
	if len(docs) == 0 {
		return nil
	}
	for _, doc := range docs {
		if doc == nil {
			return ErrNilDocument
		}
	}

	batch := make([]any, len(docs))
	for i, doc := range docs {
		doc.SetID(uuid.NewString())
		batch[i] = doc
	}
	if err := r.db.exec.InsertMany(ctx, r.collection, batch); err != nil {
		return storeError("insert many", r.collection, err)
	}
	r.log.WithContext(ctx).Debug("documents inserted", "count", len(docs))
	return nil
}

// Query returns an unfiltered query over the collection. Nothing is sent to
// the store until a terminal method runs.
func (r *Repository[T, PT]) Query() *Query[T, PT] {
	return &Query[T, PT]{repo: r}
}

// Get returns the document with identifier id, or nil when there is none.
func (r *Repository[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	return r.findOne(ctx, "get", idFilter(id), FindOptions{Limit: 1})
}

// Delete removes the document with identifier id, if present.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	if _, err := r.db.exec.DeleteOne(ctx, r.collection, idFilter(id)); err != nil {
		return storeError("delete", r.collection, err)
	}
	return nil
}

// DeleteWhere removes at most one document matching the filter and reports
// whether one was removed.
func (r *Repository[T, PT]) DeleteWhere(ctx context.Context, filter builder.FilterFunc[T]) (bool, error) {
	f, err := builder.BuildFilter(filter)
	if err != nil {
		return false, err
	}
	removed := PT(new(T))
	err = r.db.exec.FindOneAndDelete(ctx, r.collection, f, removed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, storeError("delete", r.collection, err)
	}
	r.log.WithContext(ctx).Debug("document deleted", "id", removed.GetID())
	return true, nil
}

// DeleteMany removes every document matching the filter and returns the count.
func (r *Repository[T, PT]) DeleteMany(ctx context.Context, filter builder.FilterFunc[T]) (int64, error) {
	f, err := builder.BuildFilter(filter)
	if err != nil {
		return 0, err
	}
	deleted, err := r.db.exec.DeleteMany(ctx, r.collection, f)
	if err != nil {
		return 0, storeError("delete many", r.collection, err)
	}
	return deleted, nil
}

// First returns the first document in natural order, or nil.
func (r *Repository[T, PT]) First(ctx context.Context) (PT, error) {
	return r.findOne(ctx, "first", bson.D{}, FindOptions{Sort: naturalOrder(1), Limit: 1})
}

// Last returns the last document in natural order, or nil.
func (r *Repository[T, PT]) Last(ctx context.Context) (PT, error) {
	return r.findOne(ctx, "last", bson.D{}, FindOptions{Sort: naturalOrder(-1), Limit: 1})
}

// Update applies the first of updates to the first document matching the
// filter and reports whether the write was acknowledged. Further update
// callbacks are ignored and never invoked. With no update callbacks Update
// returns false without contacting the store.
func (r *Repository[T, PT]) Update(ctx context.Context, filter builder.FilterFunc[T], updates ...builder.UpdateFunc[T]) (bool, error) {
	return r.update(ctx, false, filter, updates)
}

// UpdateMany is Update over every matching document.
func (r *Repository[T, PT]) UpdateMany(ctx context.Context, filter builder.FilterFunc[T], updates ...builder.UpdateFunc[T]) (bool, error) {
	return r.update(ctx, true, filter, updates)
}

func (r *Repository[T, PT]) update(ctx context.Context, many bool, filter builder.FilterFunc[T], updates []builder.UpdateFunc[T]) (bool, error) {
	f, err := builder.BuildFilter(filter)
	if err != nil {
		return false, err
	}
	if len(updates) == 0 {
		return false, nil
	}
	// TODO: combine every update callback into one document once multi-field
	// updates are supported by the builder.
	u, err := builder.BuildUpdate(updates[0])
	if err != nil {
		return false, err
	}

	var ack bool
	if many {
		ack, err = r.db.exec.UpdateMany(ctx, r.collection, f, u)
	} else {
		ack, err = r.db.exec.UpdateOne(ctx, r.collection, f, u)
	}
	if err != nil {
		return false, storeError("update", r.collection, err)
	}
	return ack, nil
}

// Count returns the number of documents in the collection.
func (r *Repository[T, PT]) Count(ctx context.Context) (int64, error) {
	n, err := r.db.exec.CountDocuments(ctx, r.collection, bson.D{})
	if err != nil {
		return 0, storeError("count", r.collection, err)
	}
	return n, nil
}

func (r *Repository[T, PT]) findOne(ctx context.Context, op string, filter any, opts FindOptions) (PT, error) {
	cursor, err := r.db.exec.Find(ctx, r.collection, filter, opts)
	if err != nil {
		return nil, storeError(op, r.collection, err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, storeError(op, r.collection, err)
		}
		return nil, nil
	}
	doc := PT(new(T))
	if err := cursor.Decode(doc); err != nil {
		return nil, storeError(op, r.collection, err)
	}
	return doc, nil
}

func idFilter(id string) bson.D {
	return bson.D{{Key: field.IDElement, Value: id}}
}
