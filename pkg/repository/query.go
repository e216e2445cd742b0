package repository

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/nimburion/mongorepo/pkg/builder"
	"github.com/nimburion/mongorepo/pkg/field"
	"go.mongodb.org/mongo-driver/bson"
)

// Query is an immutable, lazily evaluated query over one collection. Every
// method returns a new Query; the receiver is never modified. Terminal
// methods (All, Seq, First, Count) are the only ones that reach the store.
type Query[T any, PT interface {
	*T
	Document
}] struct {
	repo    *Repository[T, PT]
	filters []builder.FilterFunc[T]
	sort    bson.D
	skip    int64
	limit   int64
	err     error
}

func (q *Query[T, PT]) clone() *Query[T, PT] {
	c := *q
	c.filters = slices.Clone(q.filters)
	c.sort = slices.Clone(q.sort)
	return &c
}

// Where adds a condition. Conditions from several calls must all match.
func (q *Query[T, PT]) Where(filter builder.FilterFunc[T]) *Query[T, PT] {
	c := q.clone()
	if c.err == nil && filter == nil {
		c.err = builder.ErrNilConfig
	}
	c.filters = append(c.filters, filter)
	return c
}

// OrderBy adds a sort key. Earlier keys take precedence.
func (q *Query[T, PT]) OrderBy(sel field.Selector[T], order SortOrder) *Query[T, PT] {
	c := q.clone()
	if c.err != nil {
		return c
	}
	_, element, err := field.ElementOf(sel)
	if err != nil {
		c.err = fmt.Errorf("order by: %w", err)
		return c
	}
	c.sort = append(c.sort, bson.E{Key: element, Value: order.direction()})
	return c
}

// Skip skips the first n matches.
func (q *Query[T, PT]) Skip(n int) *Query[T, PT] {
	c := q.clone()
	if n < 0 && c.err == nil {
		c.err = fmt.Errorf("%w: negative skip %d", field.ErrInvalidInput, n)
	}
	c.skip = int64(max(n, 0))
	return c
}

// Limit returns at most n matches. Zero removes the limit.
func (q *Query[T, PT]) Limit(n int) *Query[T, PT] {
	c := q.clone()
	if n < 0 && c.err == nil {
		c.err = fmt.Errorf("%w: negative limit %d", field.ErrInvalidInput, n)
	}
	c.limit = int64(max(n, 0))
	return c
}

// Page is Skip(p.Offset()).Limit(p.Limit()).
func (q *Query[T, PT]) Page(p Pagination) *Query[T, PT] {
	return q.Skip(p.Offset()).Limit(p.Limit())
}

// Filter renders the combined filter document.
func (q *Query[T, PT]) Filter() (bson.D, error) {
	if q.err != nil {
		return nil, q.err
	}
	if len(q.filters) == 0 {
		return bson.D{}, nil
	}
	conditions := make(bson.A, 0, len(q.filters))
	for _, fn := range q.filters {
		f, err := builder.BuildFilter(fn)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, f)
	}
	if len(conditions) == 1 {
		return conditions[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: conditions}}, nil
}

func (q *Query[T, PT]) findOptions() FindOptions {
	return FindOptions{Sort: q.sort, Skip: q.skip, Limit: q.limit}
}

// All returns every match.
func (q *Query[T, PT]) All(ctx context.Context) ([]PT, error) {
	docs := make([]PT, 0)
	for doc, err := range q.Seq(ctx) {
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Seq streams matches from the store cursor. Iteration stops after the
// first error, which is yielded with a nil document.
func (q *Query[T, PT]) Seq(ctx context.Context) iter.Seq2[PT, error] {
	return func(yield func(PT, error) bool) {
		r := q.repo
		filter, err := q.Filter()
		if err != nil {
			yield(nil, err)
			return
		}
		cursor, err := r.db.exec.Find(ctx, r.collection, filter, q.findOptions())
		if err != nil {
			yield(nil, storeError("query", r.collection, err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			doc := PT(new(T))
			if err := cursor.Decode(doc); err != nil {
				yield(nil, storeError("query", r.collection, err))
				return
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, storeError("query", r.collection, err))
		}
	}
}

// First returns the first match, or nil.
func (q *Query[T, PT]) First(ctx context.Context) (PT, error) {
	filter, err := q.Filter()
	if err != nil {
		return nil, err
	}
	opts := q.findOptions()
	opts.Limit = 1
	return q.repo.findOne(ctx, "query", filter, opts)
}

// Count returns the number of matches, honouring Skip and Limit.
func (q *Query[T, PT]) Count(ctx context.Context) (int64, error) {
	filter, err := q.Filter()
	if err != nil {
		return 0, err
	}
	r := q.repo
	n, err := r.db.exec.CountDocuments(ctx, r.collection, filter)
	if err != nil {
		return 0, storeError("count", r.collection, err)
	}
	n = max(n-q.skip, 0)
	if q.limit > 0 {
		n = min(n, q.limit)
	}
	return n, nil
}
