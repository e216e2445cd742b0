package repository

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// fakeExecutor is an in-memory Executor that understands the documents the
// repository renders: equality filters, $and, $set, $currentDate, $natural
// sorts and the group pipeline.
type fakeExecutor struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	calls       []string

	// insertErr fails InsertOne and InsertMany; err fails every call.
	insertErr      error
	err            error
	unacknowledged bool
	closed         bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{collections: map[string][]bson.M{}}
}

func (f *fakeExecutor) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) docs(collection string) []bson.M {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.collections[collection])
}

func toM(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// normalize passes v through the codec so it compares equal to stored values.
func normalize(v any) any {
	m, err := toM(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return v
	}
	return m["v"]
}

func matches(doc bson.M, filter any) bool {
	d, ok := filter.(bson.D)
	if !ok {
		return false
	}
	for _, e := range d {
		if e.Key == "$and" {
			for _, sub := range e.Value.(bson.A) {
				if !matches(doc, sub) {
					return false
				}
			}
			continue
		}
		if !reflect.DeepEqual(doc[e.Key], normalize(e.Value)) {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return compareFloat(float64(av), float64(bv))
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return compareFloat(af, bf)
		}
	}
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareValues(fmt.Sprint(a), fmt.Sprint(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (f *fakeExecutor) selectDocs(collection string, filter any, opts FindOptions) []bson.M {
	var out []bson.M
	for _, doc := range f.collections[collection] {
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	if len(opts.Sort) > 0 {
		// insertion order is the natural order; a stable sort keeps it for ties
		if opts.Sort[0].Key == "$natural" {
			if opts.Sort[0].Value == -1 {
				slices.Reverse(out)
			}
		} else {
			slices.SortStableFunc(out, func(a, b bson.M) int {
				for _, key := range opts.Sort {
					if c := compareValues(a[key.Key], b[key.Key]) * key.Value.(int); c != 0 {
						return c
					}
				}
				return 0
			})
		}
	}
	if opts.Skip > 0 {
		out = out[min(int(opts.Skip), len(out)):]
	}
	if opts.Limit > 0 && int(opts.Limit) < len(out) {
		out = out[:opts.Limit]
	}
	return out
}

func cursorOf(docs []bson.M) (*mongo.Cursor, error) {
	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}
	return mongo.NewCursorFromDocuments(items, nil, nil)
}

func (f *fakeExecutor) InsertOne(_ context.Context, collection string, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertOne"); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	m, err := toM(doc)
	if err != nil {
		return err
	}
	f.collections[collection] = append(f.collections[collection], m)
	return nil
}

func (f *fakeExecutor) InsertMany(_ context.Context, collection string, docs []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertMany"); err != nil {
		return err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, doc := range docs {
		m, err := toM(doc)
		if err != nil {
			return err
		}
		f.collections[collection] = append(f.collections[collection], m)
	}
	return nil
}

func (f *fakeExecutor) Find(_ context.Context, collection string, filter any, opts FindOptions) (*mongo.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Find"); err != nil {
		return nil, err
	}
	return cursorOf(f.selectDocs(collection, filter, opts))
}

func (f *fakeExecutor) FindOneAndDelete(_ context.Context, collection string, filter any, result any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindOneAndDelete"); err != nil {
		return err
	}
	docs := f.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			f.collections[collection] = slices.Delete(docs, i, i+1)
			raw, err := bson.Marshal(doc)
			if err != nil {
				return err
			}
			return bson.Unmarshal(raw, result)
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeExecutor) delete(collection string, filter any, many bool) int64 {
	var deleted int64
	kept := make([]bson.M, 0, len(f.collections[collection]))
	for _, doc := range f.collections[collection] {
		if (many || deleted == 0) && matches(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	f.collections[collection] = kept
	return deleted
}

func (f *fakeExecutor) DeleteOne(_ context.Context, collection string, filter any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteOne"); err != nil {
		return 0, err
	}
	return f.delete(collection, filter, false), nil
}

func (f *fakeExecutor) DeleteMany(_ context.Context, collection string, filter any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteMany"); err != nil {
		return 0, err
	}
	return f.delete(collection, filter, true), nil
}

func (f *fakeExecutor) update(collection string, filter, update any, many bool) {
	for _, doc := range f.collections[collection] {
		if !matches(doc, filter) {
			continue
		}
		for _, op := range update.(bson.D) {
			for _, e := range op.Value.(bson.D) {
				switch op.Key {
				case "$set":
					doc[e.Key] = normalize(e.Value)
				case "$currentDate":
					doc[e.Key] = primitive.NewDateTimeFromTime(time.Now())
				}
			}
		}
		if !many {
			return
		}
	}
}

func (f *fakeExecutor) UpdateOne(_ context.Context, collection string, filter, update any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateOne"); err != nil {
		return false, err
	}
	f.update(collection, filter, update, false)
	return !f.unacknowledged, nil
}

func (f *fakeExecutor) UpdateMany(_ context.Context, collection string, filter, update any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateMany"); err != nil {
		return false, err
	}
	f.update(collection, filter, update, true)
	return !f.unacknowledged, nil
}

func (f *fakeExecutor) CountDocuments(_ context.Context, collection string, filter any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CountDocuments"); err != nil {
		return 0, err
	}
	return int64(len(f.selectDocs(collection, filter, FindOptions{}))), nil
}

func (f *fakeExecutor) Aggregate(_ context.Context, collection string, pipeline any) (*mongo.Cursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Aggregate"); err != nil {
		return nil, err
	}

	docs := slices.Clone(f.collections[collection])
	for _, stage := range pipeline.(mongo.Pipeline) {
		op := stage[0]
		spec := op.Value.(bson.D)
		switch op.Key {
		case "$project":
			projected := make([]bson.M, 0, len(docs))
			for _, doc := range docs {
				out := bson.M{}
				keepID := true
				for _, e := range spec {
					if e.Key == "_id" && e.Value == 0 {
						keepID = false
						continue
					}
					if e.Value == 1 {
						if v, ok := doc[e.Key]; ok {
							out[e.Key] = v
						}
					}
				}
				if keepID {
					out["_id"] = doc["_id"]
				}
				projected = append(projected, out)
			}
			docs = projected
		case "$group":
			key := spec[0].Value.(string)[1:]
			var order []string
			counts := map[string]int32{}
			values := map[string]any{}
			for _, doc := range docs {
				v := doc[key]
				k := fmt.Sprintf("%T:%v", v, v)
				if _, seen := counts[k]; !seen {
					order = append(order, k)
					values[k] = v
				}
				counts[k]++
			}
			grouped := make([]bson.M, 0, len(order))
			for _, k := range order {
				grouped = append(grouped, bson.M{"_id": values[k], "count": counts[k]})
			}
			docs = grouped
		case "$sort":
			slices.SortStableFunc(docs, func(a, b bson.M) int {
				return compareValues(a[spec[0].Key], b[spec[0].Key]) * spec[0].Value.(int)
			})
		}
	}
	return cursorOf(docs)
}

func (f *fakeExecutor) HealthCheck(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("fake executor is closed")
	}
	return f.err
}

func (f *fakeExecutor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
