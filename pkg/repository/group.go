package repository

import (
	"context"

	"github.com/nimburion/mongorepo/pkg/builder"
	"github.com/nimburion/mongorepo/pkg/field"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GroupResult is one distinct value of the grouped field and how many
// documents carry it.
type GroupResult struct {
	Key   any   `bson:"_id"`
	Count int64 `bson:"count"`
}

// Group counts documents per distinct value of the field included by the
// projection. Groups are ordered by key.
func (r *Repository[T, PT]) Group(ctx context.Context, projection builder.ProjectionFunc[T]) ([]GroupResult, error) {
	spec, project, err := builder.BuildProjection(projection)
	if err != nil {
		return nil, err
	}

	pipeline := groupPipeline(spec.Element, project)
	cursor, err := r.db.exec.Aggregate(ctx, r.collection, pipeline)
	if err != nil {
		return nil, storeError("group", r.collection, err)
	}
	defer cursor.Close(ctx)

	results := make([]GroupResult, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, storeError("group", r.collection, err)
	}
	return results, nil
}

// groupPipeline projects the single field, groups on it and sorts by key.
// The identifier projection drops _id itself, so grouping on the identifier
// skips the projection stage.
func groupPipeline(element string, project bson.D) mongo.Pipeline {
	pipeline := make(mongo.Pipeline, 0, 3)
	if element != field.IDElement {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: project}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + element},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	)
}
