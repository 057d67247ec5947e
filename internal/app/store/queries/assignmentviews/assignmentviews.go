// Package assignmentviews joins worker assignments with their worker and
// class summaries.
package assignmentviews

import (
	"context"

	workerassignstore "github.com/dalemusser/campstaff/internal/app/store/workerassign"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// List returns assignments matching match, each joined with its worker and
// class. A dangling worker_id or class_id yields a nil summary rather than
// dropping the row. A nil sort keeps natural order.
func List(ctx context.Context, db *mongo.Database, match bson.M, sort bson.D) ([]models.AssignmentView, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
	}
	if len(sort) > 0 {
		pipe = append(pipe, bson.D{{Key: "$sort", Value: sort}})
	}
	pipe = append(pipe,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "workers",
			"localField":   "worker_id",
			"foreignField": "_id",
			"as":           "worker",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "classes",
			"localField":   "class_id",
			"foreignField": "_id",
			"as":           "class",
		}}},
		// Keep rows whose worker/class vanished (weak references).
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$worker", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$class", "preserveNullAndEmptyArrays": true}}},
	)

	cur, err := db.Collection(workerassignstore.Collection).Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AssignmentView
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
