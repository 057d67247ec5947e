// internal/app/store/classes/classstore.go
package classstore

import (
	"context"

	"github.com/dalemusser/campstaff/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is a read-only view of the classes collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("classes")}
}

// legacyFilter matches classes whose embedded workers array is non-empty.
var legacyFilter = bson.M{"workers.0": bson.M{"$exists": true}}

// Exists reports whether a class with the given _id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EachWithLegacyWorkers streams every class that still carries a non-empty
// embedded workers array, in _id order. Iteration stops at the first error
// returned by fn.
func (s *Store) EachWithLegacyWorkers(ctx context.Context, fn func(models.Class) error) error {
	cur, err := s.c.Find(ctx, legacyFilter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c models.Class
		if err := cur.Decode(&c); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return cur.Err()
}

// LegacyCounts aggregates the embedded workers arrays.
type LegacyCounts struct {
	Entries   int64
	ByProject map[int]int64
	ByRole    map[string]int64
}

// CountLegacyEntries counts embedded worker entries across all classes,
// broken down by project and by role as written (not normalized).
func (s *Store) CountLegacyEntries(ctx context.Context) (LegacyCounts, error) {
	out := LegacyCounts{
		ByProject: make(map[int]int64),
		ByRole:    make(map[string]int64),
	}

	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: legacyFilter}},
		bson.D{{Key: "$unwind", Value: "$workers"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"project": "$workers.project",
				"role":    bson.M{"$ifNull": bson.A{"$workers.role_name", "$workers.roleName"}},
			},
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID struct {
				Project int    `bson:"project"`
				Role    string `bson:"role"`
			} `bson:"_id"`
			N int64 `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return out, err
		}
		out.Entries += row.N
		out.ByProject[row.ID.Project] += row.N
		out.ByRole[row.ID.Role] += row.N
	}
	return out, cur.Err()
}
