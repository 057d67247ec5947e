// internal/app/store/workers/workerstore.go
package workerstore

import (
	"context"

	"github.com/dalemusser/campstaff/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is a read-only view of the workers collection. Worker records are
// owned by the staff directory; assignment code only looks them up.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workers")}
}

// GetByID returns a single worker by its _id.
// Returns mongo.ErrNoDocuments when the worker does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Worker, error) {
	var w models.Worker
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	return w, err
}

// Exists reports whether a worker with the given _id exists.
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

// GetByIDs loads multiple workers. Missing IDs are simply absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Worker, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Worker
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
