// internal/app/store/workerassign/workerassignstore.go
package workerassignstore

import (
	"context"
	"time"

	"github.com/dalemusser/campstaff/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the worker assignment collection.
const Collection = "worker_assignments"

// Store persists worker assignments. It performs no validation: all writes
// are expected to come through the assignments service, which owns the
// normalization and invariant checks.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Filter selects assignments for list queries. Nil fields are ignored.
type Filter struct {
	WorkerID    *primitive.ObjectID
	ClassID     *primitive.ObjectID
	ProjectCode *int
	ActiveOnly  bool
}

// BSON renders the filter as a query document.
func (f Filter) BSON() bson.M {
	q := bson.M{}
	if f.WorkerID != nil {
		q["worker_id"] = *f.WorkerID
	}
	if f.ClassID != nil {
		q["class_id"] = *f.ClassID
	}
	if f.ProjectCode != nil {
		q["project_code"] = *f.ProjectCode
	}
	if f.ActiveOnly {
		q["is_active"] = true
	}
	return q
}

// HistorySort orders newest start_date first; _id breaks ties so the order is
// stable across calls.
var HistorySort = bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}}

// InEffectOn matches assignments flagged active whose range covers day:
// start_date <= day and (end_date missing or end_date >= day).
func InEffectOn(day time.Time) bson.M {
	return bson.M{
		"is_active":  true,
		"start_date": bson.M{"$lte": day},
		"$or": bson.A{
			bson.M{"end_date": nil}, // matches missing and null
			bson.M{"end_date": bson.M{"$gte": day}},
		},
	}
}

// FlaggedActive matches every assignment nobody has ended, regardless of dates.
func FlaggedActive() bson.M {
	return bson.M{"is_active": true}
}

// LapsedAsOf matches assignments still flagged active whose end_date is
// before asOf.
func LapsedAsOf(asOf time.Time) bson.M {
	return bson.M{"is_active": true, "end_date": bson.M{"$lt": asOf}}
}

// Create inserts a new assignment. If ID is zero a new ObjectID is assigned.
// If CreateDate/UpdateDate are zero they are set to now (UTC).
func (s *Store) Create(ctx context.Context, a models.WorkerAssignment) (models.WorkerAssignment, error) {
	stampNew(&a, time.Now().UTC())
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// CreateMany inserts all assignments with one ordered InsertMany call.
// IDs are assigned up front so the returned slice matches what was written.
func (s *Store) CreateMany(ctx context.Context, as []models.WorkerAssignment) ([]models.WorkerAssignment, error) {
	if len(as) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(as))
	for i := range as {
		stampNew(&as[i], now)
		docs = append(docs, as[i])
	}
	if _, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, err
	}
	return as, nil
}

func stampNew(a *models.WorkerAssignment, now time.Time) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreateDate.IsZero() {
		a.CreateDate = now
	}
	if a.UpdateDate.IsZero() {
		a.UpdateDate = now
	}
}

// GetByID returns a single assignment by its _id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.WorkerAssignment, error) {
	var a models.WorkerAssignment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// FindActive returns the active assignment for the triple, if any.
func (s *Store) FindActive(ctx context.Context, workerID, classID primitive.ObjectID, projectCode int) (models.WorkerAssignment, bool, error) {
	var a models.WorkerAssignment
	err := s.c.FindOne(ctx, bson.M{
		"worker_id":    workerID,
		"class_id":     classID,
		"project_code": projectCode,
		"is_active":    true,
	}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return a, false, nil
	}
	if err != nil {
		return a, false, err
	}
	return a, true, nil
}

// ExistsForTriple reports whether any assignment, active or ended, exists for
// the triple.
func (s *Store) ExistsForTriple(ctx context.Context, workerID, classID primitive.ObjectID, projectCode int) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"worker_id":    workerID,
		"class_id":     classID,
		"project_code": projectCode,
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update applies set and unset to the assignment and returns the updated
// document. Returns mongo.ErrNoDocuments if the assignment does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, set bson.M, unset ...string) (models.WorkerAssignment, error) {
	upd := bson.M{"$set": set}
	if len(unset) > 0 {
		u := bson.M{}
		for _, f := range unset {
			u[f] = ""
		}
		upd["$unset"] = u
	}

	var a models.WorkerAssignment
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	return a, err
}

// End closes an active assignment in a single conditional write. Returns
// mongo.ErrNoDocuments if no active assignment with that _id exists (either it
// is missing or it was already ended).
func (s *Store) End(ctx context.Context, id primitive.ObjectID, endDate time.Time, updateBy string) (models.WorkerAssignment, error) {
	now := time.Now().UTC()

	var a models.WorkerAssignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": bson.M{
			"end_date":    endDate,
			"is_active":   false,
			"ended_at":    now,
			"update_date": now,
			"update_by":   updateBy,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	return a, err
}

// Delete removes the assignment with the given _id and reports whether a
// document was removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// List returns assignments matching filter. A nil sort leaves natural order.
func (s *Store) List(ctx context.Context, filter bson.M, sort bson.D) ([]models.WorkerAssignment, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.WorkerAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of assignments matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// CountByProject returns assignment counts keyed by project code.
// When activeOnly is set, ended assignments are excluded.
func (s *Store) CountByProject(ctx context.Context, activeOnly bool) (map[int]int64, error) {
	out := make(map[int]int64)
	err := s.groupCount(ctx, "$project_code", activeOnly, func(raw bson.RawValue, n int64) {
		if v, ok := raw.AsInt64OK(); ok {
			out[int(v)] += n
		}
	})
	return out, err
}

// CountByRole returns assignment counts keyed by the folded role name, so
// "Counselor" and "counselor" count together.
func (s *Store) CountByRole(ctx context.Context, activeOnly bool) (map[string]int64, error) {
	out := make(map[string]int64)
	err := s.groupCount(ctx, "$role_name_ci", activeOnly, func(raw bson.RawValue, n int64) {
		if v, ok := raw.StringValueOK(); ok {
			out[v] += n
		}
	})
	return out, err
}

func (s *Store) groupCount(ctx context.Context, key string, activeOnly bool, add func(bson.RawValue, int64)) error {
	match := bson.M{}
	if activeOnly {
		match["is_active"] = true
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID bson.RawValue `bson:"_id"`
			N  int64         `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return err
		}
		add(row.ID, row.N)
	}
	return cur.Err()
}

// DuplicateTriple is a (worker, class, project) triple with more than one
// active assignment.
type DuplicateTriple struct {
	WorkerID      primitive.ObjectID   `bson:"worker_id" json:"worker_id"`
	ClassID       primitive.ObjectID   `bson:"class_id" json:"class_id"`
	ProjectCode   int                  `bson:"project_code" json:"project_code"`
	AssignmentIDs []primitive.ObjectID `bson:"ids" json:"assignment_ids"`
}

// DuplicateActive lists triples that have more than one active assignment.
func (s *Store) DuplicateActive(ctx context.Context) ([]DuplicateTriple, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"is_active": true}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"w": "$worker_id", "c": "$class_id", "p": "$project_code"},
			"ids": bson.M{"$push": "$_id"},
			"n":   bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$match", Value: bson.M{"n": bson.M{"$gt": 1}}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":          0,
			"worker_id":    "$_id.w",
			"class_id":     "$_id.c",
			"project_code": "$_id.p",
			"ids":          1,
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []DuplicateTriple
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
