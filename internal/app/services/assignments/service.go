// Package assignments is the only writer of worker_assignments. It keeps at
// most one active assignment per (worker, class, project) triple.
package assignments

import (
	"context"
	"errors"
	"strconv"

	classstore "github.com/dalemusser/campstaff/internal/app/store/classes"
	workerassignstore "github.com/dalemusser/campstaff/internal/app/store/workerassign"
	workerstore "github.com/dalemusser/campstaff/internal/app/store/workers"
	"github.com/dalemusser/campstaff/internal/app/system/txn"
	"github.com/dalemusser/campstaff/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service implements the assignment operations.
type Service struct {
	db          *mongo.Database
	assignments *workerassignstore.Store
	workers     *workerstore.Store
	classes     *classstore.Store
	log         *zap.Logger
}

// New returns a Service backed by db.
func New(db *mongo.Database, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:          db,
		assignments: workerassignstore.New(db),
		workers:     workerstore.New(db),
		classes:     classstore.New(db),
		log:         logger,
	}
}

// CreateAssignment validates in and inserts a new active assignment.
// It fails with a ConflictError when the triple already has an active
// assignment and with a NotFoundError when the worker or class is missing.
func (s *Service) CreateAssignment(ctx context.Context, in CreateInput) (models.WorkerAssignment, error) {
	a, err := in.build()
	if err != nil {
		return models.WorkerAssignment{}, err
	}

	var created models.WorkerAssignment
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.requireRefs(ctx, a.WorkerID, a.ClassID); err != nil {
			return err
		}
		existing, found, err := s.assignments.FindActive(ctx, a.WorkerID, a.ClassID, a.ProjectCode)
		if err != nil {
			return err
		}
		if found {
			return &ConflictError{Reason: "an active assignment already exists for this worker, class and project", ExistingID: existing.ID}
		}
		created, err = s.assignments.Create(ctx, a)
		return err
	})
	if err != nil {
		return models.WorkerAssignment{}, s.translate(ctx, "create assignment", err, a)
	}

	s.log.Info("assignment created", mutationFields(created)...)
	return created, nil
}

// CheckActiveAssignment returns the active assignment for the triple, or nil
// when there is none.
func (s *Service) CheckActiveAssignment(ctx context.Context, workerID, classID string, projectCode int) (*models.WorkerAssignment, error) {
	wid, err := parseID("worker_id", workerID)
	if err != nil {
		return nil, err
	}
	cid, err := parseID("class_id", classID)
	if err != nil {
		return nil, err
	}
	if projectCode <= 0 {
		return nil, invalid("project_code", "project_code must be greater than 0")
	}
	a, found, err := s.assignments.FindActive(ctx, wid, cid, projectCode)
	if err != nil {
		return nil, storageErr("check active assignment", err)
	}
	if !found {
		return nil, nil
	}
	return &a, nil
}

// CreateMultipleAssignments validates every element before writing anything,
// checks each against the active set, then inserts them all with one ordered
// write. updateBy, when non-empty, overrides each element's UpdateBy.
//
// Inside a transaction the batch is all or nothing. Without one, a duplicate
// created concurrently after the checks stops the ordered insert at that item;
// the returned ConflictError then lists the items already written in
// Persisted.
func (s *Service) CreateMultipleAssignments(ctx context.Context, items []CreateInput, updateBy string) ([]models.WorkerAssignment, error) {
	if len(items) == 0 {
		return nil, invalid("assignments", "at least one assignment is required")
	}

	batch := make([]models.WorkerAssignment, 0, len(items))
	seen := make(map[tripleKey]int, len(items))
	for i, in := range items {
		if updateBy != "" {
			in.UpdateBy = updateBy
		}
		a, err := in.build()
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, ve.at(i)
			}
			return nil, err
		}
		k := keyOf(a)
		if j, dup := seen[k]; dup {
			return nil, invalid("worker_id", "duplicates the worker, class and project of item "+strconv.Itoa(j)).at(i)
		}
		seen[k] = i
		a.ID = primitive.NewObjectID()
		batch = append(batch, a)
	}

	var created []models.WorkerAssignment
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for i, a := range batch {
			if err := s.requireRefs(ctx, a.WorkerID, a.ClassID); err != nil {
				return err
			}
			existing, found, err := s.assignments.FindActive(ctx, a.WorkerID, a.ClassID, a.ProjectCode)
			if err != nil {
				return err
			}
			if found {
				return &ConflictError{
					Reason:     "item " + strconv.Itoa(i) + ": an active assignment already exists for this worker, class and project",
					ExistingID: existing.ID,
				}
			}
		}
		var err error
		created, err = s.assignments.CreateMany(ctx, batch)
		return err
	})
	if err != nil {
		var (
			nf *NotFoundError
			ce *ConflictError
		)
		switch {
		case errors.As(err, &nf), errors.As(err, &ce):
			return nil, err
		case wafflemongo.IsDup(err):
			ce := s.batchConflict(ctx, err, batch)
			s.log.Warn("batch create hit an active duplicate",
				zap.String("reason", ce.Reason), zap.Int("persisted", len(ce.Persisted)))
			return nil, ce
		default:
			s.log.Error("create assignments failed", zap.Error(err), zap.Int("count", len(batch)))
			return nil, storageErr("create assignments", err)
		}
	}

	s.log.Info("assignments created in batch", zap.Int("count", len(created)), zap.String("update_by", created[0].UpdateBy))
	return created, nil
}

// batchConflict describes a duplicate key raised by the batch insert: which
// item clashed, the active record it clashed with, and which batch items are
// in the collection anyway.
func (s *Service) batchConflict(ctx context.Context, err error, batch []models.WorkerAssignment) *ConflictError {
	ce := &ConflictError{Reason: "an active assignment already exists for one of the items in the batch"}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		if i := bwe.WriteErrors[0].Index; i >= 0 && i < len(batch) {
			a := batch[i]
			ce.Reason = "item " + strconv.Itoa(i) + ": an active assignment already exists for this worker, class and project"
			if existing, found, ferr := s.assignments.FindActive(ctx, a.WorkerID, a.ClassID, a.ProjectCode); ferr == nil && found {
				ce.ExistingID = existing.ID
			}
		}
	}

	ids := make([]primitive.ObjectID, len(batch))
	for i, a := range batch {
		ids[i] = a.ID
	}
	written, err := s.assignments.List(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		s.log.Error("cannot check which batch items were written", zap.Error(err))
		return ce
	}
	in := make(map[primitive.ObjectID]bool, len(written))
	for _, a := range written {
		in[a.ID] = true
	}
	for _, a := range batch {
		if in[a.ID] {
			ce.Persisted = append(ce.Persisted, a.ID)
		}
	}
	return ce
}

// requireRefs checks that the worker and class exist.
func (s *Service) requireRefs(ctx context.Context, workerID, classID primitive.ObjectID) error {
	ok, err := s.workers.Exists(ctx, workerID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Kind: "worker", ID: workerID.Hex()}
	}
	ok, err = s.classes.Exists(ctx, classID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Kind: "class", ID: classID.Hex()}
	}
	return nil
}

// translate maps an error from a write path to the service taxonomy. Typed
// errors pass through; a duplicate key on the active-triple index becomes a
// ConflictError; anything else is a StorageError.
func (s *Service) translate(ctx context.Context, op string, err error, a models.WorkerAssignment) error {
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &ce):
		return err
	case wafflemongo.IsDup(err):
		conflict := &ConflictError{Reason: "an active assignment already exists for this worker, class and project"}
		if existing, found, ferr := s.assignments.FindActive(ctx, a.WorkerID, a.ClassID, a.ProjectCode); ferr == nil && found {
			conflict.ExistingID = existing.ID
		}
		return conflict
	default:
		s.log.Error(op+" failed", zap.Error(err), zap.String("worker_id", a.WorkerID.Hex()), zap.String("class_id", a.ClassID.Hex()))
		return storageErr(op, err)
	}
}

type tripleKey struct {
	worker, class primitive.ObjectID
	project       int
}

func keyOf(a models.WorkerAssignment) tripleKey {
	return tripleKey{worker: a.WorkerID, class: a.ClassID, project: a.ProjectCode}
}

func mutationFields(a models.WorkerAssignment) []zap.Field {
	return []zap.Field{
		zap.String("assignment_id", a.ID.Hex()),
		zap.String("worker_id", a.WorkerID.Hex()),
		zap.String("class_id", a.ClassID.Hex()),
		zap.Int("project_code", a.ProjectCode),
		zap.String("update_by", a.UpdateBy),
	}
}
