// Package legacymigrate converts the embedded Class.workers staffing arrays
// into worker_assignments records and verifies the result. Runs are
// idempotent: entries whose triple already has an assignment are skipped.
package legacymigrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/campstaff/internal/app/services/assignments"
	classstore "github.com/dalemusser/campstaff/internal/app/store/classes"
	workerstore "github.com/dalemusser/campstaff/internal/app/store/workers"
	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultActor is recorded as update_by on migrated assignments.
const DefaultActor = "system-migration"

const defaultMaxErrors = 100

// Options tunes a migration run.
type Options struct {
	Actor     string
	Policy    DatePolicy
	DryRun    bool
	MaxErrors int // cap on Report.Errors; further errors are only counted
}

// EntryError records one legacy entry that could not be migrated.
type EntryError struct {
	ClassID     primitive.ObjectID `json:"class_id"`
	WorkerID    primitive.ObjectID `json:"worker_id"`
	ProjectCode int                `json:"project_code"`
	Err         string             `json:"error"`
}

// Report summarizes a run. In a dry run Created counts the assignments that
// would have been created.
type Report struct {
	RunID                string       `json:"run_id"`
	DryRun               bool         `json:"dry_run"`
	Classes              int          `json:"classes"`
	Examined             int          `json:"examined"`
	Created              int          `json:"created"`
	SkippedExisting      int          `json:"skipped_existing"`
	SkippedMissingWorker int          `json:"skipped_missing_worker"`
	SkippedInvalid       int          `json:"skipped_invalid"`
	Failed               int          `json:"failed"`
	Errors               []EntryError `json:"errors,omitempty"`
}

// Migrator runs the legacy conversion through the assignment service.
type Migrator struct {
	svc     *assignments.Service
	workers *workerstore.Store
	classes *classstore.Store
	opts    Options
	log     *zap.Logger
}

// New returns a Migrator over db. Zero-valued options take their defaults.
func New(db *mongo.Database, svc *assignments.Service, opts Options, logger *zap.Logger) *Migrator {
	if opts.Actor == "" {
		opts.Actor = DefaultActor
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = defaultMaxErrors
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{
		svc:     svc,
		workers: workerstore.New(db),
		classes: classstore.New(db),
		opts:    opts,
		log:     logger,
	}
}

type triple struct {
	worker, class primitive.ObjectID
	project       int
}

// Run migrates every embedded staffing entry. Per-entry failures are recorded
// in the report and do not stop the run; a failure to read the classes
// collection does.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString(), DryRun: m.opts.DryRun}
	log := m.log.With(zap.String("run_id", rep.RunID), zap.Bool("dry_run", rep.DryRun))
	log.Info("legacy migration started")

	// Triples already handled in this run. A dry run writes nothing, so the
	// store cannot catch repeated legacy entries.
	planned := make(map[triple]bool)

	err := m.classes.EachWithLegacyWorkers(ctx, func(c models.Class) error {
		rep.Classes++
		for _, entry := range c.Workers {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep.Examined++
			m.migrateEntry(ctx, log, c, entry, planned, &rep)
		}
		return nil
	})
	if err != nil {
		log.Error("legacy migration aborted", zap.Error(err), zap.Int("examined", rep.Examined))
		return rep, err
	}

	log.Info("legacy migration finished",
		zap.Int("classes", rep.Classes),
		zap.Int("examined", rep.Examined),
		zap.Int("created", rep.Created),
		zap.Int("skipped_existing", rep.SkippedExisting),
		zap.Int("skipped_missing_worker", rep.SkippedMissingWorker),
		zap.Int("skipped_invalid", rep.SkippedInvalid),
		zap.Int("failed", rep.Failed))
	return rep, nil
}

func (m *Migrator) migrateEntry(ctx context.Context, log *zap.Logger, c models.Class, e models.LegacyClassWorker, planned map[triple]bool, rep *Report) {
	fields := []zap.Field{
		zap.String("class_id", c.ID.Hex()),
		zap.String("worker_id", e.WorkerID.Hex()),
		zap.Int("project_code", e.Project),
	}

	role := normalize.RoleName(e.RoleName)
	if e.WorkerID.IsZero() || e.Project <= 0 || role == "" {
		rep.SkippedInvalid++
		log.Warn("skipping malformed legacy entry", append(fields, zap.String("role_name", e.RoleName))...)
		return
	}

	t := triple{worker: e.WorkerID, class: c.ID, project: e.Project}
	if planned[t] {
		rep.SkippedExisting++
		return
	}

	w, err := m.workers.GetByID(ctx, e.WorkerID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		rep.SkippedMissingWorker++
		log.Warn("skipping legacy entry: worker not found", fields...)
		return
	}
	if err != nil {
		m.fail(rep, t, err)
		log.Error("worker lookup failed", append(fields, zap.Error(err))...)
		return
	}

	exists, err := m.svc.TripleExists(ctx, e.WorkerID, c.ID, e.Project)
	if err != nil {
		m.fail(rep, t, err)
		log.Error("existence check failed", append(fields, zap.Error(err))...)
		return
	}
	if exists {
		planned[t] = true
		rep.SkippedExisting++
		return
	}

	start, end, err := m.opts.Policy.Dates(e.Project, w)
	if err != nil {
		rep.SkippedInvalid++
		log.Warn("skipping legacy entry: no usable dates", append(fields, zap.Error(err))...)
		return
	}
	planned[t] = true
	if m.opts.DryRun {
		rep.Created++
		return
	}

	_, err = m.svc.CreateAssignment(ctx, assignments.CreateInput{
		WorkerID:    e.WorkerID.Hex(),
		ClassID:     c.ID.Hex(),
		ProjectCode: e.Project,
		RoleName:    role,
		StartDate:   start,
		EndDate:     end,
		UpdateBy:    m.opts.Actor,
		Notes:       provenance(c, e.Project, rep.RunID),
	})
	switch {
	case err == nil:
		rep.Created++
	case errors.Is(err, assignments.ErrConflict):
		// Created concurrently since the existence check.
		rep.SkippedExisting++
	default:
		m.fail(rep, t, err)
		log.Warn("legacy entry not migrated", append(fields, zap.Error(err))...)
	}
}

func (m *Migrator) fail(rep *Report, t triple, err error) {
	rep.Failed++
	if len(rep.Errors) < m.opts.MaxErrors {
		rep.Errors = append(rep.Errors, EntryError{
			ClassID:     t.class,
			WorkerID:    t.worker,
			ProjectCode: t.project,
			Err:         err.Error(),
		})
	}
}

func provenance(c models.Class, project int, runID string) string {
	return fmt.Sprintf("Migrated from class %s (%s), project %d, run %s", c.Name, c.ID.Hex(), project, runID)
}
