package assignments

import (
	"context"
	"time"

	"github.com/dalemusser/campstaff/internal/app/store/queries/assignmentviews"
	workerassignstore "github.com/dalemusser/campstaff/internal/app/store/workerassign"
	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetAssignment returns one assignment joined with its worker and class.
func (s *Service) GetAssignment(ctx context.Context, id string) (models.AssignmentView, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return models.AssignmentView{}, err
	}
	views, err := s.list(ctx, "get assignment", bson.M{"_id": oid}, nil)
	if err != nil {
		return models.AssignmentView{}, err
	}
	if len(views) == 0 {
		return models.AssignmentView{}, &NotFoundError{Kind: "assignment", ID: oid.Hex()}
	}
	return views[0], nil
}

// GetWorkerAssignments lists a worker's assignments, optionally only the
// active ones.
func (s *Service) GetWorkerAssignments(ctx context.Context, workerID string, activeOnly bool) ([]models.AssignmentView, error) {
	wid, err := parseID("worker_id", workerID)
	if err != nil {
		return nil, err
	}
	f := workerassignstore.Filter{WorkerID: &wid, ActiveOnly: activeOnly}
	return s.list(ctx, "get worker assignments", f.BSON(), nil)
}

// GetClassAssignments lists a class's assignments, optionally only the active
// ones.
func (s *Service) GetClassAssignments(ctx context.Context, classID string, activeOnly bool) ([]models.AssignmentView, error) {
	cid, err := parseID("class_id", classID)
	if err != nil {
		return nil, err
	}
	f := workerassignstore.Filter{ClassID: &cid, ActiveOnly: activeOnly}
	return s.list(ctx, "get class assignments", f.BSON(), nil)
}

// GetProjectAssignments lists the assignments under one project code.
func (s *Service) GetProjectAssignments(ctx context.Context, projectCode int, activeOnly bool) ([]models.AssignmentView, error) {
	if projectCode <= 0 {
		return nil, invalid("project_code", "project_code must be greater than 0")
	}
	f := workerassignstore.Filter{ProjectCode: &projectCode, ActiveOnly: activeOnly}
	return s.list(ctx, "get project assignments", f.BSON(), nil)
}

// GetActiveAssignmentsOnDate lists assignments that are flagged active and
// whose date range covers day. The end date is inclusive.
func (s *Service) GetActiveAssignmentsOnDate(ctx context.Context, day time.Time) ([]models.AssignmentView, error) {
	if day.IsZero() {
		return nil, invalid("date", "date is required")
	}
	return s.list(ctx, "get active assignments on date", workerassignstore.InEffectOn(normalize.Date(day)), nil)
}

// GetFlaggedActive lists every assignment with is_active set, whatever its
// dates say.
func (s *Service) GetFlaggedActive(ctx context.Context) ([]models.AssignmentView, error) {
	return s.list(ctx, "get flagged active", workerassignstore.FlaggedActive(), nil)
}

// GetLapsedActive lists assignments still flagged active whose end date is
// before asOf. These were never ended by anyone.
func (s *Service) GetLapsedActive(ctx context.Context, asOf time.Time) ([]models.AssignmentView, error) {
	if asOf.IsZero() {
		return nil, invalid("as_of", "as_of is required")
	}
	return s.list(ctx, "get lapsed active", workerassignstore.LapsedAsOf(normalize.Date(asOf)), workerassignstore.HistorySort)
}

// GetWorkerHistory lists all of a worker's assignments, most recent start
// first.
func (s *Service) GetWorkerHistory(ctx context.Context, workerID string) ([]models.AssignmentView, error) {
	wid, err := parseID("worker_id", workerID)
	if err != nil {
		return nil, err
	}
	f := workerassignstore.Filter{WorkerID: &wid}
	return s.list(ctx, "get worker history", f.BSON(), workerassignstore.HistorySort)
}

// GetClassHistory lists all of a class's assignments, most recent start first.
func (s *Service) GetClassHistory(ctx context.Context, classID string) ([]models.AssignmentView, error) {
	cid, err := parseID("class_id", classID)
	if err != nil {
		return nil, err
	}
	f := workerassignstore.Filter{ClassID: &cid}
	return s.list(ctx, "get class history", f.BSON(), workerassignstore.HistorySort)
}

// Summary holds aggregate counts for the stats view and migration checks.
type Summary struct {
	Total           int64            `json:"total"`
	Active          int64            `json:"active"`
	ByProject       map[int]int64    `json:"by_project"`
	ByRole          map[string]int64 `json:"by_role"`
	ActiveByProject map[int]int64    `json:"active_by_project"`
}

// Summary counts assignments overall and grouped by project and role.
// Roles are grouped on their folded form.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	var err error
	if out.Total, err = s.assignments.Count(ctx, bson.M{}); err != nil {
		return out, storageErr("summary", err)
	}
	if out.Active, err = s.assignments.Count(ctx, workerassignstore.FlaggedActive()); err != nil {
		return out, storageErr("summary", err)
	}
	if out.ByProject, err = s.assignments.CountByProject(ctx, false); err != nil {
		return out, storageErr("summary", err)
	}
	if out.ActiveByProject, err = s.assignments.CountByProject(ctx, true); err != nil {
		return out, storageErr("summary", err)
	}
	if out.ByRole, err = s.assignments.CountByRole(ctx, false); err != nil {
		return out, storageErr("summary", err)
	}
	return out, nil
}

// TripleExists reports whether any assignment, active or ended, exists for
// the triple.
func (s *Service) TripleExists(ctx context.Context, workerID, classID primitive.ObjectID, projectCode int) (bool, error) {
	ok, err := s.assignments.ExistsForTriple(ctx, workerID, classID, projectCode)
	if err != nil {
		return false, storageErr("triple exists", err)
	}
	return ok, nil
}

// DuplicateActive lists triples that hold more than one active assignment.
// The unique index prevents these; a non-empty result means the index is
// missing or was built after bad data got in.
func (s *Service) DuplicateActive(ctx context.Context) ([]workerassignstore.DuplicateTriple, error) {
	dups, err := s.assignments.DuplicateActive(ctx)
	if err != nil {
		return nil, storageErr("duplicate active", err)
	}
	return dups, nil
}

func (s *Service) list(ctx context.Context, op string, match bson.M, sort bson.D) ([]models.AssignmentView, error) {
	views, err := assignmentviews.List(ctx, s.db, match, sort)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if views == nil {
		views = []models.AssignmentView{}
	}
	return views, nil
}
