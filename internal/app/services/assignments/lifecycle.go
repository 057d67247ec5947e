package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campstaff/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/app/system/txn"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UpdateAssignment applies a partial edit. The resulting date range is
// validated against the stored values, role_name is re-normalized, and moving
// an active assignment onto another triple re-checks uniqueness. Ending is
// only possible through EndAssignment.
func (s *Service) UpdateAssignment(ctx context.Context, id string, in UpdateInput) (models.WorkerAssignment, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return models.WorkerAssignment{}, err
	}

	if in.WorkerID != nil {
		v := normalize.QueryParam(*in.WorkerID)
		in.WorkerID = &v
	}
	if in.ClassID != nil {
		v := normalize.QueryParam(*in.ClassID)
		in.ClassID = &v
	}
	if in.RoleName != nil {
		v := normalize.RoleName(*in.RoleName)
		in.RoleName = &v
	}
	in.UpdateBy = normalize.Name(in.UpdateBy)
	if err := check(in); err != nil {
		return models.WorkerAssignment{}, err
	}

	var updated models.WorkerAssignment
	var next models.WorkerAssignment
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		cur, err := s.assignments.GetByID(ctx, oid)
		if err == mongo.ErrNoDocuments {
			return &NotFoundError{Kind: "assignment", ID: oid.Hex()}
		}
		if err != nil {
			return err
		}

		set, unset, n, err := applyUpdate(cur, in)
		if err != nil {
			return err
		}
		next = n

		tripleChanged := keyOf(cur) != keyOf(next)
		if tripleChanged {
			if err := s.requireRefs(ctx, next.WorkerID, next.ClassID); err != nil {
				return err
			}
		}
		if tripleChanged && cur.IsActive {
			existing, found, err := s.assignments.FindActive(ctx, next.WorkerID, next.ClassID, next.ProjectCode)
			if err != nil {
				return err
			}
			if found && existing.ID != cur.ID {
				return &ConflictError{Reason: "an active assignment already exists for this worker, class and project", ExistingID: existing.ID}
			}
		}

		updated, err = s.assignments.Update(ctx, oid, set, unset...)
		if err == mongo.ErrNoDocuments {
			return &NotFoundError{Kind: "assignment", ID: oid.Hex()}
		}
		return err
	})
	if err != nil {
		return models.WorkerAssignment{}, s.translate(ctx, "update assignment", err, next)
	}

	s.log.Info("assignment updated", mutationFields(updated)...)
	return updated, nil
}

// applyUpdate merges in onto cur and returns the $set and $unset documents
// plus the merged record used for validation.
func applyUpdate(cur models.WorkerAssignment, in UpdateInput) (bson.M, []string, models.WorkerAssignment, error) {
	next := cur
	set := bson.M{
		"update_date": time.Now().UTC(),
		"update_by":   in.UpdateBy,
	}
	var unset []string

	if in.WorkerID != nil {
		id, err := parseID("worker_id", *in.WorkerID)
		if err != nil {
			return nil, nil, next, err
		}
		next.WorkerID = id
		set["worker_id"] = id
	}
	if in.ClassID != nil {
		id, err := parseID("class_id", *in.ClassID)
		if err != nil {
			return nil, nil, next, err
		}
		next.ClassID = id
		set["class_id"] = id
	}
	if in.ProjectCode != nil {
		next.ProjectCode = *in.ProjectCode
		set["project_code"] = *in.ProjectCode
	}
	if in.RoleName != nil {
		next.RoleName = *in.RoleName
		next.RoleNameCI = text.Fold(*in.RoleName)
		set["role_name"] = next.RoleName
		set["role_name_ci"] = next.RoleNameCI
	}
	if in.StartDate != nil {
		if in.StartDate.IsZero() {
			return nil, nil, next, invalid("start_date", "start_date cannot be cleared")
		}
		next.StartDate = normalize.Date(*in.StartDate)
		set["start_date"] = next.StartDate
	}
	switch {
	case in.ClearEndDate:
		if !cur.IsActive {
			return nil, nil, next, invalid("end_date", "the end date of an ended assignment cannot be cleared")
		}
		next.EndDate = nil
		unset = append(unset, "end_date")
	case in.EndDate != nil:
		next.EndDate = normalize.DatePtr(in.EndDate)
		set["end_date"] = *next.EndDate
	}
	if in.Notes != nil {
		next.Notes = htmlsanitize.PlainText(*in.Notes)
		if next.Notes == "" {
			unset = append(unset, "notes")
		} else {
			set["notes"] = next.Notes
		}
	}

	if next.EndDate != nil && next.EndDate.Before(next.StartDate) {
		return nil, nil, next, invalid("end_date", "end_date must not be before start_date")
	}
	next.UpdateBy = in.UpdateBy
	return set, unset, next, nil
}

// EndAssignment closes an active assignment: it sets end_date, clears
// is_active and records who ended it. Ending an assignment that is already
// ended is a ConflictError.
func (s *Service) EndAssignment(ctx context.Context, id string, endDate time.Time, updateBy string) (models.WorkerAssignment, error) {
	oid, err := parseID("id", id)
	if err != nil {
		return models.WorkerAssignment{}, err
	}
	if endDate.IsZero() {
		return models.WorkerAssignment{}, invalid("end_date", "end_date is required")
	}
	updateBy = normalize.Name(updateBy)
	if updateBy == "" {
		return models.WorkerAssignment{}, invalid("update_by", "update_by is required")
	}
	end := normalize.Date(endDate)

	cur, err := s.assignments.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return models.WorkerAssignment{}, &NotFoundError{Kind: "assignment", ID: oid.Hex()}
	}
	if err != nil {
		return models.WorkerAssignment{}, storageErr("end assignment", err)
	}
	if !cur.IsActive {
		return models.WorkerAssignment{}, alreadyEnded(cur)
	}
	if end.Before(cur.StartDate) {
		return models.WorkerAssignment{}, invalid("end_date", "end_date must not be before start_date")
	}

	ended, err := s.assignments.End(ctx, oid, end, updateBy)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Lost a race: someone ended or deleted it after the read above.
		again, gerr := s.assignments.GetByID(ctx, oid)
		if gerr == nil {
			return models.WorkerAssignment{}, alreadyEnded(again)
		}
		return models.WorkerAssignment{}, &NotFoundError{Kind: "assignment", ID: oid.Hex()}
	}
	if err != nil {
		return models.WorkerAssignment{}, storageErr("end assignment", err)
	}

	s.log.Info("assignment ended", append(mutationFields(ended), zap.Time("end_date", end))...)
	return ended, nil
}

func alreadyEnded(a models.WorkerAssignment) *ConflictError {
	return &ConflictError{Reason: "assignment is already ended", ExistingID: a.ID}
}

// DeleteAssignment removes the record entirely. Use EndAssignment to keep
// history.
func (s *Service) DeleteAssignment(ctx context.Context, id string) error {
	oid, err := parseID("id", id)
	if err != nil {
		return err
	}
	removed, err := s.assignments.Delete(ctx, oid)
	if err != nil {
		return storageErr("delete assignment", err)
	}
	if !removed {
		return &NotFoundError{Kind: "assignment", ID: oid.Hex()}
	}
	s.log.Warn("assignment deleted", zap.String("assignment_id", oid.Hex()))
	return nil
}
