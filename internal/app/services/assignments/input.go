package assignments

import (
	"time"

	"github.com/dalemusser/campstaff/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campstaff/internal/app/system/inputval"
	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateInput carries the fields of a new assignment. Identifiers are 24-hex
// strings; dates are truncated to their calendar day.
type CreateInput struct {
	WorkerID    string     `json:"worker_id" validate:"required,objectid"`
	ClassID     string     `json:"class_id" validate:"required,objectid"`
	ProjectCode int        `json:"project_code" validate:"gt=0"`
	RoleName    string     `json:"role_name" validate:"notblank,max=100"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Notes       string     `json:"notes,omitempty" validate:"max=2000"`
	UpdateBy    string     `json:"update_by" validate:"notblank"`
}

// UpdateInput is a partial update. Nil fields are left unchanged.
// ClearEndDate removes the end date and wins over EndDate.
type UpdateInput struct {
	WorkerID     *string    `json:"worker_id,omitempty" validate:"omitnil,objectid"`
	ClassID      *string    `json:"class_id,omitempty" validate:"omitnil,objectid"`
	ProjectCode  *int       `json:"project_code,omitempty" validate:"omitnil,gt=0"`
	RoleName     *string    `json:"role_name,omitempty" validate:"omitnil,notblank,max=100"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	ClearEndDate bool       `json:"clear_end_date,omitempty"`
	Notes        *string    `json:"notes,omitempty" validate:"omitnil,max=2000"`
	UpdateBy     string     `json:"update_by" validate:"notblank"`
}

// check runs the struct rules and converts the first failure.
func check(v any) error {
	fails, err := inputval.Struct(v)
	if err != nil {
		return err
	}
	if len(fails) > 0 {
		return invalid(fails[0].Field, fails[0].Message)
	}
	return nil
}

// build validates in and returns the assignment it describes, normalized and
// ready to insert.
func (in CreateInput) build() (models.WorkerAssignment, error) {
	in.WorkerID = normalize.QueryParam(in.WorkerID)
	in.ClassID = normalize.QueryParam(in.ClassID)
	in.RoleName = normalize.RoleName(in.RoleName)
	in.UpdateBy = normalize.Name(in.UpdateBy)
	in.Notes = htmlsanitize.PlainText(in.Notes)

	if err := check(in); err != nil {
		return models.WorkerAssignment{}, err
	}

	workerID, _ := primitive.ObjectIDFromHex(in.WorkerID)
	classID, _ := primitive.ObjectIDFromHex(in.ClassID)
	start := normalize.Date(in.StartDate)
	end := normalize.DatePtr(in.EndDate)
	if end != nil && end.Before(start) {
		return models.WorkerAssignment{}, invalid("end_date", "end_date must not be before start_date")
	}

	return models.WorkerAssignment{
		WorkerID:    workerID,
		ClassID:     classID,
		ProjectCode: in.ProjectCode,
		RoleName:    in.RoleName,
		RoleNameCI:  text.Fold(in.RoleName),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
		Notes:       in.Notes,
		UpdateBy:    in.UpdateBy,
	}, nil
}

// parseID converts a 24-hex identifier, reporting field on failure.
func parseID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(normalize.QueryParam(s))
	if err != nil {
		return primitive.NilObjectID, invalid(field, field+" must be a 24-character hex identifier")
	}
	return id, nil
}
