package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkerAssignment binds one Worker to one Class under a project code and role
// for a date range.
//
// IsActive is the explicit "not yet ended" flag and is not derived from
// EndDate. An assignment whose EndDate has passed stays active until it is
// ended.
//
// At most one active assignment may exist per (WorkerID, ClassID, ProjectCode).
type WorkerAssignment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkerID    primitive.ObjectID `bson:"worker_id" json:"worker_id"`
	ClassID     primitive.ObjectID `bson:"class_id" json:"class_id"`
	ProjectCode int                `bson:"project_code" json:"project_code"`

	RoleName   string `bson:"role_name" json:"role_name"`       // trimmed, whitespace collapsed
	RoleNameCI string `bson:"role_name_ci" json:"role_name_ci"` // folded copy for grouping

	StartDate time.Time  `bson:"start_date" json:"start_date"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"` // nil = open-ended
	IsActive  bool       `bson:"is_active" json:"is_active"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Audit fields
	CreateDate time.Time `bson:"create_date" json:"create_date"`
	UpdateDate time.Time `bson:"update_date" json:"update_date"`
	UpdateBy   string    `bson:"update_by" json:"update_by"`
}

// InEffectOn reports whether the assignment is flagged active and its date
// range covers day. Dates are compared as stored (midnight UTC); a missing
// EndDate extends indefinitely.
func (a *WorkerAssignment) InEffectOn(day time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartDate.After(day) {
		return false
	}
	return a.EndDate == nil || !a.EndDate.Before(day)
}

// Lapsed reports whether the assignment is still flagged active although its
// EndDate is before asOf (nobody ended it).
func (a *WorkerAssignment) Lapsed(asOf time.Time) bool {
	return a.IsActive && a.EndDate != nil && a.EndDate.Before(asOf)
}

// AssignmentView is an assignment joined with its Worker and Class summaries.
// Worker or Class is nil when the referenced document no longer exists.
type AssignmentView struct {
	WorkerAssignment `bson:",inline"`

	Worker *WorkerSummary `bson:"worker,omitempty" json:"worker"`
	Class  *ClassSummary  `bson:"class,omitempty" json:"class"`
}
