package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class is a group/location that needs staffing.
//
// NOTE:
//   - Workers is the legacy embedded staffing list. It is read only by the
//     legacy migration; new code must use the worker_assignments collection.
type Class struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	NameCI          string             `bson:"name_ci,omitempty" json:"name_ci,omitempty"`
	InstitutionName string             `bson:"institution_name,omitempty" json:"institution_name,omitempty"`
	City            string             `bson:"city,omitempty" json:"city,omitempty"`
	Status          string             `bson:"status,omitempty" json:"status,omitempty"`

	Workers []LegacyClassWorker `bson:"workers,omitempty" json:"workers,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LegacyClassWorker is one entry of the pre-migration Class.workers array.
// It carries no temporal fields. Entries written by the old admin UI use
// workerId/roleName instead of worker_id/role_name; both decode.
type LegacyClassWorker struct {
	WorkerID primitive.ObjectID `bson:"worker_id" json:"worker_id"`
	RoleName string             `bson:"role_name" json:"role_name"`
	Project  int                `bson:"project" json:"project"`
}

// UnmarshalBSON decodes either spelling of the entry's fields. The
// snake_case value wins when a document carries both.
func (w *LegacyClassWorker) UnmarshalBSON(data []byte) error {
	var raw struct {
		WorkerID      primitive.ObjectID `bson:"worker_id"`
		WorkerIDCamel primitive.ObjectID `bson:"workerId"`
		RoleName      string             `bson:"role_name"`
		RoleNameCamel string             `bson:"roleName"`
		Project       int                `bson:"project"`
	}
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.WorkerID = raw.WorkerID
	if w.WorkerID.IsZero() {
		w.WorkerID = raw.WorkerIDCamel
	}
	w.RoleName = raw.RoleName
	if w.RoleName == "" {
		w.RoleName = raw.RoleNameCamel
	}
	w.Project = raw.Project
	return nil
}

// ClassSummary is the slice of a Class joined onto assignment results.
type ClassSummary struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Name            string             `bson:"name" json:"name"`
	InstitutionName string             `bson:"institution_name,omitempty" json:"institution_name,omitempty"`
	City            string             `bson:"city,omitempty" json:"city,omitempty"`
}
