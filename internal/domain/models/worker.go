package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Worker is a person who can be staffed into classes.
//
// NOTE:
//   - Assignment state is not stored on Worker.
//     Use the worker_assignments collection to discover a worker's classes.
type Worker struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci,omitempty" json:"full_name_ci,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	DefaultRole string             `bson:"default_role,omitempty" json:"default_role,omitempty"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"`

	// Employment window; the migration inherits it for non-seasonal projects.
	StartDate *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkerSummary is the slice of a Worker joined onto assignment results.
type WorkerSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone    string             `bson:"phone,omitempty" json:"phone,omitempty"`
}
