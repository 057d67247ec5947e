package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateWorker creates an active worker with no employment window.
func (f *Fixtures) CreateWorker(ctx context.Context, fullName, email string) models.Worker {
	f.t.Helper()
	return f.CreateWorkerWithWindow(ctx, fullName, email, nil, nil)
}

// CreateWorkerWithWindow creates a worker with the given employment window.
func (f *Fixtures) CreateWorkerWithWindow(ctx context.Context, fullName, email string, start, end *time.Time) models.Worker {
	f.t.Helper()

	now := time.Now().UTC()
	w := models.Worker{
		ID:          primitive.NewObjectID(),
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Email:       email,
		Phone:       "050-0000000",
		DefaultRole: "counselor",
		Status:      "active",
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("workers").InsertOne(ctx, w); err != nil {
		f.t.Fatalf("failed to create test worker: %v", err)
	}
	return w
}

// CreateClass creates a class without legacy staffing.
func (f *Fixtures) CreateClass(ctx context.Context, name string) models.Class {
	f.t.Helper()
	return f.CreateClassWithLegacyWorkers(ctx, name, nil)
}

// CreateClassWithLegacyWorkers creates a class carrying the pre-migration
// embedded workers array.
func (f *Fixtures) CreateClassWithLegacyWorkers(ctx context.Context, name string, workers []models.LegacyClassWorker) models.Class {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Class{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		InstitutionName: "Test School",
		City:            "Test City",
		Status:          "active",
		Workers:         workers,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("classes").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test class: %v", err)
	}
	return c
}

// CreateAssignment inserts an assignment document directly, bypassing the
// service. Use it to seed states the service would refuse to produce.
func (f *Fixtures) CreateAssignment(ctx context.Context, a models.WorkerAssignment) models.WorkerAssignment {
	f.t.Helper()

	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreateDate.IsZero() {
		a.CreateDate = now
	}
	if a.UpdateDate.IsZero() {
		a.UpdateDate = now
	}
	if a.UpdateBy == "" {
		a.UpdateBy = "fixture"
	}
	if a.RoleNameCI == "" {
		a.RoleNameCI = text.Fold(a.RoleName)
	}

	if _, err := f.db.Collection("worker_assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}
