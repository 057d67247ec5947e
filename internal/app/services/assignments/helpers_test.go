package assignments_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/system/indexes"
	"github.com/dalemusser/campstaff/internal/app/system/validators"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db       *mongo.Database
	svc      *assignments.Service
	fixtures *testutil.Fixtures
	ctx      context.Context
}

// setup returns a service over a fresh database with the production schema.
func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("validators.EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("indexes.EnsureAll failed: %v", err)
	}
	return &env{
		db:       db,
		svc:      assignments.New(db, zap.NewNop()),
		fixtures: testutil.NewFixtures(t, db),
		ctx:      ctx,
	}
}

// staffing creates a worker and a class and returns an input binding them.
func (e *env) staffing(t *testing.T) (models.Worker, models.Class, assignments.CreateInput) {
	t.Helper()
	w := e.fixtures.CreateWorker(e.ctx, "Noa Levi", "noa@example.com")
	c := e.fixtures.CreateClass(e.ctx, "Rainbow Room")
	return w, c, assignments.CreateInput{
		WorkerID:    w.ID.Hex(),
		ClassID:     c.ID.Hex(),
		ProjectCode: 4,
		RoleName:    "counselor",
		StartDate:   testutil.Day(2025, 7, 1),
		UpdateBy:    "admin",
	}
}

func ptr(t time.Time) *time.Time { return &t }

func ids(views []models.AssignmentView) map[string]bool {
	out := make(map[string]bool, len(views))
	for _, v := range views {
		out[v.ID.Hex()] = true
	}
	return out
}
