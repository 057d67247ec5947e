package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/campstaff/internal/app/system/validators"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := validators.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"worker_assignments", "workers", "classes"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func validAssignment() bson.M {
	now := time.Now().UTC()
	return bson.M{
		"worker_id":    primitive.NewObjectID(),
		"class_id":     primitive.NewObjectID(),
		"project_code": 4,
		"role_name":    "lead counselor",
		"role_name_ci": "lead counselor",
		"start_date":   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		"is_active":    true,
		"update_by":    "admin",
		"create_date":  now,
		"update_date":  now,
	}
}

func TestWorkerAssignmentsValidator_ValidAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("worker_assignments").InsertOne(ctx, validAssignment()); err != nil {
		t.Errorf("Insert valid assignment failed: %v", err)
	}
}

func TestWorkerAssignmentsValidator_Rejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		name string
		mod  func(bson.M)
	}{
		{"missing worker_id", func(d bson.M) { delete(d, "worker_id") }},
		{"string class_id", func(d bson.M) { d["class_id"] = "not-an-objectid" }},
		{"zero project_code", func(d bson.M) { d["project_code"] = 0 }},
		{"untrimmed role_name", func(d bson.M) { d["role_name"] = " lead " }},
		{"empty role_name", func(d bson.M) { d["role_name"] = "" }},
		{"string start_date", func(d bson.M) { d["start_date"] = "2025-07-01" }},
		{"missing is_active", func(d bson.M) { delete(d, "is_active") }},
		{"blank update_by", func(d bson.M) { d["update_by"] = "   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validAssignment()
			tt.mod(doc)
			if _, err := db.Collection("worker_assignments").InsertOne(ctx, doc); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDirectories_NoValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// workers and classes are written elsewhere; any shape is accepted.
	if _, err := db.Collection("workers").InsertOne(ctx, bson.M{"anything": "goes"}); err != nil {
		t.Errorf("Insert into workers failed: %v", err)
	}
	if _, err := db.Collection("classes").InsertOne(ctx, bson.M{"anything": "goes"}); err != nil {
		t.Errorf("Insert into classes failed: %v", err)
	}
}
