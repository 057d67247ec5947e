package indexes_test

import (
	"testing"

	"github.com/dalemusser/campstaff/internal/app/system/indexes"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesExpectedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll  string
		names []string
	}{
		{"workers", []string{"idx_workers_status_fullnameci__id", "idx_workers_email"}},
		{"classes", []string{"idx_classes_nameci__id", "idx_classes_workers_workerid"}},
		{"worker_assignments", []string{
			indexes.ActiveTripleIndex,
			"idx_wa_worker_start__id",
			"idx_wa_class_start__id",
			"idx_wa_project_active",
			"idx_wa_active_start_end",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			got := indexNames(t, db, tt.coll)
			for _, name := range tt.names {
				if _, ok := got[name]; !ok {
					t.Errorf("expected index %q on %s", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_ActiveTripleIsPartialUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	idx, ok := indexNames(t, db, "worker_assignments")[indexes.ActiveTripleIndex]
	if !ok {
		t.Fatal("active triple index missing")
	}
	if u, _ := idx["unique"].(bool); !u {
		t.Error("expected unique index")
	}
	if _, ok := idx["partialFilterExpression"]; !ok {
		t.Error("expected partialFilterExpression")
	}
}

func TestEnsureAll_UniqueIndexEnforcedOnlyForActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	c := db.Collection("worker_assignments")
	w, cl := primitive.NewObjectID(), primitive.NewObjectID()
	doc := func(active bool) bson.M {
		return bson.M{"worker_id": w, "class_id": cl, "project_code": 4, "is_active": active}
	}

	// Any number of ended rows for the same triple.
	for i := 0; i < 2; i++ {
		if _, err := c.InsertOne(ctx, doc(false)); err != nil {
			t.Fatalf("insert ended row %d: %v", i, err)
		}
	}
	if _, err := c.InsertOne(ctx, doc(true)); err != nil {
		t.Fatalf("insert first active row: %v", err)
	}
	if _, err := c.InsertOne(ctx, doc(true)); err == nil {
		t.Error("expected duplicate key error for second active row")
	}
}

func TestEnsureAll_UpgradesPlainIndexToPartialUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// An older deployment might carry a non-unique index on the same keys.
	_, err := db.Collection("worker_assignments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "worker_id", Value: 1},
			{Key: "class_id", Value: 1},
			{Key: "project_code", Value: 1},
		},
		Options: options.Index().SetName("old_triple"),
	})
	if err != nil {
		t.Fatalf("create old index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "worker_assignments")
	if _, ok := got["old_triple"]; ok {
		t.Error("expected old index to be replaced")
	}
	if _, ok := got[indexes.ActiveTripleIndex]; !ok {
		t.Error("expected partial unique index to be created")
	}
}

func TestEnsureAll_ReportsActiveDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("worker_assignments")
	w, cl := primitive.NewObjectID(), primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		if _, err := c.InsertOne(ctx, bson.M{"worker_id": w, "class_id": cl, "project_code": 4, "is_active": true}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Error("expected EnsureAll to fail while duplicate active rows exist")
	}
}

func TestHasActiveTripleIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ok, err := indexes.HasActiveTripleIndex(ctx, db)
	if err != nil {
		t.Fatalf("HasActiveTripleIndex on empty db failed: %v", err)
	}
	if ok {
		t.Error("expected no index before EnsureAll")
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	ok, err = indexes.HasActiveTripleIndex(ctx, db)
	if err != nil {
		t.Fatalf("HasActiveTripleIndex failed: %v", err)
	}
	if !ok {
		t.Error("expected index after EnsureAll")
	}
}
