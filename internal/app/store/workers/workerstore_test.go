package workerstore_test

import (
	"testing"

	workerstore "github.com/dalemusser/campstaff/internal/app/store/workers"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workerstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	start := testutil.Day(2024, 9, 1)
	w := fixtures.CreateWorkerWithWindow(ctx, "Noa Levi", "noa@example.com", &start, nil)

	found, err := store.GetByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if found.FullName != "Noa Levi" {
		t.Errorf("FullName: got %q, want %q", found.FullName, "Noa Levi")
	}
	if found.StartDate == nil || !found.StartDate.Equal(start) {
		t.Errorf("StartDate: got %v, want %v", found.StartDate, start)
	}
	if found.EndDate != nil {
		t.Errorf("EndDate: expected nil, got %v", found.EndDate)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workerstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	w := fixtures.CreateWorker(ctx, "Noa Levi", "noa@example.com")

	ok, err := store.Exists(ctx, w.ID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected worker to exist")
	}

	ok, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("expected unknown worker not to exist")
	}
}

func TestStore_GetByIDs_SkipsMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := workerstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateWorker(ctx, "A", "a@example.com")
	b := fixtures.CreateWorker(ctx, "B", "b@example.com")

	got, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, primitive.NewObjectID(), b.ID})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 workers, got %d", len(got))
	}

	empty, err := store.GetByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("GetByIDs(nil) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no workers, got %d", len(empty))
	}
}
