package legacymigrate_test

import (
	"testing"

	"github.com/dalemusser/campstaff/internal/app/services/legacymigrate"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVerify_BeforeAndAfterMigration(t *testing.T) {
	e := setup(t)
	w1 := e.fixtures.CreateWorker(e.ctx, "Worker One", "w1@example.com")
	w2 := e.fixtures.CreateWorker(e.ctx, "Worker Two", "w2@example.com")
	e.fixtures.CreateClassWithLegacyWorkers(e.ctx, "Sunflowers", []models.LegacyClassWorker{
		{WorkerID: w1.ID, RoleName: "counselor", Project: 4},
		{WorkerID: w2.ID, RoleName: "Lead", Project: 7},
		{WorkerID: primitive.NewObjectID(), RoleName: "lead", Project: 7},
	})

	m := e.migrator(legacymigrate.Options{})

	before, err := m.Verify(e.ctx)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if before.LegacyEntries != 3 || before.LegacyDangling != 1 || before.Expected != 2 {
		t.Errorf("unexpected legacy side: %+v", before)
	}
	if before.CountOK || before.MissingCount != 2 || before.OK() {
		t.Errorf("unmigrated data should fail verification: %+v", before)
	}

	if _, err := m.Run(e.ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	after, err := m.Verify(e.ctx)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !after.OK() {
		t.Errorf("expected verification to pass: %+v", after)
	}
	if after.NormalizedTotal != 2 || after.NormalizedActive != 2 {
		t.Errorf("normalized counts: %+v", after)
	}
	if after.LegacyByRole["lead"] != 2 || after.NormalizedByRole["lead"] != 1 {
		t.Errorf("role counts: legacy %v normalized %v", after.LegacyByRole, after.NormalizedByRole)
	}
	if after.LegacyByProject[7] != 2 || after.NormalizedByProject[4] != 1 {
		t.Errorf("project counts: legacy %v normalized %v", after.LegacyByProject, after.NormalizedByProject)
	}
}

func TestVerify_ReportsDuplicateActive(t *testing.T) {
	e := setup(t)
	w := e.fixtures.CreateWorker(e.ctx, "Worker One", "w1@example.com")
	c := e.fixtures.CreateClass(e.ctx, "Sunflowers")

	// Drop the unique index so bad data can be seeded.
	if _, err := e.db.Collection("worker_assignments").Indexes().DropOne(e.ctx, "uniq_wa_active_triple"); err != nil {
		t.Fatalf("drop index failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		e.fixtures.CreateAssignment(e.ctx, models.WorkerAssignment{
			WorkerID:    w.ID,
			ClassID:     c.ID,
			ProjectCode: 4,
			RoleName:    "counselor",
			StartDate:   testutil.Day(2025, 7, 1),
			IsActive:    true,
			UpdateBy:    "admin",
		})
	}

	v, err := e.migrator(legacymigrate.Options{}).Verify(e.ctx)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(v.DuplicateActive) != 1 || len(v.DuplicateActive[0].AssignmentIDs) != 2 {
		t.Errorf("expected one duplicate triple, got %+v", v.DuplicateActive)
	}
	if v.OK() {
		t.Error("duplicates should fail verification")
	}
}
