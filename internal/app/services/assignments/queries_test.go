package assignments_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

// Create on 2025-07-01 open-ended; in effect on 07-15 before ending; after
// ending on 07-31 it is no longer in effect on 08-15.
func TestActiveOnDate_SummerScenario(t *testing.T) {
	e := setup(t)
	_, _, in := e.staffing(t)

	a, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	id := a.ID.Hex()

	onJuly15, err := e.svc.GetActiveAssignmentsOnDate(e.ctx, testutil.Day(2025, 7, 15))
	if err != nil {
		t.Fatalf("GetActiveAssignmentsOnDate failed: %v", err)
	}
	if !ids(onJuly15)[id] {
		t.Error("expected assignment in effect on 2025-07-15 before ending")
	}

	if _, err := e.svc.EndAssignment(e.ctx, id, testutil.Day(2025, 7, 31), "admin"); err != nil {
		t.Fatalf("EndAssignment failed: %v", err)
	}

	onAug15, err := e.svc.GetActiveAssignmentsOnDate(e.ctx, testutil.Day(2025, 8, 15))
	if err != nil {
		t.Fatalf("GetActiveAssignmentsOnDate failed: %v", err)
	}
	if ids(onAug15)[id] {
		t.Error("expected assignment excluded on 2025-08-15 after ending")
	}
}

func TestActiveOnDate_Matrix(t *testing.T) {
	e := setup(t)
	w := e.fixtures.CreateWorker(e.ctx, "Noa Levi", "noa@example.com")
	c := e.fixtures.CreateClass(e.ctx, "Rainbow Room")

	seed := func(project int, start time.Time, end *time.Time) string {
		a, err := e.svc.CreateAssignment(e.ctx, assignments.CreateInput{
			WorkerID: w.ID.Hex(), ClassID: c.ID.Hex(), ProjectCode: project,
			RoleName: "counselor", StartDate: start, EndDate: end, UpdateBy: "admin",
		})
		if err != nil {
			t.Fatalf("CreateAssignment failed: %v", err)
		}
		return a.ID.Hex()
	}
	july := seed(1, testutil.Day(2025, 7, 1), ptr(testutil.Day(2025, 7, 31)))
	open := seed(2, testutil.Day(2025, 7, 10), nil)
	later := seed(3, testutil.Day(2025, 9, 1), ptr(testutil.Day(2025, 12, 31)))

	tests := []struct {
		name string
		day  time.Time
		want []string
	}{
		{"before everything", testutil.Day(2025, 6, 1), nil},
		{"first day of july", testutil.Day(2025, 7, 1), []string{july}},
		{"straddling", testutil.Day(2025, 7, 15), []string{july, open}},
		{"last day of july inclusive", testutil.Day(2025, 7, 31), []string{july, open}},
		{"gap", testutil.Day(2025, 8, 15), []string{open}},
		{"autumn", testutil.Day(2025, 10, 1), []string{open, later}},
		{"time of day ignored", time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC), []string{july, open}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.svc.GetActiveAssignmentsOnDate(e.ctx, tt.day)
			if err != nil {
				t.Fatalf("GetActiveAssignmentsOnDate failed: %v", err)
			}
			set := ids(got)
			if len(set) != len(tt.want) {
				t.Errorf("expected %d, got %d", len(tt.want), len(set))
			}
			for _, id := range tt.want {
				if !set[id] {
					t.Errorf("missing %s", id)
				}
			}
		})
	}

	if _, err := e.svc.GetActiveAssignmentsOnDate(e.ctx, time.Time{}); !errors.Is(err, assignments.ErrValidation) {
		t.Errorf("expected validation error for zero date, got %v", err)
	}
}

func TestHistory_OrderIndependentOfInsertOrder(t *testing.T) {
	e := setup(t)
	w := e.fixtures.CreateWorker(e.ctx, "Noa Levi", "noa@example.com")
	c := e.fixtures.CreateClass(e.ctx, "Rainbow Room")

	years := []int{2023, 2025, 2021, 2024, 2022}
	for i, y := range years {
		a, err := e.svc.CreateAssignment(e.ctx, assignments.CreateInput{
			WorkerID: w.ID.Hex(), ClassID: c.ID.Hex(), ProjectCode: 4,
			RoleName: "counselor", StartDate: testutil.Day(y, 7, 1), UpdateBy: "admin",
		})
		if err != nil {
			t.Fatalf("CreateAssignment %d failed: %v", i, err)
		}
		if _, err := e.svc.EndAssignment(e.ctx, a.ID.Hex(), testutil.Day(y, 8, 31), "admin"); err != nil {
			t.Fatalf("EndAssignment %d failed: %v", i, err)
		}
	}

	check := func(name string, got []models.AssignmentView, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s failed: %v", name, err)
		}
		if len(got) != len(years) {
			t.Fatalf("%s: expected %d rows, got %d", name, len(years), len(got))
		}
		for i, want := range []int{2025, 2024, 2023, 2022, 2021} {
			if got[i].StartDate.Year() != want {
				t.Errorf("%s position %d: got %d, want %d", name, i, got[i].StartDate.Year(), want)
			}
		}
	}
	wh, err := e.svc.GetWorkerHistory(e.ctx, w.ID.Hex())
	check("GetWorkerHistory", wh, err)
	ch, err := e.svc.GetClassHistory(e.ctx, c.ID.Hex())
	check("GetClassHistory", ch, err)
}

func TestListings_ActiveOnlyAndJoins(t *testing.T) {
	e := setup(t)
	w, c, in := e.staffing(t)

	active, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	in.ProjectCode = 7
	ended, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := e.svc.EndAssignment(e.ctx, ended.ID.Hex(), testutil.Day(2025, 7, 31), "admin"); err != nil {
		t.Fatalf("EndAssignment failed: %v", err)
	}

	all, err := e.svc.GetWorkerAssignments(e.ctx, w.ID.Hex(), false)
	if err != nil {
		t.Fatalf("GetWorkerAssignments failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2, got %d", len(all))
	}
	for _, v := range all {
		if v.Worker == nil || v.Worker.FullName != w.FullName {
			t.Errorf("expected joined worker, got %+v", v.Worker)
		}
		if v.Class == nil || v.Class.Name != c.Name {
			t.Errorf("expected joined class, got %+v", v.Class)
		}
	}

	onlyActive, err := e.svc.GetClassAssignments(e.ctx, c.ID.Hex(), true)
	if err != nil {
		t.Fatalf("GetClassAssignments failed: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Errorf("expected only the active assignment, got %d rows", len(onlyActive))
	}

	byProject, err := e.svc.GetProjectAssignments(e.ctx, 7, false)
	if err != nil {
		t.Fatalf("GetProjectAssignments failed: %v", err)
	}
	if len(byProject) != 1 || byProject[0].ID != ended.ID {
		t.Errorf("expected the project 7 assignment, got %d rows", len(byProject))
	}

	none, err := e.svc.GetProjectAssignments(e.ctx, 99, true)
	if err != nil {
		t.Fatalf("GetProjectAssignments failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %v", none)
	}
}

func TestListings_DanglingReferences(t *testing.T) {
	e := setup(t)
	w, c, in := e.staffing(t)
	a, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	if _, err := e.db.Collection("classes").DeleteOne(e.ctx, bson.M{"_id": c.ID}); err != nil {
		t.Fatalf("delete class: %v", err)
	}

	got, err := e.svc.GetWorkerAssignments(e.ctx, w.ID.Hex(), true)
	if err != nil {
		t.Fatalf("GetWorkerAssignments failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("assignment must survive a deleted class, got %d rows", len(got))
	}
	if got[0].Class != nil {
		t.Errorf("expected nil class summary, got %+v", got[0].Class)
	}
	if got[0].Worker == nil {
		t.Error("expected worker summary")
	}
}

func TestFlaggedAndLapsed(t *testing.T) {
	e := setup(t)
	_, _, in := e.staffing(t)
	in.EndDate = ptr(testutil.Day(2025, 7, 31))
	lapsed, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	in.ProjectCode = 7
	in.EndDate = nil
	open, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	flagged, err := e.svc.GetFlaggedActive(e.ctx)
	if err != nil {
		t.Fatalf("GetFlaggedActive failed: %v", err)
	}
	set := ids(flagged)
	if len(set) != 2 || !set[lapsed.ID.Hex()] || !set[open.ID.Hex()] {
		t.Errorf("expected both flagged active, got %v", set)
	}

	got, err := e.svc.GetLapsedActive(e.ctx, testutil.Day(2025, 9, 1))
	if err != nil {
		t.Fatalf("GetLapsedActive failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != lapsed.ID {
		t.Errorf("expected only the lapsed assignment, got %d rows", len(got))
	}
}

func TestGetAssignment(t *testing.T) {
	e := setup(t)
	w, _, in := e.staffing(t)
	a, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	got, err := e.svc.GetAssignment(e.ctx, a.ID.Hex())
	if err != nil {
		t.Fatalf("GetAssignment failed: %v", err)
	}
	if got.ID != a.ID || got.Worker == nil || got.Worker.ID != w.ID {
		t.Errorf("unexpected view: %+v", got)
	}

	if _, err := e.svc.GetAssignment(e.ctx, "xyz"); !errors.Is(err, assignments.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	e := setup(t)
	_, _, in := e.staffing(t)
	w2 := e.fixtures.CreateWorker(e.ctx, "Dana Cohen", "dana@example.com")

	if _, err := e.svc.CreateAssignment(e.ctx, in); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	in.WorkerID = w2.ID.Hex()
	in.RoleName = "Counselor"
	second, err := e.svc.CreateAssignment(e.ctx, in)
	if err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	in.ProjectCode = 7
	in.RoleName = "lead"
	if _, err := e.svc.CreateAssignment(e.ctx, in); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := e.svc.EndAssignment(e.ctx, second.ID.Hex(), testutil.Day(2025, 7, 31), "admin"); err != nil {
		t.Fatalf("EndAssignment failed: %v", err)
	}

	s, err := e.svc.Summary(e.ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if s.Total != 3 || s.Active != 2 {
		t.Errorf("Total/Active: got %d/%d, want 3/2", s.Total, s.Active)
	}
	if s.ByProject[4] != 2 || s.ByProject[7] != 1 {
		t.Errorf("ByProject: got %v", s.ByProject)
	}
	if s.ActiveByProject[4] != 1 || s.ActiveByProject[7] != 1 {
		t.Errorf("ActiveByProject: got %v", s.ActiveByProject)
	}
	if s.ByRole["counselor"] != 2 || s.ByRole["lead"] != 1 {
		t.Errorf("ByRole (folded): got %v", s.ByRole)
	}
}
