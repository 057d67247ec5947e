package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/campstaff/internal/app/bootstrap"
	"github.com/dalemusser/campstaff/internal/app/services/legacymigrate"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/campstaff/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// setup points the CLI at a fresh test database seeded with one legacy class.
func setup(t *testing.T) (*commandLine, *bytes.Buffer, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	w1 := fx.CreateWorker(ctx, "Worker One", "w1@example.com")
	w2 := fx.CreateWorker(ctx, "Worker Two", "w2@example.com")
	fx.CreateClassWithLegacyWorkers(ctx, "Sunflowers", []models.LegacyClassWorker{
		{WorkerID: w1.ID, RoleName: "counselor", Project: 4},
		{WorkerID: w2.ID, RoleName: "lead", Project: 7},
	})

	prevOpen, prevDir := openDBFunc, configDir
	openDBFunc = func(context.Context, bootstrap.AppConfig) (*mongo.Database, func(), error) {
		return db, func() {}, nil
	}
	configDir = t.TempDir()
	t.Cleanup(func() { openDBFunc, configDir = prevOpen, prevDir })

	var out bytes.Buffer
	return &commandLine{out: &out, log: zap.NewNop()}, &out, db
}

func countAssignments(t *testing.T, db *mongo.Database) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection("worker_assignments").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func Test_commandLine_usage(t *testing.T) {
	var out bytes.Buffer
	cli := &commandLine{out: &out, log: zap.NewNop()}

	tests := []struct {
		name       string
		args       []string // with program name
		wantErr    error
		wantErrStr string
	}{
		{name: "no command", args: []string{"assignmigrate"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"assignmigrate", "lol"}, wantErr: errHelp},
		{name: "help flag", args: []string{"assignmigrate", "migrate", "-h"}, wantErr: errHelp},
		{name: "bad season", args: []string{"assignmigrate", "migrate", "-season", "4:july:august"}, wantErrStr: "season"},
		{name: "dry-run only on migrate", args: []string{"assignmigrate", "verify", "-dry-run"}, wantErrStr: "dry-run"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := cli.run(tc.args)
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
			if tc.wantErrStr != "" && (err == nil || !strings.Contains(err.Error(), tc.wantErrStr)) {
				t.Errorf("got %v, want error containing %q", err, tc.wantErrStr)
			}
		})
	}
}

func Test_options_policy(t *testing.T) {
	cfg := bootstrap.AppConfig{SeasonalProjectCode: 4, SeasonalWindowStart: "07-01", SeasonalWindowEnd: "08-31"}
	o := options{year: 2026, seasons: seasonFlags{"9:2026-12-20:2027-01-05", "4:2026-06-15:2026-08-15"}}
	p, err := o.policy(cfg)
	if err != nil {
		t.Fatalf("policy failed: %v", err)
	}
	if w := p.Seasonal[4]; !w.Start.Equal(testutil.Day(2026, 6, 15)) {
		t.Errorf("project 4 override not applied: %v", w.Start)
	}
	if _, ok := p.Seasonal[9]; !ok {
		t.Error("expected project 9 window")
	}
}

func Test_commandLine_migrateAndVerify(t *testing.T) {
	cli, out, db := setup(t)

	if err := cli.run([]string{"assignmigrate", "verify"}); !errors.Is(err, errVerifyFailed) {
		t.Fatalf("verify before migrate: got %v, want errVerifyFailed", err)
	}

	out.Reset()
	if err := cli.run([]string{"assignmigrate", "migrate", "-dry-run"}); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	var rep legacymigrate.Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v (%s)", err, out.String())
	}
	if !rep.DryRun || rep.Created != 2 {
		t.Errorf("unexpected dry-run report: %+v", rep)
	}
	if n := countAssignments(t, db); n != 0 {
		t.Fatalf("dry run wrote %d assignments", n)
	}

	out.Reset()
	if err := cli.run([]string{"assignmigrate", "migrate", "-year", "2025"}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if n := countAssignments(t, db); n != 2 {
		t.Fatalf("expected 2 assignments, got %d", n)
	}

	out.Reset()
	if err := cli.run([]string{"assignmigrate", "verify"}); err != nil {
		t.Fatalf("verify after migrate: %v (%s)", err, out.String())
	}
	var v legacymigrate.Verification
	if err := json.Unmarshal(out.Bytes(), &v); err != nil {
		t.Fatalf("decode verification: %v", err)
	}
	if !v.CountOK || v.NormalizedTotal != 2 {
		t.Errorf("unexpected verification: %+v", v)
	}
}

func Test_commandLine_sharedConfig(t *testing.T) {
	cli, out, db := setup(t)

	yaml := "migration_actor: ops-yaml\nseasonal_project_code: 7\nseasonal_window_start: \"06-01\"\nseasonal_window_end: \"06-30\"\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CAMPSTAFF_MIGRATION_ACTOR", "ops")

	if err := cli.run([]string{"assignmigrate", "migrate", "-year", "2025"}); err != nil {
		t.Fatalf("migrate failed: %v (%s)", err, out.String())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	var got models.WorkerAssignment
	if err := db.Collection("worker_assignments").FindOne(ctx, bson.M{"project_code": 7}).Decode(&got); err != nil {
		t.Fatalf("find project 7 assignment: %v", err)
	}
	if got.UpdateBy != "ops" {
		t.Errorf("update_by: got %q, want env value %q", got.UpdateBy, "ops")
	}
	if !got.StartDate.Equal(testutil.Day(2025, 6, 1)) || got.EndDate == nil || !got.EndDate.Equal(testutil.Day(2025, 6, 30)) {
		t.Errorf("expected the configured June window, got %v..%v", got.StartDate, got.EndDate)
	}
}

func Test_commandLine_invalidConfig(t *testing.T) {
	cli, _, db := setup(t)
	opened := false
	openDBFunc = func(context.Context, bootstrap.AppConfig) (*mongo.Database, func(), error) {
		opened = true
		return db, func() {}, nil
	}
	t.Setenv("CAMPSTAFF_SEASONAL_WINDOW_START", "July 1")

	err := cli.run([]string{"assignmigrate", "migrate"})
	if err == nil || !strings.Contains(err.Error(), "seasonal window") {
		t.Errorf("got %v, want a seasonal window error", err)
	}
	if opened {
		t.Error("database opened despite invalid config")
	}
}
