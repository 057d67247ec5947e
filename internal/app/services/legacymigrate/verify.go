package legacymigrate

import (
	"context"

	workerassignstore "github.com/dalemusser/campstaff/internal/app/store/workerassign"
	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxMissingListed = 100

// MissingTriple is a migratable legacy entry with no assignment record.
type MissingTriple struct {
	WorkerID    primitive.ObjectID `json:"worker_id"`
	ClassID     primitive.ObjectID `json:"class_id"`
	ProjectCode int                `json:"project_code"`
}

// Verification compares the legacy embedded arrays with worker_assignments.
//
// Expected counts the distinct legacy triples that are well formed, whose
// worker still exists and whose dates give a valid range; those are the
// entries a complete migration produces.
type Verification struct {
	LegacyEntries    int64 `json:"legacy_entries"`
	LegacyDangling   int64 `json:"legacy_dangling"`
	LegacyInvalid    int64 `json:"legacy_invalid"`
	Expected         int64 `json:"expected"`
	NormalizedTotal  int64 `json:"normalized_total"`
	NormalizedActive int64 `json:"normalized_active"`
	CountOK          bool  `json:"count_ok"`

	MissingCount int             `json:"missing_count"`
	Missing      []MissingTriple `json:"missing,omitempty"`

	DuplicateActive []workerassignstore.DuplicateTriple `json:"duplicate_active"`

	LegacyByProject     map[int]int64    `json:"legacy_by_project"`
	LegacyByRole        map[string]int64 `json:"legacy_by_role"`
	NormalizedByProject map[int]int64    `json:"normalized_by_project"`
	NormalizedByRole    map[string]int64 `json:"normalized_by_role"`
}

// OK reports whether the migration looks complete and consistent.
func (v Verification) OK() bool {
	return v.CountOK && v.MissingCount == 0 && len(v.DuplicateActive) == 0
}

// Verify builds a Verification report. It only reads.
func (m *Migrator) Verify(ctx context.Context) (Verification, error) {
	v := Verification{LegacyByRole: make(map[string]int64)}

	legacy, err := m.classes.CountLegacyEntries(ctx)
	if err != nil {
		return v, err
	}
	v.LegacyEntries = legacy.Entries
	v.LegacyByProject = legacy.ByProject
	// Role keys are folded to line up with the normalized side.
	for role, n := range legacy.ByRole {
		v.LegacyByRole[text.Fold(normalize.RoleName(role))] += n
	}

	seen := make(map[triple]bool)
	err = m.classes.EachWithLegacyWorkers(ctx, func(c models.Class) error {
		known, err := m.existingWorkers(ctx, c.Workers)
		if err != nil {
			return err
		}
		for _, e := range c.Workers {
			if e.WorkerID.IsZero() || e.Project <= 0 || normalize.RoleName(e.RoleName) == "" {
				v.LegacyInvalid++
				continue
			}
			w, ok := known[e.WorkerID]
			if !ok {
				v.LegacyDangling++
				continue
			}
			if _, _, err := m.opts.Policy.Dates(e.Project, w); err != nil {
				v.LegacyInvalid++
				continue
			}
			t := triple{worker: e.WorkerID, class: c.ID, project: e.Project}
			if seen[t] {
				continue
			}
			seen[t] = true
			v.Expected++

			ok, err := m.svc.TripleExists(ctx, t.worker, t.class, t.project)
			if err != nil {
				return err
			}
			if !ok {
				v.MissingCount++
				if len(v.Missing) < maxMissingListed {
					v.Missing = append(v.Missing, MissingTriple{WorkerID: t.worker, ClassID: t.class, ProjectCode: t.project})
				}
			}
		}
		return nil
	})
	if err != nil {
		return v, err
	}

	sum, err := m.svc.Summary(ctx)
	if err != nil {
		return v, err
	}
	v.NormalizedTotal = sum.Total
	v.NormalizedActive = sum.Active
	v.NormalizedByProject = sum.ByProject
	v.NormalizedByRole = sum.ByRole
	v.CountOK = v.NormalizedTotal >= v.Expected

	v.DuplicateActive, err = m.svc.DuplicateActive(ctx)
	if err != nil {
		return v, err
	}

	m.log.Info("legacy migration verified",
		zap.Int64("legacy_entries", v.LegacyEntries),
		zap.Int64("expected", v.Expected),
		zap.Int64("normalized_total", v.NormalizedTotal),
		zap.Int("missing", v.MissingCount),
		zap.Int("duplicate_active", len(v.DuplicateActive)),
		zap.Bool("ok", v.OK()))
	return v, nil
}

func (m *Migrator) existingWorkers(ctx context.Context, entries []models.LegacyClassWorker) (map[primitive.ObjectID]models.Worker, error) {
	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		if !e.WorkerID.IsZero() {
			ids = append(ids, e.WorkerID)
		}
	}
	ws, err := m.workers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.Worker, len(ws))
	for _, w := range ws {
		out[w.ID] = w
	}
	return out, nil
}
