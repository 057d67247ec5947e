// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ActiveTripleIndex is the partial unique index that allows at most one
// active assignment per (worker_id, class_id, project_code).
const ActiveTripleIndex = "uniq_wa_active_triple"

/*
EnsureAll is called at startup and by the migration tool. Each ensure*
function is idempotent. We aggregate errors so any problem is visible and
startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureWorkers(ctx, db); err != nil {
		problems = append(problems, "workers: "+err.Error())
	}
	if err := ensureClasses(ctx, db); err != nil {
		problems = append(problems, "classes: "+err.Error())
	}
	if err := ensureWorkerAssignments(ctx, db); err != nil {
		problems = append(problems, "worker_assignments: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string   `bson:"name"`
	Key     bson.D   `bson:"key"`
	Unique  *bool    `bson:"unique,omitempty"`
	Partial bson.Raw `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// partialSig renders a partial filter as canonical extended JSON so a stored
// filter can be compared with a desired one. Empty means no filter.
func partialSig(v interface{}) string {
	if v == nil {
		return ""
	}
	if raw, ok := v.(bson.Raw); ok {
		if len(raw) == 0 {
			return ""
		}
		return raw.String()
	}
	b, err := bson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return bson.Raw(b).String()
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// duplicateHint points operators at the aggregation that finds the rows
// blocking a unique index.
func duplicateHint(coll, name string) string {
	if coll == "worker_assignments" && name == ActiveTripleIndex {
		return " (more than one active assignment per worker/class/project. Example finder:\n" +
			`db.worker_assignments.aggregate([{ $match: { is_active: true } }, { $group: { _id: { w: "$worker_id", c: "$class_id", p: "$project_code" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])` + ")"
	}
	return ""
}

type desiredIndex struct {
	model   mongo.IndexModel
	name    string
	unique  *bool
	partial string
	sig     string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique
		d.partial = partialSig(m.Options.PartialFilterExpression)
	}
	return d
}

func (d desiredIndex) isUnique() bool { return d.unique != nil && *d.unique }

func (d desiredIndex) matches(ex existingIndex) bool {
	return sameBoolPtr(d.unique, ex.Unique) && d.partial == partialSig(ex.Partial)
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops ex and creates d in its place.
func recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, d desiredIndex) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", ex.Name),
			zap.String("keys", d.sig),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), d.name, err)
	}
	return create(ctx, coll, d)
}

func create(ctx context.Context, coll *mongo.Collection, d desiredIndex) error {
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		if isDuplicateKeyErr(err) && d.isUnique() {
			return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), d.name, duplicateHint(coll.Name(), d.name))
		}
		return fmt.Errorf("%s(%s): %v", coll.Name(), d.name, err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.isUnique()),
			zap.String("partial", d.partial))

		existing := listIndexes(ctx, coll)

		if ex, ok := existing[d.sig]; ok {
			switch {
			case d.matches(ex) && (d.name == "" || ex.Name == d.name):
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", d.sig),
					zap.String("took", time.Since(start).String()))
			case d.matches(ex):
				zap.L().Info("renaming index to align with desired name",
					zap.String("collection", coll.Name()),
					zap.String("from", ex.Name),
					zap.String("to", d.name),
					zap.String("keys", d.sig))
				if err := recreate(ctx, coll, ex, d); err != nil {
					errs = append(errs, err.Error())
				}
			default:
				// Options differ (e.g. upgrading to a partial unique index).
				if err := recreate(ctx, coll, ex, d); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				zap.L().Info("index dropped and recreated",
					zap.String("collection", coll.Name()),
					zap.String("name", d.name),
					zap.String("keys", d.sig),
					zap.Bool("unique", d.isUnique()),
					zap.String("took", time.Since(start).String()))
			}
			continue
		}

		err := create(ctx, coll, d)
		if err != nil && isOptionsConflictErr(err) {
			// Same keys under another name appeared between List and CreateOne.
			if ex, ok := listIndexes(ctx, coll)[d.sig]; ok {
				if d.matches(ex) {
					zap.L().Info("reusing existing index (post-conflict)",
						zap.String("collection", coll.Name()),
						zap.String("name", ex.Name),
						zap.String("keys", d.sig))
					continue
				}
				err = recreate(ctx, coll, ex, d)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", d.name),
				zap.String("keys", d.sig),
				zap.Bool("unique", d.isUnique()),
				zap.String("took", time.Since(start).String()),
				zap.Error(err))
			errs = append(errs, err.Error())
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.isUnique()),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureWorkers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("workers")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Directory listing: status filter, then folded name sort
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_workers_status_fullnameci__id"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_workers_email"),
		},
	})
}

func ensureClasses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("classes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_classes_nameci__id"),
		},
		// Legacy embedded workers: migration and verification scan by these
		{
			Keys:    bson.D{{Key: "workers.worker_id", Value: 1}},
			Options: options.Index().SetName("idx_classes_workers_workerid"),
		},
	})
}

func ensureWorkerAssignments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("worker_assignments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// 1) One active assignment per triple. Ended rows are outside the
		//    filter so history can repeat the triple.
		{
			Keys: bson.D{
				{Key: "worker_id", Value: 1},
				{Key: "class_id", Value: 1},
				{Key: "project_code", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_active", Value: true}}).
				SetName(ActiveTripleIndex),
		},

		// 2) Worker listing and history (start_date desc, _id desc)
		{
			Keys:    bson.D{{Key: "worker_id", Value: 1}, {Key: "start_date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_wa_worker_start__id"),
		},

		// 3) Class listing and history
		{
			Keys:    bson.D{{Key: "class_id", Value: 1}, {Key: "start_date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_wa_class_start__id"),
		},

		// 4) Project listing, optionally active only
		{
			Keys:    bson.D{{Key: "project_code", Value: 1}, {Key: "is_active", Value: 1}},
			Options: options.Index().SetName("idx_wa_project_active"),
		},

		// 5) Active-on-date and lapsed queries
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("idx_wa_active_start_end"),
		},
	})
}

// HasActiveTripleIndex reports whether worker_assignments carries the
// one-active-per-triple index. Without it concurrent creates can race.
func HasActiveTripleIndex(ctx context.Context, db *mongo.Database) (bool, error) {
	cur, err := db.Collection("worker_assignments").Indexes().List(ctx)
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 26 { // NamespaceNotFound
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			return false, err
		}
		if idx.Name == ActiveTripleIndex {
			return idx.Unique != nil && *idx.Unique, nil
		}
	}
	return false, cur.Err()
}
