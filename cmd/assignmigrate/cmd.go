package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/campstaff/internal/app/bootstrap"
	"github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/services/legacymigrate"
	"github.com/dalemusser/campstaff/internal/app/system/indexes"
	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"github.com/dalemusser/campstaff/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	openDBFunc = openDB // mockable
	configDir  = "."    // where .env and config.* are read

	errHelp         = errors.New("help provided")
	errVerifyFailed = errors.New("verification failed")
)

type commandLine struct {
	out io.Writer
	log *zap.Logger
}

// options are the per-run switches. Connection settings, the actor and the
// default seasonal window come from the shared app config.
type options struct {
	year      int
	dryRun    bool
	maxErrors int
	seasons   seasonFlags
}

// seasonFlags collects repeated -season values.
type seasonFlags []string

func (s *seasonFlags) String() string { return strings.Join(*s, ",") }

func (s *seasonFlags) Set(v string) error {
	if _, _, err := legacymigrate.ParseSeason(v); err != nil {
		return err
	}
	*s = append(*s, v)
	return nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate [-dry-run] [-season P:YYYY-MM-DD:YYYY-MM-DD]... - create assignments from Class.workers")
	fmt.Fprintln(cli.out, "  verify                                                 - compare legacy arrays with worker_assignments")
	fmt.Fprintln(cli.out, "Settings (mongo_uri, mongo_database, migration_actor, seasonal_*) are read from")
	fmt.Fprintln(cli.out, "CAMPSTAFF_* environment variables, .env and config.* files, as for the server.")
}

func (cli *commandLine) flagSet(name string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	fs.IntVar(&o.year, "year", time.Now().UTC().Year(), "year of the configured seasonal window")
	fs.IntVar(&o.maxErrors, "max-errors", 100, "maximum entry errors listed in the report")
	fs.Var(&o.seasons, "season", "seasonal window P:YYYY-MM-DD:YYYY-MM-DD (repeatable, overrides the configured one)")
	if name == "migrate" {
		fs.BoolVar(&o.dryRun, "dry-run", false, "report what would be created without writing")
	}
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	var o options
	switch args[1] {
	case "migrate", "verify":
		fs := cli.flagSet(args[1], &o)
		if err := fs.Parse(args[2:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return errHelp
			}
			return err
		}
	default:
		cli.printUsage()
		return errHelp
	}

	cfg, err := loadConfig(cli.log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := bootstrap.ValidateConfig(nil, cfg, cli.log); err != nil {
		return err
	}
	policy, err := o.policy(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	db, closeDB, err := openDBFunc(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	svc := assignments.New(db, cli.log.Named("assignments"))
	m := legacymigrate.New(db, svc, legacymigrate.Options{
		Actor:     cfg.MigrationActor,
		Policy:    policy,
		DryRun:    o.dryRun,
		MaxErrors: o.maxErrors,
	}, cli.log.Named("migrate"))

	if args[1] == "verify" {
		return cli.verify(ctx, m)
	}
	return cli.migrate(ctx, db, m, o.dryRun)
}

// policy starts from the configured seasonal window for o.year and applies
// -season overrides on top.
func (o options) policy(cfg bootstrap.AppConfig) (legacymigrate.DatePolicy, error) {
	p, err := cfg.MigrationPolicy(o.year)
	if err != nil {
		return p, fmt.Errorf("seasonal window: %w", err)
	}
	for _, s := range o.seasons {
		project, w, err := legacymigrate.ParseSeason(s)
		if err != nil {
			return p, err
		}
		p.Seasonal[project] = w
	}
	return p, nil
}
func (cli *commandLine) migrate(ctx context.Context, db *mongo.Database, m *legacymigrate.Migrator, dryRun bool) error {
	if !dryRun {
		// The unique index must exist before inserting or a concurrent
		// writer could create a second active assignment.
		if err := validators.EnsureAll(ctx, db); err != nil {
			return fmt.Errorf("ensure validators: %w", err)
		}
		if err := indexes.EnsureAll(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	rep, err := m.Run(ctx)
	if err != nil {
		return err
	}
	return cli.print(rep)
}

func (cli *commandLine) verify(ctx context.Context, m *legacymigrate.Migrator) error {
	v, err := m.Verify(ctx)
	if err != nil {
		return err
	}
	if err := cli.print(v); err != nil {
		return err
	}
	if !v.OK() {
		return errVerifyFailed
	}
	return nil
}

func (cli *commandLine) print(v any) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadConfig(logger *zap.Logger) (bootstrap.AppConfig, error) {
	return bootstrap.LoadToolConfig(configDir, logger)
}

func openDB(ctx context.Context, cfg bootstrap.AppConfig) (*mongo.Database, func(), error) {
	client, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client.Database(cfg.MongoDatabase), func() {
		_ = client.Disconnect(context.Background())
	}, nil
}
