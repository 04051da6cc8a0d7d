package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/setlog/internal/config"
	"github.com/claude/setlog/internal/localstore"
	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/planfile"
	"github.com/claude/setlog/internal/remote"
	"github.com/claude/setlog/internal/storage"
	"github.com/google/uuid"
)

// creator stores one authored workout.
type creator interface {
	CreateWorkout(ctx context.Context, userID int, w models.NewWorkout) (uuid.UUID, error)
}

// options are the parsed command-line flags.
type options struct {
	configPath string
	planPath   string
	serverURL  string
	apiKey     string
	userID     int
	dryRun     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to config file (local store)")
	flag.StringVar(&opts.planPath, "file", "", "path to YAML plan file (required)")
	flag.StringVar(&opts.serverURL, "server", "", "SetLog server URL; when set, plans are uploaded instead of written to the local store")
	flag.StringVar(&opts.apiKey, "api-key", os.Getenv("SETLOG_AUTH_API_KEY"), "API key for -server")
	flag.IntVar(&opts.userID, "user", 1, "owner user id (local store only)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "validate the plan file without storing anything")
	flag.Parse()

	if opts.planPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: setlog-plan -file plans.yaml [-config config.yaml | -server URL -api-key KEY] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	os.Exit(run(context.Background(), opts, log))
}

// run imports the plan file and returns the process exit code. Stores it
// opens are closed before it returns.
func run(ctx context.Context, opts options, log *slog.Logger) int {
	workouts, err := planfile.Load(opts.planPath)
	if err != nil {
		log.Error("invalid plan file", "path", opts.planPath, "error", err)
		return 1
	}
	log.Info("plan file parsed", "workouts", len(workouts))

	if opts.dryRun {
		for _, w := range workouts {
			log.Info("workout", "name", w.Name, "exercises", len(w.Exercises))
		}
		log.Info("DRY RUN: nothing stored")
		return 0
	}

	var dst creator
	if opts.serverURL != "" {
		dst = remote.NewClient(opts.serverURL, opts.apiKey)
	} else {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			return 1
		}
		switch cfg.Store.Driver {
		case config.DriverSQLite:
			st, err := localstore.Open(cfg.Store.SQLitePath)
			if err != nil {
				log.Error("failed to open sqlite store", "error", err)
				return 1
			}
			defer st.Close()
			dst = st
		default:
			dsn := cfg.Database.DSN()
			if err := storage.RunMigrations(dsn, "migrations"); err != nil {
				log.Error("migration failed", "error", err)
				return 1
			}
			db, err := storage.New(ctx, dsn)
			if err != nil {
				log.Error("failed to connect database", "error", err)
				return 1
			}
			defer db.Close()
			dst = db
		}
	}

	failed := 0
	for _, w := range workouts {
		id, err := dst.CreateWorkout(ctx, opts.userID, w)
		if err != nil {
			log.Error("storing workout failed", "name", w.Name, "error", err)
			failed++
			continue
		}
		log.Info("workout stored", "name", w.Name, "id", id.String(), "exercises", len(w.Exercises))
	}

	log.Info("import complete", "stored", len(workouts)-failed, "failed", failed)
	if failed > 0 {
		return 1
	}
	return 0
}
