package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/setlog/internal/localstore"
)

const planYAML = `
workouts:
  - name: Push day
    exercises:
      - name: Bench Press
        sets:
          - {count: 3, reps: 8, weight_kg: 60, rest_sec: 90}
  - name: Pull day
    exercises:
      - name: Row
        sets:
          - {count: 2, reps: 10}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sqliteOptions writes a sqlite config and the plan file into a temp dir.
func sqliteOptions(t *testing.T) (options, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "setlog.db")
	cfg := "server:\n  port: 8080\nstore:\n  driver: sqlite\n  sqlite_path: " + dbPath + "\nauth:\n  api_key: k\n"
	return options{
		configPath: writeFile(t, dir, "config.yaml", cfg),
		planPath:   writeFile(t, dir, "plans.yaml", planYAML),
		userID:     3,
	}, dbPath
}

// TestRunImportsIntoSQLite verifies every workout is stored for the chosen
// user and the store is released so it can be reopened.
func TestRunImportsIntoSQLite(t *testing.T) {
	opts, dbPath := sqliteOptions(t)
	if code := run(context.Background(), opts, quietLogger()); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	st, err := localstore.Open(dbPath)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer st.Close()
	rows, err := st.ListWorkouts(context.Background(), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("stored workouts = %d, want 2", len(rows))
	}
}

// TestRunDryRun verifies a dry run validates without creating the store.
func TestRunDryRun(t *testing.T) {
	opts, dbPath := sqliteOptions(t)
	opts.dryRun = true
	if code := run(context.Background(), opts, quietLogger()); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("dry run touched the store: %v", err)
	}
}

// TestRunFailures verifies bad input yields a non-zero exit code.
func TestRunFailures(t *testing.T) {
	opts, _ := sqliteOptions(t)
	opts.planPath = filepath.Join(t.TempDir(), "missing.yaml")
	if code := run(context.Background(), opts, quietLogger()); code != 1 {
		t.Errorf("missing plan file: exit code = %d, want 1", code)
	}

	opts, _ = sqliteOptions(t)
	opts.configPath = writeFile(t, t.TempDir(), "config.yaml", "store:\n  driver: sqlite\n")
	if code := run(context.Background(), opts, quietLogger()); code != 1 {
		t.Errorf("invalid config: exit code = %d, want 1", code)
	}
}
