package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plateops/ops-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestMigrationsCreateOwnedTables(t *testing.T) {
	cases := map[string][]string{
		"*_create_jobs.sql": {
			"CREATE TABLE IF NOT EXISTS jobs",
			"CHECK (status IN ('pending', 'running', 'completed', 'failed'))",
			"WHERE status = 'pending'",
			"DROP TABLE IF EXISTS jobs",
		},
		"*_create_notifications.sql": {
			"CREATE TABLE IF NOT EXISTS notifications",
			"CHECK (severity IN ('info', 'warning', 'critical'))",
			"DROP TABLE IF EXISTS notifications",
		},
		"*_create_system_health.sql": {
			"CREATE TABLE IF NOT EXISTS system_health",
			"worker_last_seen_at timestamptz NOT NULL",
		},
		"*_create_inventory_items.sql": {
			"quantity numeric(12,3)",
			"reorder_threshold numeric(12,3)",
		},
		"*_create_menu_items.sql": {
			"CHECK (price >= 0)",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, sub := range checks {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s: missing %q", filepath.Base(matches[0]), sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Job Priority!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_job_priority.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}
}

func TestModelsCoverOwnedTables(t *testing.T) {
	if got := len(migrate.Models()); got != 5 {
		t.Fatalf("expected 5 models, got %d", got)
	}
}
