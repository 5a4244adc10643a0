package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_dishes",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"CHECK (quantity_returned <= quantity)",
		"subtotal NUMERIC(14,2) NOT NULL DEFAULT 0",
		"final_price NUMERIC(14,2) NOT NULL DEFAULT 0",
		"DROP TABLE IF EXISTS order_dishes",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestJobsMigrationSupportsPartitionedClaims(t *testing.T) {
	content := readMigration(t, "*_create_jobs.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS jobs",
		"sequence BIGINT GENERATED ALWAYS AS IDENTITY",
		"idx_jobs_partition",
		"CREATE TABLE IF NOT EXISTS job_dead_letters",
		"ux_job_dead_letters_job",
		"DROP TABLE IF EXISTS jobs",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumsMigrationDeclaresAllTypes(t *testing.T) {
	content := readMigration(t, "*_create_enums.sql")

	for _, sub := range []string{
		"CREATE TYPE worker_role",
		"CREATE TYPE order_type",
		"CREATE TYPE order_status",
		"CREATE TYPE dish_status",
		"CREATE TYPE job_name",
		"CREATE TYPE job_status",
		"CREATE TYPE snapshot_action",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
