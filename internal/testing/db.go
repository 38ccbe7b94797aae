// Package testing provides testing utilities and helpers for the portsort project.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/aristath/portsort/internal/database"
)

// NewTestDB creates a file-backed SQLite database for testing.
// Returns the database instance and a cleanup function that closes the connection
// and removes the file. The cleanup function can be called multiple times safely.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files keep every test isolated
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileScratch,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			// Log error but don't fail test
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}

// SeedTable creates table with one REAL column per name and inserts the
// column-major values row by row. All columns must have the same length.
func SeedTable(t *testing.T, db *database.DB, table string, names []string, columns [][]float64) {
	t.Helper()

	if len(names) == 0 || len(names) != len(columns) {
		t.Fatalf("SeedTable: %d names for %d columns", len(names), len(columns))
	}

	defs := make([]string, len(names))
	marks := make([]string, len(names))
	for i, n := range names {
		defs[i] = fmt.Sprintf("%q REAL", n)
		marks[i] = "?"
	}

	ctx := context.Background()
	create := fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		t.Fatalf("Failed to create table %s: %v", table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, strings.Join(marks, ", "))
	rows := len(columns[0])
	for r := 0; r < rows; r++ {
		args := make([]interface{}, len(columns))
		for c := range columns {
			if len(columns[c]) != rows {
				t.Fatalf("SeedTable: column %s has %d rows, want %d", names[c], len(columns[c]), rows)
			}
			args[c] = columns[c][r]
		}
		if _, err := db.ExecContext(ctx, insert, args...); err != nil {
			t.Fatalf("Failed to insert row %d into %s: %v", r, table, err)
		}
	}
}
