package sample

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/portsort/internal/testing"
)

func TestLoader_CSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firms.csv"), []byte("size,ret\n1,0.1\n2,0.2\n"), 0644))

	tbl, err := NewLoader(dir, nil).Load(context.Background(), Source{Kind: KindCSV, Path: "firms.csv"})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())
}

func TestLoader_RejectsEscapingPaths(t *testing.T) {
	loader := NewLoader(t.TempDir(), nil)

	for _, p := range []string{"../secret.csv", "/etc/passwd", "", "a/../../b.csv"} {
		_, err := loader.Load(context.Background(), Source{Kind: KindCSV, Path: p})
		assert.ErrorIs(t, err, ErrSourceNotAllowed, "path %q", p)
	}
}

func TestLoader_SQLite(t *testing.T) {
	ctx := context.Background()

	_, err := NewLoader(t.TempDir(), nil).Load(ctx, Source{Kind: KindSQLite, Table: "firms"})
	assert.ErrorIs(t, err, ErrSourceNotAllowed)

	db, cleanup := testingpkg.NewTestDB(t, "samples")
	defer cleanup()
	testingpkg.SeedTable(t, db, "firms", testingpkg.FirmColumns, testingpkg.NewFirmFixtures(12))

	tbl, err := NewLoader(t.TempDir(), db).Load(ctx, Source{Kind: KindSQLite, Table: "firms", Columns: []string{"size", "ret"}})
	require.NoError(t, err)
	assert.Equal(t, 12, tbl.Rows())
	assert.Equal(t, []string{"size", "ret"}, tbl.Names())
}

func TestLoader_UnknownKind(t *testing.T) {
	_, err := NewLoader(t.TempDir(), nil).Load(context.Background(), Source{Kind: "parquet"})
	assert.Error(t, err)
}
