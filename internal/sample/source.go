package sample

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/portsort/internal/database"
)

// Source kinds understood by Loader.
const (
	KindCSV    = "csv"
	KindXLSX   = "xlsx"
	KindSQLite = "sqlite"
)

// ErrSourceNotAllowed is returned for paths escaping the data directory or
// for a sqlite source when no sample store is configured.
var ErrSourceNotAllowed = errors.New("sample source not allowed")

// Source names a stored sample.
type Source struct {
	Kind    string   `json:"kind" msgpack:"kind" validate:"required,oneof=csv xlsx sqlite"`
	Path    string   `json:"path,omitempty" msgpack:"path,omitempty" validate:"required_unless=Kind sqlite"`
	Sheet   string   `json:"sheet,omitempty" msgpack:"sheet,omitempty"`
	Table   string   `json:"table,omitempty" msgpack:"table,omitempty" validate:"required_if=Kind sqlite"`
	Columns []string `json:"columns,omitempty" msgpack:"columns,omitempty"`
}

// Loader resolves sources against a data directory and an optional sample store.
type Loader struct {
	dataDir string
	store   *database.DB
}

// NewLoader creates a loader. store may be nil.
func NewLoader(dataDir string, store *database.DB) *Loader {
	return &Loader{dataDir: dataDir, store: store}
}

// Load reads the sample described by src.
func (l *Loader) Load(ctx context.Context, src Source) (*Table, error) {
	switch src.Kind {
	case KindCSV:
		path, err := l.resolve(src.Path)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sample file: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	case KindXLSX:
		path, err := l.resolve(src.Path)
		if err != nil {
			return nil, err
		}
		return ReadXLSX(path, src.Sheet)
	case KindSQLite:
		if l.store == nil {
			return nil, fmt.Errorf("%w: no sample database configured", ErrSourceNotAllowed)
		}
		return LoadSQLite(ctx, l.store, src.Table, src.Columns)
	default:
		return nil, fmt.Errorf("unsupported sample source kind %q", src.Kind)
	}
}

// resolve maps a relative path inside the data directory to an absolute one.
func (l *Loader) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: path must be relative to the data directory", ErrSourceNotAllowed)
	}
	root, err := filepath.Abs(l.dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	full := filepath.Join(root, filepath.Clean(rel))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes the data directory", ErrSourceNotAllowed, rel)
	}
	return full, nil
}
