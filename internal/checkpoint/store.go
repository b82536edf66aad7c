// Package checkpoint persists the opaque progress payload of a simulation run
// so that an interrupted run can resume.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when nothing was saved yet.
var ErrNotFound = errors.New("checkpoint not found")

// Store holds a single payload, replaced on every Save.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver at path. An empty driver picks sqlite for
// paths ending in .db, .sqlite or .sqlite3 and file otherwise.
func Open(driver, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("checkpoint path required")
	}
	if driver == "" {
		driver = DriverFile
		for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
			if strings.HasSuffix(strings.ToLower(path), ext) {
				driver = DriverSQLite
			}
		}
	}
	switch strings.ToLower(driver) {
	case DriverFile:
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path, "")
	}
	return nil, fmt.Errorf("unknown checkpoint driver %q", driver)
}
