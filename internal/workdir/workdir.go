// Package workdir manages the per-run scratch directory that holds every
// intermediate artifact. The directory is removed on every exit path,
// success or failure.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a per-run scratch directory. RunID doubles as the log correlation id.
type Dir struct {
	Path  string
	RunID string
}

// Create makes a uniquely named scratch directory under the system temp dir.
func Create() (*Dir, error) {
	runID := uuid.NewString()
	path := filepath.Join(os.TempDir(), "qtranscode-"+runID)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	return &Dir{Path: path, RunID: runID}, nil
}

// Remove tears the scratch directory down with everything in it.
func (d *Dir) Remove() {
	if d == nil || d.Path == "" {
		return
	}
	_ = os.RemoveAll(d.Path)
}

// Join returns a path inside the scratch directory.
func (d *Dir) Join(name string) string {
	return filepath.Join(d.Path, name)
}
