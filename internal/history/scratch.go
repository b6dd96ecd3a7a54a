package history

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	menderrors "mender/internal/errors"
)

// Scratch is process-run-scoped storage for materialized revision
// blobs. It is acquired at the start of a reconstruction run and must
// be released on every exit path; callers defer Release immediately
// after acquisition. Blobs never touch the working tree.
type Scratch struct {
	dir      string
	released bool
}

// NewScratch acquires an isolated scratch directory.
func NewScratch() (*Scratch, error) {
	dir := filepath.Join(os.TempDir(), "mender-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, menderrors.New(menderrors.ScratchFailure, "failed to acquire scratch storage", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string {
	return s.dir
}

// Materialize writes revision content into scratch and returns the
// written path.
func (s *Scratch) Materialize(generation int, base string, content []byte) (string, error) {
	if s.released {
		return "", menderrors.New(menderrors.ScratchFailure, "scratch already released", nil)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("gen%03d_%s", generation, base))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", menderrors.New(menderrors.ScratchFailure, "failed to materialize revision", err)
	}
	return path, nil
}

// Release deletes the scratch directory. Safe to call more than once.
func (s *Scratch) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	if err := os.RemoveAll(s.dir); err != nil {
		return menderrors.New(menderrors.ScratchFailure, "failed to release scratch storage", err)
	}
	return nil
}
