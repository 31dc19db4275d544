package working_dir

import (
	"os"
	"path/filepath"

	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

// WorkingDir is an absolute scratch directory root. Separation engines
// run inside it and create their temp dirs underneath it.
type WorkingDir struct {
	root string
}

func NewWorkingDir(dir string) (WorkingDir, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return WorkingDir{}, cerr.Field("dir", dir).
			Wrap(err).Error("Failed to convert dir to absolute format")
	}

	if err := os.MkdirAll(absDir, os.ModePerm); err != nil {
		return WorkingDir{}, cerr.Field("dir", absDir).
			Wrap(err).Error("Failed to create working dir")
	}

	return WorkingDir{root: absDir}, nil
}

func (w WorkingDir) Root() string {
	return w.root
}

func (w WorkingDir) TempDir(pattern string) (string, error) {
	tempDir, err := os.MkdirTemp(w.root, pattern)
	if err != nil {
		return "", cerr.Field("working_dir", w.root).
			Wrap(err).Error("Failed to create temp dir inside working dir")
	}

	return tempDir, nil
}
