package dummy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
)

var _ separate.Separator = &Separator{}

// Separator fakes a separation backend: it writes a small output file
// for every input not listed as failing.
type Separator struct {
	FailingInputs  map[string]bool
	SeparatedPaths []string

	// AfterSeparate, when set, runs after each successful separation.
	// Lets tests cancel a context mid-batch.
	AfterSeparate func()
}

func NewSeparator() *Separator {
	return &Separator{
		FailingInputs: map[string]bool{},
	}
}

func (s *Separator) Separate(ctx context.Context, inputPath string, outputPath string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.FailingInputs[filepath.Base(inputPath)] {
		return fault.MarkBackend(errors.New("could not decode input"))
	}

	s.SeparatedPaths = append(s.SeparatedPaths, inputPath)

	if err := os.WriteFile(outputPath, []byte("vocals of "+filepath.Base(inputPath)), 0644); err != nil {
		return err
	}

	if s.AfterSeparate != nil {
		s.AfterSeparate()
	}

	return nil
}
