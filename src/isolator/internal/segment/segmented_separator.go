package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/lib/format"
	"github.com/stemtools/voice-isolator/src/isolator/internal/lib/working_dir"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

var _ separate.Separator = SegmentedSeparator{}

// SegmentedSeparator wraps an engine-backed separator, cutting long
// inputs into overlapping segments, separating each one, and merging
// the vocal stems back together. Short inputs pass straight through.
type SegmentedSeparator struct {
	inner      separate.Separator
	segmenter  Segmenter
	workingDir working_dir.WorkingDir
}

func NewSegmentedSeparator(inner separate.Separator, segmenter Segmenter, workingDirStr string) (SegmentedSeparator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return SegmentedSeparator{}, cerr.Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	return SegmentedSeparator{
		inner:      inner,
		segmenter:  segmenter,
		workingDir: workingDir,
	}, nil
}

func (s SegmentedSeparator) Separate(ctx context.Context, inputPath string, outputPath string) error {
	errctx := cerr.Fields(cerr.F{
		"input_path":  inputPath,
		"output_path": outputPath,
	})

	duration, err := s.segmenter.Duration(inputPath)
	if err != nil {
		// an unprobeable file may still decode, let the engine decide
		log.WithField("input_path", inputPath).
			Warn("Could not probe audio duration, separating without segmentation")
		return s.inner.Separate(ctx, inputPath, outputPath)
	}

	if !s.segmenter.NeedsSegmentation(duration) {
		return s.separateWhole(ctx, inputPath, outputPath)
	}

	log.WithFields(log.Fields{
		"input_path": inputPath,
		"duration":   format.Duration(time.Duration(duration * float64(time.Second))),
	}).Info("Audio exceeds the segment length, processing in segments")

	segmentsDir, err := s.workingDir.TempDir("segments-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create a segments dir")
	}
	defer os.RemoveAll(segmentsDir)

	segmentPaths, err := s.segmenter.Split(ctx, inputPath, segmentsDir)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to split the input into segments")
	}

	vocalPaths := []string{}
	for i, segmentPath := range segmentPaths {
		if ctx.Err() != nil {
			return errctx.Wrap(ctx.Err()).Error("Context cancelled during segment separation")
		}

		vocalPath := filepath.Join(segmentsDir, fmt.Sprintf("vocals_%03d.wav", i))

		if err := s.inner.Separate(ctx, segmentPath, vocalPath); err != nil {
			// one bad segment shouldn't sink the rest of the file
			cerr.Log(errctx.Fields(cerr.F{
				"segment_index": i,
				"segment_path":  segmentPath,
			}).Wrap(err).Error("Failed to separate a segment, continuing with the rest"))
			continue
		}

		vocalPaths = append(vocalPaths, vocalPath)
	}

	if len(vocalPaths) == 0 {
		return fault.MarkBackend(errctx.Error("All segments failed to separate"))
	}

	if err := s.segmenter.Merge(ctx, vocalPaths, outputPath); err != nil {
		return errctx.Wrap(err).Error("Failed to merge the separated segments")
	}

	return nil
}

// separateWhole handles inputs short enough to skip segmentation.
// Non-WAV inputs are re-encoded at the standard rate first, so the
// engine always sees the same format the segment path produces.
func (s SegmentedSeparator) separateWhole(ctx context.Context, inputPath string, outputPath string) error {
	if strings.EqualFold(filepath.Ext(inputPath), ".wav") {
		return s.inner.Separate(ctx, inputPath, outputPath)
	}

	errctx := cerr.Field("input_path", inputPath)

	convertDir, err := s.workingDir.TempDir("convert-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create a conversion dir")
	}
	defer os.RemoveAll(convertDir)

	converted := filepath.Join(convertDir, "converted.wav")
	if err := s.segmenter.ConvertToWAV(ctx, inputPath, converted); err != nil {
		return errctx.Wrap(err).Error("Failed to convert input to WAV")
	}

	return s.inner.Separate(ctx, converted, outputPath)
}
