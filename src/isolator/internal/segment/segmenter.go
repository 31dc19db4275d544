package segment

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/stemtools/voice-isolator/src/isolator/internal/executor"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

// Segmenter cuts long inputs into fixed-size pieces with a small overlap
// so that one separation run never has to hold an hours-long file in
// memory, then crossfades the separated pieces back together.
type Segmenter struct {
	ffmpegBinPath  string
	ffprobeBinPath string
	executor       executor.Executor

	SegmentSeconds float64
	OverlapSeconds float64
	SampleRate     int
}

func NewSegmenter(ffmpegBinPath string, ffprobeBinPath string, executor executor.Executor, segmentSeconds float64, overlapSeconds float64, sampleRate int) Segmenter {
	return Segmenter{
		ffmpegBinPath:  ffmpegBinPath,
		ffprobeBinPath: ffprobeBinPath,
		executor:       executor,
		SegmentSeconds: segmentSeconds,
		OverlapSeconds: overlapSeconds,
		SampleRate:     sampleRate,
	}
}

// Duration probes the length of an audio file in seconds via ffprobe.
func (s Segmenter) Duration(inputPath string) (float64, error) {
	errctx := cerr.Field("input_path", inputPath)

	cmd := s.executor.Command(s.ffprobeBinPath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, errctx.Field("ffprobe_output", string(output)).
			Wrap(err).Error("Failed to probe audio duration")
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, errctx.Field("ffprobe_output", string(output)).
			Wrap(err).Error("ffprobe returned an unparseable duration")
	}

	return duration, nil
}

func (s Segmenter) NeedsSegmentation(durationSeconds float64) bool {
	return durationSeconds > s.SegmentSeconds
}

// Count computes how many overlapping segments cover a duration.
func Count(durationSeconds float64, segmentSeconds float64, overlapSeconds float64) int {
	if durationSeconds <= segmentSeconds {
		return 1
	}

	return int(math.Ceil((durationSeconds - overlapSeconds) / (segmentSeconds - overlapSeconds)))
}

// Split cuts a long input into overlapping WAV segments inside
// segmentsDir. The caller established that the input exceeds the
// segment length.
func (s Segmenter) Split(ctx context.Context, inputPath string, segmentsDir string) ([]string, error) {
	errctx := cerr.Field("input_path", inputPath)

	duration, err := s.Duration(inputPath)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to determine audio duration")
	}

	numSegments := Count(duration, s.SegmentSeconds, s.OverlapSeconds)

	log.WithFields(log.Fields{
		"input_path":   inputPath,
		"duration":     duration,
		"num_segments": numSegments,
	}).Info("Splitting audio into segments")

	segmentPaths := []string{}
	for i := 0; i < numSegments; i++ {
		start := math.Max(0, float64(i)*(s.SegmentSeconds-s.OverlapSeconds))
		end := math.Min(duration, start+s.SegmentSeconds)

		segmentPath := filepath.Join(segmentsDir, fmt.Sprintf("segment_%03d.wav", i))
		if err := s.extract(ctx, inputPath, segmentPath, start, end); err != nil {
			return nil, errctx.Fields(cerr.F{
				"segment_index": i,
				"segment_start": start,
				"segment_end":   end,
			}).Wrap(err).Error("Failed to extract audio segment")
		}

		segmentPaths = append(segmentPaths, segmentPath)
	}

	return segmentPaths, nil
}

// ConvertToWAV re-encodes an input as WAV at the standard sample rate.
func (s Segmenter) ConvertToWAV(ctx context.Context, inputPath string, outputPath string) error {
	if ctx.Err() != nil {
		return cerr.Wrap(ctx.Err()).Error("Context cancelled before conversion")
	}

	cmd := s.executor.Command(s.ffmpegBinPath,
		"-y",
		"-i", inputPath,
		"-ar", strconv.Itoa(s.SampleRate),
		outputPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.MarkBackend(cerr.Fields(cerr.F{
			"input_path":    inputPath,
			"output_path":   outputPath,
			"ffmpeg_output": string(output),
		}).Wrap(err).Error(fmt.Sprintf("Error occurred while running ffmpeg: %s", string(output))))
	}

	return nil
}

func (s Segmenter) extract(ctx context.Context, inputPath string, outputPath string, startSeconds float64, endSeconds float64) error {
	if ctx.Err() != nil {
		return cerr.Wrap(ctx.Err()).Error("Context cancelled before segment extraction")
	}

	cmd := s.executor.Command(s.ffmpegBinPath,
		"-y",
		"-i", inputPath,
		"-ss", formatSeconds(startSeconds),
		"-to", formatSeconds(endSeconds),
		"-ar", strconv.Itoa(s.SampleRate),
		outputPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.MarkBackend(cerr.Fields(cerr.F{
			"input_path":    inputPath,
			"output_path":   outputPath,
			"ffmpeg_output": string(output),
		}).Wrap(err).Error(fmt.Sprintf("Error occurred while running ffmpeg: %s", string(output))))
	}

	return nil
}

// Merge joins separated vocal segments into the final output, crossfading
// over the segment overlap. A single segment is moved into place directly.
func (s Segmenter) Merge(ctx context.Context, vocalPaths []string, outputPath string) error {
	if len(vocalPaths) == 0 {
		return cerr.Error("No vocal segments to merge")
	}

	errctx := cerr.Fields(cerr.F{
		"num_segments": len(vocalPaths),
		"output_path":  outputPath,
	})

	if ctx.Err() != nil {
		return errctx.Wrap(ctx.Err()).Error("Context cancelled before merging")
	}

	if len(vocalPaths) == 1 {
		// the segments dir and the output can sit on different mounts
		if err := separate.MoveFile(vocalPaths[0], outputPath); err != nil {
			return errctx.Wrap(err).Error("Failed to move the single vocal segment into place")
		}

		return nil
	}

	crossfadeErr := s.crossfadeMerge(vocalPaths, outputPath)
	if crossfadeErr == nil {
		return nil
	}

	// acrossfade graphs can fail on very short tails, plain concat still
	// produces a usable result
	log.WithField("output_path", outputPath).
		Warn("Crossfade merge failed, falling back to simple concatenation")

	concatListPath := outputPath + "_concat_list.txt"
	if err := writeConcatList(concatListPath, vocalPaths); err != nil {
		return errctx.Wrap(err).Error("Failed to write the concat list file")
	}
	defer os.Remove(concatListPath)

	if err := s.simpleConcat(concatListPath, outputPath); err != nil {
		return errctx.Wrap(err).Error("Failed to merge vocal segments")
	}

	return nil
}

// crossfadeMerge feeds every segment as its own input and chains
// pairwise acrossfade filters across them.
func (s Segmenter) crossfadeMerge(vocalPaths []string, outputPath string) error {
	args := []string{"-y"}
	for _, path := range vocalPaths {
		args = append(args, "-i", path)
	}

	filterComplex := ""
	for i := 0; i < len(vocalPaths)-1; i++ {
		if i == 0 {
			filterComplex += fmt.Sprintf("[0:0][1:0]acrossfade=d=%s:c1=tri:c2=tri[out1];", formatSeconds(s.OverlapSeconds))
		} else {
			filterComplex += fmt.Sprintf("[out%d][%d:0]acrossfade=d=%s:c1=tri:c2=tri[out%d];", i, i+1, formatSeconds(s.OverlapSeconds), i+1)
		}
	}
	filterComplex = strings.TrimSuffix(filterComplex, ";")

	args = append(args,
		"-filter_complex", filterComplex,
		"-map", fmt.Sprintf("[out%d]", len(vocalPaths)-1),
		outputPath)

	cmd := s.executor.Command(s.ffmpegBinPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("ffmpeg_output", string(output)).
			Wrap(err).Error("Crossfade merge command failed")
	}

	return nil
}

func (s Segmenter) simpleConcat(concatListPath string, outputPath string) error {
	cmd := s.executor.Command(s.ffmpegBinPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListPath,
		"-c", "copy",
		outputPath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.MarkBackend(cerr.Field("ffmpeg_output", string(output)).
			Wrap(err).Error("Simple concat merge command failed"))
	}

	return nil
}

func writeConcatList(listPath string, paths []string) error {
	var builder strings.Builder
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return cerr.Field("path", path).
				Wrap(err).Error("Failed to convert segment path to absolute format")
		}

		builder.WriteString(fmt.Sprintf("file '%s'\n", absPath))
	}

	return os.WriteFile(listPath, []byte(builder.String()), 0644)
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
