package separate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/stemtools/voice-isolator/src/isolator/internal/executor"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/lib/working_dir"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

var _ Separator = SpleeterSeparator{}

func NewSpleeterSeparator(workingDirStr string, spleeterBinPath string, modelParam string, executor executor.Executor) (SpleeterSeparator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return SpleeterSeparator{}, cerr.Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	return SpleeterSeparator{
		workingDir:      workingDir,
		spleeterBinPath: spleeterBinPath,
		modelParam:      modelParam,
		executor:        executor,
	}, nil
}

type SpleeterSeparator struct {
	workingDir      working_dir.WorkingDir
	spleeterBinPath string
	modelParam      string
	executor        executor.Executor
}

func (s SpleeterSeparator) Separate(ctx context.Context, inputPath string, outputPath string) error {
	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return cerr.Wrap(err).Error("Cannot convert input path to absolute format")
	}

	errctx := cerr.Field("input_path", absInputPath)

	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return errctx.Wrap(err).Error("Cannot convert output path to absolute format")
	}

	// separation is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return errctx.Wrap(ctx.Err()).Error("Context cancelled before separation could happen")
	}

	stemsDir, err := s.workingDir.TempDir("spleeter-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create a stems dir for spleeter output")
	}
	defer os.RemoveAll(stemsDir)

	if err := s.runSpleeter(absInputPath, stemsDir); err != nil {
		return errctx.Field("stems_dir", stemsDir).
			Wrap(err).Error("Failed to execute spleeter")
	}

	vocalsPath, err := locateVocals(stemsDir)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to find the vocals stem in spleeter output")
	}

	if err := MoveFile(vocalsPath, absOutputPath); err != nil {
		return errctx.Wrap(err).Error("Failed to move the vocals stem to the output path")
	}

	return nil
}

func (s SpleeterSeparator) runSpleeter(inputPath string, stemsDir string) error {
	logger := log.WithFields(log.Fields{
		"inputPath":  inputPath,
		"stemsDir":   stemsDir,
		"model":      s.modelParam,
		"workingDir": s.workingDir.Root(),
	})

	logger.Info("Running spleeter command")

	args := []string{"separate", "-p", s.modelParam, "-o", stemsDir, inputPath}

	errctx := cerr.Field("spleeter_bin_path", s.spleeterBinPath).Field("spleeter_args", args)

	cmd := s.executor.Command(s.spleeterBinPath, args...)
	cmd.SetDir(s.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.MarkBackend(errctx.Field("spleeter_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running spleeter: %s", string(output))))
	}

	logger.Debug(string(output))
	logger.Info("Finished spleeter command")

	return nil
}
