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

type Device string

const (
	CPUDevice  Device = "cpu"
	CUDADevice Device = "cuda"
)

var _ Separator = DemucsSeparator{}

func NewDemucsSeparator(workingDirStr string, demucsBinPath string, device Device, executor executor.Executor) (DemucsSeparator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return DemucsSeparator{}, cerr.Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	return DemucsSeparator{
		workingDir:    workingDir,
		demucsBinPath: demucsBinPath,
		device:        device,
		executor:      executor,
	}, nil
}

type DemucsSeparator struct {
	workingDir    working_dir.WorkingDir
	demucsBinPath string
	device        Device
	executor      executor.Executor
}

func (d DemucsSeparator) Separate(ctx context.Context, inputPath string, outputPath string) error {
	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return cerr.Wrap(err).Error("Cannot convert input path to absolute format")
	}

	errctx := cerr.Field("input_path", absInputPath)

	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return errctx.Wrap(err).Error("Cannot convert output path to absolute format")
	}

	if ctx.Err() != nil {
		return errctx.Wrap(ctx.Err()).Error("Context cancelled before separation could happen")
	}

	stemsDir, err := d.workingDir.TempDir("demucs-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create a stems dir for demucs output")
	}
	defer os.RemoveAll(stemsDir)

	if err := d.runDemucs(absInputPath, stemsDir); err != nil {
		return errctx.Field("stems_dir", stemsDir).
			Wrap(err).Error("Failed to execute demucs")
	}

	vocalsPath, err := locateVocals(stemsDir)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to find the vocals stem in demucs output")
	}

	if err := MoveFile(vocalsPath, absOutputPath); err != nil {
		return errctx.Wrap(err).Error("Failed to move the vocals stem to the output path")
	}

	return nil
}

func (d DemucsSeparator) runDemucs(inputPath string, stemsDir string) error {
	logger := log.WithFields(log.Fields{
		"inputPath":  inputPath,
		"stemsDir":   stemsDir,
		"device":     d.device,
		"workingDir": d.workingDir.Root(),
	})

	logger.Info("Running demucs command")

	args := []string{"-o", stemsDir, "--two-stems", "vocals", "-d", string(d.device), "--filename", "{stem}.{ext}", inputPath}

	errctx := cerr.Field("demucs_bin_path", d.demucsBinPath).Field("demucs_args", args)

	cmd := d.executor.Command(d.demucsBinPath, args...)
	cmd.SetDir(d.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fault.MarkBackend(errctx.Field("demucs_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running demucs: %s", string(output))))
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return nil
}
