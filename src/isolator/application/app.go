package application

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/stemtools/voice-isolator/src/isolator/internal/batch"
	"github.com/stemtools/voice-isolator/src/isolator/internal/discover"
	"github.com/stemtools/voice-isolator/src/isolator/internal/executor"
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/isolator/internal/probe"
	"github.com/stemtools/voice-isolator/src/isolator/internal/prompt"
	"github.com/stemtools/voice-isolator/src/isolator/internal/runlog"
	"github.com/stemtools/voice-isolator/src/isolator/internal/segment"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
	"github.com/stemtools/voice-isolator/src/shared/config"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type Config struct {
	AudioDirPath   string
	WorkingDirPath string

	SpleeterBinPath  string
	DemucsBinPath    string
	FfmpegBinPath    string
	FfprobeBinPath   string
	NvidiaSMIBinPath string

	Settings config.Settings

	// GPU marks the accelerator-enabled deployment variant, which probes
	// for a CUDA device at startup and falls back to CPU when absent.
	GPU bool

	Interactive bool
	Files       []string
}

type App struct {
	config Config
	runLog *runlog.RunLog
	runner batch.Runner
	smi    probe.NvidiaSMI
	device separate.Device
}

func NewApp(appConfig Config) App {
	binExecutor := executor.BinaryFileExecutor{}

	runLog := must(runlog.Open(appConfig.AudioDirPath))
	runLog.RouteGlobalLogs()

	device := separate.CPUDevice
	smi := probe.NewNvidiaSMI(appConfig.NvidiaSMIBinPath, binExecutor)
	if appConfig.GPU {
		device = probe.Select(smi)
	}

	separator := newSeparator(appConfig, device, binExecutor)

	return App{
		config: appConfig,
		runLog: runLog,
		runner: batch.NewRunner(separator, runLog, appConfig.Settings.MeasurePerf),
		smi:    smi,
		device: device,
	}
}

// Run executes the configured mode and returns the process exit code.
func (a App) Run(ctx context.Context) int {
	defer a.runLog.Close()

	if a.config.GPU && a.device == separate.CUDADevice {
		a.smi.LogUtilization("before_run")
		defer a.smi.LogUtilization("after_run")
	}

	if a.config.Interactive {
		failed := prompt.NewSession(os.Stdin, os.Stdout, a.runner).Run(ctx)
		if failed > 0 {
			return 1
		}

		return 0
	}

	jobs, err := a.collectJobs()
	if err != nil {
		cerr.Log(err)
		return 1
	}

	if len(jobs) == 0 {
		log.WithField("audio_dir", a.config.AudioDirPath).
			Info("No eligible audio files found, nothing to do")
		return 0
	}

	result := a.runner.Run(ctx, jobs)
	return result.ExitCode()
}

func (a App) collectJobs() ([]job.AudioJob, error) {
	if len(a.config.Files) == 0 {
		return discover.List(a.config.AudioDirPath)
	}

	jobs := []job.AudioJob{}
	for _, filePath := range a.config.Files {
		if err := discover.Validate(filePath); err != nil {
			return nil, cerr.Wrap(err).Error("Refusing to start with an invalid input file")
		}

		jobs = append(jobs, job.New(filePath))
	}

	return jobs, nil
}

func newSeparator(appConfig Config, device separate.Device, binExecutor executor.BinaryFileExecutor) separate.Separator {
	var engineSeparator separate.Separator

	engine := must(separate.ConvertToEngine(appConfig.Settings.Engine))
	switch engine {
	case separate.SpleeterEngine:
		engineSeparator = must(separate.NewSpleeterSeparator(
			appConfig.WorkingDirPath,
			appConfig.SpleeterBinPath,
			appConfig.Settings.SpleeterModel,
			binExecutor))

	case separate.DemucsEngine:
		engineSeparator = must(separate.NewDemucsSeparator(
			appConfig.WorkingDirPath,
			appConfig.DemucsBinPath,
			device,
			binExecutor))

	default:
		panic("Unexpected separation engine")
	}

	segmenter := segment.NewSegmenter(
		appConfig.FfmpegBinPath,
		appConfig.FfprobeBinPath,
		binExecutor,
		appConfig.Settings.SegmentSeconds,
		appConfig.Settings.OverlapSeconds,
		appConfig.Settings.SampleRate)

	return must(segment.NewSegmentedSeparator(engineSeparator, segmenter, appConfig.WorkingDirPath))
}
