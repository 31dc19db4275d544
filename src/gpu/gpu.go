package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemtools/voice-isolator/src/isolator/application"
	"github.com/stemtools/voice-isolator/src/shared/config"
	"github.com/stemtools/voice-isolator/src/shared/config/envvar"
)

func main() {
	interactive := flag.Bool("interactive", false, "prompt for input files instead of processing the whole audio directory")
	measurePerf := flag.Bool("perf", false, "measure CPU time and estimate FLOPS per cycle for each file")
	flag.Parse()

	audioDirPath := envvar.GetOrDefault(envvar.AUDIO_DIR_PATH, "/audio")

	settings, err := config.LoadSettings(audioDirPath)
	if err != nil {
		panic(err)
	}
	settings.MeasurePerf = settings.MeasurePerf || *measurePerf

	appConfig := application.Config{
		AudioDirPath:     audioDirPath,
		WorkingDirPath:   envvar.GetOrDefault(envvar.WORKING_DIR_PATH, "/tmp/voice-isolator"),
		SpleeterBinPath:  envvar.GetOrDefault(envvar.SPLEETER_BIN_PATH, "spleeter"),
		DemucsBinPath:    envvar.GetOrDefault(envvar.DEMUCS_BIN_PATH, "demucs"),
		FfmpegBinPath:    envvar.GetOrDefault(envvar.FFMPEG_BIN_PATH, "ffmpeg"),
		FfprobeBinPath:   envvar.GetOrDefault(envvar.FFPROBE_BIN_PATH, "ffprobe"),
		NvidiaSMIBinPath: envvar.GetOrDefault(envvar.NVIDIA_SMI_BIN_PATH, "nvidia-smi"),
		Settings:         settings,
		GPU:              true,
		Interactive:      *interactive,
		Files:            flag.Args(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := application.NewApp(appConfig)
	os.Exit(app.Run(ctx))
}
