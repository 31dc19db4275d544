package separate

import (
	"context"

	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Separator is the handle to a separation backend. One instance is built
// per process and reused across every job in a batch.
//
//counterfeiter:generate . Separator
type Separator interface {
	// Separate isolates the vocal stem of inputPath and writes it as a
	// WAV file at outputPath.
	Separate(ctx context.Context, inputPath string, outputPath string) error
}

type Engine string

const (
	InvalidEngine  Engine = ""
	SpleeterEngine Engine = "spleeter"
	DemucsEngine   Engine = "demucs"
)

func ConvertToEngine(value string) (Engine, error) {
	switch Engine(value) {
	case SpleeterEngine:
		return SpleeterEngine, nil
	case DemucsEngine:
		return DemucsEngine, nil
	default:
		return InvalidEngine,
			cerr.Field("engine", value).Error("Value does not match any separation engine")
	}
}
