package separate

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

const vocalsFileName = "vocals.wav"

var errFoundVocals = errors.New("found vocals")

// locateVocals finds the vocals stem somewhere under the engine's output
// dir. Spleeter writes <dir>/<stem>/vocals.wav, demucs nests one level
// deeper under the model name, so this walks rather than assuming.
func locateVocals(dir string) (string, error) {
	found := ""

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && d.Name() == vocalsFileName {
			found = path
			return errFoundVocals
		}

		return nil
	})
	if err != nil && !errors.Is(err, errFoundVocals) {
		return "", cerr.Field("output_dir", dir).
			Wrap(err).Error("Error walking engine output directory")
	}

	if found == "" {
		return "", fault.MarkBackend(cerr.Field("output_dir", dir).
			Error("No vocals stem found in engine output"))
	}

	return found, nil
}

var renameFile = os.Rename

// MoveFile relocates a produced audio file to its final path. The
// working dir and the audio dir can live on different mounts, so a
// failed rename falls back to copying.
func MoveFile(fromPath string, toPath string) error {
	errctx := cerr.Fields(cerr.F{
		"from_path": fromPath,
		"to_path":   toPath,
	})

	if err := renameFile(fromPath, toPath); err == nil {
		return nil
	}

	source, err := os.Open(fromPath)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to open the produced vocals stem")
	}
	defer source.Close()

	target, err := os.Create(toPath)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create the output file")
	}

	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()
		_ = os.Remove(toPath)
		return errctx.Wrap(err).Error("Failed to copy the vocals stem to the output file")
	}

	if err := target.Close(); err != nil {
		return errctx.Wrap(err).Error("Failed to flush the output file")
	}

	return os.Remove(fromPath)
}
