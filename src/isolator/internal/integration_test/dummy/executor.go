package dummy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/stemtools/voice-isolator/src/isolator/internal/executor"
)

var _ executor.Executor = &Executor{}

// Executor simulates the external binaries (spleeter, demucs, ffmpeg,
// ffprobe, nvidia-smi) by writing the files and output each of them
// would produce, without ever shelling out.
type Executor struct {
	Invocations [][]string

	// FailingInputs simulates corrupt files: any invocation whose input
	// base name is in this set fails with a decode error.
	FailingInputs map[string]bool

	// Durations maps input base names to the seconds ffprobe reports.
	// Inputs not present report DefaultDuration.
	Durations       map[string]float64
	DefaultDuration float64

	// FailCrossfade makes ffmpeg invocations carrying a filter graph
	// fail, the way acrossfade does on a short tail.
	FailCrossfade bool

	// NvidiaSMIOutput is returned verbatim by nvidia-smi invocations.
	// NvidiaSMIErr simulates a missing driver or binary.
	NvidiaSMIOutput string
	NvidiaSMIErr    error
}

func NewExecutor() *Executor {
	return &Executor{
		FailingInputs:   map[string]bool{},
		Durations:       map[string]float64{},
		DefaultDuration: 60,
	}
}

func (e *Executor) Command(name string, arg ...string) executor.Command {
	return &command{
		exec: e,
		name: name,
		args: arg,
	}
}

type command struct {
	exec *Executor
	name string
	args []string
	dir  string
}

func (c *command) SetDir(dir string) {
	c.dir = dir
}

func (c *command) CombinedOutput() ([]byte, error) {
	c.exec.Invocations = append(c.exec.Invocations, append([]string{c.name}, c.args...))

	switch filepath.Base(c.name) {
	case "spleeter":
		return c.runSpleeter()
	case "demucs":
		return c.runDemucs()
	case "ffprobe":
		return c.runFfprobe()
	case "ffmpeg":
		return c.runFfmpeg()
	case "nvidia-smi":
		return c.runNvidiaSMI()
	default:
		return nil, errors.Newf("dummy executor has no handler for %s", c.name)
	}
}

func (c *command) runSpleeter() ([]byte, error) {
	inputPath := c.args[len(c.args)-1]
	outputDir := c.flagValue("-o")

	if c.exec.FailingInputs[filepath.Base(inputPath)] {
		return []byte("spleeter: could not decode input"), errors.New("exit status 1")
	}

	stem := fileStem(inputPath)
	stemDir := filepath.Join(outputDir, stem)
	if err := os.MkdirAll(stemDir, os.ModePerm); err != nil {
		return nil, err
	}

	vocals := []byte("vocals of " + stem)
	if err := os.WriteFile(filepath.Join(stemDir, "vocals.wav"), vocals, 0644); err != nil {
		return nil, err
	}

	return []byte("spleeter: separation done"), nil
}

func (c *command) runDemucs() ([]byte, error) {
	inputPath := c.args[len(c.args)-1]
	outputDir := c.flagValue("-o")

	if c.exec.FailingInputs[filepath.Base(inputPath)] {
		return []byte("demucs: could not decode input"), errors.New("exit status 1")
	}

	stem := fileStem(inputPath)
	stemDir := filepath.Join(outputDir, "htdemucs", stem)
	if err := os.MkdirAll(stemDir, os.ModePerm); err != nil {
		return nil, err
	}

	vocals := []byte("vocals of " + stem)
	if err := os.WriteFile(filepath.Join(stemDir, "vocals.wav"), vocals, 0644); err != nil {
		return nil, err
	}

	return []byte("demucs: separation done"), nil
}

func (c *command) runFfprobe() ([]byte, error) {
	inputPath := c.args[len(c.args)-1]

	if c.exec.FailingInputs[filepath.Base(inputPath)] {
		return []byte("ffprobe: invalid data found"), errors.New("exit status 1")
	}

	duration, ok := c.exec.Durations[filepath.Base(inputPath)]
	if !ok {
		duration = c.exec.DefaultDuration
	}

	return []byte(fmt.Sprintf("%f\n", duration)), nil
}

func (c *command) runFfmpeg() ([]byte, error) {
	outputPath := c.args[len(c.args)-1]

	inputPath := c.flagValue("-i")
	if c.exec.FailingInputs[filepath.Base(inputPath)] {
		return []byte("ffmpeg: invalid data found"), errors.New("exit status 1")
	}

	content := "ffmpeg output"
	switch {
	case c.hasFlag("-filter_complex"):
		if c.exec.FailCrossfade {
			return []byte("ffmpeg: failed to configure filter graph"), errors.New("exit status 1")
		}
		content = "crossfaded merge"
	case c.hasFlag("-c"):
		content = "concatenated merge"
	case c.hasFlag("-ss"):
		content = fmt.Sprintf("segment %s to %s", c.flagValue("-ss"), c.flagValue("-to"))
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return nil, err
	}

	return []byte("ffmpeg: done"), nil
}

func (c *command) runNvidiaSMI() ([]byte, error) {
	if c.exec.NvidiaSMIErr != nil {
		return []byte("NVIDIA-SMI has failed"), c.exec.NvidiaSMIErr
	}

	return []byte(c.exec.NvidiaSMIOutput), nil
}

func (c *command) flagValue(flag string) string {
	for i, arg := range c.args {
		if arg == flag && i+1 < len(c.args) {
			return c.args[i+1]
		}
	}

	return ""
}

func (c *command) hasFlag(flag string) bool {
	for _, arg := range c.args {
		if arg == flag {
			return true
		}
	}

	return false
}

func fileStem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
