package job

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutputSuffix marks produced files so that discovery never feeds an
// output back in as an input.
const OutputSuffix = "_isolated"

type Status string

const (
	PendingStatus   Status = "pending"
	RunningStatus   Status = "running"
	SucceededStatus Status = "succeeded"
	FailedStatus    Status = "failed"
)

// AudioJob tracks one input file through separation. Failure is a status
// on the record, not a thrown-away error, so that a batch can visibly
// continue past a bad file.
type AudioJob struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

func New(inputPath string) AudioJob {
	return AudioJob{
		ID:         uuid.New().String(),
		InputPath:  inputPath,
		OutputPath: OutputPathFor(inputPath),
		Status:     PendingStatus,
	}
}

// OutputPathFor derives the output location next to the input:
// /audio/song.mp3 -> /audio/song_isolated.wav
func OutputPathFor(inputPath string) string {
	dir := filepath.Dir(inputPath)
	name := filepath.Base(inputPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	return filepath.Join(dir, stem+OutputSuffix+".wav")
}

func (j *AudioJob) Start(now time.Time) {
	j.Status = RunningStatus
	j.StartedAt = now
}

func (j *AudioJob) Succeed(now time.Time) {
	j.Status = SucceededStatus
	j.FinishedAt = now
}

func (j *AudioJob) Fail(now time.Time, err error) {
	j.Status = FailedStatus
	j.FinishedAt = now
	j.Err = err
}

func (j AudioJob) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}

	return j.FinishedAt.Sub(j.StartedAt)
}

func (j AudioJob) FileName() string {
	return filepath.Base(j.InputPath)
}
