package dummy

import (
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/isolator/internal/perf"
	"github.com/stemtools/voice-isolator/src/isolator/internal/runlog"
)

var _ runlog.Recorder = &Recorder{}

// Recorder captures run log entries in memory for assertions.
type Recorder struct {
	Started   []job.AudioJob
	Outcomes  []job.AudioJob
	Perfs     []perf.Measurement
	Summaries []runlog.Summary
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) JobStarted(j job.AudioJob) {
	r.Started = append(r.Started, j)
}

func (r *Recorder) JobOutcome(j job.AudioJob) {
	r.Outcomes = append(r.Outcomes, j)
}

func (r *Recorder) JobPerf(j job.AudioJob, m perf.Measurement) {
	r.Perfs = append(r.Perfs, m)
}

func (r *Recorder) Summary(s runlog.Summary) {
	r.Summaries = append(r.Summaries, s)
}
