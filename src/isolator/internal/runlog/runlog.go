package runlog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/isolator/internal/lib/format"
	"github.com/stemtools/voice-isolator/src/isolator/internal/perf"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

// LogFileName is the append-only run log kept next to the audio files.
const LogFileName = "voice_isolation.log"

// Recorder receives job lifecycle events. The file-backed implementation
// below is the production one, tests substitute a dummy.
type Recorder interface {
	JobStarted(j job.AudioJob)
	JobOutcome(j job.AudioJob)
	JobPerf(j job.AudioJob, m perf.Measurement)
	Summary(s Summary)
}

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

var _ Recorder = &RunLog{}

// RunLog tees every entry to stdout and to the log file in the shared
// directory, both in apex/log text format.
type RunLog struct {
	file   *os.File
	logger *log.Logger
}

func Open(audioDirPath string) (*RunLog, error) {
	logPath := filepath.Join(audioDirPath, LogFileName)

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, cerr.Field("log_path", logPath).
			Wrap(err).Error("Failed to open the run log file")
	}

	logger := &log.Logger{
		Handler: multi.New(
			text.New(os.Stdout),
			text.New(file),
		),
		Level: log.InfoLevel,
	}

	return &RunLog{
		file:   file,
		logger: logger,
	}, nil
}

// RouteGlobalLogs points the package-level apex logger at the run log
// handlers, so lines logged anywhere in the process reach the file too.
func (r *RunLog) RouteGlobalLogs() {
	log.SetHandler(r.logger.Handler)
	log.SetLevel(r.logger.Level)
}

func (r *RunLog) JobStarted(j job.AudioJob) {
	r.logger.WithFields(log.Fields{
		"job_id":  j.ID,
		"file":    j.FileName(),
		"size_mb": format.FileSizeMB(j.InputPath),
	}).Info("Processing file to isolate vocals")
}

func (r *RunLog) JobOutcome(j job.AudioJob) {
	fields := log.Fields{
		"job_id":   j.ID,
		"file":     j.FileName(),
		"duration": format.Duration(j.Duration()),
	}

	switch j.Status {
	case job.SucceededStatus:
		fields["output"] = filepath.Base(j.OutputPath)
		fields["output_size_mb"] = format.FileSizeMB(j.OutputPath)
		r.logger.WithFields(fields).Info("Success: isolated vocals saved")

	case job.FailedStatus:
		if j.Err != nil {
			fields["error"] = j.Err.Error()
		}
		r.logger.WithFields(fields).Error("Failure: could not isolate vocals")

	default:
		r.logger.WithFields(fields).Warn("Job finished in an unexpected status")
	}
}

func (r *RunLog) JobPerf(j job.AudioJob, m perf.Measurement) {
	r.logger.WithFields(log.Fields{
		"job_id":          j.ID,
		"file":            j.FileName(),
		"wall_time":       format.Duration(m.WallTime),
		"cpu_time":        format.Duration(m.CPUTime),
		"flops_per_cycle": m.FLOPSPerCycle,
		"recommendation":  m.Recommendation(),
	}).Info("Performance measurement")
}

func (r *RunLog) Summary(s Summary) {
	r.logger.WithFields(log.Fields{
		"total":          s.Total,
		"succeeded":      s.Succeeded,
		"failed":         s.Failed,
		"total_duration": format.Duration(s.Elapsed),
	}).Info("Batch complete")
}

func (r *RunLog) Close() error {
	if err := r.file.Close(); err != nil {
		return cerr.Wrap(err).Error("Failed to close the run log file")
	}

	return nil
}
