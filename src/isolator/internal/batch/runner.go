package batch

import (
	"context"
	"os"
	"time"

	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/isolator/internal/perf"
	"github.com/stemtools/voice-isolator/src/isolator/internal/runlog"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

type Result struct {
	Jobs      []job.AudioJob
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// ExitCode maps the batch outcome onto the process exit code: zero only
// when every job succeeded. Jobs left pending by a cancellation count
// against the run, an aborted batch must not read as success.
func (r Result) ExitCode() int {
	if r.Failed > 0 || r.Succeeded < len(r.Jobs) {
		return 1
	}

	return 0
}

// Runner processes jobs one at a time against a single backend handle.
// A failed job is recorded and the batch moves on - partial failure
// never aborts the remaining files.
type Runner struct {
	separator   separate.Separator
	recorder    runlog.Recorder
	measurePerf bool
	now         func() time.Time
}

func NewRunner(separator separate.Separator, recorder runlog.Recorder, measurePerf bool) Runner {
	return Runner{
		separator:   separator,
		recorder:    recorder,
		measurePerf: measurePerf,
		now:         time.Now,
	}
}

func (r Runner) Run(ctx context.Context, jobs []job.AudioJob) Result {
	result := Result{
		Jobs: make([]job.AudioJob, len(jobs)),
	}
	copy(result.Jobs, jobs)

	batchStart := r.now()

	for i := range result.Jobs {
		// an interrupt aborts the rest of the batch, pending jobs
		// stay untouched
		if ctx.Err() != nil {
			break
		}

		r.runOne(ctx, &result.Jobs[i])

		switch result.Jobs[i].Status {
		case job.SucceededStatus:
			result.Succeeded++
		case job.FailedStatus:
			result.Failed++
		}
	}

	result.Elapsed = r.now().Sub(batchStart)

	r.recorder.Summary(runlog.Summary{
		Total:     len(result.Jobs),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Elapsed:   result.Elapsed,
	})

	return result
}

func (r Runner) runOne(ctx context.Context, j *job.AudioJob) {
	j.Start(r.now())
	r.recorder.JobStarted(*j)

	runSeparation := func() error {
		return r.separator.Separate(ctx, j.InputPath, j.OutputPath)
	}

	var err error
	if r.measurePerf {
		var measurement perf.Measurement
		measurement, err = perf.Measure(runSeparation)
		if err == nil {
			r.recorder.JobPerf(*j, measurement)
		}
	} else {
		err = runSeparation()
	}

	if err != nil {
		j.Fail(r.now(), cerr.Field("input_path", j.InputPath).
			Wrap(err).Error("Failed to isolate vocals"))

		// an aborted run must not leave a half-written output behind
		_ = os.Remove(j.OutputPath)
	} else {
		j.Succeed(r.now())
	}

	r.recorder.JobOutcome(*j)
}
