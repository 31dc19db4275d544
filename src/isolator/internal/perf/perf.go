package perf

import (
	"syscall"
	"time"

	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

// Rough model constants for the FLOPS-per-cycle estimate: the separation
// models hold on the order of 400M parameters (~2 FLOPs each per sample
// pass), and the reference clock is assumed 3.2 GHz.
const (
	modelParams  = 400_000_000
	assumedCPUHz = 3_200_000_000.0
)

type Measurement struct {
	WallTime      time.Duration
	CPUTime       time.Duration
	FLOPSPerCycle float64
}

// Measure runs fn and records wall time plus the CPU time burned by
// child processes. The engines run as subprocesses, so RUSAGE_CHILDREN
// is the bucket their work lands in.
func Measure(fn func() error) (Measurement, error) {
	var before syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_CHILDREN, &before); err != nil {
		return Measurement{}, cerr.Wrap(err).Error("Failed to read resource usage")
	}

	start := time.Now()
	fnErr := fn()
	wallTime := time.Since(start)

	var after syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_CHILDREN, &after); err != nil {
		return Measurement{}, cerr.Wrap(err).Error("Failed to read resource usage")
	}

	cpuTime := cpuDelta(before, after)

	return Measurement{
		WallTime:      wallTime,
		CPUTime:       cpuTime,
		FLOPSPerCycle: flopsPerCycle(cpuTime),
	}, fnErr
}

// Recommendation maps the estimate onto hardware advice: heavily
// arithmetic-bound runs justify a GPU, light ones don't.
func (m Measurement) Recommendation() string {
	switch {
	case m.FLOPSPerCycle > 16:
		return "Use GPU"
	case m.FLOPSPerCycle > 4:
		return "Both CPU/GPU viable"
	default:
		return "CPU processing is efficient"
	}
}

func flopsPerCycle(cpuTime time.Duration) float64 {
	estimatedCycles := cpuTime.Seconds() * assumedCPUHz
	if estimatedCycles <= 0 {
		return 0
	}

	return float64(modelParams) * 2 / estimatedCycles
}

func cpuDelta(before syscall.Rusage, after syscall.Rusage) time.Duration {
	userDelta := timevalDuration(after.Utime) - timevalDuration(before.Utime)
	systemDelta := timevalDuration(after.Stime) - timevalDuration(before.Stime)

	return userDelta + systemDelta
}

func timevalDuration(tv syscall.Timeval) time.Duration {
	return time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
}
