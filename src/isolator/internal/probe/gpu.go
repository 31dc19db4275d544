package probe

import (
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/stemtools/voice-isolator/src/isolator/internal/executor"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/separate"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

type Device struct {
	Name           string
	MemoryTotalMB  int
	MemoryUsedMB   int
	UtilizationPct int
}

// NvidiaSMI probes for CUDA devices through the nvidia-smi binary. The
// probe failing is an environment condition, not a program error - the
// caller falls back to CPU execution.
type NvidiaSMI struct {
	binPath  string
	executor executor.Executor
}

func NewNvidiaSMI(binPath string, executor executor.Executor) NvidiaSMI {
	return NvidiaSMI{
		binPath:  binPath,
		executor: executor,
	}
}

func (n NvidiaSMI) Devices() ([]Device, error) {
	cmd := n.executor.Command(n.binPath,
		"--query-gpu=name,memory.total,memory.used,utilization.gpu",
		"--format=csv,noheader,nounits")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fault.MarkEnvironment(cerr.Field("nvidia_smi_output", string(output)).
			Wrap(err).Error("Failed to query nvidia-smi"))
	}

	devices := []Device{}
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		device, err := parseDeviceLine(line)
		if err != nil {
			return nil, fault.MarkEnvironment(cerr.Field("line", line).
				Wrap(err).Error("Failed to parse nvidia-smi output"))
		}

		devices = append(devices, device)
	}

	return devices, nil
}

// Select probes for an accelerator and picks the execution device.
// No accelerator is a warning and a CPU fallback, never a failure.
func Select(smi NvidiaSMI) separate.Device {
	devices, err := smi.Devices()
	if err != nil {
		cerr.Log(cerr.Wrap(err).Error("Accelerator probe failed, falling back to CPU execution"))
		log.Warn("No GPU found. Running on CPU. Processing may be slower")
		return separate.CPUDevice
	}

	if len(devices) == 0 {
		log.Warn("No GPU found. Running on CPU. Processing may be slower")
		return separate.CPUDevice
	}

	for i, device := range devices {
		log.WithFields(log.Fields{
			"index":           i,
			"name":            device.Name,
			"memory_total_mb": device.MemoryTotalMB,
			"memory_used_mb":  device.MemoryUsedMB,
		}).Info("GPU acceleration enabled")
	}

	return separate.CUDADevice
}

// LogUtilization snapshots device utilization around a separation run.
// Best effort, failures are swallowed.
func (n NvidiaSMI) LogUtilization(stage string) {
	devices, err := n.Devices()
	if err != nil {
		return
	}

	for i, device := range devices {
		log.WithFields(log.Fields{
			"stage":           stage,
			"index":           i,
			"utilization_pct": device.UtilizationPct,
			"memory_used_mb":  device.MemoryUsedMB,
		}).Info("GPU utilization")
	}
}

func parseDeviceLine(line string) (Device, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return Device{}, cerr.Field("num_fields", len(parts)).
			Error("Unexpected number of fields in device line")
	}

	memoryTotal, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Device{}, cerr.Wrap(err).Error("Unparseable total memory")
	}

	memoryUsed, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Device{}, cerr.Wrap(err).Error("Unparseable used memory")
	}

	utilization, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return Device{}, cerr.Wrap(err).Error("Unparseable utilization")
	}

	return Device{
		Name:           strings.TrimSpace(parts[0]),
		MemoryTotalMB:  memoryTotal,
		MemoryUsedMB:   memoryUsed,
		UtilizationPct: utilization,
	}, nil
}
