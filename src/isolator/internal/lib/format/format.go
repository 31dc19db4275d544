package format

import (
	"fmt"
	"os"
	"time"
)

// Duration renders a wall-clock duration as "1h 2m 3s", dropping the
// leading units when they're zero.
func Duration(d time.Duration) string {
	totalSecs := int(d.Seconds())

	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

func SizeMB(sizeBytes int64) float64 {
	return float64(sizeBytes) / (1024 * 1024)
}

// FileSizeMB returns the size of a file in megabytes, or 0 when the
// file can't be statted. Size is informational only.
func FileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}

	return SizeMB(info.Size())
}
