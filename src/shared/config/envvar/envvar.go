package envvar

import (
	"os"
)

const (
	AUDIO_DIR_PATH      = "AUDIO_DIR_PATH"
	WORKING_DIR_PATH    = "WORKING_DIR_PATH"
	SPLEETER_BIN_PATH   = "SPLEETER_BIN_PATH"
	DEMUCS_BIN_PATH     = "DEMUCS_BIN_PATH"
	FFMPEG_BIN_PATH     = "FFMPEG_BIN_PATH"
	FFPROBE_BIN_PATH    = "FFPROBE_BIN_PATH"
	NVIDIA_SMI_BIN_PATH = "NVIDIA_SMI_BIN_PATH"
)

// GetOrDefault reads an env var, treating unset and empty the same.
// Every binary path and directory has a sensible container default, so
// nothing here is required.
func GetOrDefault(key string, defaultVal string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return defaultVal
	}

	return val
}
