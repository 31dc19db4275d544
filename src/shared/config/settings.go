package config

import (
	"os"
	"path/filepath"

	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
	"gopkg.in/yaml.v3"
)

// SettingsFileName is looked up inside the shared audio directory.
// The file is optional - defaults apply when it's absent.
const SettingsFileName = "isolator.yml"

type Settings struct {
	Engine         string  `yaml:"engine"`
	SpleeterModel  string  `yaml:"spleeter_model"`
	SegmentSeconds float64 `yaml:"segment_seconds"`
	OverlapSeconds float64 `yaml:"overlap_seconds"`
	SampleRate     int     `yaml:"sample_rate"`
	MeasurePerf    bool    `yaml:"measure_perf"`
}

func DefaultSettings() Settings {
	return Settings{
		Engine:         "spleeter",
		SpleeterModel:  "spleeter:2stems",
		SegmentSeconds: 600,
		OverlapSeconds: 5,
		SampleRate:     44100,
		MeasurePerf:    false,
	}
}

// LoadSettings reads the optional settings file from the audio directory,
// layering its values over the defaults. Missing file is not an error.
func LoadSettings(audioDirPath string) (Settings, error) {
	settings := DefaultSettings()

	settingsPath := filepath.Join(audioDirPath, SettingsFileName)
	contents, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}

		return Settings{}, cerr.Field("settings_path", settingsPath).
			Wrap(err).Error("Failed to read settings file")
	}

	if err := yaml.Unmarshal(contents, &settings); err != nil {
		return Settings{}, cerr.Field("settings_path", settingsPath).
			Wrap(err).Error("Failed to parse settings file")
	}

	if settings.SegmentSeconds <= settings.OverlapSeconds {
		return Settings{}, cerr.Fields(cerr.F{
			"segment_seconds": settings.SegmentSeconds,
			"overlap_seconds": settings.OverlapSeconds,
		}).Error("Segment length must exceed the overlap")
	}

	return settings, nil
}
