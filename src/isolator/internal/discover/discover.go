package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/shared/lib/cerr"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// List enumerates the eligible audio files in a directory, in name order,
// as pending jobs. Files that are already outputs of a previous run are
// skipped, which makes re-running a batch idempotent.
func List(dirPath string) ([]job.AudioJob, error) {
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fault.MarkInput(cerr.Field("dir", dirPath).
			Wrap(err).Error("Failed to read the audio directory"))
	}

	names := []string{}
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}

		if Eligible(dirEntry.Name()) {
			names = append(names, dirEntry.Name())
		}
	}

	sort.Strings(names)

	jobs := make([]job.AudioJob, 0, len(names))
	for _, name := range names {
		jobs = append(jobs, job.New(filepath.Join(dirPath, name)))
	}

	return jobs, nil
}

// Validate checks a single user-supplied path the way List filters
// directory entries: the file must exist, be regular, and carry a
// supported audio extension.
func Validate(filePath string) error {
	errctx := cerr.Field("file_path", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		return fault.MarkInput(errctx.Wrap(err).Error("File does not exist"))
	}

	if info.IsDir() {
		return fault.MarkInput(errctx.Error("Path is a directory, not an audio file"))
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if !allowedExtensions[ext] {
		return fault.MarkInput(errctx.Field("extension", ext).
			Error("Unsupported file format. Use MP3, WAV, FLAC, or OGG"))
	}

	return nil
}

// Eligible reports whether a file name is an input candidate.
func Eligible(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return false
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return !strings.HasSuffix(stem, job.OutputSuffix)
}
