package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/stemtools/voice-isolator/src/isolator/internal/batch"
	"github.com/stemtools/voice-isolator/src/isolator/internal/discover"
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
	"github.com/stemtools/voice-isolator/src/isolator/internal/runlog"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . JobRunner
type JobRunner interface {
	Run(ctx context.Context, jobs []job.AudioJob) batch.Result
}

// Session drives the interactive mode: prompt for a path, isolate it,
// offer to go again. Reader and writer are injected so that tests can
// script a whole conversation.
type Session struct {
	scanner *bufio.Scanner
	out     io.Writer
	runner  JobRunner
}

func NewSession(in io.Reader, out io.Writer, runner JobRunner) Session {
	return Session{
		scanner: bufio.NewScanner(in),
		out:     out,
		runner:  runner,
	}
}

// Run loops until the operator quits, returning the count of failed jobs
// so that the caller can derive the exit code.
func (s Session) Run(ctx context.Context) int {
	s.printBanner()

	failed := 0

	for {
		if ctx.Err() != nil {
			return failed
		}

		inputPath, ok := s.ask("\nEnter the audio file path (or 'exit' to quit): ")
		if !ok || strings.EqualFold(inputPath, "exit") {
			fmt.Fprintln(s.out, "Exiting the tool. Goodbye!")
			return failed
		}

		if err := discover.Validate(inputPath); err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err.Error())
			continue
		}

		result := s.runner.Run(ctx, []job.AudioJob{job.New(inputPath)})
		failed += result.Failed

		again, ok := s.ask("\nProcess another file? (y/n): ")
		if !ok || !strings.EqualFold(again, "y") {
			fmt.Fprintln(s.out, "Exiting the tool. Goodbye!")
			return failed
		}
	}
}

func (s Session) ask(question string) (string, bool) {
	fmt.Fprint(s.out, question)

	if !s.scanner.Scan() {
		return "", false
	}

	return strings.TrimSpace(s.scanner.Text()), true
}

func (s Session) printBanner() {
	fmt.Fprintln(s.out, "=== Voice Isolation Tool ===")
	fmt.Fprintln(s.out, "This tool isolates vocals from an audio file, removing background noise.")
	fmt.Fprintln(s.out, "")
	fmt.Fprintln(s.out, "Instructions:")
	fmt.Fprintln(s.out, "- Enter the full path to your audio file (e.g., /audio/interview.mp3).")
	fmt.Fprintln(s.out, "- Make sure your audio files are in the directory that's mounted to the container.")
	fmt.Fprintf(s.out, "- Output will be saved as '<filename>%s.wav' in the same directory.\n", job.OutputSuffix)
	fmt.Fprintf(s.out, "- Logs are appended to '%s' in the same directory.\n", runlog.LogFileName)
	fmt.Fprintln(s.out, "")
	fmt.Fprintln(s.out, "Type 'exit' to quit at any time.")
}
