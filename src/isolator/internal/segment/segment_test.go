package segment_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemtools/voice-isolator/src/isolator/internal/integration_test/dummy"
	"github.com/stemtools/voice-isolator/src/isolator/internal/segment"
)

var _ = Describe("Segmenter", func() {
	var (
		workDir       string
		dummyExecutor *dummy.Executor
		segmenter     segment.Segmenter
	)

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "segment-test-*")
		Expect(err).NotTo(HaveOccurred())

		dummyExecutor = dummy.NewExecutor()
		segmenter = segment.NewSegmenter("ffmpeg", "ffprobe", dummyExecutor, 600, 5, 44100)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
	})

	writeInput := func(name string) string {
		path := filepath.Join(workDir, name)
		Expect(os.WriteFile(path, []byte("audio"), 0644)).To(Succeed())
		return path
	}

	Describe("Count", func() {
		It("covers short durations with one segment", func() {
			Expect(segment.Count(599, 600, 5)).To(Equal(1))
			Expect(segment.Count(600, 600, 5)).To(Equal(1))
		})

		It("accounts for the overlap between consecutive segments", func() {
			// 1200s of audio / (600s - 5s overlap) steps
			Expect(segment.Count(1200, 600, 5)).To(Equal(3))
			Expect(segment.Count(605, 600, 5)).To(Equal(2))
			Expect(segment.Count(1190, 600, 5)).To(Equal(2))
		})
	})

	Describe("Duration", func() {
		It("parses the ffprobe output", func() {
			inputPath := writeInput("take1.mp3")
			dummyExecutor.Durations["take1.mp3"] = 123.5

			duration, err := segmenter.Duration(inputPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(duration).To(BeNumerically("~", 123.5, 0.001))
		})

		It("fails when ffprobe can't read the file", func() {
			inputPath := writeInput("take1.mp3")
			dummyExecutor.FailingInputs["take1.mp3"] = true

			_, err := segmenter.Duration(inputPath)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Split", func() {
		var segmentsDir string

		BeforeEach(func() {
			segmentsDir = filepath.Join(workDir, "segments")
			Expect(os.MkdirAll(segmentsDir, os.ModePerm)).To(Succeed())
		})

		Describe("long input", func() {
			It("extracts overlapping segments", func() {
				inputPath := writeInput("long.wav")
				dummyExecutor.Durations["long.wav"] = 1200

				segments, err := segmenter.Split(context.Background(), inputPath, segmentsDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(segments).To(HaveLen(3))

				for _, segmentPath := range segments {
					Expect(segmentPath).To(BeAnExistingFile())
				}

				// 1 ffprobe + 3 ffmpeg extractions
				Expect(dummyExecutor.Invocations).To(HaveLen(4))
			})
		})
	})

	Describe("ConvertToWAV", func() {
		It("re-encodes at the standard sample rate", func() {
			inputPath := writeInput("take1.mp3")
			outputPath := filepath.Join(workDir, "take1.wav")

			Expect(segmenter.ConvertToWAV(context.Background(), inputPath, outputPath)).To(Succeed())
			Expect(outputPath).To(BeAnExistingFile())

			Expect(dummyExecutor.Invocations).To(HaveLen(1))
			Expect(dummyExecutor.Invocations[0]).To(ContainElement("-ar"))
			Expect(dummyExecutor.Invocations[0]).To(ContainElement("44100"))
		})

		It("fails on an unreadable input", func() {
			inputPath := writeInput("take1.mp3")
			dummyExecutor.FailingInputs["take1.mp3"] = true

			err := segmenter.ConvertToWAV(context.Background(), inputPath, filepath.Join(workDir, "take1.wav"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Merge", func() {
		It("moves a single segment into place", func() {
			vocalPath := writeInput("vocals_000.wav")
			outputPath := filepath.Join(workDir, "final.wav")

			Expect(segmenter.Merge(context.Background(), []string{vocalPath}, outputPath)).To(Succeed())
			Expect(outputPath).To(BeAnExistingFile())
			Expect(dummyExecutor.Invocations).To(BeEmpty())
		})

		It("crossfades multiple segments", func() {
			first := writeInput("vocals_000.wav")
			second := writeInput("vocals_001.wav")
			outputPath := filepath.Join(workDir, "final.wav")

			Expect(segmenter.Merge(context.Background(), []string{first, second}, outputPath)).To(Succeed())
			Expect(outputPath).To(BeAnExistingFile())

			Expect(dummyExecutor.Invocations).To(HaveLen(1))
			Expect(dummyExecutor.Invocations[0]).To(ContainElement("-filter_complex"))
		})

		It("falls back to simple concatenation when the crossfade fails", func() {
			first := writeInput("vocals_000.wav")
			second := writeInput("vocals_001.wav")
			outputPath := filepath.Join(workDir, "final.wav")
			dummyExecutor.FailCrossfade = true

			Expect(segmenter.Merge(context.Background(), []string{first, second}, outputPath)).To(Succeed())

			contents, err := os.ReadFile(outputPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("concatenated merge"))

			Expect(dummyExecutor.Invocations).To(HaveLen(2))
			Expect(dummyExecutor.Invocations[0]).To(ContainElement("-filter_complex"))
			Expect(dummyExecutor.Invocations[1]).To(ContainElement("copy"))

			// the concat list is a scratch file, it must not linger
			Expect(outputPath + "_concat_list.txt").NotTo(BeAnExistingFile())
		})

		It("errors with no segments", func() {
			Expect(segmenter.Merge(context.Background(), nil, filepath.Join(workDir, "final.wav"))).NotTo(Succeed())
		})
	})
})

var _ = Describe("SegmentedSeparator", func() {
	var (
		workDir        string
		audioDir       string
		dummyExecutor  *dummy.Executor
		innerSeparator *dummy.Separator
		separator      segment.SegmentedSeparator
	)

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "segmented-wd-*")
		Expect(err).NotTo(HaveOccurred())

		audioDir, err = os.MkdirTemp("", "segmented-audio-*")
		Expect(err).NotTo(HaveOccurred())

		dummyExecutor = dummy.NewExecutor()
		innerSeparator = dummy.NewSeparator()

		segmenter := segment.NewSegmenter("ffmpeg", "ffprobe", dummyExecutor, 600, 5, 44100)
		separator, err = segment.NewSegmentedSeparator(innerSeparator, segmenter, workDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
		Expect(os.RemoveAll(audioDir)).To(Succeed())
	})

	writeInput := func(name string, durationSeconds float64) string {
		path := filepath.Join(audioDir, name)
		Expect(os.WriteFile(path, []byte("audio"), 0644)).To(Succeed())
		dummyExecutor.Durations[name] = durationSeconds
		return path
	}

	Describe("short input", func() {
		It("separates a WAV directly without segmentation", func() {
			inputPath := writeInput("short.wav", 90)
			outputPath := filepath.Join(audioDir, "short_isolated.wav")

			Expect(separator.Separate(context.Background(), inputPath, outputPath)).To(Succeed())
			Expect(innerSeparator.SeparatedPaths).To(Equal([]string{inputPath}))
			Expect(outputPath).To(BeAnExistingFile())
		})

		It("converts a non-WAV input before separating", func() {
			inputPath := writeInput("short.mp3", 90)
			outputPath := filepath.Join(audioDir, "short_isolated.wav")

			Expect(separator.Separate(context.Background(), inputPath, outputPath)).To(Succeed())

			Expect(innerSeparator.SeparatedPaths).To(HaveLen(1))
			Expect(filepath.Base(innerSeparator.SeparatedPaths[0])).To(Equal("converted.wav"))
			Expect(outputPath).To(BeAnExistingFile())

			// the conversion scratch dir must not outlive the job
			dirEntries, err := os.ReadDir(workDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dirEntries).To(BeEmpty())
		})
	})

	Describe("long input", func() {
		It("separates each segment and merges the results", func() {
			inputPath := writeInput("long.wav", 1200)
			outputPath := filepath.Join(audioDir, "long_isolated.wav")

			Expect(separator.Separate(context.Background(), inputPath, outputPath)).To(Succeed())
			Expect(innerSeparator.SeparatedPaths).To(HaveLen(3))
			Expect(outputPath).To(BeAnExistingFile())
		})

		It("survives one bad segment and merges the rest", func() {
			inputPath := writeInput("long.wav", 1200)
			outputPath := filepath.Join(audioDir, "long_isolated.wav")
			innerSeparator.FailingInputs["segment_001.wav"] = true

			Expect(separator.Separate(context.Background(), inputPath, outputPath)).To(Succeed())
			Expect(innerSeparator.SeparatedPaths).To(HaveLen(2))
			Expect(outputPath).To(BeAnExistingFile())
		})

		It("fails when every segment fails", func() {
			inputPath := writeInput("long.wav", 1200)
			outputPath := filepath.Join(audioDir, "long_isolated.wav")
			innerSeparator.FailingInputs["segment_000.wav"] = true
			innerSeparator.FailingInputs["segment_001.wav"] = true
			innerSeparator.FailingInputs["segment_002.wav"] = true

			err := separator.Separate(context.Background(), inputPath, outputPath)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("unprobeable input", func() {
		It("falls back to direct separation", func() {
			inputPath := writeInput("weird.ogg", 0)
			dummyExecutor.FailingInputs["weird.ogg"] = true
			outputPath := filepath.Join(audioDir, "weird_isolated.wav")

			Expect(separator.Separate(context.Background(), inputPath, outputPath)).To(Succeed())
			Expect(innerSeparator.SeparatedPaths).To(Equal([]string{inputPath}))
		})
	})
})
