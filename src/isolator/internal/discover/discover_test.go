package discover_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemtools/voice-isolator/src/isolator/internal/discover"
	"github.com/stemtools/voice-isolator/src/isolator/internal/fault"
	"github.com/stemtools/voice-isolator/src/isolator/internal/job"
)

var _ = Describe("Discover", func() {
	var audioDir string

	BeforeEach(func() {
		var err error
		audioDir, err = os.MkdirTemp("", "discover-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(audioDir)).To(Succeed())
	})

	writeFile := func(name string) {
		err := os.WriteFile(filepath.Join(audioDir, name), []byte("audio"), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("List", func() {
		BeforeEach(func() {
			writeFile("bside.mp3")
			writeFile("anthem.WAV")
			writeFile("chorale.flac")
			writeFile("drone.ogg")
		})

		It("returns eligible files in name order", func() {
			jobs, err := discover.List(audioDir)
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, j := range jobs {
				names = append(names, filepath.Base(j.InputPath))
			}

			Expect(names).To(Equal([]string{"anthem.WAV", "bside.mp3", "chorale.flac", "drone.ogg"}))
		})

		It("creates pending jobs with derived output paths", func() {
			jobs, err := discover.List(audioDir)
			Expect(err).NotTo(HaveOccurred())

			for _, j := range jobs {
				Expect(j.Status).To(Equal(job.PendingStatus))
				Expect(j.OutputPath).To(HavePrefix(audioDir))
				Expect(j.OutputPath).To(HaveSuffix("_isolated.wav"))
			}
		})

		Describe("with files that must be excluded", func() {
			BeforeEach(func() {
				writeFile("notes.txt")
				writeFile("cover.jpg")
				writeFile("voice_isolation.log")
				writeFile("isolator.yml")
				writeFile(".hidden.mp3")
				writeFile("anthem_isolated.wav")
				Expect(os.Mkdir(filepath.Join(audioDir, "subdir"), os.ModePerm)).To(Succeed())
			})

			It("excludes disallowed extensions, outputs, dotfiles and directories", func() {
				jobs, err := discover.List(audioDir)
				Expect(err).NotTo(HaveOccurred())

				names := []string{}
				for _, j := range jobs {
					names = append(names, filepath.Base(j.InputPath))
				}

				Expect(names).To(Equal([]string{"anthem.WAV", "bside.mp3", "chorale.flac", "drone.ogg"}))
			})

			It("is idempotent: outputs of a previous run are never inputs", func() {
				jobs, err := discover.List(audioDir)
				Expect(err).NotTo(HaveOccurred())

				for _, j := range jobs {
					Expect(filepath.Base(j.InputPath)).NotTo(ContainSubstring("_isolated"))
				}
			})
		})

		Describe("with a missing directory", func() {
			It("returns an input error", func() {
				_, err := discover.List(filepath.Join(audioDir, "nope"))
				Expect(err).To(HaveOccurred())
				Expect(fault.IsInput(err)).To(BeTrue())
			})
		})
	})

	Describe("Validate", func() {
		It("accepts an existing audio file", func() {
			writeFile("take1.mp3")
			Expect(discover.Validate(filepath.Join(audioDir, "take1.mp3"))).To(Succeed())
		})

		It("rejects a missing file with an input error", func() {
			err := discover.Validate(filepath.Join(audioDir, "ghost.mp3"))
			Expect(err).To(HaveOccurred())
			Expect(fault.IsInput(err)).To(BeTrue())
		})

		It("rejects a directory", func() {
			err := discover.Validate(audioDir)
			Expect(err).To(HaveOccurred())
			Expect(fault.IsInput(err)).To(BeTrue())
		})

		It("rejects an unsupported extension", func() {
			writeFile("notes.txt")
			err := discover.Validate(filepath.Join(audioDir, "notes.txt"))
			Expect(err).To(HaveOccurred())
			Expect(fault.IsInput(err)).To(BeTrue())
		})
	})

	Describe("Eligible", func() {
		It("accepts the allow-listed extensions case-insensitively", func() {
			Expect(discover.Eligible("a.mp3")).To(BeTrue())
			Expect(discover.Eligible("a.WAV")).To(BeTrue())
			Expect(discover.Eligible("a.FlAc")).To(BeTrue())
			Expect(discover.Eligible("a.ogg")).To(BeTrue())
		})

		It("rejects everything else", func() {
			Expect(discover.Eligible("a.aac")).To(BeFalse())
			Expect(discover.Eligible("a.txt")).To(BeFalse())
			Expect(discover.Eligible("a_isolated.wav")).To(BeFalse())
			Expect(discover.Eligible(".hidden.mp3")).To(BeFalse())
		})
	})
})
