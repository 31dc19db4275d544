package separate

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MoveFile", func() {
	var (
		dir      string
		fromPath string
		toPath   string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "move-file-test-*")
		Expect(err).NotTo(HaveOccurred())

		fromPath = filepath.Join(dir, "vocals.wav")
		toPath = filepath.Join(dir, "take1_isolated.wav")
		Expect(os.WriteFile(fromPath, []byte("vocal stem"), 0644)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("moves by rename when the paths share a filesystem", func() {
		Expect(MoveFile(fromPath, toPath)).To(Succeed())

		contents, err := os.ReadFile(toPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(contents)).To(Equal("vocal stem"))

		_, err = os.Stat(fromPath)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	Describe("when the paths sit on different mounts", func() {
		BeforeEach(func() {
			renameFile = func(string, string) error {
				return errors.New("invalid cross-device link")
			}
		})

		AfterEach(func() {
			renameFile = os.Rename
		})

		It("copies the contents and removes the source", func() {
			Expect(MoveFile(fromPath, toPath)).To(Succeed())

			contents, err := os.ReadFile(toPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(contents)).To(Equal("vocal stem"))

			_, err = os.Stat(fromPath)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("errors when the source is gone", func() {
			Expect(os.Remove(fromPath)).To(Succeed())

			Expect(MoveFile(fromPath, toPath)).NotTo(Succeed())
		})
	})
})
