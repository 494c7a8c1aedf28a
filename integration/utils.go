package integration

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/opencontainers/go-digest"

	. "github.com/onsi/gomega"
)

func WriteRootfsFile(rootfsPath, relPath, contents string) {
	fullPath := filepath.Join(rootfsPath, relPath)
	Expect(os.MkdirAll(filepath.Dir(fullPath), 0755)).To(Succeed())
	Expect(os.WriteFile(fullPath, []byte(contents), 0644)).To(Succeed())
}

func ReadRootfsFile(rootfsPath, relPath string) string {
	contents, err := os.ReadFile(filepath.Join(rootfsPath, relPath))
	Expect(err).NotTo(HaveOccurred())
	return string(contents)
}

// ListRootfs returns every path under the rootfs, relative and sorted, so
// tests can compare the whole tree before and after an apply.
func ListRootfs(rootfsPath string) []string {
	entries := []string{}
	err := filepath.WalkDir(rootfsPath, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == rootfsPath {
			return nil
		}

		relPath, err := filepath.Rel(rootfsPath, path)
		if err != nil {
			return err
		}
		entries = append(entries, relPath)
		return nil
	})
	Expect(err).NotTo(HaveOccurred())

	sort.Strings(entries)
	return entries
}

// LayerDigest is the sha256 of the layer file as it sits on disk, compressed
// or not.
func LayerDigest(tarPath string) digest.Digest {
	contents, err := os.ReadFile(tarPath)
	Expect(err).NotTo(HaveOccurred())
	return digest.FromBytes(contents)
}
