//go:build !linux
// +build !linux

package extractor

import (
	"os"
	"time"
)

func changeModTime(path string, modTime time.Time) error {
	if modTime.IsZero() {
		return nil
	}

	return os.Chtimes(path, time.Now(), modTime)
}
