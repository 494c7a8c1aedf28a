//go:build linux
// +build linux

package extractor

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// changeModTime restores the modification time without following symlinks,
// leaving the access time untouched.
func changeModTime(path string, modTime time.Time) error {
	if modTime.IsZero() {
		return nil
	}

	ts := []unix.Timespec{
		{Sec: 0, Nsec: unix.UTIME_OMIT},
		unix.NsecToTimespec(modTime.UnixNano()),
	}

	err := unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, unix.AT_SYMLINK_NOFOLLOW)
	if err == unix.ENOSYS {
		return os.Chtimes(path, time.Now(), modTime)
	}

	return err
}
