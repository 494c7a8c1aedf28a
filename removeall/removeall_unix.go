package removeall

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// RemoveAll deletes the named path and everything below it. It differs from
// os.RemoveAll in that it walks the tree through directory file descriptors:
// deletion keeps working on trees deeper than PATH_MAX, and symlinks planted
// inside the tree are unlinked, never followed. A missing path is a no-op.
func RemoveAll(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if path == string(filepath.Separator) {
		return &os.PathError{Op: "removeall", Path: path, Err: unix.EPERM}
	}

	parent, err := os.Open(filepath.Dir(path))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer parent.Close()

	return unlinkRecursive(parent, filepath.Base(path))
}

func unlinkRecursive(parent *os.File, name string) error {
	parentFd := int(parent.Fd())

	err := unix.Unlinkat(parentFd, name, 0)
	if err == nil || err == unix.ENOENT {
		return nil
	}
	if err != unix.EISDIR && err != unix.EPERM {
		return &os.PathError{Op: "unlinkat", Path: name, Err: err}
	}

	// EISDIR, or EPERM from a sticky parent. Retry as a directory;
	// O_NOFOLLOW keeps the walk from being redirected elsewhere.
	fd, err := unix.Openat(parentFd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err == unix.ENOENT {
		return nil
	}
	if err != nil {
		return &os.PathError{Op: "openat", Path: name, Err: err}
	}

	dir := os.NewFile(uintptr(fd), name)
	recurseErr := emptyDirectory(dir)
	dir.Close()

	unlinkErr := unix.Unlinkat(parentFd, name, unix.AT_REMOVEDIR)
	if unlinkErr == nil || unlinkErr == unix.ENOENT {
		return nil
	}
	if recurseErr != nil {
		return recurseErr
	}
	return &os.PathError{Op: "rmdir", Path: name, Err: unlinkErr}
}

func emptyDirectory(dir *os.File) error {
	for {
		names, readErr := dir.Readdirnames(512)

		for _, name := range names {
			if err := unlinkRecursive(dir, name); err != nil {
				return err
			}
		}

		if readErr == io.EOF || (readErr == nil && len(names) == 0) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
