package extractor // import "code.cloudfoundry.org/veneer/extractor"

import (
	"archive/tar"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/removeall"
	"code.cloudfoundry.org/veneer/streamer"
	"github.com/containers/storage/pkg/archive"
	"github.com/containers/storage/pkg/pools"
	"github.com/containers/storage/pkg/system"
	securejoin "github.com/cyphar/filepath-securejoin"
	errorspkg "github.com/pkg/errors"
)

// Parent directories implied by an entry path but carried by no entry of
// their own are created with this mode, the way container runtimes do.
const impliedParentMode = 0755

type TarExtractor struct {
}

func NewTarExtractor() *TarExtractor {
	return &TarExtractor{}
}

// Extract materializes the layer tarball under the rootfs in a fresh pass
// over the archive. Whiteout markers and unsupported entry types (character
// and block devices, FIFOs) are skipped. A failure to materialize one entry
// is logged and extraction moves on; a broken archive stream aborts.
//
// The working directory is moved to the rootfs for the duration of the pass
// and restored afterward, error paths included.
func (e *TarExtractor) Extract(logger lager.Logger, tarPath, rootfsPath string) error {
	logger = logger.Session("extracting-layer", lager.Data{"tarPath": tarPath, "rootfsPath": rootfsPath})
	logger.Info("starting")
	defer logger.Info("ending")

	stream, err := streamer.Open(tarPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	// entry paths are resolved against the rootfs after the chdir below, so
	// it has to be absolute
	rootfsPath, err = filepath.Abs(rootfsPath)
	if err != nil {
		return errorspkg.Wrap(err, "resolving rootfs path")
	}

	previousWorkDir, err := os.Getwd()
	if err != nil {
		return errorspkg.Wrap(err, "reading working directory")
	}
	if err := os.Chdir(rootfsPath); err != nil {
		return errorspkg.Wrapf(err, "entering rootfs `%s`", rootfsPath)
	}
	defer func() {
		if err := os.Chdir(previousWorkDir); err != nil {
			logger.Error("restoring-working-directory-failed", err)
		}
	}()

	for {
		tarHeader, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		entryName := normalizeEntryName(tarHeader.Name)
		if skipEntry(entryName, tarHeader) {
			logger.Debug("skipping-entry", lager.Data{"entry": tarHeader.Name, "typeflag": tarHeader.Typeflag})
			continue
		}

		if err := e.materializeEntry(logger, rootfsPath, entryName, tarHeader, stream); err != nil {
			if streamer.IsCorrupt(err) {
				logger.Error("layer-stream-unreadable", err, lager.Data{"entry": entryName})
				return err
			}

			logger.Error("materializing-entry-failed", err, lager.Data{"entry": entryName})
		}
	}

	return nil
}

func skipEntry(entryName string, tarHeader *tar.Header) bool {
	if entryName == "" {
		return true
	}
	if strings.Contains(entryName, archive.WhiteoutPrefix) {
		return true
	}

	switch tarHeader.Typeflag {
	case tar.TypeChar, tar.TypeBlock, tar.TypeFifo, tar.TypeXGlobalHeader:
		return true
	}

	return false
}

func (e *TarExtractor) materializeEntry(logger lager.Logger, rootfsPath, entryName string, tarHeader *tar.Header, stream *streamer.LayerStream) error {
	parentDir, entryPath, err := resolveEntryPath(rootfsPath, entryName)
	if err != nil {
		return errorspkg.Wrapf(err, "resolving entry `%s`", entryName)
	}

	if err := os.MkdirAll(parentDir, impliedParentMode); err != nil {
		return errorspkg.Wrapf(err, "creating parent directories for `%s`", entryName)
	}

	switch tarHeader.Typeflag {
	case tar.TypeDir:
		return e.createDirectory(entryPath, tarHeader)

	case tar.TypeSymlink:
		return e.createSymlink(entryPath, tarHeader)

	case tar.TypeLink:
		return e.createLink(rootfsPath, entryPath, tarHeader)

	case tar.TypeReg, tar.TypeRegA:
		return e.createRegularFile(logger, entryPath, tarHeader, stream)

	default:
		logger.Debug("ignoring-entry-type", lager.Data{"entry": entryName, "typeflag": tarHeader.Typeflag})
		return nil
	}
}

func (e *TarExtractor) createDirectory(entryPath string, tarHeader *tar.Header) error {
	stat, err := os.Lstat(entryPath)
	if err == nil && !stat.IsDir() {
		if err := os.Remove(entryPath); err != nil {
			return errorspkg.Wrapf(err, "replacing `%s` with a directory", entryPath)
		}
	}
	if err != nil || !stat.IsDir() {
		if err := os.Mkdir(entryPath, tarHeader.FileInfo().Mode()); err != nil {
			return errorspkg.Wrapf(err, "creating directory `%s`", entryPath)
		}
	}

	if err := e.restoreMetadata(entryPath, tarHeader); err != nil {
		return err
	}

	// mkdir is subject to umask, and chown may clear setgid bits
	if err := os.Chmod(entryPath, tarHeader.FileInfo().Mode()); err != nil {
		return errorspkg.Wrapf(err, "chmoding directory `%s`", entryPath)
	}

	return changeModTime(entryPath, tarHeader.ModTime)
}

func (e *TarExtractor) createSymlink(entryPath string, tarHeader *tar.Header) error {
	if _, err := os.Lstat(entryPath); err == nil {
		if err := removeall.RemoveAll(entryPath); err != nil {
			return errorspkg.Wrapf(err, "removing existing `%s`", entryPath)
		}
	}

	if err := os.Symlink(tarHeader.Linkname, entryPath); err != nil {
		return errorspkg.Wrapf(err, "creating symlink `%s` -> `%s`", entryPath, tarHeader.Linkname)
	}

	if os.Getuid() == 0 {
		if err := os.Lchown(entryPath, tarHeader.Uid, tarHeader.Gid); err != nil {
			return errorspkg.Wrapf(err, "chowning symlink %d:%d `%s`", tarHeader.Uid, tarHeader.Gid, entryPath)
		}
	}

	return changeModTime(entryPath, tarHeader.ModTime)
}

func (e *TarExtractor) createLink(rootfsPath, entryPath string, tarHeader *tar.Header) error {
	targetPath, err := securejoin.SecureJoin(rootfsPath, normalizeEntryName(tarHeader.Linkname))
	if err != nil {
		return errorspkg.Wrapf(err, "resolving hardlink target `%s`", tarHeader.Linkname)
	}

	if _, err := os.Lstat(entryPath); err == nil {
		if err := removeall.RemoveAll(entryPath); err != nil {
			return errorspkg.Wrapf(err, "removing existing `%s`", entryPath)
		}
	}

	if err := os.Link(targetPath, entryPath); err != nil {
		return errorspkg.Wrapf(err, "creating hardlink `%s` -> `%s`", entryPath, targetPath)
	}

	return nil
}

func (e *TarExtractor) createRegularFile(logger lager.Logger, entryPath string, tarHeader *tar.Header, stream *streamer.LayerStream) error {
	if stat, err := os.Lstat(entryPath); err == nil && (stat.IsDir() || stat.Mode()&os.ModeSymlink != 0) {
		if err := removeall.RemoveAll(entryPath); err != nil {
			return errorspkg.Wrapf(err, "replacing `%s` with a regular file", entryPath)
		}
	}

	file, err := os.OpenFile(entryPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, tarHeader.FileInfo().Mode())
	if err != nil {
		return errorspkg.Wrapf(err, "creating file `%s`", entryPath)
	}

	if _, err := pools.Copy(file, stream); err != nil {
		file.Close()
		return errorspkg.Wrapf(err, "writing to file `%s`", entryPath)
	}

	if err := file.Close(); err != nil {
		return errorspkg.Wrapf(err, "closing file `%s`", entryPath)
	}

	if err := e.restoreMetadata(entryPath, tarHeader); err != nil {
		return err
	}

	// open is subject to umask, and chown may clear setuid bits
	if err := os.Chmod(entryPath, tarHeader.FileInfo().Mode()); err != nil {
		return errorspkg.Wrapf(err, "chmoding file `%s`", entryPath)
	}

	return changeModTime(entryPath, tarHeader.ModTime)
}

func (e *TarExtractor) restoreMetadata(entryPath string, tarHeader *tar.Header) error {
	if os.Getuid() == 0 {
		if err := os.Chown(entryPath, tarHeader.Uid, tarHeader.Gid); err != nil {
			return errorspkg.Wrapf(err, "chowning %d:%d `%s`", tarHeader.Uid, tarHeader.Gid, entryPath)
		}
	}

	// ACLs and similar metadata travel as xattrs
	for name, value := range tarHeader.Xattrs {
		if err := system.Lsetxattr(entryPath, name, []byte(value), 0); err != nil {
			return errorspkg.Wrapf(err, "restoring xattr `%s` on `%s`", name, entryPath)
		}
	}

	return nil
}

// resolveEntryPath confines the entry under the rootfs: the parent
// directory is resolved following symlinks within the rootfs only, and the
// final component is kept verbatim so existing symlinks at the destination
// are replaced rather than written through.
func resolveEntryPath(rootfsPath, entryName string) (string, string, error) {
	dir, base := path.Split(entryName)
	resolvedDir, err := securejoin.SecureJoin(rootfsPath, dir)
	if err != nil {
		return "", "", err
	}

	return resolvedDir, filepath.Join(resolvedDir, base), nil
}

// normalizeEntryName rebases the entry name onto "/" and back off it, so
// absolute names and `..` hops cannot climb out of the rootfs.
func normalizeEntryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
