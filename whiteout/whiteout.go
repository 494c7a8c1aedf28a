package whiteout // import "code.cloudfoundry.org/veneer/whiteout"

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/removeall"
	"code.cloudfoundry.org/veneer/streamer"
	"code.cloudfoundry.org/veneer/veneer"
	"github.com/containers/storage/pkg/archive"
	securejoin "github.com/cyphar/filepath-securejoin"
	errorspkg "github.com/pkg/errors"
)

type Applier struct {
}

func NewApplier() *Applier {
	return &Applier{}
}

// ApplyWhiteouts walks the layer tarball once and turns its AUFS markers
// into deletions under the rootfs: `.wh.<name>` deletes the sibling <name>,
// `.wh..wh..opq` deletes the directory containing the marker. Marker-less
// entries are left alone; nothing is written. The first deletion failure
// aborts the walk.
//
// An opaque marker removes the directory as found on disk when the marker
// arrives. Well-formed layers list opaque markers ahead of that directory's
// own content entries, and extraction runs strictly after this pass, so
// content delivered by the same layer is never deleted.
func (a *Applier) ApplyWhiteouts(logger lager.Logger, tarPath, rootfsPath string) (veneer.LayerInfo, error) {
	logger = logger.Session("applying-whiteouts", lager.Data{"tarPath": tarPath, "rootfsPath": rootfsPath})
	logger.Info("starting")
	defer logger.Info("ending")

	stream, err := streamer.Open(tarPath)
	if err != nil {
		return veneer.LayerInfo{}, err
	}
	defer stream.Close()

	for {
		tarHeader, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return veneer.LayerInfo{}, err
		}

		entryName := normalizeEntryName(tarHeader.Name)
		if entryName == "" {
			continue
		}
		base := path.Base(entryName)

		switch {
		case base == archive.WhiteoutOpaqueDir:
			if err := a.removeOpaqueDir(logger, rootfsPath, path.Dir(entryName)); err != nil {
				return veneer.LayerInfo{}, err
			}

		case strings.HasPrefix(base, archive.WhiteoutPrefix):
			name := strings.TrimPrefix(base, archive.WhiteoutPrefix)
			if name == "" {
				continue
			}
			if err := a.removeWhiteoutTarget(logger, rootfsPath, path.Join(path.Dir(entryName), name)); err != nil {
				return veneer.LayerInfo{}, err
			}
		}
	}

	if err := stream.Drain(); err != nil {
		return veneer.LayerInfo{}, err
	}

	return veneer.LayerInfo{
		Digest:    stream.Digest(),
		Size:      stream.Size(),
		MediaType: stream.MediaType(),
	}, nil
}

func (a *Applier) removeOpaqueDir(logger lager.Logger, rootfsPath, dir string) error {
	resolved, err := securejoin.SecureJoin(rootfsPath, dir)
	if err != nil {
		return errorspkg.Wrapf(err, "resolving opaque directory `%s`", dir)
	}

	stat, err := os.Lstat(resolved)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errorspkg.Wrapf(err, "checking opaque directory `%s`", resolved)
	}
	if !stat.IsDir() {
		return nil
	}

	logger.Debug("removing-opaque-directory", lager.Data{"path": resolved})
	if err := removeall.RemoveAll(resolved); err != nil {
		return errorspkg.Wrapf(err, "removing opaque directory `%s`", resolved)
	}

	return nil
}

func (a *Applier) removeWhiteoutTarget(logger lager.Logger, rootfsPath, target string) error {
	resolved, err := resolveSibling(rootfsPath, target)
	if err != nil {
		return errorspkg.Wrapf(err, "resolving whiteout target `%s`", target)
	}

	stat, err := os.Lstat(resolved)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errorspkg.Wrapf(err, "checking whiteout target `%s`", resolved)
	}

	logger.Debug("removing-whiteout-target", lager.Data{"path": resolved})
	if stat.IsDir() {
		if err := removeall.RemoveAll(resolved); err != nil {
			return errorspkg.Wrapf(err, "removing whiteout target `%s`", resolved)
		}
		return nil
	}

	if err := os.Remove(resolved); err != nil {
		return errorspkg.Wrapf(err, "removing whiteout target `%s`", resolved)
	}

	return nil
}

// normalizeEntryName rebases the tar entry name onto "/" and back off it,
// so absolute names and `..` hops cannot climb out of the rootfs.
func normalizeEntryName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// resolveSibling resolves the parent directory under the rootfs following
// any symlinks inside it, but keeps the final component as-is: a whiteout
// for a symlink has to delete the link, never what it points at.
func resolveSibling(rootfsPath, target string) (string, error) {
	dir, base := path.Split(target)
	resolvedDir, err := securejoin.SecureJoin(rootfsPath, dir)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedDir, base), nil
}
