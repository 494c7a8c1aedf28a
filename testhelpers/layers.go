package testhelpers

import (
	"archive/tar"
	"io"
	"os"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// DefaultModTime stamps every tarball entry that doesn't set its own
// ModTime, so tests can assert on restored timestamps.
var DefaultModTime = time.Date(2023, time.April, 5, 10, 30, 0, 0, time.UTC)

type TarEntry interface {
	Tar(tw *tar.Writer) error
}

// Tarball builds layer tarballs in memory, entry order preserved.
type Tarball []TarEntry

func (t Tarball) Write(writer io.Writer) error {
	tarWriter := tar.NewWriter(writer)
	for _, entry := range t {
		if err := entry.Tar(tarWriter); err != nil {
			return err
		}
	}

	return tarWriter.Close()
}

func (t Tarball) WriteFile(tarPath string) error {
	return t.writeThrough(tarPath, func(w io.Writer) (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	})
}

func (t Tarball) WriteGzipFile(tarPath string) error {
	return t.writeThrough(tarPath, func(w io.Writer) (io.WriteCloser, error) {
		return pgzip.NewWriter(w), nil
	})
}

func (t Tarball) WriteXzFile(tarPath string) error {
	return t.writeThrough(tarPath, func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	})
}

func (t Tarball) WriteZstdFile(tarPath string) error {
	return t.writeThrough(tarPath, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

func (t Tarball) writeThrough(tarPath string, wrap func(io.Writer) (io.WriteCloser, error)) error {
	file, err := os.Create(tarPath)
	if err != nil {
		return err
	}
	defer file.Close()

	compressor, err := wrap(file)
	if err != nil {
		return err
	}

	if err := t.Write(compressor); err != nil {
		return err
	}

	return compressor.Close()
}

type Dir struct {
	Name    string
	Mode    int64
	Uid     int
	Gid     int
	ModTime time.Time
}

func (d Dir) Tar(tw *tar.Writer) error {
	mode := d.Mode
	if mode == 0 {
		mode = 0755
	}

	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     d.Name + "/",
		Mode:     mode,
		Uid:      d.Uid,
		Gid:      d.Gid,
		ModTime:  modTimeOrDefault(d.ModTime),
	})
}

type File struct {
	Name     string
	Contents string
	Mode     int64
	Uid      int
	Gid      int
	Xattrs   map[string]string
	ModTime  time.Time
}

func (f File) Tar(tw *tar.Writer) error {
	mode := f.Mode
	if mode == 0 {
		mode = 0644
	}

	err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     f.Name,
		Mode:     mode,
		Uid:      f.Uid,
		Gid:      f.Gid,
		Xattrs:   f.Xattrs,
		Size:     int64(len(f.Contents)),
		ModTime:  modTimeOrDefault(f.ModTime),
	})
	if err != nil {
		return err
	}

	_, err = tw.Write([]byte(f.Contents))
	return err
}

type Symlink struct {
	Name    string
	Target  string
	ModTime time.Time
}

func (s Symlink) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeSymlink,
		Name:     s.Name,
		Linkname: s.Target,
		Mode:     0777,
		ModTime:  modTimeOrDefault(s.ModTime),
	})
}

type Hardlink struct {
	Name   string
	Target string
}

func (h Hardlink) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeLink,
		Name:     h.Name,
		Linkname: h.Target,
		Mode:     0644,
		ModTime:  DefaultModTime,
	})
}

type CharDevice struct {
	Name string
}

func (d CharDevice) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeChar,
		Name:     d.Name,
		Mode:     0666,
		Devmajor: 1,
		Devminor: 3,
		ModTime:  DefaultModTime,
	})
}

type BlockDevice struct {
	Name string
}

func (d BlockDevice) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeBlock,
		Name:     d.Name,
		Mode:     0666,
		Devmajor: 7,
		Devminor: 0,
		ModTime:  DefaultModTime,
	})
}

type Fifo struct {
	Name string
}

func (f Fifo) Tar(tw *tar.Writer) error {
	return tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeFifo,
		Name:     f.Name,
		Mode:     0644,
		ModTime:  DefaultModTime,
	})
}

// Whiteout marks Path as deleted: it tars up as an empty `.wh.<base>` file
// next to the named path.
type Whiteout struct {
	Path string
}

func (w Whiteout) Tar(tw *tar.Writer) error {
	name := path.Join(path.Dir(w.Path), ".wh."+path.Base(w.Path))
	return File{Name: name, Mode: 0600}.Tar(tw)
}

// OpaqueWhiteout marks Dir as opaque: it tars up as `<dir>/.wh..wh..opq`.
type OpaqueWhiteout struct {
	Dir string
}

func (o OpaqueWhiteout) Tar(tw *tar.Writer) error {
	return File{Name: path.Join(o.Dir, ".wh..wh..opq"), Mode: 0600}.Tar(tw)
}

func modTimeOrDefault(modTime time.Time) time.Time {
	if modTime.IsZero() {
		return DefaultModTime
	}
	return modTime
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
