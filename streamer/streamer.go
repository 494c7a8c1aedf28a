package streamer // import "code.cloudfoundry.org/veneer/streamer"

import (
	"archive/tar"
	"bufio"
	"io"
	"os"

	"github.com/containers/storage/pkg/archive"
	"github.com/opencontainers/go-digest"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"
	errorspkg "github.com/pkg/errors"
)

const peekSize = 10

// LayerStream is a single sequential pass over a layer tarball. The
// compression (gzip, bzip2, xz, zstd or none) is detected from the first
// bytes of the file and undone transparently; Next and Read operate on the
// decoded tar stream while Digest and Size account for the raw file bytes.
type LayerStream struct {
	file         *os.File
	digester     digest.Digester
	counter      *countingReader
	decompressed io.ReadCloser
	tarReader    *tar.Reader
	compression  archive.Compression
}

func Open(tarPath string) (*LayerStream, error) {
	file, err := os.Open(tarPath)
	if err != nil {
		return nil, errorspkg.Wrap(err, "opening layer")
	}

	digester := digest.SHA256.Digester()
	counter := &countingReader{reader: io.TeeReader(file, digester.Hash())}
	buffered := bufio.NewReader(counter)

	magic, err := buffered.Peek(peekSize)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, errorspkg.Wrap(err, "reading layer")
	}

	decompressed, err := archive.DecompressStream(buffered)
	if err != nil {
		file.Close()
		return nil, errorspkg.Wrap(err, "detecting layer compression")
	}

	return &LayerStream{
		file:         file,
		digester:     digester,
		counter:      counter,
		decompressed: decompressed,
		tarReader:    tar.NewReader(decompressed),
		compression:  archive.DetectCompression(magic),
	}, nil
}

// Next advances to the next tar entry. It returns io.EOF at the end of the
// archive; any other failure means the stream itself is broken and is
// reported as a CorruptArchiveErr.
func (s *LayerStream) Next() (*tar.Header, error) {
	tarHeader, err := s.tarReader.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, NewCorruptArchiveErr(errorspkg.Wrap(err, "reading tar entry"))
	}

	return tarHeader, nil
}

// Read reads the current entry's contents. Decoder failures surface as
// CorruptArchiveErr so callers can tell a broken stream from a failure to
// materialize an entry on disk.
func (s *LayerStream) Read(p []byte) (int, error) {
	n, err := s.tarReader.Read(p)
	if err != nil && err != io.EOF {
		return n, NewCorruptArchiveErr(err)
	}

	return n, err
}

// Drain consumes the rest of the raw file so that Digest and Size cover
// every byte of it, including anything after the tar trailer.
func (s *LayerStream) Drain() error {
	if _, err := io.Copy(io.Discard, s.counter); err != nil {
		return errorspkg.Wrap(err, "draining layer")
	}

	return nil
}

// Digest is the sha256 of the raw file bytes read so far. It identifies the
// whole layer only once the stream has been fully consumed or drained.
func (s *LayerStream) Digest() digest.Digest {
	return s.digester.Digest()
}

func (s *LayerStream) Size() int64 {
	return s.counter.count
}

func (s *LayerStream) MediaType() string {
	switch s.compression {
	case archive.Gzip:
		return specsv1.MediaTypeImageLayerGzip
	case archive.Zstd:
		return specsv1.MediaTypeImageLayerZstd
	case archive.Bzip2:
		return specsv1.MediaTypeImageLayer + "+bzip2"
	case archive.Xz:
		return specsv1.MediaTypeImageLayer + "+xz"
	default:
		return specsv1.MediaTypeImageLayer
	}
}

func (s *LayerStream) Close() error {
	decompressErr := s.decompressed.Close()
	if err := s.file.Close(); err != nil {
		return err
	}

	return decompressErr
}

type countingReader struct {
	reader io.Reader
	count  int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)
	return n, err
}
