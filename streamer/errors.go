package streamer // import "code.cloudfoundry.org/veneer/streamer"

// CorruptArchiveErr marks failures produced by the tar decoder or the
// decompressor, as opposed to failures materializing an entry on disk.
// Callers treat corrupt streams as fatal and entry failures as skippable.
type CorruptArchiveErr struct {
	error
}

func NewCorruptArchiveErr(err error) error {
	return &CorruptArchiveErr{err}
}

func IsCorrupt(err error) bool {
	for err != nil {
		if _, ok := err.(*CorruptArchiveErr); ok {
			return true
		}

		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}

	return false
}
