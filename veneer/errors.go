package veneer // import "code.cloudfoundry.org/veneer/veneer"

type InvalidRootfsErr struct {
	error
}

type InvalidLayerErr struct {
	error
}

type LayerCorruptedErr struct {
	error
}

func NewInvalidRootfsErr(err error) error {
	return &InvalidRootfsErr{err}
}

func NewInvalidLayerErr(err error) error {
	return &InvalidLayerErr{err}
}

func NewLayerCorruptedErr(err error) error {
	return &LayerCorruptedErr{err}
}
