package veneer // import "code.cloudfoundry.org/veneer/veneer"

import (
	"os"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/opencontainers/go-digest"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"
	errorspkg "github.com/pkg/errors"
)

const MetricsWhiteoutTimeName = "WhiteoutTime"
const MetricsExtractTimeName = "ExtractTime"
const MetricsApplyTimeName = "ApplyTime"

//go:generate counterfeiter . WhiteoutApplier
//go:generate counterfeiter . LayerExtractor
//go:generate counterfeiter . MetricsEmitter

type ApplySpec struct {
	TarPath        string
	RootfsPath     string
	ExpectedDigest digest.Digest
}

// LayerInfo describes the applied layer blob: the sha256 of the raw (still
// compressed) file bytes, its size, and the OCI media type matching the
// detected compression.
type LayerInfo struct {
	Digest    digest.Digest
	Size      int64
	MediaType string
}

func (l LayerInfo) Descriptor() specsv1.Descriptor {
	return specsv1.Descriptor{
		MediaType: l.MediaType,
		Digest:    l.Digest,
		Size:      l.Size,
	}
}

type WhiteoutApplier interface {
	ApplyWhiteouts(logger lager.Logger, tarPath, rootfsPath string) (LayerInfo, error)
}

type LayerExtractor interface {
	Extract(logger lager.Logger, tarPath, rootfsPath string) error
}

type MetricsEmitter interface {
	TryEmitDurationFrom(logger lager.Logger, name string, from time.Time)
}

// Applier runs the two passes over the layer tarball: whiteout translation
// first, extraction second. Nothing is written to the rootfs until every
// deletion the layer requests has been carried out.
type Applier struct {
	whiteoutApplier WhiteoutApplier
	layerExtractor  LayerExtractor
	metricsEmitter  MetricsEmitter
}

func NewApplier(whiteoutApplier WhiteoutApplier, layerExtractor LayerExtractor, metricsEmitter MetricsEmitter) *Applier {
	return &Applier{
		whiteoutApplier: whiteoutApplier,
		layerExtractor:  layerExtractor,
		metricsEmitter:  metricsEmitter,
	}
}

func (a *Applier) Apply(logger lager.Logger, spec ApplySpec) (specsv1.Descriptor, error) {
	startTime := time.Now()
	logger = logger.Session("veneer-applying", lager.Data{"spec": spec})
	logger.Info("starting")
	defer logger.Info("ending")
	defer a.metricsEmitter.TryEmitDurationFrom(logger, MetricsApplyTimeName, startTime)

	if err := a.validateRootfs(spec.RootfsPath); err != nil {
		logger.Error("rootfs-validation-failed", err)
		return specsv1.Descriptor{}, err
	}

	if err := a.validateLayer(spec.TarPath); err != nil {
		logger.Error("layer-validation-failed", err)
		return specsv1.Descriptor{}, err
	}

	layerInfo, err := a.applyWhiteouts(logger, spec)
	if err != nil {
		return specsv1.Descriptor{}, err
	}
	logger.Debug("whiteouts-applied", lager.Data{"layerDigest": layerInfo.Digest.String(), "layerSize": layerInfo.Size})

	if err := a.checkLayerDigest(logger, spec, layerInfo); err != nil {
		return specsv1.Descriptor{}, err
	}

	if err := a.extractLayer(logger, spec); err != nil {
		return specsv1.Descriptor{}, err
	}

	return layerInfo.Descriptor(), nil
}

func (a *Applier) validateRootfs(rootfsPath string) error {
	stat, err := os.Stat(rootfsPath)
	if err != nil {
		return NewInvalidRootfsErr(errorspkg.Errorf("rootfs not found in `%s`: %s", rootfsPath, err))
	}

	if !stat.IsDir() {
		return NewInvalidRootfsErr(errorspkg.Errorf("rootfs `%s` is not a directory", rootfsPath))
	}

	return nil
}

func (a *Applier) validateLayer(tarPath string) error {
	stat, err := os.Stat(tarPath)
	if err != nil {
		return NewInvalidLayerErr(errorspkg.Errorf("layer not found in `%s`: %s", tarPath, err))
	}

	if stat.IsDir() {
		return NewInvalidLayerErr(errorspkg.New("directory provided instead of a tar file"))
	}

	return nil
}

func (a *Applier) applyWhiteouts(logger lager.Logger, spec ApplySpec) (LayerInfo, error) {
	defer a.metricsEmitter.TryEmitDurationFrom(logger, MetricsWhiteoutTimeName, time.Now())

	layerInfo, err := a.whiteoutApplier.ApplyWhiteouts(logger, spec.TarPath, spec.RootfsPath)
	if err != nil {
		return LayerInfo{}, errorspkg.Wrap(err, "applying whiteouts")
	}

	return layerInfo, nil
}

func (a *Applier) checkLayerDigest(logger lager.Logger, spec ApplySpec, layerInfo LayerInfo) error {
	if spec.ExpectedDigest == "" || spec.ExpectedDigest == layerInfo.Digest {
		return nil
	}

	err := NewLayerCorruptedErr(errorspkg.Errorf("layer digest `%s` does not match expected digest `%s`", layerInfo.Digest, spec.ExpectedDigest))
	logger.Error("layer-digest-check-failed", err, lager.Data{
		"expectedDigest": spec.ExpectedDigest.String(),
		"layerDigest":    layerInfo.Digest.String(),
	})
	return err
}

func (a *Applier) extractLayer(logger lager.Logger, spec ApplySpec) error {
	defer a.metricsEmitter.TryEmitDurationFrom(logger, MetricsExtractTimeName, time.Now())

	if err := a.layerExtractor.Extract(logger, spec.TarPath, spec.RootfsPath); err != nil {
		return errorspkg.Wrap(err, "extracting layer")
	}

	return nil
}
