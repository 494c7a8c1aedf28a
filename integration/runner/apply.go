package runner

import (
	"encoding/json"

	"github.com/onsi/gomega/gexec"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"
	errorspkg "github.com/pkg/errors"
)

func (r Runner) StartApply(tarPath string) (*gexec.Session, error) {
	args := r.makeApplyArgs(tarPath)
	return r.StartSubcommand("apply", args...)
}

func (r Runner) Apply(tarPath string) (specsv1.Descriptor, error) {
	args := r.makeApplyArgs(tarPath)
	output, err := r.RunSubcommand("apply", args...)
	if err != nil {
		return specsv1.Descriptor{}, err
	}

	descriptor := specsv1.Descriptor{}
	if err := json.Unmarshal([]byte(output), &descriptor); err != nil {
		return specsv1.Descriptor{}, errorspkg.Wrap(err, "parsing layer descriptor")
	}

	return descriptor, nil
}

func (r Runner) makeApplyArgs(tarPath string) []string {
	args := []string{}
	if r.RootfsPath != "" {
		args = append(args, "--rootfs", r.RootfsPath)
	}
	if r.Digest != "" {
		args = append(args, "--digest", r.Digest)
	}

	args = append(args, tarPath)

	return args
}
