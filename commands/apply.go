package commands // import "code.cloudfoundry.org/veneer/commands"

import (
	"encoding/json"
	"fmt"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/commands/config"
	"code.cloudfoundry.org/veneer/extractor"
	"code.cloudfoundry.org/veneer/metrics"
	"code.cloudfoundry.org/veneer/registry"
	"code.cloudfoundry.org/veneer/veneer"
	"code.cloudfoundry.org/veneer/whiteout"
	"github.com/opencontainers/go-digest"
	errorspkg "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var ApplyCommand = cli.Command{
	Name:        "apply",
	Usage:       "apply [options] <layer tarball>",
	Description: "Applies a layer tarball onto the rootfs, whiteouts first",

	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "rootfs",
			Usage: "Path to the rootfs directory receiving the layer",
		},
		&cli.StringFlag{
			Name:  "digest",
			Usage: "Expected digest of the layer tarball, e.g. sha256:...",
		},
	},

	Action: func(ctx *cli.Context) error {
		logger := ctx.App.Metadata["logger"].(lager.Logger)
		logger = logger.Session("apply")

		if ctx.NArg() != 1 {
			logger.Error("parsing-command", errorspkg.New("invalid arguments"), lager.Data{"args": ctx.Args()})
			return cli.Exit(fmt.Sprintf("invalid arguments - usage: %s", ctx.Command.Usage), 255)
		}
		tarPath := ctx.Args().First()

		configBuilder := ctx.App.Metadata["configBuilder"].(*config.Builder)
		cfg := configBuilder.Build()
		logger.Debug("applying", lager.Data{"currentConfig": cfg})

		metricsEmitter, err := metrics.NewEmitter(cfg.MetronEndpoint)
		if err != nil {
			logger.Error("creating-metrics-emitter-failed", err)
			return cli.Exit(err.Error(), 255)
		}
		newExitError := newErrorHandler(logger, metricsEmitter, "apply")

		rootfsPath := resolveRootfsPath(ctx, cfg)
		if rootfsPath == "" {
			err := errorspkg.New("rootfs was not specified")
			logger.Error("parsing-command", err)
			return newExitError(err.Error(), 255)
		}

		var expectedDigest digest.Digest
		if rawDigest := ctx.String("digest"); rawDigest != "" {
			expectedDigest, err = digest.Parse(rawDigest)
			if err != nil {
				logger.Error("parsing-command", err, lager.Data{"digest": rawDigest})
				return newExitError(fmt.Sprintf("invalid digest: %s", err), 255)
			}
		}

		applier := veneer.NewApplier(whiteout.NewApplier(), extractor.NewTarExtractor(), metricsEmitter)
		descriptor, err := applier.Apply(logger, veneer.ApplySpec{
			TarPath:        tarPath,
			RootfsPath:     rootfsPath,
			ExpectedDigest: expectedDigest,
		})
		if err != nil {
			logger.Error("applying-layer-failed", err)
			return newExitError(err.Error(), 255)
		}

		descriptorJSON, err := json.Marshal(descriptor)
		if err != nil {
			logger.Error("formatting-output", err)
			return newExitError(err.Error(), 255)
		}
		fmt.Println(string(descriptorJSON))
		metricsEmitter.TryIncrementRunCount(logger, "apply", nil)

		return nil
	},
}

// resolveRootfsPath picks the rootfs: command line flag first, then the
// runtime settings registry, then the config file.
func resolveRootfsPath(ctx *cli.Context, cfg config.Config) string {
	if rootfsPath := ctx.String("rootfs"); rootfsPath != "" {
		return rootfsPath
	}

	if rootfsPath := registry.New().Get(registry.RootfsSetting); rootfsPath != "" {
		return rootfsPath
	}

	return cfg.RootfsPath
}
