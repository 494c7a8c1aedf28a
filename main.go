package main

import (
	"os"
	"strings"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/commands"
	"code.cloudfoundry.org/veneer/commands/config"
	"code.cloudfoundry.org/veneer/registry"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	shortid "github.com/ventu-io/go-shortid"
)

func main() {
	veneer := cli.NewApp()
	veneer.Name = "veneer"
	veneer.Usage = "Apply container image layers onto an existing rootfs"
	veneer.Version = "0.0.0"

	veneer.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to the config file",
			EnvVars: []string{registry.Key("config")},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Set logging level <debug|info|error|fatal>",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "File to write logs to, defaults to stderr",
		},
		&cli.StringFlag{
			Name:  "metron-endpoint",
			Usage: "Metron endpoint used to send metrics",
		},
	}

	veneer.Commands = []*cli.Command{
		&commands.ApplyCommand,
	}

	veneer.Before = func(ctx *cli.Context) error {
		configBuilder, err := newConfigBuilder(ctx)
		if err != nil {
			return cli.Exit(err.Error(), 255)
		}
		ctx.App.Metadata["configBuilder"] = configBuilder

		cfg := configBuilder.Build()
		logger, err := newLogger(cfg)
		if err != nil {
			return cli.Exit(err.Error(), 255)
		}
		ctx.App.Metadata["logger"] = logger

		// containers/* libraries log through logrus
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.ErrorLevel)

		return nil
	}

	if err := veneer.Run(os.Args); err != nil {
		// cli.Exit errors have already been handled
		os.Exit(255)
	}
}

func newConfigBuilder(ctx *cli.Context) (*config.Builder, error) {
	configBuilder := config.NewBuilder()
	if configPath := ctx.String("config"); configPath != "" {
		var err error
		configBuilder, err = config.NewBuilderFromFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	logLevel := ctx.String("log-level")
	if logLevel == "" {
		logLevel = registry.New().Get("log-level")
	}

	return configBuilder.
		WithLogLevel(logLevel).
		WithLogFile(ctx.String("log-file")).
		WithMetronEndpoint(ctx.String("metron-endpoint")), nil
}

func newLogger(cfg config.Config) (lager.Logger, error) {
	logWriter := os.Stderr
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		logWriter = logFile
	}

	logger := lager.NewLogger("veneer")
	logger.RegisterSink(lager.NewWriterSink(logWriter, translateLogLevel(cfg.LogLevel)))

	if applyID, err := shortid.Generate(); err == nil {
		logger = logger.WithData(lager.Data{"apply_id": applyID})
	}

	return logger, nil
}

func translateLogLevel(logLevel string) lager.LogLevel {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return lager.DEBUG
	case "ERROR":
		return lager.ERROR
	case "FATAL":
		return lager.FATAL
	default:
		return lager.INFO
	}
}
