package commands

import (
	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/veneer/metrics"
	errorspkg "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

type exitErrorFunc func(message string, exitCode int) cli.ExitCoder

// newErrorHandler builds the failure exit path for a command: every failed
// run is counted and reported as an error event before the process exits.
func newErrorHandler(logger lager.Logger, metricsEmitter *metrics.Emitter, action string) exitErrorFunc {
	return func(message string, exitCode int) cli.ExitCoder {
		err := errorspkg.New(message)
		metricsEmitter.TryIncrementRunCount(logger, action, err)
		metricsEmitter.TryEmitError(logger, action, err, int32(exitCode))

		return cli.Exit(message, exitCode)
	}
}
