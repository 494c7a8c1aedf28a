package metrics // import "code.cloudfoundry.org/veneer/metrics"

import (
	"fmt"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/cloudfoundry/dropsonde"
	"github.com/cloudfoundry/dropsonde/metrics"
	"github.com/cloudfoundry/sonde-go/events"
	"github.com/gogo/protobuf/proto"
)

const dropsondeOrigin = "veneer"

// Emitter ships dropsonde metrics to a metron agent. Without a metron
// endpoint it stays quiet: every emission is a no-op.
type Emitter struct {
}

func NewEmitter(metronEndpoint string) (*Emitter, error) {
	if metronEndpoint != "" {
		if err := dropsonde.Initialize(metronEndpoint, dropsondeOrigin); err != nil {
			return nil, err
		}
	}

	return &Emitter{}, nil
}

func (e *Emitter) EmitDuration(name string, duration time.Duration) error {
	return metrics.SendValue(name, float64(duration), "nanos")
}

// TryEmitDurationFrom emits the time elapsed since from. Emission failures
// are logged, never propagated, so callers can defer it on hot paths.
func (e *Emitter) TryEmitDurationFrom(logger lager.Logger, name string, from time.Time) {
	if err := e.EmitDuration(name, time.Since(from)); err != nil {
		logger.Error("failed-to-emit-metric", err, lager.Data{"name": name})
	}
}

// TryIncrementRunCount counts command runs, once overall and once split by
// outcome.
func (e *Emitter) TryIncrementRunCount(logger lager.Logger, command string, runErr error) {
	e.tryIncrementCounter(logger, fmt.Sprintf("veneer-%s.run", command))

	outcome := "success"
	if runErr != nil {
		outcome = "fail"
	}
	e.tryIncrementCounter(logger, fmt.Sprintf("veneer-%s.run.%s", command, outcome))
}

func (e *Emitter) tryIncrementCounter(logger lager.Logger, name string) {
	if err := metrics.IncrementCounter(name); err != nil {
		logger.Error("failed-to-increment-counter", err, lager.Data{"name": name})
	}
}

// TryEmitError reports a command failure as a dropsonde error event.
func (e *Emitter) TryEmitError(logger lager.Logger, command string, emitError error, errorCode int32) {
	if dropsonde.DefaultEmitter == nil {
		return
	}

	errorEvent := &events.Error{
		Source:  proto.String(fmt.Sprintf("veneer-error.%s", command)),
		Code:    proto.Int32(errorCode),
		Message: proto.String(emitError.Error()),
	}
	if err := dropsonde.DefaultEmitter.Emit(errorEvent); err != nil {
		logger.Error("failed-to-emit-error-event", err, lager.Data{"source": *errorEvent.Source})
	}
}
