package service

import "errors"

var (
	ErrNoSensor              = errors.New("agent has no sensor")
	ErrNoEstimationStrategy  = errors.New("no estimation strategy provided")
	ErrNoCooperativeBehavior = errors.New("no cooperative behavior for heterogeneous estimation provided")
	ErrNoContexts            = errors.New("no contexts at requested indexes")
	ErrAgentStopped          = errors.New("agent stopped")
)

// IsFatal reports whether err stops the agent that produced it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNoSensor) ||
		errors.Is(err, ErrNoEstimationStrategy) ||
		errors.Is(err, ErrNoCooperativeBehavior) ||
		errors.Is(err, ErrNoWindow)
}
