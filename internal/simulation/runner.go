// Package simulation wires agents together and runs them side by side.
package simulation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Harshitk-cp/ambient/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner runs each agent on its own goroutine. An agent that stops on a
// fatal error does not stop the others. Once every agent backed by a real
// sensor is done the virtual ones are stopped too.
type Runner struct {
	agents []*service.Agent
	logger *zap.Logger
}

func NewRunner(logger *zap.Logger, agents ...*service.Agent) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{agents: agents, logger: logger}
}

func (r *Runner) Agents() []*service.Agent {
	return append([]*service.Agent(nil), r.agents...)
}

// Run returns once every agent has stopped or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	var pending atomic.Int64
	for _, a := range r.agents {
		if a.IsRealSensor() {
			pending.Add(1)
		}
	}
	for _, a := range r.agents {
		eg.Go(func() error {
			err := a.Run(egCtx)
			if a.IsRealSensor() && pending.Add(-1) == 0 {
				r.Stop()
			}
			switch {
			case err == nil, errors.Is(err, service.ErrAgentStopped):
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil
			case service.IsFatal(err):
				r.logger.Error("agent terminated", zap.String("agent", a.Name()), zap.Error(err))
				return nil
			default:
				return err
			}
		})
	}

	r.logger.Info("simulation started", zap.Int("agents", len(r.agents)))
	err := eg.Wait()
	r.logger.Info("simulation finished", zap.Error(err))
	return err
}

// Stop asks every agent to finish its current cycle and return.
func (r *Runner) Stop() {
	for _, a := range r.agents {
		a.Stop()
	}
}
