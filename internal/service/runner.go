package service

import (
	"context"
	"time"

	"coldchain_logger/internal/logger"
)

// LoopRunner drives the state machine from a ticker, the way the device main
// loop spins.
type LoopRunner struct {
	sm       *StateMachine
	liveness LivenessSource
	log      *logger.Logger
}

func NewLoopRunner(sm *StateMachine, liveness LivenessSource, log *logger.Logger) *LoopRunner {
	if log == nil {
		log = logger.NewNop()
	}
	return &LoopRunner{sm: sm, liveness: liveness, log: log}
}

// Run starts the keep-alive and watchdog timers, bootstraps the machine and
// then steps it every tick until ctx is cancelled.
func (r *LoopRunner) Run(ctx context.Context, tick time.Duration) {
	go r.sm.KeepAlive().Run(ctx)
	if r.liveness != nil {
		go r.liveness.Run(ctx, r.sm.Watchdog().Raise)
	}

	if err := r.sm.Bootstrap(ctx, time.Now()); err != nil {
		r.log.Warnw("bootstrap_degraded", "error", err)
	}

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Infow("loop_stopped", "state", r.sm.State().String())
			return
		case now := <-t.C:
			r.sm.Step(ctx, now)
		}
	}
}
