package device

import (
	"context"
	"sync/atomic"

	"coldchain_logger/internal/logger"
)

// LED is the alert lamp. Only level changes are logged, so a steady blink
// shows up as one line per edge.
type LED struct {
	on  atomic.Bool
	log *logger.Logger
}

func NewLED(log *logger.Logger) *LED {
	if log == nil {
		log = logger.NewNop()
	}
	return &LED{log: log}
}

func (l *LED) Set(on bool) {
	if l.on.Swap(on) != on {
		l.log.Debugw("led", "on", on)
	}
}

func (l *LED) On() bool { return l.on.Load() }

// PulsePin is the watchdog done line.
type PulsePin struct {
	pulses atomic.Uint64
	log    *logger.Logger
}

func NewPulsePin(log *logger.Logger) *PulsePin {
	if log == nil {
		log = logger.NewNop()
	}
	return &PulsePin{log: log}
}

func (p *PulsePin) Pulse() {
	n := p.pulses.Add(1)
	p.log.Debugw("watchdog_done_pulse", "count", n)
}

func (p *PulsePin) Pulses() uint64 { return p.pulses.Load() }

// Restarter ends the process the way a hard reset ends the firmware: it
// cancels the root context and main exits non-zero so the supervisor starts
// a fresh process.
type Restarter struct {
	cancel    context.CancelFunc
	requested atomic.Bool
	log       *logger.Logger
}

func NewRestarter(cancel context.CancelFunc, log *logger.Logger) *Restarter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Restarter{cancel: cancel, log: log}
}

func (r *Restarter) Restart(reason string) {
	if !r.requested.CompareAndSwap(false, true) {
		return
	}
	r.log.Errorw("restart_requested", "reason", reason)
	r.cancel()
}

// Requested reports whether Restart was called.
func (r *Restarter) Requested() bool { return r.requested.Load() }
