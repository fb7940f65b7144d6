package service

import "sync/atomic"

// WatchdogSupervisor hands the liveness signal from the timer goroutine to the
// loop. Raise may be called from any goroutine; Service runs once per loop
// iteration and is the only place the flag is cleared.
type WatchdogSupervisor struct {
	raised atomic.Bool
	pin    Pulser
	pets   atomic.Uint64
}

func NewWatchdogSupervisor(pin Pulser) *WatchdogSupervisor {
	return &WatchdogSupervisor{pin: pin}
}

func (w *WatchdogSupervisor) Raise() { w.raised.Store(true) }

// Service pulses the done line if the flag is up and reports whether it did.
func (w *WatchdogSupervisor) Service() bool {
	if !w.raised.CompareAndSwap(true, false) {
		return false
	}
	w.pet()
	return true
}

// Pets returns how many times the done line has been pulsed.
func (w *WatchdogSupervisor) Pets() uint64 { return w.pets.Load() }

func (w *WatchdogSupervisor) pet() {
	w.pin.Pulse()
	w.pets.Add(1)
}
