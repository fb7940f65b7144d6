package device

import (
	"context"
	"time"

	"coldchain_logger/internal/logger"
)

// WatchdogTimer is the external timer that wakes the loop to pet the done
// line. It only raises the request; the loop does the pulse.
type WatchdogTimer struct {
	period time.Duration
	log    *logger.Logger
}

func NewWatchdogTimer(period time.Duration, log *logger.Logger) *WatchdogTimer {
	if log == nil {
		log = logger.NewNop()
	}
	return &WatchdogTimer{period: period, log: log}
}

func (w *WatchdogTimer) Run(ctx context.Context, raise func()) {
	t := time.NewTicker(w.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.log.Debugw("watchdog_request")
			raise()
		}
	}
}
