package service

import (
	"context"
	"time"

	"coldchain_logger/internal/logger"
)

// Pinger is the fire-and-forget action the keep-alive timer performs.
type Pinger interface {
	Ping()
}

// KeepAlive pings the transport on its own ticker so carriers that drop idle
// sessions keep the link open. A zero period stops the ticker.
type KeepAlive struct {
	pinger Pinger
	period chan time.Duration
	log    *logger.Logger
}

func NewKeepAlive(p Pinger, log *logger.Logger) *KeepAlive {
	if log == nil {
		log = logger.NewNop()
	}
	return &KeepAlive{pinger: p, period: make(chan time.Duration, 1), log: log}
}

// SetPeriod never blocks. A pending update not yet picked up by Run is
// replaced by the newer one.
func (k *KeepAlive) SetPeriod(d time.Duration) {
	select {
	case <-k.period:
	default:
	}
	select {
	case k.period <- d:
	default:
	}
}

// Run services the ticker until ctx is cancelled.
func (k *KeepAlive) Run(ctx context.Context) {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-k.period:
			if d <= 0 {
				if ticker != nil {
					ticker.Stop()
				}
				ticker, tick = nil, nil
				k.log.Infow("keepalive_stopped")
				continue
			}
			if ticker == nil {
				ticker = time.NewTicker(d)
				tick = ticker.C
			} else {
				ticker.Reset(d)
			}
			k.log.Infow("keepalive_period_set", "period", d)
		case <-tick:
			k.pinger.Ping()
		}
	}
}
