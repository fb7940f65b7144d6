// Package device holds the host stand-ins for the logger's hardware: the
// temperature/humidity probe with its fuel gauge, the external watchdog timer,
// the alert LED, the watchdog done line and the hard restart.
package device

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"coldchain_logger/internal/config"
	"coldchain_logger/internal/mathx"
	"coldchain_logger/internal/models"
)

var (
	ErrProbeNotFound = errors.New("sensor did not answer on the bus")
	ErrReadFault     = errors.New("sensor read fault")
)

// Drift model.
const (
	driftPeriod       = 6 * time.Hour
	tempAmplitudeC    = 1.5
	humidityAmplitude = 4.0
	noiseC            = 0.1
	noiseHumidity     = 0.5
	drainPerHour      = 1.0 // % of charge
	minCharge         = 5
)

// SimSensor models a probe in a cold room: a slow sinusoidal drift around the
// configured base plus a little noise. The battery drains from full at a
// fixed rate while the logger runs.
type SimSensor struct {
	mu        sync.Mutex
	cfg       config.SimulatorConfig
	clock     func() time.Time
	rng       *rand.Rand
	started   time.Time
	readFault bool
}

func NewSimSensor(cfg config.SimulatorConfig, clock func() time.Time, seed uint64) *SimSensor {
	if clock == nil {
		clock = time.Now
	}
	return &SimSensor{
		cfg:     cfg,
		clock:   clock,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		started: clock(),
	}
}

func (s *SimSensor) Probe() error {
	if s.cfg.FailProbe {
		return ErrProbeNotFound
	}
	return nil
}

// SetReadFault makes temperature reads fail until cleared.
func (s *SimSensor) SetReadFault(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFault = on
}

func (s *SimSensor) ReadTemperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readFault {
		return 0, ErrReadFault
	}
	return s.cfg.BaseTempC + tempAmplitudeC*s.phase() + s.noise(noiseC), nil
}

func (s *SimSensor) ReadHumidity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.cfg.BaseHumidity - humidityAmplitude*s.phase() + s.noise(noiseHumidity)
	return mathx.Clamp(h, 0, 100)
}

func (s *SimSensor) BatteryPercent() int {
	hours := s.clock().Sub(s.started).Hours()
	return mathx.Clamp(100-int(hours*drainPerHour), minCharge, 100)
}

func (s *SimSensor) BatteryState() models.BatteryState {
	if s.BatteryPercent() <= minCharge {
		return models.BatteryNotCharging
	}
	return models.BatteryDischarging
}

// phase is the drift position in [-1, 1]. Callers hold mu.
func (s *SimSensor) phase() float64 {
	elapsed := s.clock().Sub(s.started)
	return math.Sin(2 * math.Pi * float64(elapsed) / float64(driftPeriod))
}

func (s *SimSensor) noise(amplitude float64) float64 {
	return (s.rng.Float64()*2 - 1) * amplitude
}
