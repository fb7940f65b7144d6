package device

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coldchain_logger/internal/config"
	"coldchain_logger/internal/models"
	"coldchain_logger/internal/service"
)

var (
	_ service.Sensor         = (*SimSensor)(nil)
	_ service.LED            = (*LED)(nil)
	_ service.Pulser         = (*PulsePin)(nil)
	_ service.Restarter      = (*Restarter)(nil)
	_ service.LivenessSource = (*WatchdogTimer)(nil)
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSensor(cfg config.SimulatorConfig) (*SimSensor, *manualClock) {
	clk := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewSimSensor(cfg, clk.Now, 42), clk
}

func TestSimSensor_ProbeFailure(t *testing.T) {
	s, _ := newSensor(config.SimulatorConfig{FailProbe: true})
	if err := s.Probe(); !errors.Is(err, ErrProbeNotFound) {
		t.Fatalf("Probe() = %v, want ErrProbeNotFound", err)
	}
}

func TestSimSensor_ReadingsStayNearBase(t *testing.T) {
	s, clk := newSensor(config.SimulatorConfig{BaseTempC: 4, BaseHumidity: 40})
	if err := s.Probe(); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	for i := 0; i < 48; i++ {
		temp, err := s.ReadTemperature()
		if err != nil {
			t.Fatalf("ReadTemperature() error = %v", err)
		}
		if temp < 4-tempAmplitudeC-noiseC || temp > 4+tempAmplitudeC+noiseC {
			t.Fatalf("temperature %.2f drifted out of band at step %d", temp, i)
		}
		h := s.ReadHumidity()
		if h < 40-humidityAmplitude-noiseHumidity || h > 40+humidityAmplitude+noiseHumidity {
			t.Fatalf("humidity %.2f drifted out of band at step %d", h, i)
		}
		clk.advance(15 * time.Minute)
	}
}

func TestSimSensor_HumidityIsClamped(t *testing.T) {
	s, _ := newSensor(config.SimulatorConfig{BaseHumidity: 99.9})
	for i := 0; i < 20; i++ {
		if h := s.ReadHumidity(); h > 100 {
			t.Fatalf("humidity %.2f above 100%%", h)
		}
	}
}

func TestSimSensor_ReadFault(t *testing.T) {
	s, _ := newSensor(config.SimulatorConfig{BaseTempC: 5})
	s.SetReadFault(true)
	if _, err := s.ReadTemperature(); !errors.Is(err, ErrReadFault) {
		t.Fatalf("ReadTemperature() = %v, want ErrReadFault", err)
	}
	s.SetReadFault(false)
	if _, err := s.ReadTemperature(); err != nil {
		t.Fatalf("ReadTemperature() after clearing fault = %v", err)
	}
}

func TestSimSensor_BatteryDrains(t *testing.T) {
	s, clk := newSensor(config.SimulatorConfig{})
	if got := s.BatteryPercent(); got != 100 {
		t.Fatalf("fresh battery = %d, want 100", got)
	}
	if got := s.BatteryState(); got != models.BatteryDischarging {
		t.Fatalf("state = %s, want Discharging", got)
	}

	clk.advance(10 * time.Hour)
	if got := s.BatteryPercent(); got != 90 {
		t.Fatalf("after 10h battery = %d, want 90", got)
	}

	clk.advance(1000 * time.Hour)
	if got := s.BatteryPercent(); got != minCharge {
		t.Fatalf("flat battery = %d, want %d", got, minCharge)
	}
	if got := s.BatteryState(); got != models.BatteryNotCharging {
		t.Fatalf("state = %s, want Not Charging", got)
	}
}

func TestWatchdogTimer_RaisesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	raised := make(chan struct{}, 8)
	done := make(chan struct{})
	go func() {
		NewWatchdogTimer(time.Millisecond, nil).Run(ctx, func() {
			select {
			case raised <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	select {
	case <-raised:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never raised")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestLEDAndPulsePin(t *testing.T) {
	led := NewLED(nil)
	led.Set(true)
	led.Set(true)
	if !led.On() {
		t.Fatalf("LED should be on")
	}
	led.Set(false)
	if led.On() {
		t.Fatalf("LED should be off")
	}

	pin := NewPulsePin(nil)
	pin.Pulse()
	pin.Pulse()
	if got := pin.Pulses(); got != 2 {
		t.Fatalf("Pulses() = %d, want 2", got)
	}
}

func TestRestarter_CancelsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := NewRestarter(func() {
		calls++
		cancel()
	}, nil)

	if r.Requested() {
		t.Fatalf("nothing requested yet")
	}
	r.Restart("test")
	r.Restart("again")

	if ctx.Err() == nil {
		t.Fatalf("root context should be cancelled")
	}
	if !r.Requested() || calls != 1 {
		t.Fatalf("requested = %v calls = %d, want true and 1", r.Requested(), calls)
	}
}
