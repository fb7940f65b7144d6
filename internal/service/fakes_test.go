package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"coldchain_logger/internal/models"
	"coldchain_logger/internal/repository"
)

type fakeSensor struct {
	probeErr error
	readErr  error
	temp     float64
	humidity float64
	percent  int
	battery  models.BatteryState
}

func (s *fakeSensor) Probe() error                      { return s.probeErr }
func (s *fakeSensor) ReadTemperature() (float64, error) { return s.temp, s.readErr }
func (s *fakeSensor) ReadHumidity() float64             { return s.humidity }
func (s *fakeSensor) BatteryPercent() int               { return s.percent }
func (s *fakeSensor) BatteryState() models.BatteryState { return s.battery }

type published struct {
	name    string
	payload string
	private bool
}

// fakeTransport records everything; safe for the keep-alive goroutine.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	waitErr   error
	events    []published
	keepAlive []time.Duration
	pings     int
	syncs     int
}

func (t *fakeTransport) Publish(name, payload string, private bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, published{name: name, payload: payload, private: private})
}

func (t *fakeTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *fakeTransport) setConnected(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = v
}

func (t *fakeTransport) WaitConnected(ctx context.Context) error { return t.waitErr }

func (t *fakeTransport) SetKeepAlive(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keepAlive = append(t.keepAlive, d)
}

func (t *fakeTransport) Ping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pings++
}

func (t *fakeTransport) SyncTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.syncs++
}

// named returns the payloads published under name, in order.
func (t *fakeTransport) named(name string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, e := range t.events {
		if e.name == name {
			out = append(out, e.payload)
		}
	}
	return out
}

func (t *fakeTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

type fakeLED struct{ writes []bool }

func (l *fakeLED) Set(on bool) { l.writes = append(l.writes, on) }

type fakePulser struct{ pulses int }

func (p *fakePulser) Pulse() { p.pulses++ }

type fakeRestarter struct{ reasons []string }

func (r *fakeRestarter) Restart(reason string) { r.reasons = append(r.reasons, reason) }

// countingBlocks counts physical writes to the store.
type countingBlocks struct {
	*repository.BlockMemory
	puts int
}

func (c *countingBlocks) Put(ctx context.Context, addr int, data []byte) error {
	c.puts++
	return c.BlockMemory.Put(ctx, addr, data)
}

type fixture struct {
	sm        *StateMachine
	sensor    *fakeSensor
	transport *fakeTransport
	led       *fakeLED
	pin       *fakePulser
	restarter *fakeRestarter
	blocks    *countingBlocks
	store     *repository.PersistentStore
}

// testTiming matches the device defaults: 20 min boundaries, 45 s ack wait,
// 300 s cooldown.
var testTiming = Timing{
	SamplingInterval: 20 * time.Minute,
	AckWait:          45 * time.Second,
	ResetWait:        300 * time.Second,
	ConnectTimeout:   time.Second,
}

// boundary is a 20-minute aligned instant.
var boundary = time.Unix(1700000400, 0)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sensor:    &fakeSensor{temp: 5, humidity: 45, percent: 80, battery: models.BatteryCharging},
		transport: &fakeTransport{connected: true},
		led:       &fakeLED{},
		pin:       &fakePulser{},
		restarter: &fakeRestarter{},
		blocks:    &countingBlocks{BlockMemory: repository.NewBlockMemory(repository.StoreCapacity)},
	}
	f.store = repository.NewPersistentStore(f.blocks)
	f.sm = NewStateMachine(Deps{
		Store:     f.store,
		Sensor:    f.sensor,
		Transport: f.transport,
		LED:       f.led,
		DonePin:   f.pin,
		Restarter: f.restarter,
	}, testTiming, "storage-facility-hook", "15.00", nil)
	return f
}

// bootstrapped returns a fixture already in Idle, with bootstrap events cleared.
func bootstrapped(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	if err := f.sm.Bootstrap(context.Background(), boundary.Add(-30*time.Second)); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := f.sm.State(); got != StateIdle {
		t.Fatalf("state after bootstrap = %s, want Idle", got)
	}
	f.transport.reset()
	return f
}

func (f *fixture) step(t *testing.T, at time.Time, want State) {
	t.Helper()
	if got := f.sm.Step(context.Background(), at); got != want {
		t.Fatalf("Step(%s) = %s, want %s", at.UTC().Format(time.RFC3339Nano), got, want)
	}
}
