package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/mathx"
	"coldchain_logger/internal/models"
)

// State is a control loop state.
type State int

const (
	StateInitialization State = iota
	StateError
	StateIdle
	StateMeasuring
	StateReporting
	StateResponseWait
)

var stateNames = [...]string{"Initialize", "Error", "Idle", "Measuring", "Reporting", "Response Wait"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

const startupOK = "Startup Complete"

// Timing holds the loop deadlines.
type Timing struct {
	SamplingInterval time.Duration
	AckWait          time.Duration
	ResetWait        time.Duration
	ConnectTimeout   time.Duration
}

// Deps are the external collaborators of the state machine.
type Deps struct {
	Store     Store
	Sensor    Sensor
	Transport Transport
	LED       LED
	DonePin   Pulser
	Restarter Restarter
}

// StateMachine sequences measuring, reporting and recovery. Step is one
// cooperative loop iteration. Remote calls and acknowledgements take the same
// lock, so they land between iterations and never inside one.
type StateMachine struct {
	mu sync.Mutex

	state     State
	prev      State
	announced State

	dc        *DeviceContext
	evaluator AlertEvaluator
	gateway   *ConnectivityGateway
	config    *ConfigManager
	blinker   *Blinker
	watchdog  *WatchdogSupervisor
	keepAlive *KeepAlive

	store     Store
	sensor    Sensor
	transport Transport
	restarter Restarter

	timing  Timing
	release string

	cooldownSince time.Time
	restarted     bool
	startup       string
	alertMessage  string

	telemetry atomic.Pointer[Telemetry]
	log       *logger.Logger
}

func NewStateMachine(deps Deps, timing Timing, reportEvent, release string, log *logger.Logger) *StateMachine {
	if log == nil {
		log = logger.NewNop()
	}
	dc := newDeviceContext()
	ka := NewKeepAlive(deps.Transport, log.Named("keepalive"))
	m := &StateMachine{
		state:     StateInitialization,
		prev:      StateInitialization,
		announced: StateInitialization,
		dc:        dc,
		gateway:   NewConnectivityGateway(deps.Transport, reportEvent, log.Named("gateway")),
		config:    NewConfigManager(dc, deps.Transport, ka, log.Named("config")),
		blinker:   NewBlinker(deps.LED),
		watchdog:  NewWatchdogSupervisor(deps.DonePin),
		keepAlive: ka,
		store:     deps.Store,
		sensor:    deps.Sensor,
		transport: deps.Transport,
		restarter: deps.Restarter,
		timing:    timing,
		release:   release,
		startup:   startupOK,
		log:       log,
	}
	m.refreshTelemetry()
	return m
}

func (m *StateMachine) Watchdog() *WatchdogSupervisor { return m.watchdog }

func (m *StateMachine) KeepAlive() *KeepAlive { return m.keepAlive }

// State returns the current state.
func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Bootstrap brings the device from power-on to Idle. Failures that the loop
// can recover from are returned for logging but leave the machine in Error
// with the cooldown armed, so the caller keeps stepping it.
func (m *StateMachine) Bootstrap(ctx context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bootErr error

	m.watchdog.pet()
	m.publish("Time", now.UTC().Format(time.ANSIC))

	if err := m.sensor.Probe(); err != nil {
		m.startup = "Error - sensor initialization"
		bootErr = fmt.Errorf("%w: probe: %v", ErrSensorRead, err)
		m.enterError(now)
	}

	snap, err := m.store.Open(ctx)
	switch {
	case err != nil:
		bootErr = errors.Join(bootErr, fmt.Errorf("open store: %w", err))
		m.enterError(now)
	case snap.Reinitialized:
		m.dc.System, m.dc.Alerts, m.dc.Sample = snap.System, snap.Alerts, snap.Sample
		m.log.Infow("store_reinitialized", "found_version", snap.FoundVersion)
		if m.transport.Connected() {
			m.publish("Mode", "Loading System Defaults")
			m.publish("Mode", "Loading Alert Defaults")
		}
	default:
		m.dc.System, m.dc.Alerts, m.dc.Sample = snap.System, snap.Alerts, snap.Sample
	}

	if m.dc.System.Sanitize() {
		m.dc.markDirty(dirtySystem)
	}
	if m.dc.Alerts.Sanitize() {
		m.dc.markDirty(dirtyAlerts)
	}
	m.refreshConnected()

	if m.dc.System.AlternateCarrier {
		waitCtx, cancel := context.WithTimeout(ctx, m.timing.ConnectTimeout)
		if err := m.transport.WaitConnected(waitCtx); err != nil {
			m.log.Warnw("bootstrap_connect_wait_failed", "timeout", m.timing.ConnectTimeout, "error", err)
		}
		cancel()
		m.refreshConnected()
		m.config.applyKeepAlive()
	}

	m.measure(now)
	m.dc.refreshThresholdDisplay()

	if m.dc.System.Verbose {
		m.publish("Startup", m.startup)
	}

	if m.state == StateInitialization {
		m.transition(StateIdle)
	}
	m.checkpoint(ctx)
	m.log.Infow("bootstrap_done", "state", m.state.String(), "reset_count", m.dc.System.ResetCount)
	return bootErr
}

// Step runs one loop iteration at wall-clock time now and returns the state
// the machine is in afterwards.
func (m *StateMachine) Step(ctx context.Context, now time.Time) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.announce()
	m.refreshConnected()
	m.transition(m.next(ctx, now))

	m.watchdog.Service()
	m.blinker.Update(m.dc.Alerts.AnyCrossed, now)
	m.checkpoint(ctx)
	return m.state
}

// next evaluates the current state at time now and returns the state to move
// to. Side effects of the current state happen here.
func (m *StateMachine) next(ctx context.Context, now time.Time) State {
	switch m.state {
	case StateInitialization:
		return StateIdle

	case StateIdle:
		if m.config.takeMeasureNow() || m.onBoundary(now) {
			return StateMeasuring
		}
		return StateIdle

	case StateMeasuring:
		crossed := m.measure(now)
		m.dc.Alerts.AnyCrossed = crossed
		if !crossed {
			m.blinker.Off()
		}
		m.dc.markDirty(dirtyAlerts)
		return StateReporting

	case StateReporting:
		if !m.transport.Connected() {
			m.log.Warnw("report_skipped", "error", ErrNotConnected)
			m.enterError(now)
			return StateError
		}
		if now.UTC().Hour() == 12 {
			m.transport.SyncTime()
		}
		if m.dc.Sample.Valid {
			m.gateway.Send(m.dc.Sample, now)
		}
		return StateResponseWait

	case StateResponseWait:
		if !m.gateway.InFlight() && !m.onBoundary(now) {
			return StateIdle
		}
		if m.gateway.Expired(now, m.timing.AckWait) {
			m.gateway.Timeout()
			m.enterError(now)
			return StateError
		}
		return StateResponseWait

	case StateError:
		if !m.restarted && now.Sub(m.cooldownSince) > m.timing.ResetWait {
			m.restart(ctx)
		}
		return StateError
	}
	return m.state
}

func (m *StateMachine) onBoundary(now time.Time) bool {
	sec := int64(m.timing.SamplingInterval / time.Second)
	return sec > 0 && now.Unix()%sec == 0
}

func (m *StateMachine) transition(to State) {
	if to == m.state {
		return
	}
	m.prev = m.state
	m.state = to
	m.log.Debugw("state_transition", "from", m.prev.String(), "to", to.String())
}

// announce publishes the last transition once. Error is always announced.
func (m *StateMachine) announce() {
	if m.state == m.announced {
		return
	}
	if (m.dc.System.Verbose || m.state == StateError) && m.transport.Connected() {
		m.publish("State Transition", fmt.Sprintf("From %s to %s", m.prev, m.state))
	}
	m.announced = m.state
}

// enterError arms the cooldown. Later failures while already cooling down do
// not re-arm it.
func (m *StateMachine) enterError(now time.Time) {
	if m.state == StateError || !m.cooldownSince.IsZero() {
		return
	}
	m.cooldownSince = now
	m.transition(StateError)
	m.log.Warnw("cooldown_armed", "reset_wait", m.timing.ResetWait)
}

func (m *StateMachine) restart(ctx context.Context) {
	if m.transport.Connected() {
		m.publish("State", "Error State - Reset")
	}
	if m.dc.System.ResetCount >= models.ResetCountMax {
		m.dc.System.ResetCount = 0
	} else {
		m.dc.System.ResetCount++
	}
	m.dc.markDirty(dirtySystem)
	m.checkpoint(ctx)
	m.restarted = true
	m.log.Errorw("device_restart", "reset_count", m.dc.System.ResetCount)
	m.restarter.Restart("error state cooldown elapsed")
}

// measure takes a reading, evaluates it and refreshes the battery context.
// A failed temperature read leaves the sample invalid for this cycle and
// skips evaluation.
func (m *StateMachine) measure(now time.Time) bool {
	crossed := false
	m.alertMessage = withinThresholdsMessage

	temp, err := m.sensor.ReadTemperature()
	if err != nil {
		m.dc.Sample.Valid = false
		m.log.Warnw("measurement_failed", "error", fmt.Errorf("%w: %v", ErrSensorRead, err))
	} else {
		m.dc.Sample = models.SensorSample{
			Valid:         true,
			TimestampUnix: now.Unix(),
			TemperatureC:  temp,
			Humidity:      m.sensor.ReadHumidity(),
			StateOfCharge: int32(mathx.Clamp(m.sensor.BatteryPercent(), 0, 100)),
		}
		m.dc.refreshSampleDisplay()
		crossed, m.alertMessage = m.evaluator.Evaluate(&m.dc.Alerts, m.dc.Sample)
		if crossed {
			m.publish("Alerts", m.alertMessage)
		}
	}

	m.dc.System.BatteryState = m.sensor.BatteryState()
	m.dc.System.StateOfCharge = int32(mathx.Clamp(m.sensor.BatteryPercent(), 0, 100))
	m.dc.refreshBatteryDisplay()
	m.dc.markDirty(dirtySystem | dirtyAlerts | dirtySample)
	return crossed
}

func (m *StateMachine) refreshConnected() {
	if c := m.transport.Connected(); c != m.dc.System.Connected {
		m.dc.System.Connected = c
		m.dc.markDirty(dirtySystem)
	}
}

// checkpoint flushes dirty structures and republishes telemetry.
func (m *StateMachine) checkpoint(ctx context.Context) {
	if _, err := m.dc.flush(ctx, m.store); err != nil {
		m.log.Errorw("store_flush_failed", "error", err)
	}
	m.refreshTelemetry()
}

func (m *StateMachine) publish(name, payload string) {
	m.transport.Publish(name, payload, true)
}

// Call invokes a remote function. It returns 1 on success and 0 otherwise,
// with the reason in err.
func (m *StateMachine) Call(name, arg string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.config.Call(name, arg); err != nil {
		return 0, err
	}
	m.refreshTelemetry()
	return 1, nil
}

// Acknowledge delivers an inbound webhook response to the gateway.
func (m *StateMachine) Acknowledge(payload string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := m.gateway.OnAcknowledgement(m.dc, payload, now)
	m.refreshTelemetry()
	return ok
}

// Telemetry returns the latest snapshot without taking the loop lock.
func (m *StateMachine) Telemetry() Telemetry {
	return *m.telemetry.Load()
}

func (m *StateMachine) refreshTelemetry() {
	sys := m.dc.System
	m.telemetry.Store(&Telemetry{
		Release:          m.release,
		State:            m.state.String(),
		Display:          m.dc.display,
		KeepAliveSec:     sys.KeepAliveSec,
		AlternateCarrier: sys.AlternateCarrier,
		Verbose:          sys.Verbose,
		Connected:        sys.Connected,
		InFlight:         m.gateway.InFlight(),
		AnyCrossed:       m.dc.Alerts.AnyCrossed,
		AlertMessage:     m.alertMessage,
		ResetCount:       sys.ResetCount,
		LastAckUnix:      sys.LastAckUnix,
		SampleValid:      m.dc.Sample.Valid,
		SampleUnix:       m.dc.Sample.TimestampUnix,
	})
}
