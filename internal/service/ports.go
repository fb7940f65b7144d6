package service

import (
	"context"
	"time"

	"coldchain_logger/internal/models"
	"coldchain_logger/internal/repository"
)

// Sensor is the temperature/humidity probe plus the fuel gauge.
type Sensor interface {
	Probe() error
	ReadTemperature() (float64, error)
	ReadHumidity() float64
	BatteryPercent() int
	BatteryState() models.BatteryState
}

// Transport is the cloud link. Publish must not block: delivery is queued and
// retried by the implementation.
type Transport interface {
	Publish(name, payload string, private bool)
	Connected() bool
	WaitConnected(ctx context.Context) error
	SetKeepAlive(d time.Duration)
	Ping()
	SyncTime()
}

// LED is the visual alert output.
type LED interface {
	Set(on bool)
}

// Pulser drives the watchdog done line.
type Pulser interface {
	Pulse()
}

// Restarter performs the hard restart that ends the Error state.
type Restarter interface {
	Restart(reason string)
}

// LivenessSource raises the watchdog flag on its own schedule until ctx ends.
type LivenessSource interface {
	Run(ctx context.Context, raise func())
}

// Store is the part of repository.PersistentStore the control loop needs.
type Store interface {
	Open(ctx context.Context) (repository.Snapshot, error)
	SaveSystem(ctx context.Context, st models.SystemState) error
	SaveAlerts(ctx context.Context, a models.AlertState) error
	SaveSample(ctx context.Context, smp models.SensorSample) error
}

var _ Store = (*repository.PersistentStore)(nil)
