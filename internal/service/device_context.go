package service

import (
	"context"
	"fmt"

	"coldchain_logger/internal/models"
)

type dirtyFlags uint8

const (
	dirtySystem dirtyFlags = 1 << iota
	dirtyAlerts
	dirtySample
)

// Display holds the human-readable strings exposed as telemetry variables.
// They are regenerated whenever the value behind them changes.
type Display struct {
	Temperature    string `json:"temperature"`
	Humidity       string `json:"humidity"`
	Battery        string `json:"battery"`
	BatteryContext string `json:"battery_context"`
	UpperTemp      string `json:"temperature_upper"`
	LowerTemp      string `json:"temperature_lower"`
	UpperHumidity  string `json:"humidity_upper"`
	LowerHumidity  string `json:"humidity_lower"`
}

// DeviceContext is the mutable device state shared by the core components.
// The StateMachine owns it and every access happens under the machine lock.
type DeviceContext struct {
	System models.SystemState
	Alerts models.AlertState
	Sample models.SensorSample

	dirty   dirtyFlags
	display Display
}

func newDeviceContext() *DeviceContext {
	dc := &DeviceContext{
		System: models.DefaultSystemState(),
		Alerts: models.DefaultAlertState(),
	}
	dc.refreshThresholdDisplay()
	dc.refreshBatteryDisplay()
	return dc
}

func (d *DeviceContext) markDirty(f dirtyFlags) { d.dirty |= f }

func (d *DeviceContext) isDirty(f dirtyFlags) bool { return d.dirty&f != 0 }

func (d *DeviceContext) refreshSampleDisplay() {
	d.display.Temperature = fmt.Sprintf("%4.1f*C", d.Sample.TemperatureC)
	d.display.Humidity = fmt.Sprintf("%4.1f%%", d.Sample.Humidity)
	d.display.Battery = fmt.Sprintf("%d %%", d.Sample.StateOfCharge)
}

func (d *DeviceContext) refreshBatteryDisplay() {
	d.display.BatteryContext = d.System.BatteryState.String()
}

func (d *DeviceContext) refreshThresholdDisplay() {
	d.display.UpperTemp = fmt.Sprintf("Temp_Max : %3.1f", d.Alerts.UpperTempC)
	d.display.LowerTemp = fmt.Sprintf("Temp_Min : %3.1f", d.Alerts.LowerTempC)
	d.display.UpperHumidity = fmt.Sprintf("Humidity_Max : %3.1f", d.Alerts.UpperHumidity)
	d.display.LowerHumidity = fmt.Sprintf("Humidity_Min : %3.1f", d.Alerts.LowerHumidity)
}

// flush writes every dirty structure, at most one write each. A failed write
// leaves its flag set so the next checkpoint retries it.
func (d *DeviceContext) flush(ctx context.Context, store Store) (writes int, err error) {
	if d.isDirty(dirtySystem) {
		if err = store.SaveSystem(ctx, d.System); err != nil {
			return writes, err
		}
		d.dirty &^= dirtySystem
		writes++
	}
	if d.isDirty(dirtyAlerts) {
		if err = store.SaveAlerts(ctx, d.Alerts); err != nil {
			return writes, err
		}
		d.dirty &^= dirtyAlerts
		writes++
	}
	if d.isDirty(dirtySample) {
		if err = store.SaveSample(ctx, d.Sample); err != nil {
			return writes, err
		}
		d.dirty &^= dirtySample
		writes++
	}
	return writes, nil
}
