package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/mathx"
	"coldchain_logger/internal/models"
)

// Remote function names.
const (
	FuncMeasureNow            = "measure-now"
	FuncSetVerboseMode        = "set-verbose-mode"
	FuncSetUpperTempLimit     = "set-upper-temp-limit"
	FuncSetLowerTempLimit     = "set-lower-temp-limit"
	FuncSetUpperHumidityLimit = "set-upper-humidity-limit"
	FuncSetLowerHumidityLimit = "set-lower-humidity-limit"
	FuncSetKeepAlive          = "set-keep-alive"
	FuncSetAlternateCarrier   = "set-alternate-carrier-mode"
)

// ConfigManager validates and applies runtime settings. A rejected value
// leaves every structure untouched.
type ConfigManager struct {
	dc        *DeviceContext
	transport Transport
	keepAlive *KeepAlive
	log       *logger.Logger

	measureNow bool
	functions  map[string]func(string) error
}

func NewConfigManager(dc *DeviceContext, t Transport, ka *KeepAlive, log *logger.Logger) *ConfigManager {
	if log == nil {
		log = logger.NewNop()
	}
	m := &ConfigManager{dc: dc, transport: t, keepAlive: ka, log: log}
	m.functions = map[string]func(string) error{
		FuncMeasureNow:            m.MeasureNow,
		FuncSetVerboseMode:        m.SetVerbose,
		FuncSetUpperTempLimit:     m.SetUpperTempLimit,
		FuncSetLowerTempLimit:     m.SetLowerTempLimit,
		FuncSetUpperHumidityLimit: m.SetUpperHumidityLimit,
		FuncSetLowerHumidityLimit: m.SetLowerHumidityLimit,
		FuncSetKeepAlive:          m.SetKeepAlive,
		FuncSetAlternateCarrier:   m.SetAlternateCarrier,
	}
	return m
}

// Call dispatches a remote function by name.
func (m *ConfigManager) Call(name, arg string) error {
	fn, ok := m.functions[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	if err := fn(arg); err != nil {
		m.log.Infow("config_rejected", "function", name, "arg", arg, "error", err)
		return err
	}
	m.log.Infow("config_applied", "function", name, "arg", arg)
	return nil
}

// MeasureNow with "1" makes the next Idle step measure regardless of the clock.
func (m *ConfigManager) MeasureNow(arg string) error {
	if arg != "1" {
		return invalid("measure-now", arg)
	}
	m.measureNow = true
	return nil
}

// takeMeasureNow consumes a pending measure-now request.
func (m *ConfigManager) takeMeasureNow() bool {
	pending := m.measureNow
	m.measureNow = false
	return pending
}

func (m *ConfigManager) SetVerbose(arg string) error {
	on, err := parseSwitch(arg)
	if err != nil {
		return err
	}
	m.dc.System.Verbose = on
	m.dc.markDirty(dirtySystem)
	if on {
		m.publish("Mode", "Set Verbose Mode")
	} else {
		m.publish("Mode", "Cleared Verbose Mode")
	}
	return nil
}

func (m *ConfigManager) SetAlternateCarrier(arg string) error {
	on, err := parseSwitch(arg)
	if err != nil {
		return err
	}
	m.dc.System.AlternateCarrier = on
	m.dc.markDirty(dirtySystem)
	if on {
		m.applyKeepAlive()
	} else {
		m.keepAlive.SetPeriod(0)
	}
	if m.transport.Connected() {
		if on {
			m.publish("Mode", "Set to Alternate Carrier")
		} else {
			m.publish("Mode", "Set to Default Carrier")
		}
	}
	return nil
}

func (m *ConfigManager) SetKeepAlive(arg string) error {
	sec, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || !mathx.Between(sec, models.KeepAliveMin, models.KeepAliveMax) {
		return invalid("keep-alive", arg)
	}
	m.dc.System.KeepAliveSec = int32(sec)
	m.dc.markDirty(dirtySystem)
	m.applyKeepAlive()
	m.publish("Keep Alive", fmt.Sprintf("Keep Alive set to %d sec", sec))
	return nil
}

// applyKeepAlive pushes the stored keep-alive to the transport and the pinger.
func (m *ConfigManager) applyKeepAlive() {
	d := time.Duration(m.dc.System.KeepAliveSec) * time.Second
	m.transport.SetKeepAlive(d)
	m.keepAlive.SetPeriod(d)
}

func (m *ConfigManager) SetUpperTempLimit(arg string) error {
	v, err := parseThreshold("upper temperature", arg, models.UpperTempMin, models.UpperTempMax)
	if err != nil {
		return err
	}
	if v <= m.dc.Alerts.LowerTempC {
		return invalid("upper temperature below lower bound", arg)
	}
	m.dc.Alerts.UpperTempC = v
	m.thresholdChanged("Upper Temperature Threshold Set", arg)
	return nil
}

func (m *ConfigManager) SetLowerTempLimit(arg string) error {
	v, err := parseThreshold("lower temperature", arg, models.LowerTempMin, models.LowerTempMax)
	if err != nil {
		return err
	}
	if v >= m.dc.Alerts.UpperTempC {
		return invalid("lower temperature above upper bound", arg)
	}
	m.dc.Alerts.LowerTempC = v
	m.thresholdChanged("Lower Temperature Threshold Set", arg)
	return nil
}

func (m *ConfigManager) SetUpperHumidityLimit(arg string) error {
	v, err := parseThreshold("upper humidity", arg, models.UpperHumidityMin, models.UpperHumidityMax)
	if err != nil {
		return err
	}
	if v <= m.dc.Alerts.LowerHumidity {
		return invalid("upper humidity below lower bound", arg)
	}
	m.dc.Alerts.UpperHumidity = v
	m.thresholdChanged("Upper Humidity Threshold Set", arg)
	return nil
}

func (m *ConfigManager) SetLowerHumidityLimit(arg string) error {
	v, err := parseThreshold("lower humidity", arg, models.LowerHumidityMin, models.LowerHumidityMax)
	if err != nil {
		return err
	}
	if v >= m.dc.Alerts.UpperHumidity {
		return invalid("lower humidity above upper bound", arg)
	}
	m.dc.Alerts.LowerHumidity = v
	m.thresholdChanged("Lower Humidity Threshold Set", arg)
	return nil
}

func (m *ConfigManager) thresholdChanged(event, arg string) {
	m.dc.markDirty(dirtyAlerts)
	m.dc.refreshThresholdDisplay()
	m.publish(event, strings.TrimSpace(arg))
}

func (m *ConfigManager) publish(name, payload string) {
	m.transport.Publish(name, payload, true)
}

func parseSwitch(arg string) (bool, error) {
	switch arg {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, invalid("switch", arg)
}

func parseThreshold(what, arg string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || math.IsNaN(v) || !mathx.Between(v, lo, hi) {
		return 0, invalid(what, arg)
	}
	return v, nil
}

func invalid(what, arg string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidConfigValue, what, arg)
}
