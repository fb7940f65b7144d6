package models

// BatteryState mirrors the charger/fuel-gauge status reported by the power subsystem.
type BatteryState uint8

const (
	BatteryUnknown BatteryState = iota
	BatteryNotCharging
	BatteryCharging
	BatteryCharged
	BatteryDischarging
	BatteryFault
	BatteryDisconnected
)

var batteryStateNames = [...]string{
	"Unknown",
	"Not Charging",
	"Charging",
	"Charged",
	"Discharging",
	"Fault",
	"Disconnected",
}

// Valid reports whether b is one of the enumerated states.
func (b BatteryState) Valid() bool { return int(b) < len(batteryStateNames) }

func (b BatteryState) String() string {
	if !b.Valid() {
		return batteryStateNames[BatteryUnknown]
	}
	return batteryStateNames[b]
}
