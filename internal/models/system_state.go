package models

import "coldchain_logger/internal/mathx"

// Keep-alive bounds in seconds.
const (
	KeepAliveMin = 0
	KeepAliveMax = 1200

	ResetCountMax = 255
)

const (
	defaultStructuresVersion = 1
	defaultKeepAliveSec      = 120
	fallbackKeepAliveSec     = 600
)

// SystemState is the persisted device status block.
type SystemState struct {
	StructuresVersion uint8        `json:"structures_version"`
	AlternateCarrier  bool         `json:"alternate_carrier"` // keep-alive pings required by a third-party SIM
	KeepAliveSec      int32        `json:"keep_alive_sec"`
	Connected         bool         `json:"connected"`
	Verbose           bool         `json:"verbose"`
	LowPower          bool         `json:"low_power"`
	StateOfCharge     int32        `json:"state_of_charge"` // percent
	BatteryState      BatteryState `json:"battery_state"`
	ResetCount        int32        `json:"reset_count"`
	LastAckUnix       int64        `json:"last_ack_unix"` // last successful report acknowledgement
}

// DefaultSystemState is what a freshly (re)initialized store starts with.
func DefaultSystemState() SystemState {
	return SystemState{
		StructuresVersion: defaultStructuresVersion,
		AlternateCarrier:  true,
		KeepAliveSec:      defaultKeepAliveSec,
	}
}

// Sanitize forces every field back into its legal range. It reports whether
// anything was changed.
func (s *SystemState) Sanitize() bool {
	before := *s
	if !mathx.Between(s.KeepAliveSec, KeepAliveMin, KeepAliveMax) {
		s.KeepAliveSec = fallbackKeepAliveSec
	}
	if !mathx.Between(s.ResetCount, 0, ResetCountMax) {
		s.ResetCount = 0
	}
	if !mathx.Between(s.StateOfCharge, 0, 100) {
		s.StateOfCharge = 0
	}
	if !s.BatteryState.Valid() {
		s.BatteryState = BatteryUnknown
	}
	return before != *s
}
