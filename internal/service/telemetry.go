package service

// Telemetry is a read-only snapshot of the device, refreshed at the end of
// every loop iteration and after every accepted remote call.
type Telemetry struct {
	Release string `json:"release"`
	State   string `json:"state"`
	Display

	KeepAliveSec     int32  `json:"keep_alive_sec"`
	AlternateCarrier bool   `json:"alternate_carrier"`
	Verbose          bool   `json:"verbose"`
	Connected        bool   `json:"connected"`
	InFlight         bool   `json:"in_flight"`
	AnyCrossed       bool   `json:"any_crossed"`
	AlertMessage     string `json:"alert_message"`
	ResetCount       int32  `json:"reset_count"`
	LastAckUnix      int64  `json:"last_ack_unix"`
	SampleValid      bool   `json:"sample_valid"`
	SampleUnix       int64  `json:"sample_unix"`
}

// Variables returns the named telemetry variables exposed to operators.
func (t Telemetry) Variables() map[string]any {
	return map[string]any{
		"release":           t.Release,
		"state":             t.State,
		"temperature":       t.Temperature,
		"humidity":          t.Humidity,
		"battery":           t.Battery,
		"battery-context":   t.BatteryContext,
		"temperature-upper": t.UpperTemp,
		"temperature-lower": t.LowerTemp,
		"humidity-upper":    t.UpperHumidity,
		"humidity-lower":    t.LowerHumidity,
		"keep-alive-sec":    t.KeepAliveSec,
		"alternate-carrier": t.AlternateCarrier,
	}
}

// Variable looks up a single telemetry variable by name.
func (t Telemetry) Variable(name string) (any, bool) {
	v, ok := t.Variables()[name]
	return v, ok
}
