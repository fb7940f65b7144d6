package models

import "time"

// SensorSample is the single persisted slot holding the latest reading.
type SensorSample struct {
	Valid         bool    `json:"valid"`
	TimestampUnix int64   `json:"timestamp_unix"`
	TemperatureC  float64 `json:"temperature_c"`
	Humidity      float64 `json:"humidity"` // %RH
	StateOfCharge int32   `json:"state_of_charge"`
}

// Time returns the capture time, zero when the slot was never written.
func (s SensorSample) Time() time.Time {
	if s.TimestampUnix == 0 {
		return time.Time{}
	}
	return time.Unix(s.TimestampUnix, 0).UTC()
}
