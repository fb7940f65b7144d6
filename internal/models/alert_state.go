package models

import (
	"math"

	"coldchain_logger/internal/mathx"
)

// Threshold ranges (°C and %RH).
const (
	LowerTempMin     = 0.0
	LowerTempMax     = 20.0
	UpperTempMin     = 20.0
	UpperTempMax     = 90.0
	LowerHumidityMin = 0.0
	LowerHumidityMax = 50.0
	UpperHumidityMin = 20.0
	UpperHumidityMax = 90.0
)

// AlertState holds the sticky crossing latches and the configured bounds.
type AlertState struct {
	UpperTempCrossed     bool `json:"upper_temp_crossed"`
	LowerTempCrossed     bool `json:"lower_temp_crossed"`
	UpperHumidityCrossed bool `json:"upper_humidity_crossed"`
	LowerHumidityCrossed bool `json:"lower_humidity_crossed"`
	AnyCrossed           bool `json:"any_crossed"`

	UpperTempC    float64 `json:"upper_temp_c"`
	LowerTempC    float64 `json:"lower_temp_c"`
	UpperHumidity float64 `json:"upper_humidity"`
	LowerHumidity float64 `json:"lower_humidity"`
}

// DefaultAlertState returns factory thresholds with all latches cleared.
func DefaultAlertState() AlertState {
	return AlertState{
		UpperTempC:    30,
		LowerTempC:    2,
		UpperHumidity: 90,
		LowerHumidity: 5,
	}
}

// ClearLatches resets the four crossing latches and the aggregate flag.
func (a *AlertState) ClearLatches() {
	a.UpperTempCrossed = false
	a.LowerTempCrossed = false
	a.UpperHumidityCrossed = false
	a.LowerHumidityCrossed = false
	a.AnyCrossed = false
}

// Sanitize replaces out-of-range or NaN thresholds with fallbacks. The
// lower < upper ordering is not enforced here.
func (a *AlertState) Sanitize() bool {
	changed := false
	fix := func(v *float64, lo, hi, fallback float64) {
		if math.IsNaN(*v) || !mathx.Between(*v, lo, hi) {
			*v = fallback
			changed = true
		}
	}
	fix(&a.LowerTempC, LowerTempMin, LowerTempMax, 3.0)
	fix(&a.UpperTempC, UpperTempMin, UpperTempMax, 33.0)
	fix(&a.LowerHumidity, LowerHumidityMin, LowerHumidityMax, 13.0)
	fix(&a.UpperHumidity, UpperHumidityMin, UpperHumidityMax, 63.0)
	return changed
}
