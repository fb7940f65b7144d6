package service

import (
	"fmt"
	"time"

	"coldchain_logger/internal/models"
)

const (
	withinThresholdsMessage = "All within thresholds"
	blinkPeriod             = time.Second
)

// AlertEvaluator compares a sample against the four bounds and latches every
// crossing. Latches are sticky; only a successful acknowledgement clears them.
type AlertEvaluator struct{}

// Evaluate reports whether any bound was crossed by this sample. When several
// bounds are crossed the message describes the last one checked.
func (AlertEvaluator) Evaluate(a *models.AlertState, s models.SensorSample) (bool, string) {
	crossed := false
	msg := withinThresholdsMessage

	if s.TemperatureC < a.LowerTempC {
		a.LowerTempCrossed = true
		msg = fmt.Sprintf("Low Temp Alert %4.2f < %4.2f", s.TemperatureC, a.LowerTempC)
		crossed = true
	}
	if s.TemperatureC > a.UpperTempC {
		a.UpperTempCrossed = true
		msg = fmt.Sprintf("High Temp Alert %4.2f > %4.2f", s.TemperatureC, a.UpperTempC)
		crossed = true
	}
	if s.Humidity < a.LowerHumidity {
		a.LowerHumidityCrossed = true
		msg = fmt.Sprintf("Low Humidity Alert %4.2f < %4.2f", s.Humidity, a.LowerHumidity)
		crossed = true
	}
	if s.Humidity > a.UpperHumidity {
		a.UpperHumidityCrossed = true
		msg = fmt.Sprintf("High Humidity Alert %4.2f > %4.2f", s.Humidity, a.UpperHumidity)
		crossed = true
	}
	return crossed, msg
}

// Blinker flashes the alert LED at 1 Hz from the loop without blocking it.
type Blinker struct {
	led        LED
	on         bool
	lastChange time.Time
}

func NewBlinker(led LED) *Blinker {
	return &Blinker{led: led}
}

// Update toggles the LED when active and a full period has passed. When
// inactive the LED is forced off.
func (b *Blinker) Update(active bool, now time.Time) {
	if !active {
		b.Off()
		return
	}
	if now.Sub(b.lastChange) < blinkPeriod {
		return
	}
	b.on = !b.on
	b.led.Set(b.on)
	b.lastChange = now
}

func (b *Blinker) Off() {
	if !b.on {
		return
	}
	b.on = false
	b.led.Set(false)
}
