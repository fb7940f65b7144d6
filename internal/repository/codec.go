package repository

import (
	"encoding/binary"
	"math"

	"coldchain_logger/internal/models"
)

// Record sizes on the wire. Each fits inside its memory-map region.
const (
	systemRecordSize = 26
	alertRecordSize  = 37
	sampleRecordSize = 29
)

var le = binary.LittleEndian

type recordWriter struct {
	buf []byte
}

func (w *recordWriter) flag(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}
func (w *recordWriter) u8(v uint8)    { w.buf = append(w.buf, v) }
func (w *recordWriter) i32(v int32)   { w.buf = le.AppendUint32(w.buf, uint32(v)) }
func (w *recordWriter) i64(v int64)   { w.buf = le.AppendUint64(w.buf, uint64(v)) }
func (w *recordWriter) f64(v float64) { w.buf = le.AppendUint64(w.buf, math.Float64bits(v)) }

type recordReader struct {
	buf []byte
	off int
}

// flag decodes a boolean byte. Anything other than 0 or 1 is corruption and
// reads as false.
func (r *recordReader) flag() bool {
	b := r.u8()
	return b == 1
}
func (r *recordReader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}
func (r *recordReader) i32() int32 {
	v := int32(le.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}
func (r *recordReader) i64() int64 {
	v := int64(le.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}
func (r *recordReader) f64() float64 {
	v := math.Float64frombits(le.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}

func encodeSystem(s models.SystemState) []byte {
	w := recordWriter{buf: make([]byte, 0, systemRecordSize)}
	w.u8(s.StructuresVersion)
	w.flag(s.AlternateCarrier)
	w.i32(s.KeepAliveSec)
	w.flag(s.Connected)
	w.flag(s.Verbose)
	w.flag(s.LowPower)
	w.i32(s.StateOfCharge)
	w.u8(uint8(s.BatteryState))
	w.i32(s.ResetCount)
	w.i64(s.LastAckUnix)
	return w.buf
}

func decodeSystem(b []byte) models.SystemState {
	r := recordReader{buf: b}
	return models.SystemState{
		StructuresVersion: r.u8(),
		AlternateCarrier:  r.flag(),
		KeepAliveSec:      r.i32(),
		Connected:         r.flag(),
		Verbose:           r.flag(),
		LowPower:          r.flag(),
		StateOfCharge:     r.i32(),
		BatteryState:      models.BatteryState(r.u8()),
		ResetCount:        r.i32(),
		LastAckUnix:       r.i64(),
	}
}

func encodeAlerts(a models.AlertState) []byte {
	w := recordWriter{buf: make([]byte, 0, alertRecordSize)}
	w.flag(a.UpperTempCrossed)
	w.flag(a.LowerTempCrossed)
	w.flag(a.UpperHumidityCrossed)
	w.flag(a.LowerHumidityCrossed)
	w.flag(a.AnyCrossed)
	w.f64(a.UpperTempC)
	w.f64(a.LowerTempC)
	w.f64(a.UpperHumidity)
	w.f64(a.LowerHumidity)
	return w.buf
}

func decodeAlerts(b []byte) models.AlertState {
	r := recordReader{buf: b}
	return models.AlertState{
		UpperTempCrossed:     r.flag(),
		LowerTempCrossed:     r.flag(),
		UpperHumidityCrossed: r.flag(),
		LowerHumidityCrossed: r.flag(),
		AnyCrossed:           r.flag(),
		UpperTempC:           r.f64(),
		LowerTempC:           r.f64(),
		UpperHumidity:        r.f64(),
		LowerHumidity:        r.f64(),
	}
}

func encodeSample(s models.SensorSample) []byte {
	w := recordWriter{buf: make([]byte, 0, sampleRecordSize)}
	w.flag(s.Valid)
	w.i64(s.TimestampUnix)
	w.f64(s.TemperatureC)
	w.f64(s.Humidity)
	w.i32(s.StateOfCharge)
	return w.buf
}

func decodeSample(b []byte) models.SensorSample {
	r := recordReader{buf: b}
	return models.SensorSample{
		Valid:         r.flag(),
		TimestampUnix: r.i64(),
		TemperatureC:  r.f64(),
		Humidity:      r.f64(),
		StateOfCharge: r.i32(),
	}
}
