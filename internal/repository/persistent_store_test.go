package repository

import (
	"context"
	"errors"
	"math"
	"testing"

	"coldchain_logger/internal/models"
)

// stuckVersionStore drops writes to the version byte, like a failed part.
type stuckVersionStore struct {
	*BlockMemory
}

func (s stuckVersionStore) Put(ctx context.Context, addr int, data []byte) error {
	if addr == VersionAddr {
		return nil
	}
	return s.BlockMemory.Put(ctx, addr, data)
}

func TestOpen_FreshStoreReinitializesWithDefaults(t *testing.T) {
	mem := NewBlockMemory(StoreCapacity)
	ps := NewPersistentStore(mem)

	snap, err := ps.Open(testCtx(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !snap.Reinitialized || snap.FoundVersion != 0 {
		t.Fatalf("expected reinitialization from version 0, got %+v", snap)
	}
	if snap.System != models.DefaultSystemState() || snap.Alerts != models.DefaultAlertState() {
		t.Fatalf("expected defaults, got %+v / %+v", snap.System, snap.Alerts)
	}

	// defaults must already be on the medium, not deferred
	v, _ := mem.Get(testCtx(t), VersionAddr, 1)
	if v[0] != SchemaVersion {
		t.Fatalf("version byte = %d, want %d", v[0], SchemaVersion)
	}
	sys, err := ps.LoadSystem(testCtx(t))
	if err != nil || sys != models.DefaultSystemState() {
		t.Fatalf("persisted system = %+v, err=%v", sys, err)
	}
	alerts, err := ps.LoadAlerts(testCtx(t))
	if err != nil || alerts != models.DefaultAlertState() {
		t.Fatalf("persisted alerts = %+v, err=%v", alerts, err)
	}
}

func TestOpen_VersionMismatchErasesEverything(t *testing.T) {
	ctx := testCtx(t)
	mem := NewBlockMemory(StoreCapacity)
	ps := NewPersistentStore(mem)

	_ = mem.Put(ctx, VersionAddr, []byte{SchemaVersion - 1})
	_ = ps.SaveSample(ctx, models.SensorSample{Valid: true, TimestampUnix: 1700000000, TemperatureC: 4.2})
	custom := models.DefaultAlertState()
	custom.UpperTempC = 8
	_ = ps.SaveAlerts(ctx, custom)

	snap, err := ps.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !snap.Reinitialized || snap.FoundVersion != SchemaVersion-1 {
		t.Fatalf("expected reinitialization, got %+v", snap)
	}
	if snap.Alerts.UpperTempC != 30 {
		t.Fatalf("expected default upper temp, got %v", snap.Alerts.UpperTempC)
	}
	sample, _ := ps.LoadSample(ctx)
	if sample.Valid || sample.TimestampUnix != 0 {
		t.Fatalf("sample block should be erased, got %+v", sample)
	}
}

func TestOpen_MatchingVersionLoadsVerbatim(t *testing.T) {
	ctx := testCtx(t)
	mem := NewBlockMemory(StoreCapacity)
	ps := NewPersistentStore(mem)

	_ = mem.Put(ctx, VersionAddr, []byte{SchemaVersion})
	sys := models.SystemState{
		StructuresVersion: 1,
		KeepAliveSec:      300,
		Verbose:           true,
		StateOfCharge:     87,
		BatteryState:      models.BatteryCharging,
		ResetCount:        4,
		LastAckUnix:       1700000123,
	}
	alerts := models.AlertState{
		LowerTempCrossed: true,
		AnyCrossed:       true,
		UpperTempC:       8,
		LowerTempC:       2,
		UpperHumidity:    70,
		LowerHumidity:    10,
	}
	sample := models.SensorSample{Valid: true, TimestampUnix: 1700000400, TemperatureC: 1.5, Humidity: 40.25, StateOfCharge: 87}
	_ = ps.SaveSystem(ctx, sys)
	_ = ps.SaveAlerts(ctx, alerts)
	_ = ps.SaveSample(ctx, sample)

	snap, err := ps.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if snap.Reinitialized {
		t.Fatalf("matching version must not reinitialize")
	}
	if snap.System != sys || snap.Alerts != alerts || snap.Sample != sample {
		t.Fatalf("loaded %+v / %+v / %+v", snap.System, snap.Alerts, snap.Sample)
	}
}

func TestOpen_VersionVerifyFailure(t *testing.T) {
	ps := NewPersistentStore(stuckVersionStore{NewBlockMemory(StoreCapacity)})

	_, err := ps.Open(testCtx(t))
	if !errors.Is(err, ErrSchemaVerify) {
		t.Fatalf("expected ErrSchemaVerify, got %v", err)
	}
}

func TestDecode_CorruptFlagsAndRangesAreSanitizable(t *testing.T) {
	raw := encodeSystem(models.SystemState{KeepAliveSec: 5000, ResetCount: 900, BatteryState: 9})
	raw[1] = 0x7F // alternate carrier flag
	raw[7] = 0xFF // verbose flag

	sys := decodeSystem(raw)
	if sys.AlternateCarrier || sys.Verbose {
		t.Fatalf("corrupt flag bytes must decode as false: %+v", sys)
	}
	if !sys.Sanitize() {
		t.Fatalf("expected sanitize to report changes")
	}
	if sys.KeepAliveSec != 600 || sys.ResetCount != 0 || sys.BatteryState != models.BatteryUnknown {
		t.Fatalf("unexpected sanitized values: %+v", sys)
	}

	alerts := decodeAlerts(encodeAlerts(models.AlertState{
		UpperTempC:    math.NaN(),
		LowerTempC:    -4,
		UpperHumidity: 95,
		LowerHumidity: 10,
	}))
	alerts.Sanitize()
	if alerts.UpperTempC != 33 || alerts.LowerTempC != 3 || alerts.UpperHumidity != 63 || alerts.LowerHumidity != 10 {
		t.Fatalf("unexpected sanitized thresholds: %+v", alerts)
	}
}

func TestRecordSizesFitMemoryMap(t *testing.T) {
	if got := len(encodeSystem(models.SystemState{})); got != systemRecordSize || SystemAddr+got > AlertsAddr {
		t.Fatalf("system record %d bytes overlaps alerts block", got)
	}
	if got := len(encodeAlerts(models.AlertState{})); got != alertRecordSize || AlertsAddr+got > SampleAddr {
		t.Fatalf("alert record %d bytes overlaps sample block", got)
	}
	if got := len(encodeSample(models.SensorSample{})); got != sampleRecordSize || SampleAddr+got > StoreCapacity {
		t.Fatalf("sample record %d bytes exceeds capacity", got)
	}
}
