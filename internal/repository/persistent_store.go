package repository

import (
	"context"
	"errors"
	"fmt"

	"coldchain_logger/internal/models"
)

// Memory map. Regions never overlap; a layout change must bump SchemaVersion.
const (
	VersionAddr     = 0x00
	SystemAddr      = 0x01
	AlertsAddr      = 0x50
	SampleAddr      = 0xA0
	StoreCapacity   = 0x100
	SchemaVersion   = 6
	versionByteSize = 1
)

// ErrSchemaVerify means the version byte did not read back after a reinitialization.
var ErrSchemaVerify = errors.New("store version did not verify after erase")

// Snapshot is what Open recovered from the store.
type Snapshot struct {
	System models.SystemState
	Alerts models.AlertState
	Sample models.SensorSample

	Reinitialized bool  // a version mismatch forced an erase and defaults
	FoundVersion  uint8 // version byte read before any repair
}

// PersistentStore maps the device structures onto a BlockStore.
type PersistentStore struct {
	blocks BlockStore
}

func NewPersistentStore(blocks BlockStore) *PersistentStore {
	return &PersistentStore{blocks: blocks}
}

// Open validates the schema version. On mismatch it erases the store, writes and
// re-verifies the expected version, then writes default system and alert blocks
// before returning them. There is no migration between versions.
func (s *PersistentStore) Open(ctx context.Context) (Snapshot, error) {
	found, err := s.readVersion(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	if found != SchemaVersion {
		return s.reinitialize(ctx, found)
	}

	snap := Snapshot{FoundVersion: found}
	if snap.System, err = s.LoadSystem(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Alerts, err = s.LoadAlerts(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Sample, err = s.LoadSample(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *PersistentStore) reinitialize(ctx context.Context, found uint8) (Snapshot, error) {
	if err := s.blocks.Erase(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("reinitialize store: %w", err)
	}
	if err := s.blocks.Put(ctx, VersionAddr, []byte{SchemaVersion}); err != nil {
		return Snapshot{}, fmt.Errorf("reinitialize store: %w", err)
	}
	got, err := s.readVersion(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reinitialize store: %w", err)
	}
	if got != SchemaVersion {
		return Snapshot{}, fmt.Errorf("%w: wrote %d, read %d", ErrSchemaVerify, SchemaVersion, got)
	}

	snap := Snapshot{
		System:        models.DefaultSystemState(),
		Alerts:        models.DefaultAlertState(),
		Reinitialized: true,
		FoundVersion:  found,
	}
	// written now rather than at the next checkpoint so later reads never see an empty block
	if err := s.SaveSystem(ctx, snap.System); err != nil {
		return Snapshot{}, err
	}
	if err := s.SaveAlerts(ctx, snap.Alerts); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *PersistentStore) readVersion(ctx context.Context) (uint8, error) {
	b, err := s.blocks.Get(ctx, VersionAddr, versionByteSize)
	if err != nil {
		return 0, fmt.Errorf("read store version: %w", err)
	}
	return b[0], nil
}

func (s *PersistentStore) LoadSystem(ctx context.Context) (models.SystemState, error) {
	b, err := s.blocks.Get(ctx, SystemAddr, systemRecordSize)
	if err != nil {
		return models.SystemState{}, fmt.Errorf("load system state: %w", err)
	}
	return decodeSystem(b), nil
}

func (s *PersistentStore) SaveSystem(ctx context.Context, st models.SystemState) error {
	if err := s.blocks.Put(ctx, SystemAddr, encodeSystem(st)); err != nil {
		return fmt.Errorf("save system state: %w", err)
	}
	return nil
}

func (s *PersistentStore) LoadAlerts(ctx context.Context) (models.AlertState, error) {
	b, err := s.blocks.Get(ctx, AlertsAddr, alertRecordSize)
	if err != nil {
		return models.AlertState{}, fmt.Errorf("load alert state: %w", err)
	}
	return decodeAlerts(b), nil
}

func (s *PersistentStore) SaveAlerts(ctx context.Context, a models.AlertState) error {
	if err := s.blocks.Put(ctx, AlertsAddr, encodeAlerts(a)); err != nil {
		return fmt.Errorf("save alert state: %w", err)
	}
	return nil
}

func (s *PersistentStore) LoadSample(ctx context.Context) (models.SensorSample, error) {
	b, err := s.blocks.Get(ctx, SampleAddr, sampleRecordSize)
	if err != nil {
		return models.SensorSample{}, fmt.Errorf("load sensor sample: %w", err)
	}
	return decodeSample(b), nil
}

func (s *PersistentStore) SaveSample(ctx context.Context, smp models.SensorSample) error {
	if err := s.blocks.Put(ctx, SampleAddr, encodeSample(smp)); err != nil {
		return fmt.Errorf("save sensor sample: %w", err)
	}
	return nil
}
