package repository

import (
	"context"
	"database/sql"
	"time"

	"coldchain_logger/internal/models"
)

// BlockStore is byte-addressed non-volatile storage laid out by a fixed memory map.
type BlockStore interface {
	Get(ctx context.Context, addr, n int) ([]byte, error)
	Put(ctx context.Context, addr int, data []byte) error
	Erase(ctx context.Context) error
}

// EventRepo journals every event handed to the transport.
type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, name string) ([]models.Event, error)
}

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type Repository struct {
	Blocks    BlockStore
	EventRepo EventRepo
	Auth      Authorization
}

// NewRepository backs everything with the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Blocks:    NewBlockSQLite(db, StoreCapacity),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
