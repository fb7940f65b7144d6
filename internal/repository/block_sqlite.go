package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// BlockSQLite keeps each memory-map block as one row keyed by its start address.
// Reads must use the same start address as the write that produced the block.
type BlockSQLite struct {
	db       *sql.DB
	capacity int
}

func NewBlockSQLite(db *sql.DB, capacity int) *BlockSQLite {
	return &BlockSQLite{db: db, capacity: capacity}
}

var _ BlockStore = (*BlockSQLite)(nil)

const (
	upsertBlockSQL = `
		INSERT INTO store_blocks (addr, data) VALUES (?, ?)
		ON CONFLICT(addr) DO UPDATE SET data=excluded.data
	`
	selectBlockSQL = `SELECT data FROM store_blocks WHERE addr=?`
	eraseBlocksSQL = `DELETE FROM store_blocks`
)

// Get returns n bytes at addr. Never-written or short blocks read back as zeros,
// the same as an erased part.
func (r *BlockSQLite) Get(ctx context.Context, addr, n int) ([]byte, error) {
	if err := checkRange(addr, n, r.capacity); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.QueryRowContext(ctx, selectBlockSQL, addr).Scan(&data)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read block 0x%02X: %w", addr, err)
	}
	out := make([]byte, n)
	copy(out, data)
	return out, nil
}

// Put writes data as the block starting at addr.
func (r *BlockSQLite) Put(ctx context.Context, addr int, data []byte) error {
	if err := checkRange(addr, len(data), r.capacity); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertBlockSQL, addr, data); err != nil {
		return fmt.Errorf("write block 0x%02X: %w", addr, err)
	}
	return nil
}

// Erase drops every block.
func (r *BlockSQLite) Erase(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, eraseBlocksSQL); err != nil {
		return fmt.Errorf("erase blocks: %w", err)
	}
	return nil
}
