package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned for accesses past the end of the store.
var ErrOutOfRange = errors.New("address out of range")

// BlockMemory is a RAM image of the store. Contents do not survive the process.
type BlockMemory struct {
	mu   sync.Mutex
	data []byte
}

func NewBlockMemory(capacity int) *BlockMemory {
	return &BlockMemory{data: make([]byte, capacity)}
}

var _ BlockStore = (*BlockMemory)(nil)

func (m *BlockMemory) Get(_ context.Context, addr, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(addr, n, len(m.data)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.data[addr:addr+n])
	return out, nil
}

func (m *BlockMemory) Put(_ context.Context, addr int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(addr, len(data), len(m.data)); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	return nil
}

func (m *BlockMemory) Erase(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

func checkRange(addr, n, capacity int) error {
	if addr < 0 || n < 0 || addr+n > capacity {
		return fmt.Errorf("%w: 0x%02X+%d exceeds 0x%02X", ErrOutOfRange, addr, n, capacity)
	}
	return nil
}
