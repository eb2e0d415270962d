// Package store provides an in-memory Store implementation for tests
// and development.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/warp/voucher-engine/voucher"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	active   []voucher.Voucher
	redeemed []voucher.Voucher
	counts   map[string]int

	// SaveErr, when set, makes every Save fail with that error. Used to
	// exercise rollback paths in engine tests.
	SaveErr error
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int)}
}

// Seed installs an initial snapshot, bypassing the error injection.
func (m *Memory) Seed(active, redeemed []voucher.Voucher, counts map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = slices.Clone(active)
	m.redeemed = slices.Clone(redeemed)
	m.counts = make(map[string]int, len(counts))
	for k, n := range counts {
		m.counts[k] = n
	}
}

func (m *Memory) LoadActive(_ context.Context) ([]voucher.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.active), nil
}

func (m *Memory) LoadRedeemed(_ context.Context) ([]voucher.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.redeemed), nil
}

func (m *Memory) LoadCounts(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.counts))
	for k, n := range m.counts {
		out[k] = n
	}
	return out, nil
}

func (m *Memory) SaveActive(_ context.Context, active []voucher.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.active = slices.Clone(active)
	return nil
}

func (m *Memory) SaveRedeemed(_ context.Context, redeemed []voucher.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.redeemed = slices.Clone(redeemed)
	return nil
}

func (m *Memory) SaveCounts(_ context.Context, counts map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.counts = make(map[string]int, len(counts))
	for k, n := range counts {
		m.counts[k] = n
	}
	return nil
}

var _ voucher.Store = (*Memory)(nil)
