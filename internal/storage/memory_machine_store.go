package storage

import (
	"context"
	"sync"
)

// MemoryMachineStore keeps the machine state in process memory.
// State is lost on restart.
type MemoryMachineStore struct {
	mu    sync.RWMutex
	state MachineState
}

// NewMemoryMachineStore returns a store seeded with initial.
func NewMemoryMachineStore(initial MachineState) *MemoryMachineStore {
	return &MemoryMachineStore{state: initial}
}

// Load returns a copy of the stored state.
func (s *MemoryMachineStore) Load(_ context.Context) (MachineState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

// Save replaces the stored state.
func (s *MemoryMachineStore) Save(_ context.Context, state MachineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}
