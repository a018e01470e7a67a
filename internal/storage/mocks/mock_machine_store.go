package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// MockMachineStore is a mock implementation of storage.MachineStore.
type MockMachineStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockMachineStore) Load(ctx context.Context) (storage.MachineState, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.MachineState), args.Error(1)
}

//nolint:revive
func (m *MockMachineStore) Save(ctx context.Context, state storage.MachineState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}
