package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/coffeebar/internal/service"
	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// MockMachineService is a mock implementation of service.MachineService.
type MockMachineService struct {
	mock.Mock
}

//nolint:revive
func (m *MockMachineService) Status(ctx context.Context) (storage.MachineState, error) {
	args := m.Called(ctx)
	return args.Get(0).(storage.MachineState), args.Error(1)
}

//nolint:revive
func (m *MockMachineService) FillWater(ctx context.Context, amountML int) (storage.MachineState, error) {
	args := m.Called(ctx, amountML)
	return args.Get(0).(storage.MachineState), args.Error(1)
}

//nolint:revive
func (m *MockMachineService) FillCoffee(ctx context.Context, amountG int) (storage.MachineState, error) {
	args := m.Called(ctx, amountG)
	return args.Get(0).(storage.MachineState), args.Error(1)
}

//nolint:revive
func (m *MockMachineService) Brew(ctx context.Context, drink string) (storage.MachineState, error) {
	args := m.Called(ctx, drink)
	return args.Get(0).(storage.MachineState), args.Error(1)
}

//nolint:revive
func (m *MockMachineService) Recipes() map[string]service.Recipe {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]service.Recipe)
}
