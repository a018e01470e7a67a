package storage

import "context"

// Default container capacities of a new machine.
const (
	DefaultWaterCapacityML = 2000
	DefaultCoffeeCapacityG = 500
)

// MachineState is the fill level and capacity of the coffee machine.
type MachineState struct {
	WaterML         int `json:"water_ml"`
	CoffeeG         int `json:"coffee_g"`
	WaterCapacityML int `json:"water_capacity_ml"`
	CoffeeCapacityG int `json:"coffee_capacity_g"`
}

// NewMachineState returns an empty machine with the given capacities.
func NewMachineState(waterCapacityML, coffeeCapacityG int) MachineState {
	return MachineState{
		WaterCapacityML: waterCapacityML,
		CoffeeCapacityG: coffeeCapacityG,
	}
}

// MachineStore loads and saves the single machine state.
type MachineStore interface {
	Load(ctx context.Context) (MachineState, error)
	Save(ctx context.Context, state MachineState) error
}
