package service

import (
	"strings"

	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// brew consumes the recipe for drink from st. st is returned unchanged on error.
func brew(st storage.MachineState, drink string) (storage.MachineState, error) {
	need, ok := recipes[drink]
	if !ok {
		return st, &ValidationError{
			Field: "type",
			Message: "Unknown drink type '" + drink + "'. Allowed: " +
				strings.Join(drinkOrder, ", ") + ".",
		}
	}
	label := DrinkLabel(drink)

	switch {
	case st.WaterML <= 0 && st.CoffeeG <= 0:
		return st, rejectf("Cannot brew %s: both containers are empty. Please fill water and coffee.", label)
	case st.WaterML <= 0:
		return st, rejectf("Cannot brew %s: water container is empty. Please fill water.", label)
	case st.CoffeeG <= 0:
		return st, rejectf("Cannot brew %s: coffee container is empty. Please fill coffee.", label)
	case st.WaterML < need.WaterML:
		return st, rejectf("Not enough water for %s. Need %d ml, have %d ml.", label, need.WaterML, st.WaterML)
	case st.CoffeeG < need.CoffeeG:
		return st, rejectf("Not enough coffee for %s. Need %d g, have %d g.", label, need.CoffeeG, st.CoffeeG)
	}

	st.WaterML -= need.WaterML
	st.CoffeeG -= need.CoffeeG
	return st, nil
}

func fillWater(st storage.MachineState, amountML int) (storage.MachineState, error) {
	if amountML <= 0 {
		return st, &ValidationError{Field: "amount_ml", Message: "Water amount must be greater than 0 ml."}
	}
	if amountML > st.WaterCapacityML-st.WaterML {
		return st, rejectf("Filling %d ml would overflow the water container. Current: %d ml, capacity: %d ml.",
			amountML, st.WaterML, st.WaterCapacityML)
	}
	st.WaterML += amountML
	return st, nil
}

func fillCoffee(st storage.MachineState, amountG int) (storage.MachineState, error) {
	if amountG <= 0 {
		return st, &ValidationError{Field: "amount_g", Message: "Coffee amount must be greater than 0 g."}
	}
	if amountG > st.CoffeeCapacityG-st.CoffeeG {
		return st, rejectf("Filling %d g would overflow the coffee container. Current: %d g, capacity: %d g.",
			amountG, st.CoffeeG, st.CoffeeCapacityG)
	}
	st.CoffeeG += amountG
	return st, nil
}
