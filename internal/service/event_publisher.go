package service

// EventPublisher is the interface for publishing application events.
// Services use this interface to emit events without depending on a concrete
// event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Machine event types. Every payload carries the resulting water_ml and
// coffee_g levels.
const (
	EventWaterFilled  = "machine.water.filled"
	EventCoffeeFilled = "machine.coffee.filled"
	EventDrinkBrewed  = "machine.drink.brewed"

	// EventSupplyLow follows a brew that left too little water or coffee
	// for any recipe.
	EventSupplyLow = "machine.supply.low"
)
