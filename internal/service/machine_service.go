// Package service implements the coffee machine business logic between the
// HTTP handlers and the storage package. All interfaces are designed for easy
// mocking in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/shaharia-lab/coffeebar/internal/metrics"
	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// MachineService defines the operations available on the coffee machine.
type MachineService interface {
	// Status returns the current machine state.
	Status(ctx context.Context) (storage.MachineState, error)

	// FillWater adds amountML of water. Overflowing the container is rejected.
	FillWater(ctx context.Context, amountML int) (storage.MachineState, error)

	// FillCoffee adds amountG of ground coffee. Overflowing the container is rejected.
	FillCoffee(ctx context.Context, amountG int) (storage.MachineState, error)

	// Brew consumes the recipe of drink.
	Brew(ctx context.Context, drink string) (storage.MachineState, error)

	// Recipes returns the supported drinks and what they consume.
	Recipes() map[string]Recipe
}

// Option configures a MachineService.
type Option func(*machineService)

// WithEventPublisher publishes a machine event after every successful change.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *machineService) { s.events = p }
}

// machineService is the default implementation of MachineService.
type machineService struct {
	mu     sync.Mutex
	store  storage.MachineStore
	events EventPublisher
	logger *slog.Logger
}

// NewMachineService returns a MachineService backed by the given store.
func NewMachineService(store storage.MachineStore, logger *slog.Logger, opts ...Option) MachineService {
	s := &machineService{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *machineService) Status(ctx context.Context) (storage.MachineState, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return storage.MachineState{}, fmt.Errorf("loading machine state: %w", err)
	}
	return st, nil
}

func (s *machineService) FillWater(ctx context.Context, amountML int) (storage.MachineState, error) {
	st, err := s.apply(ctx, func(st storage.MachineState) (storage.MachineState, error) {
		return fillWater(st, amountML)
	})
	metrics.ObserveFill("water", resultOf(err))
	if err == nil {
		s.logger.Info("water filled", "amount_ml", amountML, "water_ml", st.WaterML)
		s.publish(EventWaterFilled, st, "amount_ml", strconv.Itoa(amountML))
	}
	return st, err
}

func (s *machineService) FillCoffee(ctx context.Context, amountG int) (storage.MachineState, error) {
	st, err := s.apply(ctx, func(st storage.MachineState) (storage.MachineState, error) {
		return fillCoffee(st, amountG)
	})
	metrics.ObserveFill("coffee", resultOf(err))
	if err == nil {
		s.logger.Info("coffee filled", "amount_g", amountG, "coffee_g", st.CoffeeG)
		s.publish(EventCoffeeFilled, st, "amount_g", strconv.Itoa(amountG))
	}
	return st, err
}

func (s *machineService) Brew(ctx context.Context, drink string) (storage.MachineState, error) {
	st, err := s.apply(ctx, func(st storage.MachineState) (storage.MachineState, error) {
		return brew(st, drink)
	})
	label := drink
	if _, ok := recipes[drink]; !ok {
		label = "unknown"
	}
	metrics.ObserveBrew(label, resultOf(err))
	if err == nil {
		s.logger.Info("drink brewed", "drink", drink, "water_ml", st.WaterML, "coffee_g", st.CoffeeG)
		s.publish(EventDrinkBrewed, st, "drink", drink)
		if !canBrewAny(st) {
			s.logger.Warn("supplies too low for any drink", "water_ml", st.WaterML, "coffee_g", st.CoffeeG)
			s.publish(EventSupplyLow, st)
		}
	}
	return st, err
}

func (s *machineService) Recipes() map[string]Recipe {
	return Recipes()
}

// apply runs fn against the stored state and saves the result. The
// load-modify-save sequence is serialised so concurrent requests never lose
// an update. A failing fn leaves the stored state untouched.
func (s *machineService) apply(ctx context.Context, fn func(storage.MachineState) (storage.MachineState, error)) (storage.MachineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return storage.MachineState{}, fmt.Errorf("loading machine state: %w", err)
	}

	next, err := fn(st)
	if err != nil {
		return st, err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return st, fmt.Errorf("saving machine state: %w", err)
	}
	return next, nil
}

// publish emits eventType with the machine levels of st and the extra
// key/value pairs in kv.
func (s *machineService) publish(eventType string, st storage.MachineState, kv ...string) {
	if s.events == nil {
		return
	}
	payload := map[string]string{
		"water_ml": strconv.Itoa(st.WaterML),
		"coffee_g": strconv.Itoa(st.CoffeeG),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		payload[kv[i]] = kv[i+1]
	}
	s.events.Publish(eventType, payload)
}

func resultOf(err error) string {
	var ve *ValidationError
	var re *RejectedError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &ve):
		return metrics.ResultInvalid
	case errors.As(err, &re):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
