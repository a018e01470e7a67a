package service

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// Recipe is the amount of water and ground coffee a drink consumes.
type Recipe struct {
	WaterML int `json:"water_ml"`
	CoffeeG int `json:"coffee_g"`
}

// Drink names.
const (
	Espresso       = "espresso"
	DoubleEspresso = "double_espresso"
	Ristretto      = "ristretto"
	Americano      = "americano"
)

// drinkOrder is the order drinks are listed in error messages.
var drinkOrder = []string{Espresso, DoubleEspresso, Ristretto, Americano}

var recipes = map[string]Recipe{
	Espresso:       {WaterML: 24, CoffeeG: 8},
	DoubleEspresso: {WaterML: 48, CoffeeG: 16},
	Ristretto:      {WaterML: 16, CoffeeG: 8},
	Americano:      {WaterML: 148, CoffeeG: 16},
}

// Recipes returns a copy of the recipe table.
func Recipes() map[string]Recipe {
	out := make(map[string]Recipe, len(recipes))
	for k, v := range recipes {
		out[k] = v
	}
	return out
}

// DrinkLabel turns a drink name into its display label ("double_espresso" -> "Double Espresso").
func DrinkLabel(drink string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(drink, "_", " "))
}

// canBrewAny reports whether st holds enough water and coffee for at least one recipe.
func canBrewAny(st storage.MachineState) bool {
	for _, r := range recipes {
		if st.WaterML >= r.WaterML && st.CoffeeG >= r.CoffeeG {
			return true
		}
	}
	return false
}
