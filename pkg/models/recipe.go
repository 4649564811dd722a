package models

import "time"

// Ingredient is one line of a recipe's shopping list.
type Ingredient struct {
	Name     string  `json:"name"     validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit"`
}

// Recipe is the result a generation run resolves into.
type Recipe struct {
	ID          string       `json:"id"          validate:"required"`
	Title       string       `json:"title"       validate:"required,min=3"`
	Description string       `json:"description"`
	Servings    int          `json:"servings"    validate:"gte=1"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	// SafetyScore grades allergen and food-safety confidence from 0 to 100.
	SafetyScore int       `json:"safety_score" validate:"gte=0,lte=100"`
	CreatedAt   time.Time `json:"created_at"`
}
