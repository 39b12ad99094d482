package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotImplemented is returned by operations that are declared but not supported
	ErrNotImplemented = errors.New("not implemented")
)

// Items is an ordered list of ingredient names.
//
// The document store has no schema, so items arrive as a single string, a list,
// or an object keyed by array index. All of these decode into the same slice.
type Items []string

// UnmarshalJSON implements json.Unmarshaler
func (it *Items) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*it = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*it = Items{s}
		return nil
	case '[':
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*it = stringsOnly(raw)
		return nil
	case '{':
		var raw map[string]interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*it = indexedValues(raw)
		return nil
	}

	// Numbers and booleans are not ingredient names
	*it = nil
	return nil
}

// Contains reports whether name is one of the items
func (it Items) Contains(name string) bool {
	for _, item := range it {
		if item == name {
			return true
		}
	}
	return false
}

func stringsOnly(raw []interface{}) Items {
	out := make(Items, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// indexedValues orders the entries of an {"0": .., "1": ..} object by numeric key.
// Non-numeric keys sort after numeric ones, lexically.
func indexedValues(raw map[string]interface{}) Items {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})

	out := make(Items, 0, len(keys))
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FoodComponent is one ingredient category of a meal, e.g. "Protein": ["chicken"]
type FoodComponent struct {
	Category string `json:"category"`
	Items    Items  `json:"items"`
}

// Valid reports whether the component carries enough data to be matched against offers
func (fc FoodComponent) Valid() bool {
	return fc.Category != "" && len(fc.Items) > 0
}

// Meal represents a meal that can be cooked from food components
type Meal struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          float64         `json:"price"`
	PriceCurrency  string          `json:"priceCurrency"`
	ImagePath      string          `json:"imagePath"`
	FoodComponents []FoodComponent `json:"foodComponents"`
	MealCuisine    string          `json:"mealCuisine,omitempty"`
	MealType       string          `json:"mealType,omitempty"`
}

// UnmarshalJSON accepts foodComponents as either a list or an index-keyed object
func (m *Meal) UnmarshalJSON(data []byte) error {
	type alias Meal
	aux := struct {
		*alias
		Price          Number          `json:"price"`
		FoodComponents json.RawMessage `json:"foodComponents"`
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Price = aux.Price.Float64()
	if math.IsNaN(m.Price) {
		m.Price = 0
	}

	components, err := decodeComponents(aux.FoodComponents)
	if err != nil {
		return fmt.Errorf("foodComponents: %w", err)
	}
	m.FoodComponents = components
	return nil
}

func decodeComponents(data json.RawMessage) ([]FoodComponent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '{' {
		var byIndex map[string]json.RawMessage
		if err := json.Unmarshal(data, &byIndex); err != nil {
			return nil, err
		}
		keys := make(map[string]interface{}, len(byIndex))
		for k := range byIndex {
			keys[k] = k
		}
		var out []FoodComponent
		for _, k := range indexedValues(keys) {
			var fc FoodComponent
			if err := json.Unmarshal(byIndex[k], &fc); err != nil {
				// A malformed component is skipped, not fatal
				continue
			}
			out = append(out, fc)
		}
		return out, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]FoodComponent, 0, len(raw))
	for _, r := range raw {
		var fc FoodComponent
		if err := json.Unmarshal(r, &fc); err != nil {
			continue
		}
		out = append(out, fc)
	}
	return out, nil
}

// Offer is a store discount on a product
type Offer struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Store         string  `json:"store"`
	Price         float64 `json:"price"`
	PriceCurrency string  `json:"priceCurrency"`
	Weight        float64 `json:"weight"`
	WeightUnit    string  `json:"weightUnit"`
	OfferStart    string  `json:"offerStart"`
	OfferEnd      string  `json:"offerEnd"`
	Category      string  `json:"category"`
	MatchedItems  Items   `json:"matchedItems"`
	CatalogID     string  `json:"catelogid"`
}

// Matches reports whether any of the offer's matched items is in items
func (o Offer) Matches(items Items) bool {
	return o.FirstMatch(items) != ""
}

// FirstMatch returns the first entry of items that the offer matches, or "" if none does
func (o Offer) FirstMatch(items Items) string {
	for _, item := range items {
		if item != "" && o.MatchedItems.Contains(item) {
			return item
		}
	}
	return ""
}

// Number decodes a JSON number or a numeric string. Anything else decodes to NaN.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(ParseNumber(data))
	return nil
}

// Float64 returns the number as float64
func (n Number) Float64() float64 {
	return float64(n)
}

// ParseNumber reads a JSON value as a number. Strings may use a decimal comma.
// Missing, null, non-numeric or infinite values yield NaN.
func ParseNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return math.NaN()
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return math.NaN()
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
