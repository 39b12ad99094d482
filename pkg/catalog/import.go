package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/korjavin/mealdeals/pkg/models"
)

// ImportStats reports what an import wrote
type ImportStats struct {
	Meals          int
	Offers         int
	FoodComponents int
	Skipped        int
}

// snapshot is the shape of a realtime database export
type snapshot struct {
	Meals          json.RawMessage `json:"meals"`
	Offers         json.RawMessage `json:"offers"`
	FoodComponents json.RawMessage `json:"foodComponents"`
}

// Import loads a database export of the form
// {"meals": {...}, "offers": {...}, "foodComponents": {...}} into the store.
// Each section may be an object keyed by id or a list, in which case the
// list index becomes the id. Records that do not decode are counted as skipped.
func (c *Catalog) Import(r io.Reader) (ImportStats, error) {
	var stats ImportStats

	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return stats, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	docs := make(map[string]interface{})

	meals, err := entries(snap.Meals)
	if err != nil {
		return stats, fmt.Errorf("meals: %w", err)
	}
	for id, data := range meals {
		var meal models.Meal
		if !validID(id) || unmarshal(data, &meal) != nil {
			c.logger.Warn("Skipping imported meal %q", id)
			stats.Skipped++
			continue
		}
		meal.ID = id
		docs[MealPrefix+id] = meal
		stats.Meals++
	}

	offers, err := entries(snap.Offers)
	if err != nil {
		return stats, fmt.Errorf("offers: %w", err)
	}
	for id, data := range offers {
		if !validID(id) {
			stats.Skipped++
			continue
		}
		if _, err := c.fields.decodeOffer(id, data); err != nil {
			c.logger.Warn("Skipping imported offer %q: %v", id, err)
			stats.Skipped++
			continue
		}
		// Offers keep their upstream shape so the period mapping can change later
		docs[OfferPrefix+id] = data
		stats.Offers++
	}

	components, err := entries(snap.FoodComponents)
	if err != nil {
		return stats, fmt.Errorf("foodComponents: %w", err)
	}
	for id, data := range components {
		var fc models.FoodComponent
		if !validID(id) || unmarshal(data, &fc) != nil || fc.Category == "" {
			c.logger.Warn("Skipping imported food component %q", id)
			stats.Skipped++
			continue
		}
		docs[FoodComponentPrefix+id] = fc
		stats.FoodComponents++
	}

	if err := c.store.SetMany(docs); err != nil {
		return stats, fmt.Errorf("failed to write snapshot: %w", err)
	}
	c.logger.Info("Imported %d meals, %d offers, %d food components (%d skipped)",
		stats.Meals, stats.Offers, stats.FoodComponents, stats.Skipped)
	return stats, nil
}

// entries splits a section into id -> raw record. Lists use their index as id
// and null holes are dropped.
func entries(data json.RawMessage) (map[string]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		out := make(map[string]json.RawMessage, len(list))
		for i, rec := range list {
			if bytes.Equal(bytes.TrimSpace(rec), []byte("null")) {
				continue
			}
			out[strconv.Itoa(i)] = rec
		}
		return out, nil
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validID(id string) bool {
	return id != "" && !strings.Contains(id, ":")
}
