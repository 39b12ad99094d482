package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/korjavin/mealdeals/pkg/models"
	"github.com/korjavin/mealdeals/pkg/storage"
)

// Stored offer property names
const (
	propName         = "name"
	propStore        = "store"
	propPrice        = "price"
	propCurrency     = "valuta"
	propWeight       = "weight"
	propWeightUnit   = "weight_unit"
	propCategories   = "categories"
	propMatchedItems = "matchedItems"
	propCatalogID    = "catelog_id"
)

// FieldMapping names the stored properties that become Offer.OfferStart and Offer.OfferEnd.
//
// Upstream records carry "run_from" and "run_till". The default reads
// OfferStart from "run_till" and OfferEnd from "run_from", which is how existing
// consumers read them, even though the names suggest the opposite.
type FieldMapping struct {
	Start string
	End   string
}

// DefaultFieldMapping returns the mapping existing consumers use
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{Start: "run_till", End: "run_from"}
}

// decodeOffer converts a stored offer document into an Offer
func (m FieldMapping) decodeOffer(id string, data []byte) (models.Offer, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Offer{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	price := models.ParseNumber(raw[propPrice])
	if math.IsNaN(price) {
		return models.Offer{}, fmt.Errorf("%w: price %s is not a number", ErrMalformed, orMissing(raw[propPrice]))
	}

	weight := models.ParseNumber(raw[propWeight])
	if math.IsNaN(weight) {
		weight = 0
	}

	var matched models.Items
	if err := json.Unmarshal(orNull(raw[propMatchedItems]), &matched); err != nil {
		matched = nil
	}
	var categories models.Items
	if err := json.Unmarshal(orNull(raw[propCategories]), &categories); err != nil {
		categories = nil
	}

	return models.Offer{
		ID:            id,
		Name:          text(raw[propName]),
		Store:         text(raw[propStore]),
		Price:         price,
		PriceCurrency: text(raw[propCurrency]),
		Weight:        weight,
		WeightUnit:    text(raw[propWeightUnit]),
		OfferStart:    text(raw[m.Start]),
		OfferEnd:      text(raw[m.End]),
		Category:      strings.Join(categories, ", "),
		MatchedItems:  matched,
		CatalogID:     text(raw[propCatalogID]),
	}, nil
}

// SetOfferMatchedItems replaces the matched items of a stored offer,
// leaving every other stored property untouched
func (c *Catalog) SetOfferMatchedItems(id string, items []string) error {
	key := OfferPrefix + id
	var raw map[string]json.RawMessage
	if err := c.store.Get(key, &raw); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("offer %q: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch offer %q: %w", id, err)
	}
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode matched items: %w", err)
	}
	raw[propMatchedItems] = encoded

	if err := c.store.Set(key, raw); err != nil {
		return fmt.Errorf("failed to update offer %q: %w", id, err)
	}
	return nil
}

// text reads a JSON string or number as a string. Anything else is "".
func text(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func orNull(data json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null")
	}
	return data
}

func orMissing(data json.RawMessage) string {
	if len(data) == 0 {
		return "(missing)"
	}
	return string(data)
}

func unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
