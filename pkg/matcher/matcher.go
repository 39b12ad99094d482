// Package matcher groups store offers under the ingredients of a meal.
//
// The grouping is a derived view: it is recomputed from a meal and an offer
// snapshot every time it is needed and is never persisted.
package matcher

import (
	"math"
	"sort"

	"github.com/korjavin/mealdeals/pkg/models"
)

// Group is the set of offers collected under one key, cheapest first
type Group struct {
	Key    string         `json:"key"`
	Offers []models.Offer `json:"offers"`
}

// ComponentGroups holds the offer groups found for one food component
type ComponentGroups struct {
	Component models.FoodComponent `json:"component"`
	Groups    []Group              `json:"groups"`
}

// Empty reports whether no offer matched the component
func (cg ComponentGroups) Empty() bool {
	return len(cg.Groups) == 0
}

// ComputeOfferGroups matches the meal's food components against offers.
//
// Components without a category or without items are left out. A component
// that no offer matches is returned with no groups. Within a group offers are
// unique by (name, price) and ordered by ascending price, ties keeping the
// order in which they appear in offers.
func ComputeOfferGroups(meal models.Meal, offers []models.Offer) []ComponentGroups {
	return NewIndex(offers).Groups(meal)
}

// Index maps ingredient names to the offers that satisfy them.
// Build one per offer fetch and reuse it for every meal. An Index is
// read-only after construction and safe for concurrent use.
type Index struct {
	offers []models.Offer
	byItem map[string][]int
}

// NewIndex builds an index over offers. Offers without matched items or with
// a price that is not a number are not indexed.
func NewIndex(offers []models.Offer) *Index {
	idx := &Index{
		offers: offers,
		byItem: make(map[string][]int),
	}
	for i, o := range offers {
		if math.IsNaN(o.Price) {
			continue
		}
		seen := make(map[string]bool, len(o.MatchedItems))
		for _, item := range o.MatchedItems {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			idx.byItem[item] = append(idx.byItem[item], i)
		}
	}
	return idx
}

// Len returns the number of offers the index was built from
func (idx *Index) Len() int {
	return len(idx.offers)
}

// Groups computes the offer groups for every valid food component of meal
func (idx *Index) Groups(meal models.Meal) []ComponentGroups {
	result := make([]ComponentGroups, 0, len(meal.FoodComponents))
	for _, fc := range meal.FoodComponents {
		if !fc.Valid() {
			continue
		}
		result = append(result, ComponentGroups{
			Component: fc,
			Groups:    idx.componentGroups(fc.Items),
		})
	}
	return result
}

// OffersFor returns the offers matching a single ingredient, deduplicated and cheapest first
func (idx *Index) OffersFor(item string) []models.Offer {
	positions := idx.byItem[item]
	if len(positions) == 0 {
		return nil
	}
	var g groupBuilder
	for _, pos := range positions {
		g.add(idx.offers[pos])
	}
	return g.sorted()
}

func (idx *Index) componentGroups(items models.Items) []Group {
	// Offer positions in input order, so the result matches a plain scan over offers
	var positions []int
	seen := make(map[int]bool)
	for _, item := range items {
		for _, pos := range idx.byItem[item] {
			if !seen[pos] {
				seen[pos] = true
				positions = append(positions, pos)
			}
		}
	}
	sort.Ints(positions)

	var keys []string
	builders := make(map[string]*groupBuilder)
	for _, pos := range positions {
		offer := idx.offers[pos]
		key := offer.FirstMatch(items)
		if key == "" {
			key = offer.Name
		}
		b, ok := builders[key]
		if !ok {
			b = &groupBuilder{}
			builders[key] = b
			keys = append(keys, key)
		}
		b.add(offer)
	}

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, Group{Key: key, Offers: builders[key].sorted()})
	}
	return groups
}

type dedupKey struct {
	name  string
	price float64
}

type groupBuilder struct {
	offers []models.Offer
	seen   map[dedupKey]bool
}

func (g *groupBuilder) add(o models.Offer) {
	if g.seen == nil {
		g.seen = make(map[dedupKey]bool)
	}
	k := dedupKey{name: o.Name, price: o.Price}
	if g.seen[k] {
		return
	}
	g.seen[k] = true
	g.offers = append(g.offers, o)
}

func (g *groupBuilder) sorted() []models.Offer {
	sort.SliceStable(g.offers, func(i, j int) bool {
		return g.offers[i].Price < g.offers[j].Price
	})
	return g.offers
}
