package tagger

import (
	"context"
	"fmt"

	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/openai"
)

// IngredientMatcher proposes which known ingredients an offer can stand in for
type IngredientMatcher interface {
	MatchIngredients(ctx context.Context, offer openai.OfferInfo, candidates []string) ([]string, error)
}

// Result summarises one tagging run
type Result struct {
	Untagged int
	Tagged   int
	Failed   int
}

// Service fills in matched items for offers that have none
type Service struct {
	catalog *catalog.Catalog
	matcher IngredientMatcher
	logger  *logger.Logger
}

// New creates a new tagger service
func New(c *catalog.Catalog, m IngredientMatcher) *Service {
	return &Service{
		catalog: c,
		matcher: m,
		logger:  logger.New("tagger"),
	}
}

// Run tags every offer without matched items. A failure for one offer is
// logged and counted; the run continues with the next offer.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var res Result

	offers, err := s.catalog.FetchOffers()
	if err != nil {
		return res, err
	}
	candidates, err := s.catalog.KnownItems()
	if err != nil {
		return res, err
	}
	if len(candidates) == 0 {
		s.logger.Info("No known ingredients, nothing to tag")
		return res, nil
	}

	for _, o := range offers {
		if len(o.MatchedItems) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Untagged++

		matched, err := s.matcher.MatchIngredients(ctx, openai.OfferInfo{
			Name:     o.Name,
			Category: o.Category,
			Weight:   o.Weight,
			Unit:     o.WeightUnit,
		}, candidates)
		if err != nil {
			s.logger.Error("Failed to tag offer %s: %v", o.ID, err)
			res.Failed++
			continue
		}
		if len(matched) == 0 {
			continue
		}

		if err := s.catalog.SetOfferMatchedItems(o.ID, matched); err != nil {
			return res, fmt.Errorf("failed to store tags for offer %s: %w", o.ID, err)
		}
		res.Tagged++
	}

	s.logger.Info("Tagging done: %d untagged, %d tagged, %d failed", res.Untagged, res.Tagged, res.Failed)
	return res, nil
}
