package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/models"
	"github.com/korjavin/mealdeals/pkg/storage"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key prefixes in the document store
const (
	MealPrefix          = "meal:"
	OfferPrefix         = "offer:"
	FoodComponentPrefix = "foodcomponent:"
)

// ErrMalformed marks a stored record that cannot be turned into a model
var ErrMalformed = errors.New("malformed record")

// Catalog reads and writes meals, offers and food components in the document store
type Catalog struct {
	store  *storage.Store
	fields FieldMapping
	lang   language.Tag
	newID  func() string
	logger *logger.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithFieldMapping sets which stored offer properties feed the offer period
func WithFieldMapping(m FieldMapping) Option {
	return func(c *Catalog) {
		c.fields = m
	}
}

// WithLanguage sets the language used to order food component categories
func WithLanguage(tag language.Tag) Option {
	return func(c *Catalog) {
		c.lang = tag
	}
}

// WithIDGenerator replaces the generator for new meal ids
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalog) {
		c.newID = fn
	}
}

// New creates a new catalog on top of store
func New(store *storage.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		fields: DefaultFieldMapping(),
		lang:   language.Danish,
		newID:  uuid.NewString,
		logger: logger.New("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseLanguage parses a BCP 47 tag, falling back to Danish
func ParseLanguage(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		logger.Global.Warn("Unknown sort language %q, using da: %v", tag, err)
		return language.Danish
	}
	return t
}

// FetchMeal returns the meal stored under id
func (c *Catalog) FetchMeal(id string) (*models.Meal, error) {
	if id == "" || strings.Contains(id, ":") {
		return nil, fmt.Errorf("meal %q: %w", id, models.ErrNotFound)
	}

	var meal models.Meal
	if err := c.store.Get(MealPrefix+id, &meal); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("meal %q: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch meal %q: %w", id, err)
	}
	meal.ID = id
	return &meal, nil
}

// FetchMeals returns every stored meal ordered by id.
// Records that do not decode are skipped.
func (c *Catalog) FetchMeals() ([]models.Meal, error) {
	meals := []models.Meal{}
	err := c.store.Scan(MealPrefix, func(key string, value []byte) error {
		var meal models.Meal
		if err := unmarshal(value, &meal); err != nil {
			c.logger.Warn("Skipping meal %s: %v", key, err)
			return nil
		}
		meal.ID = strings.TrimPrefix(key, MealPrefix)
		meals = append(meals, meal)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meals: %w", err)
	}
	return meals, nil
}

// FetchOffers returns every stored offer ordered by id.
// Records without a readable price are skipped.
func (c *Catalog) FetchOffers() ([]models.Offer, error) {
	offers := []models.Offer{}
	skipped := 0
	err := c.store.Scan(OfferPrefix, func(key string, value []byte) error {
		offer, err := c.fields.decodeOffer(strings.TrimPrefix(key, OfferPrefix), value)
		if err != nil {
			skipped++
			c.logger.Warn("Skipping offer %s: %v", key, err)
			return nil
		}
		offers = append(offers, offer)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch offers: %w", err)
	}
	c.logger.Debug("Fetched %d offers, skipped %d", len(offers), skipped)
	return offers, nil
}

// FetchFoodComponents returns the known food components ordered by category,
// with the items of each component sorted.
func (c *Catalog) FetchFoodComponents() ([]models.FoodComponent, error) {
	components := []models.FoodComponent{}
	err := c.store.Scan(FoodComponentPrefix, func(key string, value []byte) error {
		var fc models.FoodComponent
		if err := unmarshal(value, &fc); err != nil || fc.Category == "" {
			c.logger.Warn("Skipping food component %s: %v", key, err)
			return nil
		}
		components = append(components, fc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch food components: %w", err)
	}

	col := collate.New(c.lang)
	sort.SliceStable(components, func(i, j int) bool {
		return col.CompareString(components[i].Category, components[j].Category) < 0
	})
	for _, fc := range components {
		sort.Strings(fc.Items)
	}
	return components, nil
}

// KnownItems returns the sorted, distinct ingredient names used by food components and meals
func (c *Catalog) KnownItems() ([]string, error) {
	components, err := c.FetchFoodComponents()
	if err != nil {
		return nil, err
	}
	meals, err := c.FetchMeals()
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	add := func(items models.Items) {
		for _, item := range items {
			if item != "" {
				set[item] = true
			}
		}
	}
	for _, fc := range components {
		add(fc.Items)
	}
	for _, m := range meals {
		for _, fc := range m.FoodComponents {
			add(fc.Items)
		}
	}

	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items, nil
}

// AddMeal stores a new meal and returns its generated id
func (c *Catalog) AddMeal(meal models.Meal) (string, error) {
	meal.ID = c.newID()
	if err := c.store.Set(MealPrefix+meal.ID, meal); err != nil {
		return "", fmt.Errorf("failed to add meal: %w", err)
	}
	c.logger.Info("Added meal %s (%s)", meal.ID, meal.Name)
	return meal.ID, nil
}

// UpdateMeal replaces an existing meal
func (c *Catalog) UpdateMeal(meal models.Meal) error {
	if err := c.requireMeal(meal.ID); err != nil {
		return err
	}
	if err := c.store.Set(MealPrefix+meal.ID, meal); err != nil {
		return fmt.Errorf("failed to update meal %q: %w", meal.ID, err)
	}
	return nil
}

// UpdateMealImage would upload a new image for a meal; image storage is not supported
func (c *Catalog) UpdateMealImage(id, imagePath string) error {
	return fmt.Errorf("update image for meal %q: %w", id, models.ErrNotImplemented)
}

// DeleteMeal removes a meal
func (c *Catalog) DeleteMeal(id string) error {
	if err := c.requireMeal(id); err != nil {
		return err
	}
	if err := c.store.Delete(MealPrefix + id); err != nil {
		return fmt.Errorf("failed to delete meal %q: %w", id, err)
	}
	c.logger.Info("Meal with ID %s has been deleted", id)
	return nil
}

func (c *Catalog) requireMeal(id string) error {
	if id == "" || strings.Contains(id, ":") {
		return fmt.Errorf("meal %q: %w", id, models.ErrNotFound)
	}
	ok, err := c.store.Exists(MealPrefix + id)
	if err != nil {
		return fmt.Errorf("failed to look up meal %q: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("meal %q: %w", id, models.ErrNotFound)
	}
	return nil
}
