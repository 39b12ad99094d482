// Package render formats meals and their matched offers as plain text for chat clients.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/korjavin/mealdeals/pkg/matcher"
	"github.com/korjavin/mealdeals/pkg/models"
)

// NoOffer is shown for a food component that no current offer matches
const NoOffer = "Ikke på tilbud lige nu"

// Renderer formats text relative to a clock
type Renderer struct {
	now func() time.Time
}

// New creates a renderer using the wall clock
func New() *Renderer {
	return &Renderer{now: time.Now}
}

// NewAt creates a renderer with a fixed clock
func NewAt(now time.Time) *Renderer {
	return &Renderer{now: func() time.Time { return now }}
}

// MealOffers renders a meal header followed by the offers for each food component
func (r *Renderer) MealOffers(meal models.Meal, groups []matcher.ComponentGroups) string {
	var b strings.Builder

	b.WriteString(meal.Name)
	b.WriteString("\n")
	if tags := joinNonEmpty(" · ", meal.MealCuisine, meal.MealType); tags != "" {
		b.WriteString(tags)
		b.WriteString("\n")
	}

	if len(groups) == 0 {
		b.WriteString("\nNo ingredients\n")
		return b.String()
	}

	for _, cg := range groups {
		items := strings.Join(cg.Component.Items, ", ")
		fmt.Fprintf(&b, "\n%s: %s\n", cg.Component.Category, items)
		if cg.Empty() {
			fmt.Fprintf(&b, "  %s: %s\n", items, NoOffer)
			continue
		}
		for _, g := range cg.Groups {
			fmt.Fprintf(&b, "  %s\n", g.Key)
			for _, o := range g.Offers {
				fmt.Fprintf(&b, "    - %s\n", r.Offer(o))
			}
		}
	}
	return b.String()
}

// Offer renders a single offer on one line
func (r *Renderer) Offer(o models.Offer) string {
	parts := []string{o.Name, Price(o.Price, o.PriceCurrency)}
	if o.Weight > 0 {
		parts = append(parts, strings.TrimSpace(humanize.Ftoa(o.Weight)+" "+o.WeightUnit))
	}
	if o.Store != "" {
		parts = append(parts, o.Store)
	}
	if period := r.period(o); period != "" {
		parts = append(parts, period)
	}
	return strings.Join(parts, " · ")
}

// OffersFor renders the offers found for one ingredient
func (r *Renderer) OffersFor(item string, offers []models.Offer) string {
	if len(offers) == 0 {
		return fmt.Sprintf("%s: %s", item, NoOffer)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", item)
	for _, o := range offers {
		fmt.Fprintf(&b, "- %s\n", r.Offer(o))
	}
	return b.String()
}

// MealList renders one line per meal with its id
func (r *Renderer) MealList(meals []models.Meal) string {
	if len(meals) == 0 {
		return "No meals"
	}
	var b strings.Builder
	for _, m := range meals {
		fmt.Fprintf(&b, "%s · %s (/meal %s)\n", m.Name, Price(m.Price, m.PriceCurrency), m.ID)
	}
	return b.String()
}

// Price formats an amount the Danish way, e.g. 1.234,50 DKK
func Price(amount float64, currency string) string {
	return strings.TrimSpace(humanize.FormatFloat("#.###,##", amount) + " " + currency)
}

func (r *Renderer) period(o models.Offer) string {
	if o.OfferStart == "" && o.OfferEnd == "" {
		return ""
	}
	period := strings.TrimSpace(o.OfferStart + " → " + o.OfferEnd)
	if end, ok := parseDate(o.OfferEnd); ok {
		period += fmt.Sprintf(" (ends %s)", humanize.RelTime(end, r.now(), "ago", "from now"))
	}
	return period
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
