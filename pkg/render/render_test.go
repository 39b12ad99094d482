package render

import (
	"strings"
	"testing"
	"time"

	"github.com/korjavin/mealdeals/pkg/matcher"
	"github.com/korjavin/mealdeals/pkg/models"
)

var now = time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)

func TestPrice(t *testing.T) {
	cases := map[float64]string{
		39.95:  "39,95 DKK",
		12:     "12,00 DKK",
		1234.5: "1.234,50 DKK",
	}
	for in, want := range cases {
		if got := Price(in, "DKK"); got != want {
			t.Errorf("Price(%v) = %q, want %q", in, got, want)
		}
	}
	if got := Price(5, ""); got != "5,00" {
		t.Errorf("Expected no trailing space without currency, got %q", got)
	}
}

func TestOffer(t *testing.T) {
	r := NewAt(now)
	o := models.Offer{
		Name:          "Kyllingebryst",
		Store:         "Netto",
		Price:         39.95,
		PriceCurrency: "DKK",
		Weight:        900,
		WeightUnit:    "g",
		OfferStart:    "2024-05-01",
		OfferEnd:      "2024-05-07",
	}

	want := "Kyllingebryst · 39,95 DKK · 900 g · Netto · 2024-05-01 → 2024-05-07 (ends 3 days from now)"
	if got := r.Offer(o); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	bare := models.Offer{Name: "Salt", Price: 3}
	if got := r.Offer(bare); got != "Salt · 3,00" {
		t.Errorf("Unexpected bare offer rendering %q", got)
	}
}

func TestMealOffers(t *testing.T) {
	r := NewAt(now)
	meal := models.Meal{
		Name:        "Kylling i karry",
		MealCuisine: "Indisk",
		FoodComponents: []models.FoodComponent{
			{Category: "Protein", Items: models.Items{"kylling"}},
			{Category: "Krydderi", Items: models.Items{"karry", "spidskommen"}},
		},
	}
	offers := []models.Offer{
		{Name: "Kyllingebryst", Price: 39.95, PriceCurrency: "DKK", MatchedItems: models.Items{"kylling"}},
		{Name: "Kyllingelår", Price: 25, PriceCurrency: "DKK", MatchedItems: models.Items{"kylling"}},
	}

	got := r.MealOffers(meal, matcher.ComputeOfferGroups(meal, offers))
	want := strings.Join([]string{
		"Kylling i karry",
		"Indisk",
		"",
		"Protein: kylling",
		"  kylling",
		"    - Kyllingelår · 25,00 DKK",
		"    - Kyllingebryst · 39,95 DKK",
		"",
		"Krydderi: karry, spidskommen",
		"  karry, spidskommen: " + NoOffer,
		"",
	}, "\n")
	if got != want {
		t.Errorf("Expected\n%s\ngot\n%s", want, got)
	}
}

func TestMealOffersNoComponents(t *testing.T) {
	got := NewAt(now).MealOffers(models.Meal{Name: "Tom"}, nil)
	if got != "Tom\n\nNo ingredients\n" {
		t.Errorf("Unexpected rendering %q", got)
	}
}

func TestOffersFor(t *testing.T) {
	r := NewAt(now)
	if got := r.OffersFor("dild", nil); got != "dild: "+NoOffer {
		t.Errorf("Unexpected placeholder %q", got)
	}
	got := r.OffersFor("salt", []models.Offer{{Name: "Salt", Price: 3, Store: "Rema"}})
	if got != "salt\n- Salt · 3,00 · Rema\n" {
		t.Errorf("Unexpected rendering %q", got)
	}
}

func TestMealList(t *testing.T) {
	r := NewAt(now)
	if got := r.MealList(nil); got != "No meals" {
		t.Errorf("Unexpected empty list %q", got)
	}
	got := r.MealList([]models.Meal{{ID: "m1", Name: "Grød", Price: 10, PriceCurrency: "DKK"}})
	if got != "Grød · 10,00 DKK (/meal m1)\n" {
		t.Errorf("Unexpected list %q", got)
	}
}
