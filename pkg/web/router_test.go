package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/korjavin/mealdeals/pkg/auth"
	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/models"
	"github.com/korjavin/mealdeals/pkg/storage"
)

const fixture = `{
  "meals": {
    "m1": {"name": "Kylling i karry", "foodComponents": [
      {"category": "Protein", "items": ["kylling"]},
      {"category": "Krydderi", "items": "salt"},
      {"category": "", "items": ["vand"]},
      {"category": "Urt", "items": ["dild"]}
    ]}
  },
  "offers": {
    "o1": {"name": "ChickenDeal", "price": 20, "matchedItems": ["kylling"]},
    "o2": {"name": "ChickenDeal2", "price": 15, "matchedItems": ["kylling"]},
    "o3": {"name": "ChickenDeal2", "price": 15, "matchedItems": ["kylling"]},
    "o4": {"name": "Spice", "price": 9, "matchedItems": ["salt", "pepper"]},
    "o5": {"name": "Untagged", "price": 1}
  },
  "foodComponents": {"a": {"category": "Protein", "items": ["kylling"]}}
}`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newRouterWith(t, fixture)
}

func newRouterWith(t *testing.T, snapshot string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	c := catalog.New(store, catalog.WithIDGenerator(func() string { return "fresh" }))
	if _, err := c.Import(strings.NewReader(snapshot)); err != nil {
		t.Fatal(err)
	}
	return NewRouter(NewHandler(c, auth.New()))
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t)
	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestGetMealOffers(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/meals/m1/offers", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var view struct {
		Meal       models.Meal `json:"meal"`
		Components []struct {
			Category string `json:"category"`
			Groups   []struct {
				Key    string         `json:"key"`
				Offers []models.Offer `json:"offers"`
			} `json:"groups"`
			Placeholder bool `json:"placeholder"`
		} `json:"components"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("invalid response: %v", err)
	}

	if view.Meal.ID != "m1" {
		t.Errorf("expected meal m1, got %q", view.Meal.ID)
	}
	if len(view.Components) != 3 {
		t.Fatalf("expected 3 components (one skipped), got %d", len(view.Components))
	}

	protein := view.Components[0]
	if len(protein.Groups) != 1 || protein.Groups[0].Key != "kylling" {
		t.Fatalf("unexpected protein groups %+v", protein.Groups)
	}
	offers := protein.Groups[0].Offers
	if len(offers) != 2 || offers[0].Name != "ChickenDeal2" || offers[0].Price != 15 || offers[1].Name != "ChickenDeal" {
		t.Errorf("expected [ChickenDeal2(15) ChickenDeal(20)], got %+v", offers)
	}

	spice := view.Components[1]
	if len(spice.Groups) != 1 || spice.Groups[0].Key != "salt" || spice.Placeholder {
		t.Errorf("unexpected spice component %+v", spice)
	}

	herb := view.Components[2]
	if !herb.Placeholder || len(herb.Groups) != 0 {
		t.Errorf("expected placeholder for dild, got %+v", herb)
	}
}

func TestMealErrors(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/meals/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/meals/missing/offers", "", http.StatusNotFound},
		{http.MethodPut, "/api/meals/missing", `{"name":"x"}`, http.StatusNotFound},
		{http.MethodDelete, "/api/meals/missing", "", http.StatusNotFound},
		{http.MethodPut, "/api/meals/m1/image", "", http.StatusNotImplemented},
		{http.MethodPost, "/api/meals", `not json`, http.StatusBadRequest},
		{http.MethodPost, "/api/meals", `{"description":"no name"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if w := do(r, tc.method, tc.path, tc.body); w.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestMealLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/meals", `{"name":"Grød","foodComponents":[{"category":"Korn","items":"havregryn"}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Meal
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID != "fresh" || created.FoodComponents[0].Items[0] != "havregryn" {
		t.Errorf("unexpected created meal %+v", created)
	}

	if w := do(r, http.MethodPut, "/api/meals/fresh", `{"name":"Havregrød"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/api/meals/fresh", "")
	if !strings.Contains(w.Body.String(), "Havregrød") {
		t.Errorf("expected updated name, got %s", w.Body.String())
	}

	if w := do(r, http.MethodDelete, "/api/meals/fresh", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/meals", "")
	var meals []models.Meal
	if err := json.Unmarshal(w.Body.Bytes(), &meals); err != nil {
		t.Fatal(err)
	}
	if len(meals) != 1 || meals[0].ID != "m1" {
		t.Errorf("expected only m1, got %+v", meals)
	}
}

func TestListOffers(t *testing.T) {
	r := newTestRouter(t)

	var all []models.Offer
	w := do(r, http.MethodGet, "/api/offers", "")
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 offers, got %d", len(all))
	}

	var salt []models.Offer
	w = do(r, http.MethodGet, "/api/offers?item=salt", "")
	if err := json.Unmarshal(w.Body.Bytes(), &salt); err != nil {
		t.Fatal(err)
	}
	if len(salt) != 1 || salt[0].Name != "Spice" {
		t.Errorf("expected Spice for salt, got %+v", salt)
	}

	w = do(r, http.MethodGet, "/api/offers?item=dild", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestInfinitePricesStayRenderable(t *testing.T) {
	r := newRouterWith(t, `{
  "meals": {"m1": {"name": "Suppe", "price": "Inf", "foodComponents": [{"category": "Grønt", "items": ["løg"]}]}},
  "offers": {
    "o1": {"name": "Løg", "price": 10, "matchedItems": ["løg"]},
    "o2": {"name": "Løg XL", "price": "Infinity", "matchedItems": ["løg"]}
  }
}`)

	w := do(r, http.MethodGet, "/api/offers", "")
	var offers []models.Offer
	if err := json.Unmarshal(w.Body.Bytes(), &offers); err != nil {
		t.Fatalf("invalid response %d %q: %v", w.Code, w.Body.String(), err)
	}
	if len(offers) != 1 || offers[0].Name != "Løg" {
		t.Errorf("expected only Løg, got %+v", offers)
	}

	w = do(r, http.MethodGet, "/api/meals/m1/offers", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Løg"`) || strings.Contains(w.Body.String(), "Løg XL") {
		t.Errorf("unexpected meal offers %d %s", w.Code, w.Body.String())
	}
}

func TestListFoodComponents(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/food-components", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Protein"`) {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestAuthNotImplemented(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/api/auth/sign-in", `{"email":"a@b.dk","password":"x"}`},
		{http.MethodPost, "/api/auth/sign-out", ""},
		{http.MethodGet, "/api/auth/me", ""},
		{http.MethodPut, "/api/users/1", `{"email":"a@b.dk"}`},
	}
	for _, tc := range cases {
		if w := do(r, tc.method, tc.path, tc.body); w.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: expected 501, got %d", tc.method, tc.path, w.Code)
		}
	}
}
