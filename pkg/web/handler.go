package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/korjavin/mealdeals/pkg/auth"
	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/matcher"
	"github.com/korjavin/mealdeals/pkg/models"
)

// Handler serves the JSON API
type Handler struct {
	catalog *catalog.Catalog
	auth    *auth.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(c *catalog.Catalog, a *auth.Service) *Handler {
	return &Handler{
		catalog: c,
		auth:    a,
		logger:  logger.New("web"),
	}
}

// componentView is one row block of the meal page
type componentView struct {
	Category    string          `json:"category"`
	Items       []string        `json:"items"`
	Groups      []matcher.Group `json:"groups"`
	Placeholder bool            `json:"placeholder"`
}

type mealOffersView struct {
	Meal       *models.Meal    `json:"meal"`
	Components []componentView `json:"components"`
}

// ListMeals returns all meals
func (h *Handler) ListMeals() gin.HandlerFunc {
	return func(c *gin.Context) {
		meals, err := h.catalog.FetchMeals()
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, meals)
	}
}

// GetMeal returns one meal by id
func (h *Handler) GetMeal() gin.HandlerFunc {
	return func(c *gin.Context) {
		meal, err := h.catalog.FetchMeal(c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, meal)
	}
}

// GetMealOffers returns the meal with its matched offers grouped per food component
func (h *Handler) GetMealOffers() gin.HandlerFunc {
	return func(c *gin.Context) {
		meal, err := h.catalog.FetchMeal(c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		offers, err := h.catalog.FetchOffers()
		if err != nil {
			h.fail(c, err)
			return
		}

		groups := matcher.ComputeOfferGroups(*meal, offers)
		view := mealOffersView{Meal: meal, Components: make([]componentView, 0, len(groups))}
		for _, cg := range groups {
			view.Components = append(view.Components, componentView{
				Category:    cg.Component.Category,
				Items:       cg.Component.Items,
				Groups:      cg.Groups,
				Placeholder: cg.Empty(),
			})
		}
		c.JSON(http.StatusOK, view)
	}
}

// CreateMeal stores a new meal and returns it with its generated id
func (h *Handler) CreateMeal() gin.HandlerFunc {
	return func(c *gin.Context) {
		var meal models.Meal
		if err := c.ShouldBindJSON(&meal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if meal.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		id, err := h.catalog.AddMeal(meal)
		if err != nil {
			h.fail(c, err)
			return
		}
		meal.ID = id
		c.JSON(http.StatusCreated, meal)
	}
}

// UpdateMeal replaces the meal at the path id
func (h *Handler) UpdateMeal() gin.HandlerFunc {
	return func(c *gin.Context) {
		var meal models.Meal
		if err := c.ShouldBindJSON(&meal); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		// The path decides which meal is written
		meal.ID = c.Param("id")
		if err := h.catalog.UpdateMeal(meal); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, meal)
	}
}

// UpdateMealImage is not supported and answers 501
func (h *Handler) UpdateMealImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.fail(c, h.catalog.UpdateMealImage(c.Param("id"), c.PostForm("imagePath")))
	}
}

// DeleteMeal removes a meal
func (h *Handler) DeleteMeal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.catalog.DeleteMeal(c.Param("id")); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListOffers returns all offers, or with ?item= only those for one ingredient
func (h *Handler) ListOffers() gin.HandlerFunc {
	return func(c *gin.Context) {
		offers, err := h.catalog.FetchOffers()
		if err != nil {
			h.fail(c, err)
			return
		}
		if item, ok := c.GetQuery("item"); ok {
			offers = matcher.NewIndex(offers).OffersFor(item)
			if offers == nil {
				offers = []models.Offer{}
			}
		}
		c.JSON(http.StatusOK, offers)
	}
}

// ListFoodComponents returns the food component catalog
func (h *Handler) ListFoodComponents() gin.HandlerFunc {
	return func(c *gin.Context) {
		components, err := h.catalog.FetchFoodComponents()
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, components)
	}
}

// SignIn is not supported and answers 501
func (h *Handler) SignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		_, err := h.auth.SignIn(body.Email, body.Password)
		h.fail(c, err)
	}
}

// SignOut is not supported and answers 501
func (h *Handler) SignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.fail(c, h.auth.SignOut())
	}
}

// CurrentUser is not supported and answers 501
func (h *Handler) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := h.auth.CurrentUser()
		h.fail(c, err)
	}
}

// UpdateUser is not supported and answers 501
func (h *Handler) UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user auth.User
		if err := c.ShouldBindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		user.ID = c.Param("id")
		h.fail(c, h.auth.UpdateUser(user))
	}
}

// fail maps an error to a JSON error response
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case err == nil:
		// Stub operations always fail; a nil error here is a programming mistake
		h.logger.Error("%s %s finished without a result", c.Request.Method, c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotImplemented):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
