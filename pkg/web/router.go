package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/korjavin/mealdeals/pkg/logger"
)

// NewRouter wires the API routes
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.New("http")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		meals := api.Group("/meals")
		meals.GET("", h.ListMeals())
		meals.POST("", h.CreateMeal())
		meals.GET("/:id", h.GetMeal())
		meals.PUT("/:id", h.UpdateMeal())
		meals.DELETE("/:id", h.DeleteMeal())
		meals.GET("/:id/offers", h.GetMealOffers())
		meals.PUT("/:id/image", h.UpdateMealImage())

		api.GET("/offers", h.ListOffers())
		api.GET("/food-components", h.ListFoodComponents())

		authGroup := api.Group("/auth")
		authGroup.POST("/sign-in", h.SignIn())
		authGroup.POST("/sign-out", h.SignOut())
		authGroup.GET("/me", h.CurrentUser())

		api.PUT("/users/:id", h.UpdateUser())
	}

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
