package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/matcher"
	"github.com/korjavin/mealdeals/pkg/models"
	"github.com/korjavin/mealdeals/pkg/render"
)

const welcomeMessage = `Hi! I show which grocery offers fit a meal.

/meals - list meals
/meal <id> - offers for every ingredient of a meal
/offers <ingredient> - offers for one ingredient`

// Sender delivers text to a chat
type Sender interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
}

// Commands implements the bot's chat commands on top of the catalog
type Commands struct {
	catalog  *catalog.Catalog
	renderer *render.Renderer
	out      Sender
	logger   *logger.Logger
}

// NewCommands creates the command set
func NewCommands(c *catalog.Catalog, r *render.Renderer, out Sender) *Commands {
	return &Commands{
		catalog:  c,
		renderer: r,
		out:      out,
		logger:   logger.New("telegram"),
	}
}

// Handlers returns the command handlers keyed by command name
func (h *Commands) Handlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"start":  h.Start,
		"help":   h.Start,
		"meals":  h.Meals,
		"meal":   h.Meal,
		"offers": h.Offers,
	}
}

// Start sends the welcome text
func (h *Commands) Start(message *tgbotapi.Message) {
	h.reply(message, welcomeMessage)
}

// Meals lists every meal
func (h *Commands) Meals(message *tgbotapi.Message) {
	meals, err := h.catalog.FetchMeals()
	if err != nil {
		h.logger.Error("Failed to fetch meals: %v", err)
		h.reply(message, "Could not load meals, please try again later.")
		return
	}
	h.reply(message, h.renderer.MealList(meals))
}

// Meal shows the offers for every food component of one meal
func (h *Commands) Meal(message *tgbotapi.Message) {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		h.reply(message, "Usage: /meal <id>")
		return
	}

	meal, err := h.catalog.FetchMeal(id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.reply(message, "Meal "+id+" not found.")
			return
		}
		h.logger.Error("Failed to fetch meal %s: %v", id, err)
		h.reply(message, "Could not load the meal, please try again later.")
		return
	}

	offers, err := h.catalog.FetchOffers()
	if err != nil {
		h.logger.Error("Failed to fetch offers: %v", err)
		h.reply(message, "Could not load offers, please try again later.")
		return
	}

	h.reply(message, h.renderer.MealOffers(*meal, matcher.ComputeOfferGroups(*meal, offers)))
}

// Offers shows the offers for a single ingredient
func (h *Commands) Offers(message *tgbotapi.Message) {
	item := strings.TrimSpace(message.CommandArguments())
	if item == "" {
		h.reply(message, "Usage: /offers <ingredient>")
		return
	}

	offers, err := h.catalog.FetchOffers()
	if err != nil {
		h.logger.Error("Failed to fetch offers: %v", err)
		h.reply(message, "Could not load offers, please try again later.")
		return
	}

	h.reply(message, h.renderer.OffersFor(item, matcher.NewIndex(offers).OffersFor(item)))
}

func (h *Commands) reply(message *tgbotapi.Message, text string) {
	if _, err := h.out.SendMessage(message.Chat.ID, text); err != nil {
		h.logger.Error("Failed to send message to %d: %v", message.Chat.ID, err)
	}
}
