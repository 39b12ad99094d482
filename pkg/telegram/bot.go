package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/mealdeals/pkg/logger"
)

// maxMessageLength is Telegram's limit for a single text message
const maxMessageLength = 4096

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// HandlerFunc is a function that handles a Telegram update
type HandlerFunc func(update tgbotapi.Update)

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(message *tgbotapi.Message)

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// Start listens for updates and dispatches commands until Stop is called
func (b *Bot) Start(commandHandlers map[string]CommandHandler, defaultHandler HandlerFunc) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			if defaultHandler != nil {
				defaultHandler(update)
			}
			continue
		}

		log := b.logger.With(fmt.Sprintf("%d", update.Message.Chat.ID))

		if update.Message.IsCommand() {
			command := update.Message.Command()
			if handler, ok := commandHandlers[command]; ok {
				from := ""
				if update.Message.From != nil {
					from = update.Message.From.UserName
				}
				log.Info("Handling command: %s from user %s", command, from)
				handler(update.Message)
				continue
			}
			log.Debug("Unknown command: %s", command)
		}

		if defaultHandler != nil {
			defaultHandler(update)
		}
	}
}

// Stop stops receiving updates, which makes Start return
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// SendMessage sends a text message to a chat, split into several messages
// when it exceeds Telegram's length limit
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	var last tgbotapi.Message
	for _, part := range splitMessage(text, maxMessageLength) {
		msg, err := b.api.Send(tgbotapi.NewMessage(chatID, part))
		if err != nil {
			return last, err
		}
		last = msg
	}
	return last, nil
}

// splitMessage splits text on line boundaries into chunks of at most limit bytes.
// A single line longer than limit is cut at rune boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// No rune start within limit, the text is not valid UTF-8
				cut = limit
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
