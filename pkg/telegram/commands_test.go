package telegram

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/render"
	"github.com/korjavin/mealdeals/pkg/storage"
)

type recorder struct {
	sent []string
}

func (r *recorder) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	r.sent = append(r.sent, text)
	return tgbotapi.Message{}, nil
}

func (r *recorder) last() string {
	if len(r.sent) == 0 {
		return ""
	}
	return r.sent[len(r.sent)-1]
}

func command(text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func newCommands(t *testing.T) (*Commands, *recorder) {
	t.Helper()
	store, err := storage.NewInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	c := catalog.New(store)
	_, err = c.Import(strings.NewReader(`{
	  "meals": {"m1": {"name": "Kylling i karry", "price": 45, "priceCurrency": "DKK",
	    "foodComponents": [{"category": "Protein", "items": ["kylling"]}, {"category": "Urt", "items": "dild"}]}},
	  "offers": {
	    "o1": {"name": "Kyllingebryst", "store": "Netto", "price": 39.95, "valuta": "DKK", "matchedItems": ["kylling"]},
	    "o2": {"name": "Kyllingelår", "store": "Rema", "price": 25, "valuta": "DKK", "matchedItems": ["kylling"]}
	  }
	}`))
	if err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	return NewCommands(c, render.NewAt(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), rec), rec
}

func TestCommands(t *testing.T) {
	h, rec := newCommands(t)
	handlers := h.Handlers()

	t.Run("Start", func(t *testing.T) {
		handlers["start"](command("/start"))
		if !strings.Contains(rec.last(), "/meal <id>") {
			t.Errorf("Expected help text, got %q", rec.last())
		}
	})

	t.Run("Meals", func(t *testing.T) {
		handlers["meals"](command("/meals"))
		if rec.last() != "Kylling i karry · 45,00 DKK (/meal m1)\n" {
			t.Errorf("Unexpected meal list %q", rec.last())
		}
	})

	t.Run("Meal", func(t *testing.T) {
		handlers["meal"](command("/meal m1"))
		out := rec.last()
		lar := strings.Index(out, "Kyllingelår")
		bryst := strings.Index(out, "Kyllingebryst")
		if lar < 0 || bryst < 0 || lar > bryst {
			t.Errorf("Expected cheapest offer first, got %q", out)
		}
		if !strings.Contains(out, "dild: "+render.NoOffer) {
			t.Errorf("Expected placeholder for dild, got %q", out)
		}
	})

	t.Run("MealNotFound", func(t *testing.T) {
		handlers["meal"](command("/meal nope"))
		if rec.last() != "Meal nope not found." {
			t.Errorf("Unexpected reply %q", rec.last())
		}
	})

	t.Run("MealUsage", func(t *testing.T) {
		handlers["meal"](command("/meal"))
		if rec.last() != "Usage: /meal <id>" {
			t.Errorf("Unexpected reply %q", rec.last())
		}
	})

	t.Run("Offers", func(t *testing.T) {
		handlers["offers"](command("/offers kylling"))
		if !strings.HasPrefix(rec.last(), "kylling\n- Kyllingelår") {
			t.Errorf("Unexpected reply %q", rec.last())
		}
		handlers["offers"](command("/offers dild"))
		if rec.last() != "dild: "+render.NoOffer {
			t.Errorf("Unexpected reply %q", rec.last())
		}
	})
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("Unexpected split %q", got)
	}

	got := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	want := []string{"aaaa\nbbbb\n", "cccc\n"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %q, got %q", want, got)
	}

	long := strings.Repeat("æ", 7) // 14 bytes
	for _, part := range splitMessage(long, 5) {
		if len(part) > 5 || !strings.HasPrefix(long, part[:2]) {
			t.Errorf("Bad chunk %q", part)
		}
	}
	if strings.Join(splitMessage(long, 5), "") != long {
		t.Error("Split lost content")
	}

	invalid := "a" + strings.Repeat("\x80", 20)
	parts := splitMessage(invalid, 10)
	if strings.Join(parts, "") != invalid {
		t.Errorf("Split lost content of invalid UTF-8: %q", parts)
	}
	for _, part := range parts {
		if len(part) == 0 || len(part) > 10 {
			t.Errorf("Bad chunk %q", part)
		}
	}
}
