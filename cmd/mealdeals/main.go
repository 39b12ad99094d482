package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/korjavin/mealdeals/pkg/auth"
	"github.com/korjavin/mealdeals/pkg/catalog"
	"github.com/korjavin/mealdeals/pkg/config"
	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/openai"
	"github.com/korjavin/mealdeals/pkg/render"
	"github.com/korjavin/mealdeals/pkg/scheduler"
	"github.com/korjavin/mealdeals/pkg/storage"
	"github.com/korjavin/mealdeals/pkg/tagger"
	"github.com/korjavin/mealdeals/pkg/telegram"
	"github.com/korjavin/mealdeals/pkg/web"
)

const usage = `usage:
  mealdeals [serve]          run the HTTP API (and the Telegram bot if BOT_TOKEN is set)
  mealdeals import <file>    load a database export into the store`

func main() {
	log := logger.Global

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	cat := catalog.New(store,
		catalog.WithFieldMapping(catalog.FieldMapping{Start: cfg.OfferStartField, End: cfg.OfferEndField}),
		catalog.WithLanguage(catalog.ParseLanguage(cfg.SortLanguage)),
	)

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "serve":
		err = serve(cfg, store, cat)
	case "import":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		err = importFile(cat, args[1])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error("%v", err)
		store.Close()
		os.Exit(1)
	}
}

func importFile(cat *catalog.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stats, err := cat.Import(f)
	if err != nil {
		return err
	}
	logger.Global.Info("Import of %s finished: %+v", path, stats)
	return nil
}

func serve(cfg *config.Config, store *storage.Store, cat *catalog.Catalog) error {
	log := logger.Global

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(ctx, 10*time.Minute)

	// Offer tagging runs only with an OpenAI key
	if cfg.TaggingEnabled() {
		openaiClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel)
		tagScheduler := scheduler.New(tagger.New(cat, openaiClient), cfg.TagInterval)
		tagScheduler.Start()
		defer tagScheduler.Stop()
	} else {
		log.Info("OPENAI_API_KEY not set, offer tagging disabled")
	}

	// The Telegram bot is optional as well
	if cfg.BotEnabled() {
		bot, err := telegram.New(cfg.BotToken)
		if err != nil {
			return err
		}
		commands := telegram.NewCommands(cat, render.New(), bot)
		go bot.Start(commands.Handlers(), nil)
		defer bot.Stop()
	} else {
		log.Info("BOT_TOKEN not set, Telegram bot disabled")
	}

	if cfg.LogLevel > logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewRouter(web.NewHandler(cat, auth.New())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
