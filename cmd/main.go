package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"textsummarizer/internal/bot"
	"textsummarizer/internal/config"
	"textsummarizer/internal/database"
	"textsummarizer/internal/proxy"
	"textsummarizer/internal/scheduler"
	"textsummarizer/internal/source"
	"textsummarizer/internal/summarizer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DBPath, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize db",
			"error", err,
			"dbPath", cfg.DBPath)

		return
	}
	defer func() {
		if err = db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close db",
				"error", err,
				"dbPath", cfg.DBPath)
		}
	}()
	log.InfoContext(ctx, "DB is initialized",
		"dbPath", cfg.DBPath)

	client, err := summarizer.New(cfg.SummarizerOptions(), log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize summarizer",
			"error", err,
			"mode", cfg.Mode,
			"modelID", cfg.ModelID)

		return
	}
	if strings.TrimSpace(cfg.HuggingFaceToken) == "" {
		log.WarnContext(ctx, "HUGGING_FACE_TOKEN is missing so every request will fail",
			"envVar", "HUGGING_FACE_TOKEN")
	}
	log.InfoContext(ctx, "Summarizer is initialized",
		"mode", cfg.SummarizerMode(),
		"endpoint", client.Endpoint(),
		"maxAttempts", cfg.MaxAttempts)

	server, err := proxy.New(cfg.ProxyAddr, cfg.ProxyPrefix, cfg.InferenceURL, client, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize proxy",
			"error", err,
			"proxyPrefix", cfg.ProxyPrefix,
			"inferenceURL", cfg.InferenceURL)

		return
	}

	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil {
			log.ErrorContext(ctx, "Proxy failed",
				"error", serveErr,
				"addr", cfg.ProxyAddr)
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err = server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Failed to shut down proxy",
				"error", err,
				"addr", cfg.ProxyAddr)
		}
	}()

	sched := scheduler.New(ctx, db, cfg.JournalRetention, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", scheduler.PruneJournalSpec,
			"timezone", scheduler.Timezone)

		return
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", scheduler.PruneJournalSpec,
		"timezone", scheduler.Timezone,
		"retention", cfg.JournalRetention)

	botInst := startBot(ctx, cfg, client, db, log)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-ctx.Done():
	}
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	if botInst != nil {
		botInst.Stop()
		log.InfoContext(ctx, "Bot is stopped",
			"uptimeSeconds", time.Since(start).Seconds())
	}
}

// startBot returns nil when TELEGRAM_TOKEN is not set or the bot cannot be
// created; the HTTP API keeps running either way.
func startBot(
	ctx context.Context,
	cfg config.Config,
	client *summarizer.Client,
	db *database.Database,
	log *slog.Logger,
) *bot.Bot {
	token := strings.TrimSpace(cfg.TelegramToken)
	if token == "" {
		log.WarnContext(ctx, "TELEGRAM_TOKEN is missing so bot is disabled",
			"envVar", "TELEGRAM_TOKEN")

		return nil
	}

	extractor, err := source.NewExtractor(nil, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize source extractor",
			"error", err)

		return nil
	}

	botInst, err := bot.New(token, client, extractor, db, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return nil
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started")

	return botInst
}
