package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/raine/skybet/internal/app"
	"github.com/raine/skybet/internal/bot"
	"github.com/raine/skybet/internal/config"
	"github.com/raine/skybet/internal/imagedata"
	"github.com/raine/skybet/internal/server"
)

const (
	logFileName     = "skybet.log"
	shutdownTimeout = 10 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := loadConfig()

	closeLog, err := setupLogging()
	if err != nil {
		fatalWithWait("failed to open log file: %v", err)
	}
	defer closeLog()

	a, err := app.Open(cfg)
	if err != nil {
		fatalWithWait("%v", err)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.InitPipeline(ctx); err != nil {
		fatalWithWait("%v", err)
	}

	var b *bot.Bot
	var tg *tgbotapi.BotAPI
	if cfg.BotEnabled() {
		tg, err = tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			fatalWithWait("failed to initialize telegram bot: %v", err)
		}
		log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
		bot.RegisterCommands(tg)

		downloader := imagedata.NewDownloader().WithMaxSize(cfg.MaxImageBytes)
		b = bot.NewBot(tg, a.DB, a.Pipeline, downloader, cfg.Bot.AdminID)
	} else {
		log.Info().Msg("BOT_TOKEN not set, telegram bot disabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveHTTP(ctx, cfg, a) })
	if a.Watcher != nil {
		g.Go(func() error {
			// External edits go unnoticed without the watcher, but analysis still works
			if err := a.Watcher.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("history watcher stopped")
			}
			return nil
		})
	}
	if b != nil {
		g.Go(func() error { return runBot(ctx, tg, b) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		return
	}
	log.Info().Msg("shutdown complete")
}

// loadConfig reads the configuration, running the setup wizard first when no
// API key is configured and a terminal is attached.
func loadConfig() *config.Config {
	cfg, err := config.FromEnv()
	if err != nil {
		fatalWithWait("failed to load config: %v", err)
	}

	if cfg.NeedsSetup() && isInteractiveTerminal() {
		if !runSetupWizard() {
			waitOnWindows()
			os.Exit(1)
		}
		if cfg, err = config.FromEnv(); err != nil {
			fatalWithWait("failed to load config: %v", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		fatalWithWait("%v", err)
	}
	return cfg
}

// setupLogging logs to stderr, plus a plain copy in skybet.log unless running
// under systemd (JOURNAL_STREAM is set), where journald keeps the logs.
func setupLogging() (func(), error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr}
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(console)
		return func() {}, nil
	}

	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	plain := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	log.Logger = log.Output(io.MultiWriter(console, plain))
	log.Info().Str("logFile", logFileName).Msg("logging to file")

	return func() { logFile.Close() }, nil
}

// serveHTTP runs the API until ctx is done, then drains in-flight requests.
func serveHTTP(ctx context.Context, cfg *config.Config, a *app.App) error {
	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		Log:           log.Logger,
		Pipeline:      a.Pipeline,
		MaxImageBytes: cfg.MaxImageBytes,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// runBot long-polls Telegram and hands each update to the bot on its own
// goroutine; per-user ordering is kept by the session workers.
func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	defer b.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}
