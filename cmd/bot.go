package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/bot"
	"github.com/pdmirror/pdmirror/internal/config"
	"github.com/pdmirror/pdmirror/internal/download"
	"github.com/pdmirror/pdmirror/internal/state"
	"github.com/pdmirror/pdmirror/internal/upload"
	"github.com/pdmirror/pdmirror/internal/utils"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("pdmirror is already running")

// initializeGlobalState prepares directories, logging and the state database.
func initializeGlobalState(settings *config.Settings) error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create app directories: %w", err)
	}
	utils.ConfigureDebug(config.GetLogsDir())
	utils.CleanupLogs(settings.General.LogRetentionCount)
	state.Configure(filepath.Join(config.GetStateDir(), "pdmirror.db"))
	return nil
}

func runBot(parent context.Context, settings *config.Settings, recoverUpdates bool) error {
	if err := initializeGlobalState(settings); err != nil {
		return err
	}
	defer state.CloseDB()

	ok, err := AcquireLock()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer ReleaseLock()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir := settings.DownloadPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	daemon, err := aria2.Start(ctx, aria2.Options{
		Endpoint:    settings.Aria2.Endpoint,
		Secret:      settings.Aria2.Secret,
		Binary:      settings.Aria2.Binary,
		SettleDelay: settings.Aria2.SettleDelay,
		DownloadDir: dir,
	})
	if err != nil {
		return fmt.Errorf("aria2 is not available: %w", err)
	}
	if settings.Aria2.ShutdownOnExit {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := daemon.Shutdown(sctx); err != nil {
				utils.Warn("aria2 shutdown failed: %v", err)
			}
		}()
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(settings.Required.BotToken, settings.Telegram.APIEndpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	utils.Info("authorized on account @%s", api.Self.UserName)

	users, _ := config.ParseIDs(settings.Users.AuthorizedUsers)
	chats, _ := config.ParseIDs(settings.Users.AuthorizedChats)

	messenger := bot.NewMessenger(api, settings.Telegram.EditsPerSecond)
	downloads := download.NewManager(daemon, messenger, download.Config{DownloadDir: dir})
	defer downloads.Shutdown()

	b := bot.New(api, messenger, bot.Options{
		Access:     bot.NewAccess(settings.Required.OwnerID, users, chats),
		Downloads:  downloads,
		Uploader:   upload.NewClient(settings.General.PixeldrainURL, settings.General.PixeldrainAPIKey),
		MaxUploads: settings.Telegram.MaxUploads,
		Store:      state.NewCheckpointStore(),
		Recover:    recoverUpdates,
		Shutdown:   stop,
	})

	utils.Info("pdmirror %s started, downloads go to %s", Version, dir)
	if err := b.Run(ctx); err != nil {
		return err
	}
	utils.Info("pdmirror stopped")
	return nil
}
