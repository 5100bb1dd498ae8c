// Package bot connects the download lifecycle to Telegram.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/download"
	"github.com/pdmirror/pdmirror/internal/upload"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Downloads is implemented by *download.Manager.
type Downloads interface {
	Submit(ctx context.Context, chatID int64, replyTo int, uri string) (string, error)
	Cancel(ctx context.Context, gid string) (*download.CancelResult, error)
	ShowStatus(ctx context.Context, userID, chatID int64, replyTo int) error
}

// Uploader is implemented by *upload.Client.
type Uploader interface {
	Upload(ctx context.Context, path, name string, cb upload.ProgressFunc) (*upload.Result, error)
}

var (
	_ API       = (*tgbotapi.BotAPI)(nil)
	_ Downloads = (*download.Manager)(nil)
	_ Uploader  = (*upload.Client)(nil)
)
