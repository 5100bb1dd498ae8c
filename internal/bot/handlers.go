package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/download"
	"github.com/pdmirror/pdmirror/internal/upload"
	"github.com/pdmirror/pdmirror/internal/utils"
)

func chatID(m *tgbotapi.Message) int64 {
	if m.Chat == nil {
		return 0
	}
	return m.Chat.ID
}

func userID(m *tgbotapi.Message) int64 {
	if m.From == nil {
		return chatID(m)
	}
	return m.From.ID
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return "there"
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func code(s string) string {
	return "<code>" + tgbotapi.EscapeText(tgbotapi.ModeHTML, s) + "</code>"
}

func (b *Bot) reply(ctx context.Context, m *tgbotapi.Message, text string) (download.Location, bool) {
	loc, err := b.messenger.Send(ctx, chatID(m), m.MessageID, text)
	if err != nil {
		utils.Warn("reply in chat %d failed: %v", chatID(m), err)
		return loc, false
	}
	return loc, true
}

func (b *Bot) edit(ctx context.Context, loc download.Location, text string) {
	if err := b.messenger.Edit(ctx, loc, text); err != nil {
		utils.Debug("edit %d/%d failed: %v", loc.ChatID, loc.MessageID, err)
	}
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) {
	b.reply(ctx, m, "Hello "+tgbotapi.EscapeText(tgbotapi.ModeHTML, fullName(m.From))+"!")
	utils.Info("user %s (%d) pressed start", fullName(m.From), userID(m))
}

func (b *Bot) handlePing(ctx context.Context, m *tgbotapi.Message) {
	start := b.now()
	loc, ok := b.reply(ctx, m, "Pong!")
	if !ok {
		return
	}
	latency := float64(b.now().Sub(start).Microseconds()) / 1000
	b.edit(ctx, loc, fmt.Sprintf("Pong!\nLatency: %.2f ms", latency))
}

func (b *Bot) handleDownload(ctx context.Context, m *tgbotapi.Message) {
	args := strings.Fields(m.CommandArguments())
	if len(args) == 0 {
		b.reply(ctx, m, "Must provide a download link.")
		return
	}
	if b.opts.Downloads == nil {
		return
	}
	if _, err := b.opts.Downloads.Submit(ctx, chatID(m), m.MessageID, args[0]); err != nil {
		utils.Error("download of %s failed to start: %v", args[0], err)
		b.reply(ctx, m, "Failed to add download: "+tgbotapi.EscapeText(tgbotapi.ModeHTML, err.Error()))
	}
}

func (b *Bot) handleCancel(ctx context.Context, m *tgbotapi.Message) {
	args := strings.Fields(m.CommandArguments())
	if len(args) == 0 {
		b.reply(ctx, m, "Must provide a download GID to cancel.")
		return
	}
	if b.opts.Downloads == nil {
		return
	}
	gid := args[0]

	_, err := b.opts.Downloads.Cancel(ctx, gid)
	switch {
	case errors.Is(err, download.ErrNotTracked):
		b.reply(ctx, m, fmt.Sprintf("No active download with GID#%s found.", code(gid)))
	case err != nil:
		b.reply(ctx, m, fmt.Sprintf("Failed to remove GID#%s", code(gid)))
	default:
		b.reply(ctx, m, fmt.Sprintf("GID#%s cancelled.", code(gid)))
	}
}

func (b *Bot) handleStatus(ctx context.Context, m *tgbotapi.Message) {
	if b.opts.Downloads == nil {
		return
	}
	if err := b.opts.Downloads.ShowStatus(ctx, userID(m), chatID(m), m.MessageID); err != nil {
		utils.Warn("status for user %d failed: %v", userID(m), err)
	}
}

func (b *Bot) handleUpload(ctx context.Context, m *tgbotapi.Message) {
	path := strings.TrimSpace(m.CommandArguments())
	if path == "" {
		b.reply(ctx, m, "Must provide a file path.")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		b.reply(ctx, m, "File not exists.")
		return
	}
	if b.opts.Uploader == nil {
		return
	}

	loc, ok := b.reply(ctx, m, "Uploading to pixeldrain.")
	if !ok {
		return
	}

	name := filepath.Base(path)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.uploads.Acquire(ctx, 1); err != nil {
			return
		}
		defer b.uploads.Release(1)

		res, err := b.opts.Uploader.Upload(ctx, path, name, func(p upload.Progress) {
			b.edit(ctx, loc, upload.ProgressText(name, p))
		})
		if err != nil {
			utils.Error("upload of %s failed: %v", path, err)
			b.edit(ctx, loc, "Upload failed.\n"+tgbotapi.EscapeText(tgbotapi.ModeHTML, err.Error()))
			return
		}
		b.edit(ctx, loc, "Upload complete.\n"+res.URL)
		utils.Info("uploaded %s to %s", path, res.URL)
	}()
}

func (b *Bot) handleShutdown(ctx context.Context, m *tgbotapi.Message) {
	if !b.opts.Access.IsOwner(m) {
		return
	}
	b.reply(ctx, m, "Shutting down.")
	if b.opts.Shutdown != nil {
		b.opts.Shutdown()
	}
}
