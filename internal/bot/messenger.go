package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/pdmirror/pdmirror/internal/download"
)

// Messenger sends HTML messages through the Bot API, throttled to stay under
// Telegram's flood limits.
type Messenger struct {
	api     API
	limiter *rate.Limiter
}

// NewMessenger allows perSecond calls with a burst of one. A non-positive
// rate disables throttling.
func NewMessenger(api API, perSecond float64) *Messenger {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Messenger{api: api, limiter: rate.NewLimiter(limit, 1)}
}

// Send posts text to chatID, replying to replyTo when non-zero.
func (m *Messenger) Send(ctx context.Context, chatID int64, replyTo int, text string) (download.Location, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return download.Location{}, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo

	sent, err := m.api.Send(msg)
	if err != nil {
		return download.Location{}, err
	}
	loc := download.Location{ChatID: chatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		loc.ChatID = sent.Chat.ID
	}
	return loc, nil
}

// Edit replaces the text of loc. Telegram's "message is not modified" answer
// counts as success.
func (m *Messenger) Edit(ctx context.Context, loc download.Location, text string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(loc.ChatID, loc.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	if _, err := m.api.Request(edit); err != nil && !notModified(err) {
		return err
	}
	return nil
}

// Delete removes loc.
func (m *Messenger) Delete(ctx context.Context, loc download.Location) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := m.api.Request(tgbotapi.NewDeleteMessage(loc.ChatID, loc.MessageID))
	return err
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

var _ download.Messenger = (*Messenger)(nil)
