package bot

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentMessage struct {
	ChatID  int64
	ReplyTo int
	Text    string
}

type editedMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// fakeAPI records outgoing calls and serves scripted updates.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editedMessage
	deletes int
	editErr error

	pages      [][]tgbotapi.Update
	getUpdates []tgbotapi.UpdateConfig

	live       chan tgbotapi.Update
	liveConfig *tgbotapi.UpdateConfig
	stopOnce   sync.Once
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{live: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := c.(tgbotapi.MessageConfig)
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChatID: msg.ChatID, ReplyTo: msg.ReplyToMessageID, Text: msg.Text})
	return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: msg.ChatID}}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, editedMessage{ChatID: v.ChatID, MessageID: v.MessageID, Text: v.Text})
		if f.editErr != nil {
			return nil, f.editErr
		}
	case tgbotapi.DeleteMessageConfig:
		f.deletes++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUpdates = append(f.getUpdates, cfg)
	var out []tgbotapi.Update
	for _, page := range f.pages {
		for _, u := range page {
			if u.UpdateID >= cfg.Offset && (cfg.Limit == 0 || len(out) < cfg.Limit) {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveConfig = &cfg
	return f.live
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.stopOnce.Do(func() { close(f.live) })
}

func (f *fakeAPI) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) Edits() []editedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]editedMessage(nil), f.edits...)
}

func (f *fakeAPI) SentContaining(substr string) int {
	n := 0
	for _, s := range f.Sent() {
		if strings.Contains(s.Text, substr) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) EditsContaining(substr string) int {
	n := 0
	for _, e := range f.Edits() {
		if strings.Contains(e.Text, substr) {
			n++
		}
	}
	return n
}

// command builds a message the way Telegram delivers a bot command.
func command(updateID int, fromID, chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			MessageID: updateID * 10,
			From:      &tgbotapi.User{ID: fromID, FirstName: "Ada", LastName: "Lovelace"},
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
		},
	}
}
