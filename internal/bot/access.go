package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Access decides who may issue commands.
type Access struct {
	Owner int64
	users map[int64]bool
	chats map[int64]bool
}

// NewAccess builds an access list. The owner is always authorized.
func NewAccess(owner int64, users, chats []int64) *Access {
	a := &Access{Owner: owner, users: make(map[int64]bool), chats: make(map[int64]bool)}
	for _, id := range users {
		a.users[id] = true
	}
	for _, id := range chats {
		a.chats[id] = true
	}
	return a
}

// IsOwner is true for messages the owner sent as themselves, never on behalf
// of a channel or anonymous admin.
func (a *Access) IsOwner(m *tgbotapi.Message) bool {
	if m == nil || m.SenderChat != nil || m.From == nil {
		return false
	}
	return m.From.ID == a.Owner
}

// Authorized is true for the owner, listed users and messages in listed chats.
func (a *Access) Authorized(m *tgbotapi.Message) bool {
	if m == nil {
		return false
	}
	if m.Chat != nil && a.chats[m.Chat.ID] {
		return true
	}
	if m.SenderChat != nil || m.From == nil {
		return false
	}
	return m.From.ID == a.Owner || a.users[m.From.ID]
}
