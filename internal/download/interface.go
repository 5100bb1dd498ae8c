// Package download tracks in-flight aria2 downloads and keeps their chat
// status messages current.
package download

import (
	"context"

	"github.com/pdmirror/pdmirror/internal/aria2"
)

// Daemon is the subset of the aria2 client the download lifecycle needs.
type Daemon interface {
	AddURI(ctx context.Context, uri string) (string, error)
	TellStatus(ctx context.Context, gid string) (*aria2.Status, error)
	TellActive(ctx context.Context) ([]aria2.Status, error)
	Remove(ctx context.Context, gid string) error
	RemoveDownloadResult(ctx context.Context, gid string) error
	GetFiles(ctx context.Context, gid string) ([]aria2.File, error)
}

// Location identifies a chat message.
type Location struct {
	ChatID    int64
	MessageID int
}

// Messenger sends and edits HTML chat messages. Edit and Delete failures are
// never fatal to callers in this package.
type Messenger interface {
	Send(ctx context.Context, chatID int64, replyTo int, text string) (Location, error)
	Edit(ctx context.Context, loc Location, text string) error
	Delete(ctx context.Context, loc Location) error
}
