package download

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/utils"
)

const (
	fetchingText = "📥 Fetching download status..."
	noActiveText = "✅ No active downloads."
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func addedText(gid string) string {
	return fmt.Sprintf("Download added, GID : <code>%s</code>", esc(gid))
}

func activeText(st *aria2.Status, elapsed time.Duration) string {
	return fmt.Sprintf(
		"Name : %s\nElapsed : %s\nDownloaded : %s of %s\nETA : %s @ %s/s\nGID : <code>%s</code>",
		esc(st.Name()),
		utils.FormatDuration(elapsed),
		utils.ReadableBytes(st.CompletedLength),
		utils.ReadableBytes(st.TotalLength),
		utils.FormatETA(st.Remaining(), float64(st.DownloadSpeed)),
		utils.ReadableBytes(st.DownloadSpeed),
		esc(st.GID),
	)
}

func completedText(st *aria2.Status) string {
	return "Download completed.\n" + esc(st.Name())
}

func vanishedText(gid string) string {
	return fmt.Sprintf("Download GID <code>%s</code> not found (cancelled or removed).", esc(gid))
}

func failedText(gid, reason string) string {
	if reason == "" {
		reason = "unknown error"
	}
	return fmt.Sprintf("Download GID <code>%s</code> failed: %s", esc(gid), esc(reason))
}

func cancelledText(gid string) string {
	return fmt.Sprintf("Cancelled download GID#<code>%s</code>.", esc(gid))
}

func fetchErrorText(err error) string {
	msg := err.Error()
	if r := []rune(msg); len(r) > 50 {
		msg = string(r[:50])
	}
	return "❌ Error fetching downloads: " + esc(msg)
}

// listingText renders the aggregate view. It carries no clock so that an
// unchanged set of downloads renders identically.
func listingText(list []aria2.Status, free string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📥 <b>Active Downloads</b> [%d]\n", len(list))

	var completed, total, speed int64
	for i := range list {
		st := &list[i]
		completed += st.CompletedLength
		total += st.TotalLength
		speed += st.DownloadSpeed

		pct := utils.Percent(st.CompletedLength, st.TotalLength)
		fmt.Fprintf(&b, "\n%d. <b>%s</b>\n", i+1, esc(st.Name()))
		fmt.Fprintf(&b, "%s %.2f%%\n", utils.ProgressBar(pct, 10), pct*100)
		fmt.Fprintf(&b, "%s / %s @ %s/s | ETA: %s\n",
			utils.ReadableBytes(st.CompletedLength),
			utils.ReadableBytes(st.TotalLength),
			utils.ReadableBytes(st.DownloadSpeed),
			utils.FormatETA(st.Remaining(), float64(st.DownloadSpeed)),
		)
		fmt.Fprintf(&b, "GID: <code>%s</code>\n", esc(st.GID))
	}

	fmt.Fprintf(&b, "\n📊 Total: %s / %s (%.2f%%) @ %s/s",
		utils.ReadableBytes(completed),
		utils.ReadableBytes(total),
		utils.Percent(completed, total)*100,
		utils.ReadableBytes(speed),
	)
	if free != "" {
		fmt.Fprintf(&b, "\n💾 Free: %s", free)
	}
	return b.String()
}
