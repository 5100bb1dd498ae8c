package upload

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/utils"
)

// ProgressText renders p as an HTML chat message.
func ProgressText(name string, p Progress) string {
	return fmt.Sprintf(
		"📤 <b>Uploading to Pixeldrain</b>\nName : <code>%s</code>\n%s <code>%.2f%%</code>\n<code>%s / %s</code> @ <code>%s/s</code>\n⏳ ETA: <code>%s</code>",
		tgbotapi.EscapeText(tgbotapi.ModeHTML, name),
		utils.ProgressBar(p.Percent, 10),
		p.Percent*100,
		utils.ReadableBytes(p.Uploaded),
		utils.ReadableBytes(p.Total),
		utils.ReadableBytes(int64(p.Speed)),
		p.ETA,
	)
}
