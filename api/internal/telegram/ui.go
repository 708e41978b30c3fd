package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/util"
)

func makeModeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Default", "mode:default"),
		tgbotapi.NewInlineKeyboardButtonData("LaTeX", "mode:latex"),
		tgbotapi.NewInlineKeyboardButtonData("Label graph", "mode:label"),
	))
}

func modeName(m recognize.Mode) string {
	if m == recognize.ModeDefault {
		return "default"
	}
	return strings.ToLower(string(m))
}

// formatResult wraps markup in a Markdown code block. Backticks would end
// the block early, so they are swapped for quotes.
func formatResult(markup string) string {
	markup = util.Truncate(markup, 3900)
	return "```\n" + strings.ReplaceAll(markup, "`", "'") + "\n```"
}
