package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/settings"
	"latexsnap/api/internal/store"
)

// BotAPI is the part of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Recorder receives every finished recognition; store.HistoryRepo is one.
type Recorder interface {
	Add(ctx context.Context, rec store.Recognition) (int64, error)
}

type Router struct {
	Bot      BotAPI
	Settings settings.Store
	Recorder Recorder // optional
	HTTP     *http.Client
	Mode     recognize.Mode // default for chats that never ran /mode
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	args := strings.TrimSpace(upd.Message.CommandArguments())
	switch upd.Message.Command() {
	case "start", "help":
		r.send(cid, "Send a photo of a handwritten formula and I will reply with its LaTeX.\n"+
			"Several photos sent as an album are stacked into one image.\n"+
			"Commands: /health, /prompt [text|reset], /mode [latex|label|default]")
	case "health":
		r.handleHealth(cid)
	case "prompt":
		r.handlePrompt(cid, args)
	case "mode":
		r.handleMode(cid, args)
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	if len(upd.Message.Photo) > 0 || isImageDocument(upd.Message.Document) {
		r.acceptPhoto(*upd.Message)
		return
	}
	if upd.Message.Document != nil {
		r.send(upd.Message.Chat.ID, "Please upload a PNG or JPEG image.")
	}
}

func (r *Router) handleHealth(chatID int64) {
	st, err := r.Settings.Load(context.Background())
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := recognize.New(st.EndpointURL, r.HTTP).Health(ctx); err != nil {
		r.send(chatID, "❌ "+recognize.HealthURL(st.EndpointURL)+": "+err.Error())
		return
	}
	r.send(chatID, "✅ "+recognize.HealthURL(st.EndpointURL))
}

func (r *Router) handlePrompt(chatID int64, args string) {
	p := getPrefs(chatID)
	switch {
	case args == "":
		cur := p.Prompt
		if cur == "" {
			cur = recognize.DefaultPrompt + " (default)"
		}
		r.send(chatID, "Current prompt:\n"+cur+"\n\nUsage: /prompt <text> or /prompt reset")
		return
	case strings.EqualFold(args, "reset"):
		p.Prompt = ""
		r.send(chatID, "✅ Prompt reset to the default.")
	default:
		p.Prompt = args
		r.send(chatID, "✅ Prompt saved.")
	}
	setPrefs(chatID, p)
}

func (r *Router) handleMode(chatID int64, args string) {
	if args == "" {
		msg := tgbotapi.NewMessage(chatID, "Current mode: "+modeName(r.modeFor(chatID))+"\nChoose a mode:")
		msg.ReplyMarkup = makeModeKeyboard()
		_, _ = r.Bot.Send(msg)
		return
	}
	r.setMode(chatID, args)
}

func (r *Router) setMode(chatID int64, name string) {
	if strings.EqualFold(name, "default") {
		name = ""
	}
	m, err := recognize.ParseMode(name)
	if err != nil {
		r.send(chatID, err.Error())
		return
	}
	p := getPrefs(chatID)
	p.Mode, p.ModeSet = m, true
	setPrefs(chatID, p)
	r.send(chatID, "✅ Mode: "+modeName(m))
}

func (r *Router) modeFor(chatID int64) recognize.Mode {
	if p := getPrefs(chatID); p.ModeSet {
		return p.Mode
	}
	return r.Mode
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send to %d: %v", chatID, err)
	}
}

// SendResult replies with markup as a code block.
func (r *Router) SendResult(chatID int64, markup string) {
	msg := tgbotapi.NewMessage(chatID, formatResult(markup))
	msg.ParseMode = "Markdown"
	if _, err := r.Bot.Send(msg); err != nil {
		// fall back to plain text if Markdown is rejected
		r.send(chatID, markup)
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("⚠️ %v", err))
}
