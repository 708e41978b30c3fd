package telegram

import (
	"sync"
	"time"

	"latexsnap/api/internal/recognize"
)

const (
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

// prefs are per-chat overrides of the shared settings.
type prefs struct {
	Prompt  string
	Mode    recognize.Mode
	ModeSet bool
}

var chatPrefs sync.Map // chatID -> prefs

func getPrefs(chatID int64) prefs {
	if v, ok := chatPrefs.Load(chatID); ok {
		return v.(prefs)
	}
	return prefs{}
}

func setPrefs(chatID int64, p prefs) { chatPrefs.Store(chatID, p) }

type photoBatch struct {
	ChatID int64
	Key    string // "grp:<mediaGroupID>" | "chat:<chatID>"

	mu     sync.Mutex
	images []recognize.Image
	timer  *time.Timer
}

var batches sync.Map // key -> *photoBatch
