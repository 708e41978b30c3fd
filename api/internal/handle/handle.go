package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"latexsnap/api/internal/app"
	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/settings"
	"latexsnap/api/internal/store"
)

const sessionCookie = "latexsnap_session"

// HistoryLister is the read side of the recognition history.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]store.Recognition, error)
}

type Handle struct {
	sessions     *app.Sessions
	settings     settings.Store
	history      HistoryLister
	httpc        *http.Client
	historyLimit int
}

type Options struct {
	Sessions     *app.Sessions
	Settings     settings.Store
	History      HistoryLister // nil disables /api/history
	HTTP         *http.Client
	HistoryLimit int
}

func New(o Options) *Handle {
	if o.HTTP == nil {
		o.HTTP = &http.Client{}
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 20
	}
	return &Handle{
		sessions:     o.Sessions,
		settings:     o.Settings,
		history:      o.History,
		httpc:        o.HTTP,
		historyLimit: o.HistoryLimit,
	}
}

// Register wires every route onto mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/tab", h.Tab)
	mux.HandleFunc("/api/draw/convert", h.ConvertDrawing)
	mux.HandleFunc("/api/draw/clear", h.ClearDrawing)
	mux.HandleFunc("/api/upload", h.Upload)
	mux.HandleFunc("/api/upload/convert", h.ConvertUpload)
	mux.HandleFunc("/api/settings", h.Settings)
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/history", h.History)
	mux.HandleFunc("/api/state", h.State)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error app.ErrorInfo `json:"error"`
}

func statusFor(kind recognize.Kind) int {
	switch kind {
	case recognize.KindValidation:
		return http.StatusUnprocessableEntity
	case recognize.KindNetwork, recognize.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := recognize.KindOf(err)
	writeJSON(w, statusFor(kind), errorBody{Error: app.ErrorInfo{Kind: kind, Message: err.Error()}})
}

func writeDisplay(w http.ResponseWriter, d app.Display) {
	code := http.StatusOK
	if d.Error != nil {
		code = statusFor(d.Error.Kind)
	}
	writeJSON(w, code, d)
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

// existing returns the caller's session controller, if there is one.
func (h *Handle) existing(r *http.Request) (*app.Controller, bool) {
	ck, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return h.sessions.Lookup(ck.Value)
}

// controller finds or starts the caller's session and refreshes its cookie.
func (h *Handle) controller(w http.ResponseWriter, r *http.Request) *app.Controller {
	var id string
	if ck, err := r.Cookie(sessionCookie); err == nil {
		id = ck.Value
	}
	id, c := h.sessions.Get(id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	return c
}
