package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"latexsnap/api/internal/recognize"
)

// SettingsUpdate is the PUT body. Absent fields keep their stored value; an
// empty prompt clears it.
type SettingsUpdate struct {
	APIURL *string `json:"api_url"`
	Prompt *string `json:"prompt"`
}

func (h *Handle) Settings(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodPut {
		var in SettingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		cur, err := h.settings.Load(r.Context())
		if err != nil {
			http.Error(w, "settings: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if in.APIURL != nil {
			cur.EndpointURL = *in.APIURL
		}
		if in.Prompt != nil {
			cur.Prompt = *in.Prompt
		}
		if err := h.settings.Save(r.Context(), cur); err != nil {
			log.Printf("settings: save: %v", err)
			http.Error(w, "settings: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	st, err := h.settings.Load(r.Context())
	if err != nil {
		http.Error(w, "settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"api_url":        st.EndpointURL,
		"prompt":         st.Prompt,
		"default_prompt": recognize.DefaultPrompt,
	})
}

type HealthResponse struct {
	OK     bool   `json:"ok"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Health probes the configured endpoint's /health route.
func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	st, err := h.settings.Load(r.Context())
	if err != nil {
		http.Error(w, "settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out := HealthResponse{URL: recognize.HealthURL(st.EndpointURL)}
	if err := recognize.New(st.EndpointURL, h.httpc).Health(ctx); err != nil {
		out.Error = err.Error()
		var se *recognize.ServerError
		if errors.As(err, &se) {
			out.Status = se.StatusCode
		}
	} else {
		out.OK = true
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	if h.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}
	limit := h.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	recs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("history: %v", err)
		http.Error(w, "history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
