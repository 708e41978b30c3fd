package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"latexsnap/api/internal/app"
	"latexsnap/api/internal/canvas"
	"latexsnap/api/internal/recognize"
)

// maxDrawBody bounds the event log of one drawing.
const maxDrawBody = 8 << 20

type DrawRequest struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Origin canvas.Point      `json:"origin"`
	Events []canvas.RawEvent `json:"events"`
}

type TabRequest struct {
	Tab string `json:"tab"`
}

func (h *Handle) Tab(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req TabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	tab, ok := app.ParseTab(req.Tab)
	if !ok {
		writeError(w, &recognize.ValidationError{Msg: "unknown tab " + req.Tab})
		return
	}
	h.controller(w, r).SelectTab(tab)
	writeJSON(w, http.StatusOK, map[string]string{"tab": string(tab)})
}

// ConvertDrawing replays the page's event log onto a fresh surface and
// submits it.
func (h *Handle) ConvertDrawing(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req DrawRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDrawBody)).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Width > 4096 || req.Height > 4096 {
		writeError(w, &recognize.ValidationError{Msg: "canvas is too large"})
		return
	}

	c := h.controller(w, r)
	if err := c.ReplayDrawing(req.Width, req.Height, req.Origin, req.Events); err != nil {
		writeError(w, err)
		return
	}
	writeDisplay(w, c.Convert(detach(r.Context()), app.TabDraw))
}

func (h *Handle) ClearDrawing(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.controller(w, r).ClearCanvas()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) ConvertUpload(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	writeDisplay(w, h.controller(w, r).Convert(detach(r.Context()), app.TabUpload))
}

// State reports the session's tab, upload and result slot. Without a
// session it reports the defaults and starts none.
func (h *Handle) State(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	st := app.NewController(app.Deps{}).Snapshot()
	if c, ok := h.existing(r); ok {
		st = c.Snapshot()
	}
	out := map[string]any{
		"tab":     st.CurrentTab,
		"drawing": st.Drawing,
		"display": st.Display,
	}
	if st.Uploaded != nil {
		out["upload"] = uploadInfo(st.Uploaded)
	}
	writeJSON(w, http.StatusOK, out)
}

// detach keeps request values but drops cancellation: a submission runs to
// completion even if the page goes away.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
