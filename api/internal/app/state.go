package app

import (
	"latexsnap/api/internal/recognize"
)

type Tab string

const (
	TabDraw   Tab = "draw"
	TabUpload Tab = "upload"
)

func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabDraw, TabUpload:
		return Tab(s), true
	}
	return "", false
}

// ErrorInfo is the user-visible form of a failed submission.
type ErrorInfo struct {
	Kind    recognize.Kind `json:"kind"`
	Message string         `json:"message"`
}

func errorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	return &ErrorInfo{Kind: recognize.KindOf(err), Message: err.Error()}
}

// Display is the result slot. Seq is the submission that last wrote it.
type Display struct {
	Seq         uint64          `json:"seq"`
	State       recognize.State `json:"state"`
	Markup      string          `json:"latex,omitempty"`
	MathML      string          `json:"mathml,omitempty"`
	RenderError string          `json:"render_error,omitempty"`
	Error       *ErrorInfo      `json:"error,omitempty"`
}

// State is everything the page toggles between submissions.
type State struct {
	CurrentTab Tab
	Drawing    bool
	Uploaded   *recognize.Image
	Display    Display
}
