package recognize

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"latexsnap/api/internal/labelgraph"
)

// DefaultPrompt is sent when the user leaves the instruction empty.
const DefaultPrompt = "Convert this handwritten mathematical expression to LaTeX format. Only output the LaTeX code without any explanation."

// Mode selects how the endpoint reads the image. The zero value sends no
// mode at all.
type Mode string

const (
	ModeDefault Mode = ""
	ModeLatex   Mode = "Latex"
	ModeLabel   Mode = "Label"
)

// ParseMode accepts "latex", "label" or "" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ModeDefault, nil
	case "latex":
		return ModeLatex, nil
	case "label":
		return ModeLabel, nil
	default:
		return ModeDefault, fmt.Errorf("unknown mode %q; use latex or label", s)
	}
}

// Request is the JSON body posted to the endpoint.
type Request struct {
	ImageBytes string `json:"image_bytes"`
	Prompt     string `json:"prompt"`
	Type       Mode   `json:"Type,omitempty"`
}

// Encode returns the lowercase hex form of the raw image bytes.
func Encode(img Image) string {
	return hex.EncodeToString(img.Data)
}

// PromptOrDefault falls back to DefaultPrompt for a blank instruction.
func PromptOrDefault(p string) string {
	if strings.TrimSpace(p) == "" {
		return DefaultPrompt
	}
	return p
}

type Client struct {
	Endpoint string
	httpc    *http.Client
}

// New returns a client for endpoint. A nil httpc means a client without
// its own timeout; the caller's context is the only deadline.
func New(endpoint string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{Endpoint: strings.TrimSpace(endpoint), httpc: httpc}
}

// Submit posts one request and returns the raw body of a 2xx answer.
func (c *Client) Submit(ctx context.Context, req Request) (string, error) {
	if c.Endpoint == "" {
		return "", &ValidationError{Msg: "API URL is empty. Set it in the settings."}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("recognize: marshal request: %w", err)
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &ValidationError{Msg: "Invalid API URL: " + err.Error()}
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(hr)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &ServerError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	return string(b), nil
}

// statusText strips the numeric code from resp.Status ("500 Internal Server
// Error" → "Internal Server Error").
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if t := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); t != "" {
		return t
	}
	return http.StatusText(resp.StatusCode)
}

// HealthURL swaps a trailing /predict for /health. Other URLs are probed
// as they are.
func HealthURL(endpoint string) string {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return endpoint
	}
	if strings.HasSuffix(u.Path, "/predict") {
		u.Path = strings.TrimSuffix(u.Path, "/predict") + "/health"
	}
	return u.String()
}

// Health probes the endpoint's health route; any 2xx means reachable.
func (c *Client) Health(ctx context.Context) error {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, HealthURL(c.Endpoint), nil)
	if err != nil {
		return &ValidationError{Msg: "Invalid API URL: " + err.Error()}
	}
	resp, err := c.httpc.Do(hr)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}
	return nil
}

// convertLabel turns a label-graph answer into LaTeX.
func convertLabel(mode Mode, markup string) string {
	if mode != ModeLabel {
		return markup
	}
	return labelgraph.ToLaTeX(markup)
}
