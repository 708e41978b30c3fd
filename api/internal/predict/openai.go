package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"latexsnap/api/internal/util"
)

const openAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI asks a vision chat model for the markup.
type OpenAI struct {
	APIKey string
	Model  string
	URL    string // defaults to the public chat completions endpoint
	httpc  *http.Client
}

func NewOpenAI(key, model string) *OpenAI {
	return &OpenAI{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
		URL:    openAIURL,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *OpenAI) Name() string { return "openai" }

func (e *OpenAI) Recognize(ctx context.Context, in Input) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty")
	}
	prompt := in.Prompt
	if in.Type == TypeLabel {
		prompt += "\n" + labelInstruction
	}
	dataURL := util.MakeDataURL(util.PickMIME(in.MIME, "", in.Image), in.Image)

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature": 0,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return util.StripCodeFences(strings.TrimSpace(raw.Choices[0].Message.Content)), nil
}
