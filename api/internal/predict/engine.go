// Package predict is a local recognition endpoint speaking the same wire
// format the client submits: POST /predict with a hex image and a prompt,
// answered with plain-text markup.
package predict

import (
	"context"
	"fmt"
	"strings"
)

// Input is one decoded recognition request.
type Input struct {
	Image  []byte
	MIME   string
	Prompt string
	Type   string // "Latex" or "Label"
}

type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (string, error)
}

const (
	TypeLatex = "Latex"
	TypeLabel = "Label"
)

// EngineConfig carries the credentials of every engine; only the chosen
// one's are needed.
type EngineConfig struct {
	Name         string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	MockLatex    string
}

// NewEngine picks an engine by name.
func NewEngine(c EngineConfig) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(c.Name)) {
	case "", "mock":
		return &Mock{Latex: c.MockLatex}, nil
	case "gemini":
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return nil, fmt.Errorf("predict: GEMINI_API_KEY is required for the gemini engine")
		}
		return NewGemini(c.GeminiAPIKey, c.GeminiModel), nil
	case "openai", "gpt":
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("predict: OPENAI_API_KEY is required for the openai engine")
		}
		return NewOpenAI(c.OpenAIAPIKey, c.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("predict: unknown engine %q", c.Name)
	}
}
