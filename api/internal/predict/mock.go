package predict

import (
	"context"
)

const (
	DefaultMockLatex = `\frac{x^2 + y^2}{z^2} = 1`
	DefaultMockLabel = `x Sup 2 NoRel + Right y Sup 2`
)

// Mock answers every request with fixed markup, for running the front end
// without a model.
type Mock struct {
	Latex string
	Label string
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Recognize(_ context.Context, in Input) (string, error) {
	if in.Type == TypeLabel {
		if m.Label != "" {
			return m.Label, nil
		}
		return DefaultMockLabel, nil
	}
	if m.Latex != "" {
		return m.Latex, nil
	}
	return DefaultMockLatex, nil
}
