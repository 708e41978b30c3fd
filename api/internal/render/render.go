// Package render typesets LaTeX markup as MathML for the browser.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
)

var ErrEmpty = errors.New("render: empty markup")

type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				treeblood.MathML(),
			),
		),
	}
}

// MathML renders markup as display math. Markup the typesetter cannot parse
// comes back as an error; the caller still has the markup itself.
func (r *Renderer) MathML(markup string) (string, error) {
	// TeX reads a newline in math as a space; collapsing keeps the markdown
	// parser from splitting multi-line markup into separate blocks.
	markup = strings.Join(strings.Fields(markup), " ")
	if markup == "" {
		return "", ErrEmpty
	}
	source := "$$" + markup + "$$"

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "<merror") {
		return "", fmt.Errorf("render: typesetter rejected %q", markup)
	}
	if !strings.Contains(out, "<math") {
		return "", fmt.Errorf("render: no math produced for %q", markup)
	}
	return out, nil
}
