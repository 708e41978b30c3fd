package recognize

import (
	"context"
	"log"

	"latexsnap/api/internal/util"
)

// State is the position of one submission in the pipeline.
type State string

const (
	StateIdle        State = "idle"
	StateCapturing   State = "capturing"
	StateEncoding    State = "encoding"
	StateSubmitting  State = "submitting"
	StateNormalizing State = "normalizing"
	StateDisplaying  State = "displaying"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition follows.
func (s State) Terminal() bool { return s == StateDisplaying || s == StateFailed }

// Renderer typesets normalized markup.
type Renderer interface {
	MathML(markup string) (string, error)
}

type Options struct {
	Prompt string
	Mode   Mode
	// OnState observes every transition, starting with StateIdle.
	OnState func(State)
}

// Result is what a finished submission shows. Markup is always set on
// success; MathML is empty when RenderErr is set. ImageHash is also set on
// failures that happen after capture.
type Result struct {
	Markup    string
	MathML    string
	RenderErr error
	ImageHash string
}

// Pipeline runs capture, encode, submit, normalize and render for one
// submission. It sends exactly one request.
type Pipeline struct {
	Client   *Client
	Renderer Renderer
}

func (p *Pipeline) Run(ctx context.Context, src Source, opt Options) (Result, error) {
	step := func(s State) {
		if opt.OnState != nil {
			opt.OnState(s)
		}
	}
	var hash string
	fail := func(err error) (Result, error) {
		step(StateFailed)
		return Result{ImageHash: hash}, err
	}

	step(StateIdle)
	step(StateCapturing)
	img, err := src.Capture()
	if err != nil {
		return fail(err)
	}
	hash = util.SHA256Hex(img.Data)

	step(StateEncoding)
	req := Request{
		ImageBytes: Encode(img),
		Prompt:     PromptOrDefault(opt.Prompt),
		Type:       opt.Mode,
	}

	step(StateSubmitting)
	body, err := p.Client.Submit(ctx, req)
	if err != nil {
		log.Printf("recognize: submit %s: %v", p.Client.Endpoint, err)
		return fail(err)
	}

	step(StateNormalizing)
	res := Result{
		Markup:    convertLabel(opt.Mode, Normalize(body)),
		ImageHash: hash,
	}

	if p.Renderer != nil {
		mml, rerr := p.Renderer.MathML(res.Markup)
		if rerr != nil {
			res.RenderErr = &RenderError{Markup: res.Markup, Err: rerr}
		} else {
			res.MathML = mml
		}
	}
	step(StateDisplaying)
	return res, nil
}
