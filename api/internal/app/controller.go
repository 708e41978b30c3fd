// Package app holds the per-user application state and the controller that
// turns page events into drawing, upload and recognition actions.
package app

import (
	"context"
	"log"
	"net/http"
	"sync"

	"latexsnap/api/internal/canvas"
	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/settings"
	"latexsnap/api/internal/store"
	"latexsnap/api/internal/util"
)

// EventKind is the capability set the dispatch table is keyed on.
type EventKind int

const (
	EventPointerDown EventKind = iota + 1
	EventPointerMove
	EventPointerUp
	EventFileSelected
)

// FileInput is a file the user picked or dropped.
type FileInput struct {
	Name        string
	ContentType string
	Data        []byte
}

type Event struct {
	Kind    EventKind
	Pointer canvas.PointerEvent
	File    *FileInput
}

// Handler reacts to one event kind. It runs with the controller locked.
type Handler func(c *Controller, ev Event) error

// Recorder receives every finished submission; store.HistoryRepo is one.
type Recorder interface {
	Add(ctx context.Context, rec store.Recognition) (int64, error)
}

type Deps struct {
	Settings settings.Store
	Renderer recognize.Renderer
	Recorder Recorder
	HTTP     *http.Client
	Mode     recognize.Mode
}

type Controller struct {
	mu    sync.Mutex
	state State
	// surface is created on the first stroke or replay and dropped once a
	// submission has captured it.
	surface  *canvas.Surface
	handlers map[EventKind]Handler

	deps Deps
	seq  uint64
}

func NewController(deps Deps) *Controller {
	c := &Controller{
		state: State{CurrentTab: TabDraw, Display: Display{State: recognize.StateIdle}},
		deps:  deps,
	}
	c.handlers = map[EventKind]Handler{
		EventPointerDown:  handlePointer,
		EventPointerMove:  handlePointer,
		EventPointerUp:    handlePointer,
		EventFileSelected: handleFileSelected,
	}
	return c
}

func handlePointer(c *Controller, ev Event) error {
	if c.surface == nil {
		c.surface = canvas.New(0, 0)
	}
	c.surface.Handle(ev.Pointer)
	c.state.Drawing = c.surface.Drawing()
	return nil
}

func handleFileSelected(c *Controller, ev Event) error {
	if ev.File == nil {
		return &recognize.ValidationError{Msg: "Please upload an image first."}
	}
	img, err := recognize.CaptureFile(ev.File.Name, ev.File.ContentType, ev.File.Data)
	if err != nil {
		return err
	}
	c.state.Uploaded = &img
	c.hideResults()
	return nil
}

// Dispatch routes ev through the table. Kinds without a handler are ignored.
func (c *Controller) Dispatch(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatch(ev)
}

func (c *Controller) dispatch(ev Event) error {
	h, ok := c.handlers[ev.Kind]
	if !ok {
		return nil
	}
	return h(c, ev)
}

func pointerEventKind(k canvas.Kind) EventKind {
	switch k {
	case canvas.PointerDown:
		return EventPointerDown
	case canvas.PointerMove:
		return EventPointerMove
	default:
		return EventPointerUp
	}
}

// ReplayDrawing rebuilds the surface from the page's event log: device
// events are normalized first, "pen" and "clear" entries change the pen or
// wipe the surface.
func (c *Controller) ReplayDrawing(width, height int, origin canvas.Point, events []canvas.RawEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.surface = canvas.New(width, height)
	for _, raw := range events {
		switch raw.Type {
		case "pen":
			if err := c.surface.SetPen(raw.Size, raw.Color); err != nil {
				return &recognize.ValidationError{Msg: err.Error()}
			}
			continue
		case "clear":
			c.surface.Clear()
			continue
		}
		pe, ok := canvas.Normalize(raw, origin)
		if !ok {
			continue
		}
		if err := c.dispatch(Event{Kind: pointerEventKind(pe.Kind), Pointer: pe}); err != nil {
			return err
		}
	}
	c.state.Drawing = c.surface.Drawing()
	return nil
}

func (c *Controller) ClearCanvas() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface = nil
	c.state.Drawing = false
}

func (c *Controller) SelectTab(t Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentTab = t
	c.hideResults()
}

func (c *Controller) SelectFile(f FileInput) error {
	return c.Dispatch(Event{Kind: EventFileSelected, File: &f})
}

func (c *Controller) RemoveFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Uploaded = nil
	c.hideResults()
}

// Uploaded returns the current upload, if any.
func (c *Controller) Uploaded() *recognize.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Uploaded
}

// Snapshot copies the state for display.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) hideResults() {
	c.state.Display = Display{Seq: c.state.Display.Seq, State: recognize.StateIdle}
}

// lockedSource captures from the controller under its lock, so a capture
// sees a consistent surface or upload. A captured surface is released
// unless a newer one has replaced it meanwhile.
type lockedSource struct {
	c   *Controller
	src recognize.Source
}

func (l lockedSource) Capture() (recognize.Image, error) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	img, err := l.src.Capture()
	if s, ok := l.src.(*canvas.Surface); ok && l.c.surface == s {
		l.c.surface = nil
	}
	return img, err
}

// HasSurface reports whether the controller currently holds a raster.
func (c *Controller) HasSurface() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

// Convert submits the drawing or the uploaded file and returns what the
// result slot shows afterwards. A submission never cancels an earlier one;
// whichever completes last owns the slot.
func (c *Controller) Convert(ctx context.Context, source Tab) Display {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Display = Display{Seq: seq, State: recognize.StateIdle}
	var src recognize.Source
	switch {
	case source == TabUpload:
		src = recognize.FileSource{Image: c.state.Uploaded}
	case c.surface != nil:
		src = c.surface
	default:
		// nothing drawn yet: submit a blank page
		src = canvas.New(0, 0)
	}
	c.mu.Unlock()

	st, err := c.deps.Settings.Load(ctx)
	if err != nil {
		log.Printf("app: load settings: %v", err)
		return c.finish(Display{Seq: seq, State: recognize.StateFailed, Error: &ErrorInfo{
			Kind: recognize.KindValidation, Message: "Could not load settings: " + err.Error(),
		}})
	}

	p := &recognize.Pipeline{
		Client:   recognize.New(st.EndpointURL, c.deps.HTTP),
		Renderer: c.deps.Renderer,
	}
	res, err := p.Run(ctx, lockedSource{c: c, src: src}, recognize.Options{
		Prompt: st.Prompt,
		Mode:   c.deps.Mode,
		OnState: func(s recognize.State) {
			c.mu.Lock()
			if c.state.Display.Seq == seq && !c.state.Display.State.Terminal() {
				c.state.Display.State = s
			}
			c.mu.Unlock()
		},
	})

	d := Display{Seq: seq}
	if err != nil {
		d.State = recognize.StateFailed
		d.Error = errorInfo(err)
	} else {
		d.State = recognize.StateDisplaying
		d.Markup = res.Markup
		d.MathML = res.MathML
		if res.RenderErr != nil {
			d.RenderError = res.RenderErr.Error()
		}
	}
	c.record(ctx, source, recognize.PromptOrDefault(st.Prompt), res, d)
	return c.finish(d)
}

func (c *Controller) finish(d Display) Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Display = d
	return d
}

func (c *Controller) record(ctx context.Context, source Tab, prompt string, res recognize.Result, d Display) {
	if c.deps.Recorder == nil || res.ImageHash == "" {
		return
	}
	rec := store.Recognition{
		ImageHash: res.ImageHash,
		Source:    string(source),
		Prompt:    prompt,
		Markup:    d.Markup,
	}
	if d.Error != nil {
		rec.ErrorKind = string(d.Error.Kind)
		rec.Error = util.Truncate(d.Error.Message, 1000)
	}
	if _, err := c.deps.Recorder.Add(ctx, rec); err != nil {
		log.Printf("app: record history: %v", err)
	}
}
