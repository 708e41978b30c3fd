package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"latexsnap/api/internal/canvas"
	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/settings"
	"latexsnap/api/internal/store"
)

type memSettings struct{ s settings.Settings }

func (m *memSettings) Load(context.Context) (settings.Settings, error) { return m.s, nil }
func (m *memSettings) Save(_ context.Context, s settings.Settings) error {
	m.s = s
	return nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []store.Recognition
}

func (f *fakeRecorder) Add(_ context.Context, rec store.Recognition) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return int64(len(f.recs)), nil
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

func newController(t *testing.T, h http.HandlerFunc) (*Controller, *fakeRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rec := &fakeRecorder{}
	c := NewController(Deps{
		Settings: &memSettings{s: settings.Settings{EndpointURL: srv.URL + "/predict"}},
		Recorder: rec,
	})
	return c, rec
}

func TestConvertDrawingSendsPNG(t *testing.T) {
	var body recognize.Request
	c, rec := newController(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`"$x+1$"`))
	})

	err := c.ReplayDrawing(40, 20, canvas.Point{X: 10, Y: 10}, []canvas.RawEvent{
		{Type: "pen", Size: 4, Color: "#000"},
		{Type: "touchstart", Touches: []canvas.Point{{X: 15, Y: 20}}},
		{Type: "touchmove", Touches: []canvas.Point{{X: 40, Y: 20}}},
		{Type: "touchend"},
	})
	if err != nil {
		t.Fatalf("ReplayDrawing() error = %v", err)
	}

	d := c.Convert(context.Background(), TabDraw)
	if d.State != recognize.StateDisplaying || d.Markup != "x+1" {
		t.Fatalf("display = %+v", d)
	}
	raw, err := hex.DecodeString(body.ImageBytes)
	if err != nil {
		t.Fatalf("image_bytes is not hex: %v", err)
	}
	if !strings.HasPrefix(string(raw), "\x89PNG") {
		t.Fatalf("expected a PNG payload")
	}
	if body.Prompt != recognize.DefaultPrompt {
		t.Fatalf("prompt = %q", body.Prompt)
	}
	if len(rec.recs) != 1 || rec.recs[0].Source != "draw" || rec.recs[0].Markup != "x+1" {
		t.Fatalf("history = %+v", rec.recs)
	}
}

func TestConvertUploadWithoutFile(t *testing.T) {
	called := false
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	d := c.Convert(context.Background(), TabUpload)
	if d.State != recognize.StateFailed || d.Error == nil || d.Error.Kind != recognize.KindValidation {
		t.Fatalf("display = %+v", d)
	}
	if called {
		t.Fatalf("request sent without an image")
	}
}

func TestFileSelectedValidation(t *testing.T) {
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {})

	if err := c.SelectFile(FileInput{Name: "a.png", ContentType: "image/png", Data: pngBytes}); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	err := c.SelectFile(FileInput{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
	if recognize.KindOf(err) != recognize.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if up := c.Uploaded(); up == nil || up.Name != "a.png" {
		t.Fatalf("rejected file replaced the upload: %+v", up)
	}

	c.RemoveFile()
	if c.Uploaded() != nil {
		t.Fatalf("RemoveFile() kept the upload")
	}
}

func TestConvertUpload(t *testing.T) {
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("```latex\n\\sqrt{2}\n```"))
	})
	if err := c.SelectFile(FileInput{Name: "a.png", ContentType: "image/png", Data: pngBytes}); err != nil {
		t.Fatal(err)
	}
	d := c.Convert(context.Background(), TabUpload)
	if d.Markup != `\sqrt{2}` {
		t.Fatalf("display = %+v", d)
	}
	if got := c.Snapshot().Display; got.Markup != `\sqrt{2}` {
		t.Fatalf("slot = %+v", got)
	}
}

func TestSelectTabHidesResults(t *testing.T) {
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("y")) })
	c.Convert(context.Background(), TabDraw)
	c.SelectTab(TabUpload)

	st := c.Snapshot()
	if st.CurrentTab != TabUpload {
		t.Fatalf("tab = %q", st.CurrentTab)
	}
	if st.Display.Markup != "" || st.Display.State != recognize.StateIdle {
		t.Fatalf("results not hidden: %+v", st.Display)
	}
}

func TestServerErrorShown(t *testing.T) {
	c, rec := newController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	d := c.Convert(context.Background(), TabDraw)
	if d.Error == nil || d.Error.Kind != recognize.KindServer || !strings.Contains(d.Error.Message, "503") {
		t.Fatalf("display = %+v", d)
	}
	if len(rec.recs) != 1 || rec.recs[0].ErrorKind != "server" {
		t.Fatalf("history = %+v", rec.recs)
	}
}

func TestLastCompletedSubmissionOwnsSlot(t *testing.T) {
	release := make(chan struct{})
	var n int
	var mu sync.Mutex
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n++
		first := n == 1
		mu.Unlock()
		if first {
			<-release
			_, _ = w.Write([]byte("slow"))
			return
		}
		_, _ = w.Write([]byte("fast"))
	})

	slow := make(chan Display)
	go func() { slow <- c.Convert(context.Background(), TabDraw) }()

	// wait until the slow request is in flight
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		started := n == 1
		mu.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("slow request never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	fast := c.Convert(context.Background(), TabDraw)
	if fast.Markup != "fast" {
		t.Fatalf("fast = %+v", fast)
	}
	close(release)
	s := <-slow
	if s.Markup != "slow" || s.Seq >= fast.Seq {
		t.Fatalf("slow = %+v, fast = %+v", s, fast)
	}
	if got := c.Snapshot().Display; got.Markup != "slow" {
		t.Fatalf("slot = %+v, want the last completed submission", got)
	}
}

func TestDispatchUnknownKindIsNoop(t *testing.T) {
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := c.Dispatch(Event{Kind: EventKind(99)}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
}

func TestSessions(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewSessions(func() *Controller { return NewController(Deps{}) })
	s.now = func() time.Time { return now }

	id, c1 := s.Get("")
	if id == "" {
		t.Fatal("empty session id")
	}
	if _, c2 := s.Get(id); c2 != c1 {
		t.Fatal("same id returned a different controller")
	}
	if other, c3 := s.Get("unknown"); other == "unknown" || c3 == c1 {
		t.Fatal("unknown id must start a new session")
	}

	now = now.Add(time.Hour)
	if n := s.Sweep(30 * time.Minute); n != 2 {
		t.Fatalf("Sweep() = %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d", s.Len())
	}
}

func TestSessionsEvictLeastRecentlyUsed(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewSessions(func() *Controller { return NewController(Deps{}) })
	s.now = func() time.Time { return now }
	s.Max = 3

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, _ := s.Get("")
		ids = append(ids, id)
		now = now.Add(time.Second)
	}
	// refresh the first so the second becomes the oldest
	if _, ok := s.Lookup(ids[0]); !ok {
		t.Fatal("Lookup() lost a live session")
	}
	now = now.Add(time.Second)

	for i := 0; i < 50; i++ {
		s.Get("")
		now = now.Add(time.Second)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want the cap", s.Len())
	}
	if _, ok := s.Lookup(ids[1]); ok {
		t.Fatal("least recently used session survived")
	}
}

func TestLookupDoesNotCreate(t *testing.T) {
	s := NewSessions(func() *Controller { return NewController(Deps{}) })
	if _, ok := s.Lookup(""); ok {
		t.Fatal("empty id found")
	}
	if _, ok := s.Lookup("nope"); ok {
		t.Fatal("unknown id found")
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d", s.Len())
	}
}

func TestSurfaceIsLazyAndReleasedAfterCapture(t *testing.T) {
	c, _ := newController(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("x")) })
	if c.HasSurface() {
		t.Fatal("new controller allocated a surface")
	}
	if err := c.ReplayDrawing(4096, 4096, canvas.Point{}, []canvas.RawEvent{
		{Type: "mousedown", ClientX: 1, ClientY: 1},
		{Type: "mousemove", ClientX: 30, ClientY: 30},
		{Type: "mouseup"},
	}); err != nil {
		t.Fatal(err)
	}
	if !c.HasSurface() {
		t.Fatal("replay did not build a surface")
	}
	if d := c.Convert(context.Background(), TabDraw); d.Markup != "x" {
		t.Fatalf("display = %+v", d)
	}
	if c.HasSurface() {
		t.Fatal("surface kept after the submission captured it")
	}
	// converting again with nothing drawn still submits a blank page
	if d := c.Convert(context.Background(), TabDraw); d.Error != nil {
		t.Fatalf("display = %+v", d)
	}
}
