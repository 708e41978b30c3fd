package predict

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"latexsnap/api/internal/recognize"
)

type recordingEngine struct {
	got Input
	out string
	err error
}

func (e *recordingEngine) Name() string { return "fake" }
func (e *recordingEngine) Recognize(_ context.Context, in Input) (string, error) {
	e.got = in
	return e.out, e.err
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return resp
}

func TestPredictDecodesRequest(t *testing.T) {
	eng := &recordingEngine{out: `x^2`}
	srv := httptest.NewServer((&Server{Engine: eng}).Handler())
	defer srv.Close()

	resp := post(t, srv.URL+"/predict", recognize.Request{
		ImageBytes: hex.EncodeToString(pngBytes),
		Prompt:     "p",
	})
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(b) != "x^2" {
		t.Fatalf("got %d %q", resp.StatusCode, b)
	}
	if !bytes.Equal(eng.got.Image, pngBytes) || eng.got.MIME != "image/png" || eng.got.Type != TypeLatex || eng.got.Prompt != "p" {
		t.Fatalf("engine input = %+v", eng.got)
	}
}

func TestPredictLabelType(t *testing.T) {
	eng := &recordingEngine{out: "a"}
	srv := httptest.NewServer((&Server{Engine: eng}).Handler())
	defer srv.Close()

	resp := post(t, srv.URL+"/predict", recognize.Request{ImageBytes: "00ff", Type: recognize.ModeLabel})
	resp.Body.Close()
	if eng.got.Type != TypeLabel {
		t.Fatalf("type = %q", eng.got.Type)
	}
}

func TestPredictErrors(t *testing.T) {
	eng := &recordingEngine{err: errors.New("quota")}
	srv := httptest.NewServer((&Server{Engine: eng}).Handler())
	defer srv.Close()

	resp := post(t, srv.URL+"/predict", recognize.Request{ImageBytes: "zz"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad hex status = %d", resp.StatusCode)
	}
	resp = post(t, srv.URL+"/predict", recognize.Request{ImageBytes: "00"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("engine error status = %d", resp.StatusCode)
	}
	r, err := http.Get(srv.URL + "/predict")
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()
	if r.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /predict status = %d", r.StatusCode)
	}
}

// The client's health check and submit work against the mock server end to
// end.
func TestClientAgainstMock(t *testing.T) {
	srv := httptest.NewServer((&Server{Engine: &Mock{}}).Handler())
	defer srv.Close()

	c := recognize.New(srv.URL+"/predict", nil)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	got, err := c.Submit(context.Background(), recognize.Request{ImageBytes: hex.EncodeToString(pngBytes), Prompt: recognize.DefaultPrompt})
	if err != nil {
		t.Fatal(err)
	}
	if recognize.Normalize(got) != DefaultMockLatex {
		t.Fatalf("Submit() = %q", got)
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(EngineConfig{Name: "mock"})
	if err != nil || e.Name() != "mock" {
		t.Fatalf("mock: %v %v", e, err)
	}
	out, _ := e.Recognize(context.Background(), Input{Type: TypeLabel})
	if out != DefaultMockLabel {
		t.Fatalf("label mock = %q", out)
	}
	if _, err := NewEngine(EngineConfig{Name: "gemini"}); err == nil {
		t.Fatal("gemini without key must fail")
	}
	if e, err := NewEngine(EngineConfig{Name: "gpt", OpenAIAPIKey: "k"}); err != nil || e.Name() != "openai" {
		t.Fatalf("gpt alias: %v %v", e, err)
	}
	if _, err := NewEngine(EngineConfig{Name: "tesseract"}); err == nil {
		t.Fatal("unknown engine must fail")
	}
}

func TestOpenAIEngine(t *testing.T) {
	var body map[string]any
	var auth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte("{\"choices\":[{\"message\":{\"content\":\"```latex\\n\\\\alpha\\n```\"}}]}"))
	}))
	defer api.Close()

	e := NewOpenAI("k", "gpt-4o-mini")
	e.URL = api.URL
	out, err := e.Recognize(context.Background(), Input{Image: pngBytes, Prompt: "p", Type: TypeLabel})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out != `\alpha` {
		t.Fatalf("Recognize() = %q", out)
	}
	if auth != "Bearer k" || body["model"] != "gpt-4o-mini" {
		t.Fatalf("auth = %q, body = %v", auth, body)
	}
}
