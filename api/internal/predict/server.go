package predict

import (
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"latexsnap/api/internal/recognize"
	"latexsnap/api/internal/util"
)

// maxBody fits a hex-encoded image at the client's size limit.
const maxBody = 2*recognize.MaxFileSize + 64<<10

type Server struct {
	Engine Engine
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/predict", s.predict)
}

// Handler returns the routes wrapped with permissive CORS, since pages on
// other origins call the endpoint directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Image to LaTeX API Server",
		"status":  "running",
		"engine":  s.Engine.Name(),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req recognize.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	img, err := hex.DecodeString(strings.TrimSpace(req.ImageBytes))
	if err != nil || len(img) == 0 {
		http.Error(w, "image_bytes must be non-empty hex", http.StatusBadRequest)
		return
	}
	typ := TypeLatex
	if req.Type == recognize.ModeLabel {
		typ = TypeLabel
	}
	log.Printf("predict: %d bytes, type=%s, prompt=%q", len(img), typ, util.Truncate(req.Prompt, 100))

	out, err := s.Engine.Recognize(r.Context(), Input{
		Image:  img,
		MIME:   util.SniffMimeHTTP(img),
		Prompt: req.Prompt,
		Type:   typ,
	})
	if err != nil {
		log.Printf("predict: %s: %v", s.Engine.Name(), err)
		http.Error(w, s.Engine.Name()+": "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}
