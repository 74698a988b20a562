package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/df07/go-path-tracer/pkg/renderer"
	"github.com/df07/go-path-tracer/pkg/scene"
)

// Server handles web requests for the progressive raytracer
type Server struct {
	port     int
	sceneDir string
	limits   renderer.JobLimits
	upgrader websocket.Upgrader
}

// NewServer creates a new web server. Scene files are listed from and loaded
// out of sceneDir.
func NewServer(port int, sceneDir string) *Server {
	return &Server{
		port:     port,
		sceneDir: sceneDir,
		limits:   renderer.DefaultJobLimits(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/ws/render", s.handleRender)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes followed by scene files grouped by their metadata
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.sceneDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// parseRenderRequest parses render parameters from the query string.
// Width and depth default to the scene's own values.
func (s *Server) parseRenderRequest(r *http.Request) (renderer.JobRequest, error) {
	query := r.URL.Query()
	req := renderer.JobRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, s.limits.MinWidth, s.limits.MaxWidth); err != nil {
		return req, err
	}
	if req.MaxSamples, err = parseIntParam(query, "samples", 50, 1, s.limits.MaxSamples); err != nil {
		return req, err
	}
	if req.MaxPasses, err = parseIntParam(query, "passes", 7, 1, s.limits.MaxPasses); err != nil {
		return req, err
	}
	if req.MaxDepth, err = parseIntParam(query, "depth", 0, 1, s.limits.MaxDepth); err != nil {
		return req, err
	}
	seed, err := parseIntParam(query, "seed", int(renderer.DefaultSeed), 1, 1<<31-1)
	if err != nil {
		return req, err
	}
	req.Seed = int64(seed)

	// Performance warning
	if req.Width > 1000 && req.MaxSamples > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, req.Validate(s.limits)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
