package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the compiler operations served over HTTP.
type Engine interface {
	Compile(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload, sink ports.Stage) error
	CompileText(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload) (string, error)
	Validate(doc config.Document) error
	Registry() *registry.Registry
	StageOptions() []pipeline.Option
}

var _ Engine = (*gcoder.Engine)(nil)

// CompileRequest is the body of POST /compile and POST /compile/stream.
type CompileRequest struct {
	Config config.Document           `json:"config"`
	Layers []*domain.GeometryPayload `json:"layers"`
}

// CompileResponse is the body returned by POST /compile.
// Errors lists rejected layers; the program is complete without them.
type CompileResponse struct {
	GCode  string   `json:"gcode"`
	Lines  int      `json:"lines"`
	Errors []string `json:"errors,omitempty"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string   `json:"error"`
	Keys  []string `json:"keys,omitempty"`
}

// Server serves an Engine over HTTP.
type Server struct {
	Engine   Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer exposes the collectors of g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Post("/compile", server.Compile)
	r.Post("/compile/stream", server.CompileStream)
	r.Post("/validate", server.ValidateConfig)
	r.Get("/requirements", server.ListRequirements)
	r.Get("/requirements/{kind}", server.GetRequirements)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)

	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Spec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>gcoder API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Compile handles the POST /compile request.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}

	text, err := s.Engine.CompileText(r.Context(), body.Config, body.Layers)
	if err != nil && !rejectedOnly(err) {
		s.fail(w, "Compile", err)
		return
	}

	resp := CompileResponse{GCode: text, Lines: strings.Count(text, "\n")}
	if err != nil {
		s.logger.Warn("Compile: layers rejected", "error", err)
		for _, e := range unjoin(err) {
			resp.Errors = append(resp.Errors, e.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateConfig handles the POST /validate request. The body is the configuration document.
func (s *Server) ValidateConfig(w http.ResponseWriter, r *http.Request) {
	var doc config.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Validate: Invalid request body", "error", err)
		return
	}
	if err := s.Engine.Validate(doc); err != nil {
		s.fail(w, "Validate", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ListRequirements handles the GET /requirements request.
func (s *Server) ListRequirements(w http.ResponseWriter, r *http.Request) {
	reg := s.Engine.Registry()
	resp := make(map[string]map[string]string)
	for _, kind := range reg.Kinds() {
		req, _ := reg.Requirements(kind)
		resp[kind] = req.Flatten()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRequirements handles the GET /requirements/{kind} request.
func (s *Server) GetRequirements(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	req, ok := s.Engine.Registry().Requirements(kind)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown stage kind: " + kind})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "gcoder-http",
		"version":     strings.TrimSpace(gcoder.Version),
		"api_version": Spec().Info.Version,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (CompileRequest, bool) {
	var body CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return body, false
	}
	if body.Config == nil {
		body.Config = config.Document{}
	}
	for i, l := range body.Layers {
		if l == nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "layer " + strconv.Itoa(i) + " is empty"})
			return body, false
		}
	}
	return body, true
}

// fail maps engine errors to status codes: invalid configurations are the
// caller's fault (422), unknown stage kinds are 404, anything else is ours (500).
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrUnknownStage) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if errors.Is(err, domain.ErrConfigInvalid) {
		resp := ErrorResponse{Error: err.Error()}
		var invalid *domain.ConfigInvalidError
		if errors.As(err, &invalid) {
			resp.Keys = invalid.Keys
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// rejectedOnly reports whether every error joined in err is a rejected layer.
func rejectedOnly(err error) bool {
	for _, e := range unjoin(err) {
		if !errors.Is(e, domain.ErrConfigMismatch) && !errors.Is(e, domain.ErrPayloadTypeMismatch) {
			return false
		}
	}
	return true
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
