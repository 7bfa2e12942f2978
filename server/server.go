package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siherrmann/cognify/model"
)

//go:embed static/index.html
var staticFiles embed.FS

// Memory is the knowledge-memory interface the server exposes over HTTP
type Memory interface {
	Add(text string, metadata model.Metadata) (*model.Document, error)
	Cognify(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, config *model.QueryConfig) ([]model.Answer, error)
	Reset() error
}

// GraphStore is the presentation interface over the stored graph, used by the
// direct document and visualization endpoints.
type GraphStore interface {
	ListDocuments() ([]*model.DocumentSummary, error)
	DeleteDocument(rid uuid.UUID) error
	DumpGraph() (*model.GraphSnapshot, error)
}

// Server exposes the memory operations and graph queries over HTTP.
// Single-tenant local-use contract: no auth, no retries, no backpressure.
type Server struct {
	memory Memory
	graph  GraphStore
	log    *slog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewServer creates a new HTTP server around a memory and a graph store
func NewServer(memory Memory, graph GraphStore, logger *slog.Logger) *Server {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognify_http_requests_total",
			Help: "Number of HTTP requests by method, path and status code.",
		},
		[]string{"method", "path", "code"},
	)
	registry.MustRegister(requests)

	return &Server{
		memory:   memory,
		graph:    graph,
		log:      logger,
		registry: registry,
		requests: requests,
	}
}

// Handler returns the routed HTTP handler with CORS and metrics middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/add", s.handleAdd)
	mux.HandleFunc("POST /api/cognify", s.handleCognify)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/graph-data", s.handleGraphData)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return s.corsMiddleware(s.metricsMiddleware(mux))
}

// statusRecorder captures the response code for the request counter
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.requests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(index)
}

type addRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("invalid request body: %w", err), false)
		return
	}

	doc, err := s.memory.Add(req.Text, nil)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}

	s.writeSuccess(w, map[string]any{
		"message": fmt.Sprintf("Text added successfully as document %s", doc.RID),
	})
}

func (s *Server) handleCognify(w http.ResponseWriter, r *http.Request) {
	processed, err := s.memory.Cognify(r.Context())
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}

	s.writeSuccess(w, map[string]any{
		"message": fmt.Sprintf("Cognify completed, %d documents processed", processed),
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("invalid request body: %w", err), false)
		return
	}

	answers, err := s.memory.Search(r.Context(), req.Query, nil)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}

	// Collapse all answer shapes to strings for the wire
	results := make([]string, 0, len(answers))
	for _, answer := range answers {
		results = append(results, answer.Normalize())
	}

	s.writeSuccess(w, map[string]any{
		"results": results,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.memory.Reset(); err != nil {
		s.writeError(w, r, err, false)
		return
	}

	s.writeSuccess(w, map[string]any{
		"message": "Knowledge base reset successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.graph.ListDocuments()
	if err != nil {
		s.writeError(w, r, err, true)
		return
	}
	if documents == nil {
		documents = []*model.DocumentSummary{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"documents": documents,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	rid, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("invalid document id: %w", err), true)
		return
	}

	if err := s.graph.DeleteDocument(rid); err != nil {
		s.writeError(w, r, err, true)
		return
	}

	s.writeSuccess(w, map[string]any{
		"message": fmt.Sprintf("Document %s deleted", rid),
	})
}

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.graph.DumpGraph()
	if err != nil {
		s.writeError(w, r, err, true)
		return
	}
	if snapshot.Nodes == nil {
		snapshot.Nodes = []model.GraphNode{}
	}
	if snapshot.Edges == nil {
		snapshot.Edges = []model.GraphEdge{}
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) writeSuccess(w http.ResponseWriter, payload map[string]any) {
	payload["status"] = "success"
	s.writeJSON(w, http.StatusOK, payload)
}

// writeError converts any failure to HTTP 500 with a human-readable detail
// string. Graph endpoints include the stack trace, acceptable only for the
// local single-tenant deployments this server is built for.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, withStack bool) {
	s.log.Error("Request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	detail := err.Error()
	if withStack {
		detail = detail + "\n" + string(debug.Stack())
	}

	s.writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
