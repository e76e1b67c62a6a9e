package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/ingest"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/validate"
)

// Server provides health check and reporting API endpoints. All endpoints
// are read-only; ingestion happens through the CLI.
type Server struct {
	ingestor  *ingest.Ingestor
	validator *validate.Validator
	mux       *http.ServeMux
	logger    *slog.Logger
}

// NewServer creates an API server.
func NewServer(ing *ingest.Ingestor, validator *validate.Validator, logger *slog.Logger) *Server {
	s := &Server{
		ingestor:  ing,
		validator: validator,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/usage", s.handleUsage)
	s.mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/v1/validation", s.handleValidation)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func filterFromQuery(r *http.Request) model.ReportFilter {
	q := r.URL.Query()
	filter := model.ReportFilter{
		Tool:       q.Get("tool"),
		Email:      q.Get("email"),
		Department: q.Get("department"),
		Feature:    q.Get("feature"),
		FileSource: q.Get("file"),
	}
	if start, err := time.Parse("2006-01-02", q.Get("start")); err == nil {
		filter.StartTime = start
	}
	if end, err := time.Parse("2006-01-02", q.Get("end")); err == nil {
		filter.EndTime = end
	}
	return filter
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	records, err := s.ingestor.Query(ctx, filterFromQuery(r))
	if err != nil {
		s.logger.Error("query usage", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := s.ingestor.Report(ctx, filterFromQuery(r))
	if err != nil {
		s.logger.Error("aggregate usage", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := s.validator.Validate(ctx, filterFromQuery(r))
	if err != nil {
		s.logger.Error("validate stored data", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
