// Package chi exposes the HTTP API: summary generation, index
// reconciliation, fragment search, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenqd/internal/domain"
	"github.com/kailas-cloud/tenqd/internal/domain/fragment"
	healthuc "github.com/kailas-cloud/tenqd/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/tenqd/internal/usecase/reconcile"
	researchuc "github.com/kailas-cloud/tenqd/internal/usecase/research"
)

// Summarizer runs the full research pipeline for one ticker.
type Summarizer interface {
	Summarize(ctx context.Context, req researchuc.SummarizeRequest) (researchuc.Summary, error)
}

// Reconciler brings the index for a ticker up to date.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcileuc.Request) (reconcileuc.Outcome, error)
}

// Retriever answers bounded similarity queries over indexed fragments.
type Retriever interface {
	Retrieve(ctx context.Context, ticker, query string, topK int) ([]fragment.Fragment, error)
}

// HealthChecker aggregates component availability.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers and their use case dependencies.
type Server struct {
	research      Summarizer
	reconcile     Reconciler
	retriever     Retriever
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	research Summarizer,
	reconcile Reconciler,
	retriever Retriever,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		research:  research,
		reconcile: reconcile,
		retriever: retriever,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownTicker, http.StatusBadRequest, codeUnknownTicker),
		sentinelHandler(domain.ErrNoMatchingFiling, http.StatusNotFound, codeNoMatchingFiling),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, codeUpstreamUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrAnalystProviderError, http.StatusBadGateway, codeAnalystProviderError),
	}
	return s
}

// Routes mounts all handlers on a fresh chi router. Middleware is the
// caller's concern.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/summaries/10q", s.CreateSummary)
	r.Post("/reconcile", s.Reconcile)
	r.Get("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// CreateSummary handles POST /summaries/10q.
func (s *Server) CreateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "ticker is required")
		return
	}
	period, err := parsePeriod(req.FilingPeriod)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	sum, err := s.research.Summarize(r.Context(), researchuc.SummarizeRequest{
		Ticker:       req.Ticker,
		FilingPeriod: period,
		ForceRefresh: req.ForceRefresh,
		Thesis:       req.Thesis,
		Goal:         req.Goal,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryToResponse(sum))
}

// Reconcile handles POST /reconcile.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "ticker is required")
		return
	}
	period, err := parsePeriod(req.FilingPeriod)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	out, err := s.reconcile.Reconcile(r.Context(), reconcileuc.Request{
		Ticker:       req.Ticker,
		TargetPeriod: period,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToResponse(out))
}

// Search handles GET /search. Query parameters: ticker, q, top_k.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	query := r.URL.Query().Get("q")
	if ticker == "" || query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "ticker and q are required")
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "top_k must be an integer")
			return
		}
		topK = n
	}

	frags, err := s.retriever.Retrieve(r.Context(), ticker, query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fragmentsToResponse(frags))
}

// HealthCheck handles GET /health. Not OK means 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrUnknownTicker,
		domain.ErrNoMatchingFiling,
		domain.ErrRateLimited,
		domain.ErrUpstreamUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrAnalystProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
