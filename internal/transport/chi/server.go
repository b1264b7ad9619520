package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/domain"
	"github.com/voltlab/designdex/internal/domain/query"
	"github.com/voltlab/designdex/internal/domain/record"
	cataloguc "github.com/voltlab/designdex/internal/usecase/catalog"
	healthuc "github.com/voltlab/designdex/internal/usecase/health"
	searchuc "github.com/voltlab/designdex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the similarity engine and catalog over HTTP.
type Server struct {
	search        *searchuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownAttribute, http.StatusBadRequest, codeUnknownAttribute),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusBadGateway, codeExtractionFailed),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.searchText)
		r.Post("/search/form", s.searchForm)
		r.Get("/designs", s.listDesigns)
		r.Get("/designs/{id}", s.getDesign)
		r.Get("/stats", s.getStats)
		r.Get("/distinct/{field}", s.getDistinct)
		r.Post("/refresh", s.refresh)
	})
	r.Get("/health", s.healthCheck)
	r.Handle("/metrics", promhttp.Handler())
}

// searchText handles POST /api/search: natural-language search.
func (s *Server) searchText(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "Query text is required")
		return
	}

	params, results, err := s.search.SearchText(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:           req.Query,
		ExtractedParams: params,
		Matches:         matchesToDTO(results),
		Explanation:     fmt.Sprintf("%d matching designs found.", len(results)),
	})
}

// searchForm handles POST /api/search/form: structured search.
func (s *Server) searchForm(w http.ResponseWriter, r *http.Request) {
	var req formSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.search.SearchForm(r.Context(), query.Raw{
		Targets:  req.Targets,
		Bounds:   req.Bounds,
		Limit:    req.Limit,
		MinScore: req.MinScore,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:       summarizeForm(req),
		Matches:     matchesToDTO(results),
		Explanation: fmt.Sprintf("%d matching designs found.", len(results)),
	})
}

// listDesigns handles GET /api/designs.
func (s *Server) listDesigns(w http.ResponseWriter, r *http.Request) {
	designs := s.catalog.List(r.Context())
	out := make([]designDTO, 0, len(designs))
	for _, d := range designs {
		out = append(out, designToDTO(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// getDesign handles GET /api/designs/{id}.
func (s *Server) getDesign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	design, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, designToDTO(design))
}

// getStats handles GET /api/stats.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsToDTO(s.catalog.Stats(r.Context())))
}

// getDistinct handles GET /api/distinct/{field}.
func (s *Server) getDistinct(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	values, err := s.catalog.Distinct(field)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// refresh handles POST /api/refresh: reloads the corpus snapshot.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	n, err := s.catalog.Refresh(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%d designs available", n),
		"designs": n,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  report.Status,
		"checks":  report.Checks,
		"designs": report.Designs,
	})
}

// handleDomainError maps domain errors to HTTP responses; everything
// unmatched is a 500 with details kept in the log, not the body.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// sentinelHandler creates an errorHandler for a sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func designToDTO(d record.DesignRecord) designDTO {
	return designDTO{
		ID:            d.ID(),
		SourceLocator: d.SourceLocator(),
		Tags:          d.Tags(),
		Numerics:      d.Numerics(),
	}
}

// summarizeForm renders the structured query for the response echo.
func summarizeForm(req formSearchRequest) string {
	parts := make([]string, 0, len(req.Targets)+len(req.Bounds))
	for k, v := range req.Targets {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	for k, v := range req.Bounds {
		parts = append(parts, fmt.Sprintf("%s<=%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
