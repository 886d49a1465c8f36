package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nothinghide/nothinghide/internal/agent"
	"github.com/nothinghide/nothinghide/internal/model"
	"github.com/nothinghide/nothinghide/internal/password"
)

const (
	// maxBatchSize caps the number of addresses in one batch request to
	// keep a single HTTP call from monopolizing the source rate budget.
	maxBatchSize = 50

	// maxRequestBody bounds request body size. Check requests are tiny;
	// anything larger is malformed or hostile.
	maxRequestBody = 1 << 20
)

// Server wires the agent and password checker into an HTTP API.
type Server struct {
	agent    *agent.Agent
	passwd   *password.Checker
	logger   *slog.Logger
	version  string
	batchCap int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server backed by the given agent and password checker.
func New(a *agent.Agent, pc *password.Checker, opts ...Option) *Server {
	s := &Server{
		agent:    a,
		passwd:   pc,
		logger:   slog.Default(),
		version:  "dev",
		batchCap: maxBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the chi router with all API endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/check-email", s.handleCheckEmail)
		r.Post("/check-password", s.handleCheckPassword)
		r.Post("/check-batch", s.handleCheckBatch)
		r.Post("/scan", s.handleScan)
		r.Get("/sources", s.handleSources)
		r.Get("/metrics", s.handleMetrics)
	})
	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.agent.Check(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type checkPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleCheckPassword(w http.ResponseWriter, r *http.Request) {
	var req checkPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.passwd.Strength(r.Context(), req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type checkBatchRequest struct {
	Emails        []string `json:"emails"`
	MaxConcurrent int      `json:"max_concurrent,omitempty"`
}

func (s *Server) handleCheckBatch(w http.ResponseWriter, r *http.Request) {
	var req checkBatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Emails) == 0 {
		s.writeError(w, &model.ValidationError{Field: "emails", Message: "emails must not be empty"})
		return
	}
	if len(req.Emails) > s.batchCap {
		s.writeError(w, &model.ValidationError{
			Field:   "emails",
			Message: "too many addresses in one batch",
		})
		return
	}

	results := s.agent.CheckBatch(r.Context(), req.Emails, req.MaxConcurrent)
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type scanRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type scanResponse struct {
	Email     *model.CorrelatedResult  `json:"email"`
	Password  *password.StrengthResult `json:"password,omitempty"`
	RiskLevel string                   `json:"risk_level"`
}

// handleScan runs a combined email and optional password check, returning
// the overall categorical risk for the pair.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !s.decode(w, r, &req) {
		return
	}

	emailResult, err := s.agent.Check(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := scanResponse{Email: emailResult}
	var passwordExposed bool
	var exposureCount int
	if req.Password != "" {
		pwResult, err := s.passwd.Strength(r.Context(), req.Password)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Password = pwResult
		passwordExposed = pwResult.Exposed
		exposureCount = pwResult.Count
	}

	resp.RiskLevel = model.CalculateRiskLevel(
		emailResult.Breached, passwordExposed,
		emailResult.BreachCount, exposureCount,
	).String()
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.agent.SourceStatus())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.agent.Metrics())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// decode parses the JSON request body into v, responding with 400 and
// returning false on malformed input.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, &model.ValidationError{Field: "body", Message: "invalid JSON request body"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes: validation failures
// are the client's fault (400), rate limiting propagates as 429, and total
// source failure is a bad gateway (502).
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		rateLimitErr  *model.RateLimitError
		networkErr    *model.NetworkError
		apiErr        *model.APIError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &rateLimitErr):
		status = http.StatusTooManyRequests
	case errors.As(err, &networkErr):
		status = http.StatusBadGateway
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}
