package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/input"
	"github.com/aretw0/relay/internal/logging"
	pgraph "github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is the part of relay.Engine the server needs.
type Engine interface {
	Invoke(ctx context.Context, req domain.Request) (*domain.Response, error)
	Graph() *graph.CompiledGraph
}

// Server serves the prediction API and the voice webhook.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger       *slog.Logger
	metrics      http.Handler
	maxInputSize int
	now          func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize limits question size in bytes. Zero uses input.MaxSize.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// WithClock overrides the time source used for voice metadata.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer creates a Server.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/prediction", s.Predict)
		r.Post("/voice/chat/completions", s.VoiceCompletions)
		r.Get("/graph", s.GetGraph)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PredictionRequest is the body of POST /v1/prediction.
type PredictionRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
}

// PredictionResponse is the answer to a prediction.
type PredictionResponse struct {
	Text       string             `json:"text"`
	UsedAgents []domain.UsedAgent `json:"usedAgents,omitempty"`
	SessionID  string             `json:"sessionId"`
	RunID      string             `json:"runId"`
}

// Predict handles POST /v1/prediction.
func (s *Server) Predict(w http.ResponseWriter, r *http.Request) {
	var body PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("predict: invalid request body", "error", err)
		return
	}

	resp, ok := s.invoke(w, r, domain.Request{Input: body.Question, SessionID: body.SessionID, ChatID: body.ChatID})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, PredictionResponse{
		Text:       resp.Output,
		UsedAgents: resp.UsedAgents,
		SessionID:  resp.SessionID,
		RunID:      resp.RunID,
	})
}

// invoke sanitizes the input, runs the engine and publishes the turn.
// On failure it writes the error response and returns false.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, req domain.Request) (*domain.Response, bool) {
	clean, err := input.Sanitize(req.Input, s.maxInputSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid input: "+err.Error())
		s.logger.Warn("input rejected", "error", err, "size", len(req.Input))
		return nil, false
	}
	req.Input = clean

	resp, err := s.Engine.Invoke(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		writeError(w, status, err.Error())
		s.logger.Error("invoke failed", "status", status, "session_id", req.SessionID, "error", err)
		return nil, false
	}

	if payload, err := json.Marshal(TurnEvent{
		SessionID:  resp.SessionID,
		RunID:      resp.RunID,
		Input:      req.Input,
		Output:     resp.Output,
		UsedAgents: resp.UsedAgents,
	}); err == nil {
		s.Streams.Broadcast(resp.SessionID, string(payload))
	}
	return resp, true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrExecution),
		errors.Is(err, domain.ErrUnresolvedRoute),
		errors.Is(err, domain.ErrGraphCycleExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetGraph handles GET /v1/graph. ?format=mermaid returns a flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	topo := s.Engine.Graph().Topology()
	if strings.EqualFold(r.URL.Query().Get("format"), "mermaid") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(pgraph.GenerateMermaid(topo, nil)))
		return
	}
	writeJSON(w, http.StatusOK, topo)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "relay-http",
		"version": strings.TrimSpace(relay.Version),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
