// Package httpapi exposes the coaching platform over HTTP. Handlers stay
// thin: decode, resolve the caller, delegate to a service, encode.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/meetings"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/profiles"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/turns"
)

// UserResolver extracts the authenticated caller from a request.
// Authentication itself lives in front of this service; the resolver only
// reads whatever identity that layer established.
type UserResolver interface {
	Resolve(r *http.Request) (int64, error)
}

// HeaderResolver reads the caller id from the X-User-ID header set by the
// auth proxy.
type HeaderResolver struct{}

// Resolve implements UserResolver.
func (HeaderResolver) Resolve(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("missing caller identity: %w", herrors.ErrForbidden)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid caller identity: %w", herrors.ErrForbidden)
	}
	return id, nil
}

// HealthCheck reports readiness of the server's dependencies.
type HealthCheck func(ctx context.Context) error

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	users        UserStore
	profiles     *profiles.Service
	meetings     *meetings.Service
	orchestrator *turns.Orchestrator
	resolver     UserResolver
	health       HealthCheck
	metrics      http.Handler
	logger       logging.Logger
}

// Params collects the server's dependencies. Metrics and Health are
// optional; Resolver defaults to HeaderResolver.
type Params struct {
	Users        UserStore
	Profiles     *profiles.Service
	Meetings     *meetings.Service
	Orchestrator *turns.Orchestrator
	Resolver     UserResolver
	Health       HealthCheck
	Metrics      http.Handler
	Logger       logging.Logger
}

// NewServer creates the HTTP server.
func NewServer(p Params) *Server {
	resolver := p.Resolver
	if resolver == nil {
		resolver = HeaderResolver{}
	}
	return &Server{
		users:        p.Users,
		profiles:     p.Profiles,
		meetings:     p.Meetings,
		orchestrator: p.Orchestrator,
		resolver:     resolver,
		health:       p.Health,
		metrics:      p.Metrics,
		logger:       p.Logger.With(logging.F("component", "http_server")),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("POST /api/users", s.handleRegisterUser)
	mux.HandleFunc("GET /api/users/me", s.handleCurrentUser)

	mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("GET /api/profiles/{id}", s.handleGetProfile)
	mux.HandleFunc("PUT /api/profiles/{id}", s.handleUpdateProfile)
	mux.HandleFunc("POST /api/profiles/{id}/knowledge-base", s.handleAttachKnowledgeBase)

	mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	mux.HandleFunc("GET /api/meetings/{uuid}", s.handleGetMeeting)
	mux.HandleFunc("POST /api/meetings/{uuid}/start", s.handleStartMeeting)
	mux.HandleFunc("POST /api/meetings/{uuid}/end", s.handleEndMeeting)

	mux.HandleFunc("POST /api/meetings/{uuid}/turns", s.handleTextTurn)
	mux.HandleFunc("GET /api/meetings/{uuid}/turns", s.handleListTurns)
	mux.HandleFunc("POST /api/meetings/{uuid}/audio", s.handleAudioTurn)
	mux.HandleFunc("POST /api/meetings/{uuid}/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /api/meetings/{uuid}/synthesize", s.handleSynthesize)

	return s.withRequestID(mux)
}

// withRequestID stamps each request with an id for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
