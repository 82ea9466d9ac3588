package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	appAuth "github.com/execution-hub/commission-bot/internal/application/auth"
	appWorkflow "github.com/execution-hub/commission-bot/internal/application/workflow"
	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_form_handler.go -package=mocks . FormHandler

// FormHandler is the part of the submission workflow the webhook drives.
type FormHandler interface {
	HandleFormSubmission(ctx context.Context, sub submission.FormSubmission) (appWorkflow.Outcome, error)
	ActiveSessions() int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	forms          FormHandler
	authSvc        *appAuth.Service
	sseHub         notification.SSEHub
	webhookTimeout time.Duration
	logger         zerolog.Logger
}

func NewServer(forms FormHandler, authSvc *appAuth.Service, sseHub notification.SSEHub, logger zerolog.Logger) *Server {
	return &Server{
		forms:          forms,
		authSvc:        authSvc,
		sseHub:         sseHub,
		webhookTimeout: 2 * time.Minute,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/webhooks/form", s.formWebhook)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireOperator)
		r.Get("/events", s.sseEndpoint)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": s.forms.ActiveSessions(),
	})
}
