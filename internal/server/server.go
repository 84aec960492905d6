// Package server provides the HTTP REST API for the interview service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/config"
	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/interview"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/server/middleware"
	"github.com/mayank0274/mock-interview-with-ai/internal/storage"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// timeFormat is used for timestamps in API responses.
const timeFormat = time.RFC3339

// InterviewStore is the interview persistence surface the handlers need.
// *db.DB satisfies it.
type InterviewStore interface {
	CreateInterview(ctx context.Context, input db.CreateInterviewInput) (*db.InterviewSession, error)
	GetInterview(ctx context.Context, id uuid.UUID) (*db.InterviewSession, error)
	ListInterviews(ctx context.Context, email string, page int) ([]db.InterviewSession, error)
	CountInterviews(ctx context.Context, email string) (int64, error)
	StartInterview(ctx context.Context, id uuid.UUID, start, end time.Time) (bool, error)
	SetEndTime(ctx context.Context, id uuid.UUID, end time.Time) error
	GetResult(ctx context.Context, interviewID uuid.UUID) (*db.InterviewResult, error)
}

// InterviewService runs conversational turns and signals interview
// completion. *interview.Service satisfies it.
type InterviewService interface {
	Chat(ctx context.Context, input interview.ChatInput) (*interview.ChatReply, error)
	SignalCompletion(ctx context.Context, interviewID string) error
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server

	interviews   InterviewStore
	interviewSvc InterviewService
	userService  *UserService
	authHandler  *AuthHandler
	jwtService   *JWTService

	meta    *redisstore.SessionMetaStore
	jobLog  *redisstore.JobLog
	chunks  *redisstore.ChunkSequence
	storage storage.Store
	events  workflow.Sender

	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// Deps holds the collaborators the server needs.
type Deps struct {
	Port int

	Interviews   InterviewStore
	InterviewSvc InterviewService
	Users        UserStore
	JWTConfig    *config.JWTConfig

	Meta    *redisstore.SessionMetaStore
	JobLog  *redisstore.JobLog
	Chunks  *redisstore.ChunkSequence
	Storage storage.Store
	Events  workflow.Sender

	Logger *zap.Logger
}

// New creates a new server instance.
func New(d Deps) *Server {
	s := &Server{
		interviews:   d.Interviews,
		interviewSvc: d.InterviewSvc,
		meta:         d.Meta,
		jobLog:       d.JobLog,
		chunks:       d.Chunks,
		storage:      d.Storage,
		events:       d.Events,
		validator:    validator.New(),
		logger:       d.Logger,
		now:          time.Now,
	}

	s.userService = NewUserService(d.Users)
	s.jwtService = NewJWTService(d.JWTConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	auth := middleware.Auth(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.authHandler.Register)
	mux.HandleFunc("POST /login", s.authHandler.Login)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /interview", auth(http.HandlerFunc(s.handleCreateInterview)))
	mux.Handle("GET /interview", auth(http.HandlerFunc(s.handleListInterviews)))
	mux.Handle("GET /interview/evaluation-status", auth(http.HandlerFunc(s.handleEvaluationStatus)))
	mux.Handle("GET /interview/result/{id}", auth(http.HandlerFunc(s.handleGetResult)))
	mux.Handle("GET /interview/{id}", auth(http.HandlerFunc(s.handleGetInterview)))
	mux.Handle("PATCH /interview/start/{id}", auth(http.HandlerFunc(s.handleStartInterview)))
	mux.Handle("PATCH /interview/end/{id}", auth(http.HandlerFunc(s.handleEndInterview)))
	mux.Handle("POST /interview/chat", auth(http.HandlerFunc(s.handleChat)))

	mux.Handle("POST /upload", auth(http.HandlerFunc(s.handleUploadAudio)))
	mux.Handle("GET /upload/{interview_id}/{chunk}", auth(http.HandlerFunc(s.handleSignedUploadURL)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", d.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests and blocks until an interrupt or
// termination signal arrives, then shuts the server down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
