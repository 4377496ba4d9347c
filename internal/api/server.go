package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/prepview/interview-engine/internal/catalog"
	"github.com/prepview/interview-engine/internal/config"
	"github.com/prepview/interview-engine/internal/exec"
	"github.com/prepview/interview-engine/internal/limiter"
	"github.com/prepview/interview-engine/internal/live"
	"github.com/prepview/interview-engine/internal/session"
	"github.com/prepview/interview-engine/internal/speech"
	"github.com/prepview/interview-engine/internal/storage"
	"github.com/prepview/interview-engine/internal/upload"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	sessions       *session.Controller
	engine         exec.Engine
	limiter        *limiter.RateLimiter
	catalog        *catalog.Loader
	uploads        *upload.Store
	synthesizer    speech.Synthesizer
	liveHandler    *live.Handler
	repo           storage.Repository
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	sessions *session.Controller,
	engine exec.Engine,
	rl *limiter.RateLimiter,
	loader *catalog.Loader,
	uploads *upload.Store,
	synthesizer speech.Synthesizer,
	liveHandler *live.Handler,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		sessions:       sessions,
		engine:         engine,
		limiter:        rl,
		catalog:        loader,
		uploads:        uploads,
		synthesizer:    synthesizer,
		liveHandler:    liveHandler,
		repo:           repo,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Interview sessions
		r.Route("/interview", func(r chi.Router) {
			r.Post("/session", s.handleStartSession)
			r.Post("/start", s.handleStartSession) // legacy alias
			r.Get("/count", s.handleCountSessions)
			r.Get("/sessions", s.handleListSessions)
			r.Post("/run-code", s.handleRunCode)
			r.Post("/upload", s.handleUpload)
			r.Post("/speak", s.handleSpeak)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Post("/end", s.handleEndSession)
				r.Get("/report", s.handleGetReport)
			})
		})

		// Field catalog
		r.Route("/fields", func(r chi.Router) {
			r.Get("/", s.handleListFields)
			r.Get("/{id}", s.handleGetField)
		})

		// Live interview websocket
		r.Get("/live", s.handleLiveWS)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
