package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/repository"
	ws "github.com/hireflow/backend/websocket"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	rawDB  *gorm.DB

	geminiService *GeminiService
	videoClient   *VideoClient
	pdfClient     *PDFClient
	storageClient *StorageClient
	notifyClient  *NotifyClient

	submissions   *SubmissionCoordinator
	verification  *VerificationGate
	scheduler     *InterviewScheduler
	reconciler    *ScoreReconciler
	webhooks      *WebhookReconciler
	assembler     *ReportAssembler
	hygiene       *HygieneService
	authService   *AuthService
	authEndpoints *AuthEndpoints

	publicEndpoints    *PublicEndpoints
	webhookEndpoints   *WebhookEndpoints
	roleEndpoints      *RoleEndpoints
	candidateEndpoints *CandidateEndpoints
	hygieneEndpoints   *HygieneEndpoints

	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB *gorm.DB) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices wires vendor clients and the candidate pipeline. The
// database must be set first.
func (s *Server) InitializeServices() error {
	if s.gormDB == nil {
		return fmt.Errorf("database not configured")
	}

	// Lifecycle event hub
	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	// Vendor clients
	if s.config.AI.GeminiAPIKey != "" {
		s.geminiService = NewGeminiService(s.config.AI.GeminiAPIKey)
		slog.Info("Gemini service initialized")
	}
	s.videoClient = NewVideoClient(s.config.Video.APIKey, s.config.Video.BaseURL)
	s.pdfClient = NewPDFClient(s.config.PDF.APIKey, s.config.PDF.BaseURL)
	s.storageClient = NewStorageClient(s.config.Storage.APIKey, s.config.Storage.BaseURL)
	s.notifyClient = NewNotifyClient(s.config.Notify.APIKey, s.config.Notify.BaseURL, s.config.Notify.Channel)

	// Candidate pipeline
	callbackURL := s.config.Server.PublicURL + "/api/v1/webhooks/video"
	s.scheduler = NewInterviewScheduler(s.gormDB, s.videoClient, callbackURL)
	s.submissions = NewSubmissionCoordinator(s.gormDB, s.geminiService, s.storageClient, s.notifyClient, s.config.Storage.ResumeBucket)
	s.verification = NewVerificationGate(s.gormDB, s.scheduler, s.wsHub)
	s.reconciler = NewScoreReconciler(s.gormDB)
	s.webhooks = NewWebhookReconciler(s.gormDB, s.config.Webhook.Secret, s.geminiService, s.reconciler, s.wsHub)
	s.assembler = NewReportAssembler(
		s.gormDB, s.pdfClient, s.storageClient, s.config.Storage.ReportBucket,
		s.config.PDF.PollAttempts, time.Duration(s.config.PDF.PollDelaySec)*time.Second,
	)
	s.hygiene = NewHygieneService(s.gormDB)

	// Authentication
	if s.config.JWT.Secret != "" {
		s.authService = NewAuthService(s.gormDB, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized")
	}

	// Endpoint groups
	s.publicEndpoints = NewPublicEndpoints(s.submissions, s.verification)
	s.webhookEndpoints = NewWebhookEndpoints(s.webhooks)
	s.roleEndpoints = NewRoleEndpoints(s.gormDB, s.config.Server.PublicURL)
	s.candidateEndpoints = NewCandidateEndpoints(s.gormDB, s.scheduler, s.assembler)
	s.hygieneEndpoints = NewHygieneEndpoints(s.hygiene)

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		// Candidate-facing routes (no auth)
		s.publicEndpoints.RegisterRoutes(r)

		// Vendor callbacks (shared-secret auth, not cookies)
		s.webhookEndpoints.RegisterRoutes(r)

		// Authentication routes
		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/signup", s.authEndpoints.SignupHandler)
				r.Post("/refresh", s.authEndpoints.RefreshHandler)

				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Post("/logout", s.authEndpoints.LogoutHandler)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		// Recruiter routes (protected)
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)
				s.roleEndpoints.RegisterRoutes(r)
				s.candidateEndpoints.RegisterRoutes(r)
				s.hygieneEndpoints.RegisterRoutes(r)
				r.Get("/events/ws", s.eventsHandler)
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF
// attacks. An empty allowlist denies everything.
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for _, allowed := range allowedOrigins {
		if strings.TrimSpace(allowed) == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil && sqlDB.Ping() == nil {
			dbStatus = "up"
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

// eventsHandler upgrades a recruiter connection to the lifecycle event feed.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, apperrors.Auth("not authenticated"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("Event feed connection established", "user_id", user.ID, "email", user.Email)

	client := s.wsHub.RegisterClient(conn, user.ID)
	go client.WritePump()
	client.ReadPump()
}
