package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"studybuddy-backend/application/services"
	"studybuddy-backend/infrastructure/config"
	"studybuddy-backend/interfaces/http/rest/handlers"
	"studybuddy-backend/interfaces/http/rest/middleware"
	"studybuddy-backend/pkg/auth"
	"studybuddy-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg                 *config.Config
	validator           *auth.JWTValidator
	profileService      *services.ProfileService
	matchService        *services.MatchService
	connectionService   *services.ConnectionService
	conversationService *services.ConversationService
	messageService      *services.MessageService
	logger              *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	validator *auth.JWTValidator,
	profileService *services.ProfileService,
	matchService *services.MatchService,
	connectionService *services.ConnectionService,
	conversationService *services.ConversationService,
	messageService *services.MessageService,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:                 cfg,
		validator:           validator,
		profileService:      profileService,
		matchService:        matchService,
		connectionService:   connectionService,
		conversationService: conversationService,
		messageService:      messageService,
		logger:              logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableTracing {
		router.Use(middleware.Trace(observability.NewTracer("studybuddy-backend")))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.studybuddy.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		// Profile endpoints
		r.Route("/profiles", func(r chi.Router) {
			profileHandler := handlers.NewProfileHandler(rt.profileService, rt.logger)
			r.Get("/me", profileHandler.GetMe)
			r.Put("/me", profileHandler.UpdateMe)
			r.Get("/{userID}", profileHandler.GetProfile)
		})

		// Matching endpoints
		r.Route("/matches", func(r chi.Router) {
			matchHandler := handlers.NewMatchHandler(rt.matchService, rt.logger)
			r.Get("/suggestions", matchHandler.ListSuggestions)
			r.Get("/score/{userID}", matchHandler.GetScore)
		})

		// Connection endpoints
		r.Route("/connections", func(r chi.Router) {
			connectionHandler := handlers.NewConnectionHandler(rt.connectionService, rt.logger)
			r.Post("/request", connectionHandler.RequestConnection)
			r.Get("/status/{userID}", connectionHandler.GetStatus)
			r.Get("/count", connectionHandler.CountConnections)
			r.Get("/", connectionHandler.ListConnections)
		})

		// Conversation and message endpoints
		r.Route("/conversations", func(r chi.Router) {
			conversationHandler := handlers.NewConversationHandler(rt.conversationService, rt.messageService, rt.logger)
			r.Post("/direct", conversationHandler.ResolveDirect)
			r.Post("/group", conversationHandler.CreateGroup)
			r.Get("/", conversationHandler.ListConversations)
			r.Post("/{conversationID}/messages", conversationHandler.SendMessage)
			r.Get("/{conversationID}/messages", conversationHandler.GetHistory)
			r.Get("/{conversationID}/stream", conversationHandler.StreamMessages)
		})
	})

	return router
}

// healthCheck handles the liveness probe
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles the readiness probe
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
