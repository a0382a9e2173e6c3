package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/playkit/gameroom/internal/api/handler"
	"github.com/playkit/gameroom/internal/api/middleware"
	"github.com/playkit/gameroom/internal/identity"
	"github.com/playkit/gameroom/internal/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	IdentityService    *identity.Service
	RegistryController *registry.Controller
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	profileHandler := handler.NewProfileHandler(cfg.IdentityService)
	roomHandler := handler.NewRoomHandler(cfg.RegistryController)
	historyHandler := handler.NewHistoryHandler(cfg.RegistryController)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.IdentityService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Profile routes (no auth required for creating profiles/logging in)
	api.HandleFunc("/profiles/guest", profileHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/profiles/register", profileHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/profiles/login", profileHandler.Login).Methods(http.MethodPost)

	// Protected profile routes
	profileProtected := api.PathPrefix("/profiles").Subrouter()
	profileProtected.Use(authMiddleware)
	profileProtected.HandleFunc("/me", profileHandler.GetMe).Methods(http.MethodGet)
	profileProtected.HandleFunc("/logout", profileHandler.Logout).Methods(http.MethodPost)

	// Room directory routes (all require auth)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Register).Methods(http.MethodPost)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}", roomHandler.Close).Methods(http.MethodDelete)
	rooms.HandleFunc("/{code}/heartbeat", roomHandler.Heartbeat).Methods(http.MethodPost)

	// Match history routes (all require auth)
	matches := api.PathPrefix("/matches").Subrouter()
	matches.Use(authMiddleware)
	matches.HandleFunc("", historyHandler.Record).Methods(http.MethodPost)
	matches.HandleFunc("", historyHandler.ListMine).Methods(http.MethodGet)
	matches.HandleFunc("/{id}", historyHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
