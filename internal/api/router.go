package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/forum-be/internal/api/handlers"
	"github.com/isdelr/forum-be/internal/auth"
	"github.com/isdelr/forum-be/internal/services"
	ws "github.com/isdelr/forum-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	tokens *auth.TokenService,
	userService services.UserServiceProvider,
	forumService services.ForumServiceProvider,
	eventService services.EventServiceProvider,
	stats handlers.StatsProvider,
	hub *ws.Hub,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Bind the principal from a bearer token when one is presented. Routes
	// that need a principal gate on it below; everything else stays usable
	// anonymously.
	r.Use(tokens.Verifier())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	forumHandler := handlers.NewForumHandler(forumService)
	eventHandler := handlers.NewEventHandler(eventService)
	statsHandler := handlers.NewStatsHandler(stats)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sign-up", authHandler.SignUp)
		r.Post("/sign-in", authHandler.SignIn)

		// Live activity feed
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/topic/{id}", wsHandler.Serve)

		r.Get("/events", eventHandler.GetRecent)
		r.Get("/stats", statsHandler.Get)

		r.Route("/topic", func(r chi.Router) {
			r.Get("/", forumHandler.GetAllTopics)
			r.Get("/{id}", forumHandler.GetTopic)
			r.Get("/{id}/message", forumHandler.GetTopicMessages)

			// Mutations require an authenticated principal
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Post("/", forumHandler.CreateTopic)
				r.Put("/", forumHandler.UpdateTopic)
				r.Post("/{id}/message", forumHandler.AddMessage)
				r.Put("/{id}/message", forumHandler.UpdateMessage)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Delete("/message/{id}", forumHandler.DeleteMessage)
		})
	})

	return r
}
