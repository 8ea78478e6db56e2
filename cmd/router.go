package cmd

import (
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/handlers"
	"github.com/keithrincon/picklebookie-sub000/internal/metrics"
	"github.com/keithrincon/picklebookie-sub000/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func (a *app) router() http.Handler {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(a.users)
	userHandler := handlers.NewUserHandler(a.users, a.photos, a.prefs)
	socialHandler := handlers.NewSocialHandler(a.social)
	postHandler := handlers.NewPostHandler(a.posts, a.feed)
	locationHandler := handlers.NewLocationHandler(a.locations)
	feedbackHandler := handlers.NewFeedbackHandler(a.feedback, a.users)
	adminHandler := handlers.NewAdminHandler(a.counters)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.users)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", handlers.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.users))

			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Put("/users/me/push-token", userHandler.SetPushToken)
			r.Post("/users/me/photo", userHandler.RequestPhotoUpload)
			r.Post("/users/me/photo/confirm", userHandler.ConfirmPhotoUpload)
			r.Get("/users/me/preferences", userHandler.GetPreferences)
			r.Put("/users/me/preferences", userHandler.UpdatePreferences)
			r.Get("/users/search", userHandler.Search)
			r.Get("/users/{user_id}", userHandler.GetProfile)
			r.Get("/users/{user_id}/follow", socialHandler.IsFollowing)
			r.Post("/users/{user_id}/follow", socialHandler.Follow)
			r.Delete("/users/{user_id}/follow", socialHandler.Unfollow)
			r.Get("/users/{user_id}/followers", socialHandler.Followers)
			r.Get("/users/{user_id}/following", socialHandler.Following)
			r.Get("/users/{user_id}/posts", postHandler.ListUserPosts)

			r.Post("/posts", postHandler.CreatePost)
			r.Get("/posts/{post_id}", postHandler.GetPost)
			r.Delete("/posts/{post_id}", postHandler.DeletePost)
			r.Post("/posts/{post_id}/join", postHandler.JoinPost)
			r.Delete("/posts/{post_id}/join", postHandler.LeavePost)
			r.Get("/feed", postHandler.Feed)

			r.Get("/locations", locationHandler.List)
			r.Post("/locations", locationHandler.Save)
			r.Patch("/locations/{location_id}", locationHandler.Update)
			r.Delete("/locations/{location_id}", locationHandler.Delete)

			r.Post("/feedback", feedbackHandler.Submit)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(a.users, a.cfg.Admin.IsAdmin))
				r.Get("/feedback", feedbackHandler.List)
				r.Patch("/feedback/{feedback_id}", feedbackHandler.UpdateStatus)
				r.Post("/follow-counts/reconcile", adminHandler.ReconcileFollowCounts)
			})
		})
	})

	// WebSocket route
	r.Get("/ws/feed", wsHandler.HandleWebSocket)

	return r
}
