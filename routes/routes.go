package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/oskporuba/club-backend/handlers"
	"github.com/oskporuba/club-backend/middleware"
	"github.com/oskporuba/club-backend/models"
)

const (
	rateLimitRequests = 200
	rateLimitWindow   = 15 * time.Minute
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Players       *handlers.PlayerHandler
	Trainings     *handlers.TrainingHandler
	Polls         *handlers.PollHandler
	Announcements *handlers.AnnouncementHandler
	Blog          *handlers.BlogHandler
	Sportsnet     *handlers.SportsnetHandler
	System        *handlers.SystemHandler
	WebSocket     *handlers.WebSocketHandler
}

// SetupRoutes wires the full API surface. Every route group is mounted twice,
// under /api and at the root, because deployed frontends call both forms.
func SetupRoutes(
	router *chi.Mux,
	frontendOrigins []string,
	authenticator *middleware.Authenticator,
	csrf *middleware.CSRFGuard,
	h Handlers,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   frontendOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Use(httprate.LimitByIP(rateLimitRequests, rateLimitWindow))

	api := apiRouter(authenticator, csrf, h)
	router.Mount("/api", api)
	router.Mount("/", api)
}

func apiRouter(authenticator *middleware.Authenticator, csrf *middleware.CSRFGuard, h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(csrf.Protect)

	// Public surface.
	r.Get("/health", h.System.Health)
	r.Get("/csrf-token", h.System.CSRFToken)
	r.Post("/auth/login", h.Auth.Login)
	r.Post("/auth/logout", h.Auth.Logout)
	r.Get("/players", h.Players.List)
	r.Get("/sportsnet/matches", h.Sportsnet.Matches)
	r.Get("/ws/{room}", h.WebSocket.ServeWs)
	r.Get("/blog", h.Blog.List)

	// Single-post reads are public too, but a draft opens for its author and
	// for admins when a session is present.
	r.Group(func(r chi.Router) {
		r.Use(authenticator.MaybeAuthenticate)
		r.Get("/blog/{postID}", h.Blog.Get)
	})

	// Everything below requires a session.
	r.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticate)

		r.Get("/auth/me", h.Auth.Me)
		r.Post("/auth/change-password", h.Auth.ChangePassword)

		r.Route("/trainings", func(r chi.Router) {
			r.Get("/", h.Trainings.List)
			r.Post("/{trainingID}/attendance", h.Trainings.SetAttendance)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCoach, models.RoleAdmin))
				r.Post("/", h.Trainings.Create)
				r.Patch("/{trainingID}/close", h.Trainings.Close)
				r.Delete("/{trainingID}", h.Trainings.Delete)
			})
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", h.Polls.List)
			r.Post("/{pollID}/vote", h.Polls.Vote)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCoach, models.RoleAdmin))
				r.Post("/", h.Polls.Create)
				r.Patch("/{pollID}/close", h.Polls.Close)
				r.Delete("/{pollID}", h.Polls.Delete)
			})
		})

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", h.Announcements.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCoach, models.RoleAdmin))
				r.Post("/", h.Announcements.Create)
				r.Delete("/{announcementID}", h.Announcements.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleBlogger, models.RoleAdmin))
			r.Get("/blog/manage", h.Blog.Manage)
			r.Post("/blog", h.Blog.Create)
			r.Post("/blog/{postID}/cover", h.Blog.UploadCover)
			r.Delete("/blog/{postID}", h.Blog.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/", h.Users.List)
			r.Post("/", h.Users.Create)
			r.Patch("/{userID}/status", h.Users.SetActiveStatus)
			r.Patch("/{userID}/reset-password", h.Users.ResetPassword)
			r.Patch("/{userID}/profile", h.Users.UpdateProfile)
		})
	})

	return r
}
