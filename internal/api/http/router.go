package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skill-swap/skillswap/internal/api/http/handlers"
	"github.com/skill-swap/skillswap/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Profiles       *handlers.ProfileHandler
	Requests       *handlers.RequestsHandler
	Messages       *handlers.MessagesHandler
	Location       *handlers.LocationHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    RateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Get)
	}
	app.Get("/location/pincode/:code", cfg.Location.Pincode)

	authGroup := app.Group("/auth")
	public := authGroup.Group("", RateLimit(cfg.AuthLimiter))
	public.Post("/register", cfg.Auth.Register)
	public.Post("/login", cfg.Auth.Login)
	public.Get("/google/login", cfg.Auth.GoogleLogin)
	public.Get("/google/callback", cfg.Auth.GoogleCallback)
	public.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	public.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	public.Post("/email/verify", cfg.Auth.VerifyEmail)

	member := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	authed := authGroup.Group("", member...)
	authed.Post("/password/change", cfg.Auth.ChangePassword)
	authed.Post("/email/resend", cfg.Auth.ResendVerification)

	me := app.Group("/me", member...)
	me.Get("/", cfg.Profiles.Me)
	me.Patch("/", cfg.Profiles.UpdateMe)
	me.Delete("/", cfg.Profiles.DeleteMe)
	me.Post("/avatar", cfg.Profiles.UploadAvatar)

	users := app.Group("/users", member...)
	users.Get("/", cfg.Profiles.Browse)
	users.Get("/:id", cfg.Profiles.View)

	requests := app.Group("/requests", member...)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/sent", cfg.Requests.ListSent)
	requests.Get("/received", cfg.Requests.ListReceived)
	requests.Post("/:id/accept", cfg.Requests.Accept)
	requests.Post("/:id/reject", cfg.Requests.Reject)
	requests.Delete("/:id", cfg.Requests.Delete)

	messages := app.Group("/messages", member...)
	messages.Post("/", cfg.Messages.Send)
	messages.Get("/", cfg.Messages.Inbox)
	messages.Get("/:userID", cfg.Messages.Conversation)

	app.Get("/announcements", append(member, cfg.Admin.ListAnnouncements)...)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users/:id/verify", cfg.Admin.Verify)
	admin.Post("/users/:id/unverify", cfg.Admin.Unverify)
	admin.Post("/users/:id/ban", cfg.Admin.Ban)
	admin.Post("/users/:id/unban", cfg.Admin.Unban)
	admin.Post("/users/:id/admin", cfg.Admin.SetAdmin)
	admin.Delete("/users/:id/admin", cfg.Admin.RemoveAdmin)
	admin.Get("/requests", cfg.Admin.ListRequests)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Post("/announcements", cfg.Admin.Announce)
	admin.Get("/lockouts/:email", cfg.Admin.GetLockout)
	admin.Delete("/lockouts/:email", cfg.Admin.ClearLockout)
}
