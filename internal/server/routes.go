package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"top100/internal/config"
	"top100/internal/db"
	"top100/internal/events"
	"top100/internal/handlers"
	"top100/internal/middleware"
	"top100/internal/workflow"
)

// verifyWindow is the window of the per-IP verification attempt limit.
const verifyWindow = 15 * time.Minute

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB        *db.DB
	Workflow  *workflow.Workflow
	Images    handlers.ImageStore
	Notifier  handlers.FeatureNotifier
	Publisher events.Publisher
	Changes   events.Source
	Program   *config.Program
	// UploadsDir is served under /uploads when images are stored locally.
	UploadsDir string
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, d Deps) error {
	authMiddleware := middleware.NewAuthMiddleware(d.DB)

	profileHandler := handlers.NewProfileHandler(d.DB, d.Workflow, d.Notifier, d.Publisher, s.Cfg, d.Program, s.Logger)
	uploadHandler := handlers.NewUploadHandler(d.Images, s.Logger)
	publicHandler := handlers.NewPublicHandler(d.DB, s.Cfg, d.Program, s.Logger)
	adminHandler := handlers.NewAdminHandler(d.DB, d.Publisher, d.Program, s.Logger)
	changesHandler := handlers.NewChangesHandler(d.Changes, s.Logger)
	healthHandler := handlers.NewHealthHandler(d.DB)

	s.App.Get("/healthz", healthHandler.Healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if d.UploadsDir != "" {
		s.App.Get("/uploads/*", static.New(d.UploadsDir))
	}

	if s.Cfg.IsOIDCEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, d.DB, s.Logger)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
		s.App.Get("/api/me", authMiddleware.RequireAuth, authHandler.Me)
	} else {
		s.Logger.Warn("OIDC is not configured, admin console login is disabled")
	}

	// Public pages and API
	s.App.Get("/awardees/:slug", publicHandler.Page)

	api := s.App.Group("/api")
	api.Get("/awardees", publicHandler.List)
	api.Get("/awardees/spotlight", publicHandler.Spotlight)
	api.Get("/awardees/:slug", publicHandler.Get)
	api.Get("/announcements", publicHandler.Announcements)
	api.Get("/events", publicHandler.Events)

	// Awardee self-service
	verifyLimiter := limiter.New(limiter.Config{
		Max:        s.Cfg.VerifyRateLimit,
		Expiration: verifyWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return "verify:" + c.IP()
		},
		LimitReached: rateLimited,
	})
	api.Post("/profiles/:id/verify", verifyLimiter, profileHandler.Verify)
	api.Get("/profiles/:id/edit", middleware.RequireVerifiedOwner, profileHandler.Edit)
	api.Put("/profiles/:id", middleware.RequireVerifiedOwner, profileHandler.Save)
	api.Post("/profiles/:id/feature-request", middleware.RequireVerifiedOwner, profileHandler.FeatureRequest)
	api.Post("/uploads", authMiddleware.LoadUser, uploadHandler.Upload)

	// Admin console
	admin := api.Group("/admin", authMiddleware.RequireAuth)
	admin.Get("/changes", changesHandler.Stream)

	editor := authMiddleware.RequireEditor
	admin.Get("/stats", editor, adminHandler.Stats)
	admin.Get("/awardees", editor, adminHandler.ListAwardees)
	admin.Post("/awardees", editor, adminHandler.CreateAwardee)
	admin.Get("/awardees/:id", editor, adminHandler.GetAwardee)
	admin.Put("/awardees/:id", editor, adminHandler.UpdateAwardee)
	admin.Put("/awardees/:id/visibility", editor, adminHandler.SetAwardeeVisibility)
	admin.Delete("/awardees/:id", editor, adminHandler.DeleteAwardee)

	admin.Get("/announcements", editor, adminHandler.ListAnnouncements)
	admin.Post("/announcements", editor, adminHandler.CreateAnnouncement)
	admin.Put("/announcements/:id", editor, adminHandler.UpdateAnnouncement)
	admin.Post("/announcements/:id/toggle", editor, adminHandler.ToggleAnnouncement)
	admin.Delete("/announcements/:id", editor, adminHandler.DeleteAnnouncement)

	admin.Get("/events", editor, adminHandler.ListEvents)
	admin.Post("/events", editor, adminHandler.CreateEvent)
	admin.Put("/events/:id", editor, adminHandler.UpdateEvent)
	admin.Post("/events/:id/featured", editor, adminHandler.ToggleEventFeatured)
	admin.Delete("/events/:id", editor, adminHandler.DeleteEvent)

	// Paid services and user management are admin only.
	adminOnly := authMiddleware.RequireAdmin
	admin.Get("/feature-requests", adminOnly, adminHandler.ListFeatureRequests)
	admin.Get("/feature-requests/:id", adminOnly, adminHandler.GetFeatureRequest)
	admin.Put("/feature-requests/:id/status", adminOnly, adminHandler.UpdateFeatureRequestStatus)
	admin.Put("/feature-requests/:id/payment", adminOnly, adminHandler.UpdateFeatureRequestPayment)
	admin.Delete("/feature-requests/:id", adminOnly, adminHandler.DeleteFeatureRequest)
	admin.Get("/users", adminOnly, adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminOnly, adminHandler.UpdateUserRole)

	return nil
}
