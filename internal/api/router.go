package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/rsvphq/guestlist/internal/access"
	"github.com/rsvphq/guestlist/internal/app"
	iauth "github.com/rsvphq/guestlist/internal/auth"
	"github.com/rsvphq/guestlist/internal/campaign"
	"github.com/rsvphq/guestlist/internal/handlers"
	"github.com/rsvphq/guestlist/internal/middleware"
	"github.com/rsvphq/guestlist/internal/services"
	"github.com/rsvphq/guestlist/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, sessions *iauth.SessionService, mailer mail.Mailer) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session service must be provided")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer must be provided")
	}

	codec := campaign.NewTokenCodec(cfg.Auth.CancelSecret)

	gate, err := access.NewGate(db)
	if err != nil {
		return nil, err
	}

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	assignmentSvc, err := services.NewAssignmentService(db)
	if err != nil {
		return nil, err
	}
	eventSvc, err := services.NewEventService(db, gate)
	if err != nil {
		return nil, err
	}
	rsvpSvc, err := services.NewRSVPService(db, codec)
	if err != nil {
		return nil, err
	}

	dispatcher, err := campaign.NewDispatcher(mailer, codec, rsvpSvc, campaign.DispatcherConfig{
		BaseURL:  cfg.Server.BaseURL,
		From:     cfg.Email.SMTP.From,
		Defaults: cfg.Defaults.CampaignDefaults(),
	})
	if err != nil {
		return nil, err
	}
	runner, err := campaign.NewRunner(db, dispatcher, cfg.Campaign.RunnerConfig())
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	// Health and metrics endpoints (public)
	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookie := handlers.CookieSettings{
		Domain: cfg.Server.Cookie.Domain,
		Secure: cfg.Server.Cookie.Secure,
	}
	authHandler := handlers.NewAuthHandler(userSvc, sessions, cookie)
	userHandler := handlers.NewUserHandler(userSvc, assignmentSvc)
	eventHandler := handlers.NewEventHandler(eventSvc, gate)
	rsvpHandler := handlers.NewRSVPHandler(rsvpSvc, gate)
	dispatchHandler := handlers.NewDispatchHandler(rsvpSvc, eventSvc, dispatcher, runner, gate)
	reportHandler := handlers.NewReportHandler(rsvpSvc, gate)

	// Public routes: login, the event page payload, and guest RSVP actions.
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/events/:slug", eventHandler.GetPublic)

	rsvps := r.Group("/api/rsvps")
	{
		rsvps.POST("", rsvpHandler.Submit)
		rsvps.POST("/update", rsvpHandler.GuestUpdate)
		rsvps.POST("/cancel", rsvpHandler.Cancel)
		rsvps.POST("/reconfirm", rsvpHandler.Reconfirm)
	}

	requireAuth := middleware.RequireSession(sessions)

	// Authenticated auth routes
	auth := r.Group("/api/auth")
	auth.Use(requireAuth)
	{
		auth.GET("/me", authHandler.Me)
		auth.GET("/validate", authHandler.Validate)
		auth.POST("/logout", authHandler.Logout)
	}

	admin := r.Group("/api/admin")
	admin.Use(requireAuth)

	// Events: creation and deletion are reserved for super admins, the rest is
	// gated per event inside the handlers.
	events := admin.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.POST("", middleware.RequireSuperAdmin(), eventHandler.Create)
		events.GET("/:id", eventHandler.Get)
		events.PATCH("/:id", eventHandler.Update)
		events.DELETE("/:id", middleware.RequireSuperAdmin(), eventHandler.Delete)
		events.GET("/:id/rsvps", rsvpHandler.ListByEvent)
	}

	admin.PATCH("/rsvps/:id", rsvpHandler.AdminUpdate)

	dispatch := admin.Group("/dispatch")
	{
		dispatch.POST("/send", dispatchHandler.Send)
		dispatch.POST("/bulk", dispatchHandler.BulkSend)
	}

	reports := admin.Group("/reports")
	{
		reports.GET("/stats", reportHandler.Stats)
		reports.GET("/reminder-status", reportHandler.ReminderStatus)
	}

	// User management is restricted to super admins entirely.
	users := admin.Group("/users")
	users.Use(middleware.RequireSuperAdmin())
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PATCH("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Deactivate)
		users.POST("/:id/password", userHandler.ChangePassword)
		users.GET("/:id/events", userHandler.ListAssignments)
		users.POST("/:id/events", userHandler.Assign)
		users.DELETE("/:id/events/:eventID", userHandler.Unassign)
	}

	return r, nil
}
