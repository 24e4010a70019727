package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/medbook/medbook-api/internal/config"
	"github.com/medbook/medbook-api/internal/domain"
	"github.com/medbook/medbook-api/internal/middleware"
	"github.com/medbook/medbook-api/pkg/auth"
	"github.com/medbook/medbook-api/pkg/metrics"
)

type Handlers struct {
	Users       *UserHandler
	Doctors     *DoctorHandler
	Specialties *SpecialtyHandler
	Bookings    *BookingHandler
	Chat        *ChatHandler
}

// NewRouter wires the full HTTP surface under /api/v1.
func NewRouter(cfg *config.Config, jwtManager *auth.JWTManager, collector *metrics.Collector, h Handlers) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")
	authed := middleware.Authenticate(jwtManager)
	authLimit := middleware.AuthRateLimit(cfg.RateLimit.AuthRequestsPerMinute)

	users := api.Group("/users")
	{
		users.POST("/register", authLimit, h.Users.Register)
		users.POST("/login", authLimit, h.Users.Login)
		users.GET("/me", authed, h.Users.GetProfile)
		users.PUT("/me", authed, h.Users.UpdateProfile)
		users.POST("/me/password", authed, h.Users.ChangePassword)
		users.POST("/me/deactivate", authed, h.Users.Deactivate)
		users.GET("", authed, middleware.RequireRole(domain.RoleAdmin), h.Users.ListUsers)
	}

	api.POST("/auth/refresh", authLimit, h.Users.Refresh)

	doctors := api.Group("/doctors")
	{
		doctors.POST("/register", authLimit, h.Doctors.Register)
		doctors.GET("", h.Doctors.List)
		doctors.GET("/me", authed, middleware.RequireRole(domain.RoleDoctor), h.Doctors.GetOwnProfile)
		doctors.PUT("/me", authed, middleware.RequireRole(domain.RoleDoctor), h.Doctors.UpdateOwnProfile)
		doctors.GET("/me/stats", authed, middleware.RequireRole(domain.RoleDoctor), h.Doctors.Stats)
		doctors.POST("/me/slots", authed, middleware.RequireRole(domain.RoleDoctor), h.Bookings.CreateSlot)
		doctors.GET("/me/slots", authed, middleware.RequireRole(domain.RoleDoctor), h.Bookings.ListOwnSlots)
		doctors.GET("/:id", h.Doctors.Get)
		doctors.GET("/:id/slots", h.Bookings.ListSlots)
		doctors.PUT("/:id/verify", authed, middleware.RequireRole(domain.RoleAdmin), h.Doctors.Verify)
	}

	specialties := api.Group("/specialties")
	{
		specialties.GET("", h.Specialties.List)
		specialties.GET("/stats", h.Specialties.Stats)

		admin := specialties.Group("", authed, middleware.RequireRole(domain.RoleAdmin))
		admin.POST("", h.Specialties.Create)
		admin.PUT("/:id", h.Specialties.Update)
		admin.DELETE("/:id", h.Specialties.Delete)
	}

	bookings := api.Group("/bookings", authed)
	{
		bookings.POST("", middleware.RequireRole(domain.RolePatient), h.Bookings.Create)
		bookings.GET("", h.Bookings.List)
		bookings.GET("/stats", h.Bookings.Stats)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.PUT("/:id", h.Bookings.Update)
		bookings.POST("/:id/cancel", h.Bookings.Cancel)
	}

	sessions := api.Group("/sessions", authed)
	{
		sessions.POST("", h.Chat.CreateSession)
		sessions.GET("", h.Chat.ListSessions)
		sessions.GET("/:id", h.Chat.GetSession)
		sessions.POST("/:id/end", h.Chat.EndSession)
		sessions.POST("/:id/messages", h.Chat.SendMessage)
		sessions.GET("/:id/messages", h.Chat.ListMessages)
		sessions.POST("/:id/read", h.Chat.MarkRead)
	}

	messages := api.Group("/messages", authed)
	{
		messages.GET("/unread", h.Chat.UnreadCount)
		messages.DELETE("/:messageId", h.Chat.DeleteMessage)
	}

	return r
}
