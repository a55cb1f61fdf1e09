package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/consensus"
	"github.com/acejarvis/cash-or-card/backend/internal/database"
	"github.com/acejarvis/cash-or-card/backend/internal/handlers"
	"github.com/acejarvis/cash-or-card/backend/internal/middleware"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
	"github.com/acejarvis/cash-or-card/backend/internal/moderation"
	"github.com/acejarvis/cash-or-card/backend/internal/scoring"
	"github.com/acejarvis/cash-or-card/backend/internal/store"
)

type Server struct {
	cfg      *config.Config
	db       database.Service
	handler  *handlers.Handler
	auth     *middleware.Auth
	registry *prometheus.Registry
	logger   *slog.Logger
}

// New wires the store, consensus engine and moderation gateway over db.
func New(cfg *config.Config, db database.Service, logger *slog.Logger) (*Server, error) {
	scorer, err := scoring.New(cfg.Consensus.Scorer, cfg.Consensus.PriorUp, cfg.Consensus.PriorDown, cfg.Consensus.WilsonZ)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	var reg prometheus.Registerer
	if cfg.Metrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reg = registry
	}

	st := store.New(db.GetDB())
	engine := consensus.New(st,
		consensus.WithScorer(scorer),
		consensus.WithLogger(logger.With("component", "consensus")),
		consensus.WithMaxAttempts(cfg.Consensus.MaxTxAttempts),
		consensus.WithPromRegistry(reg),
	)
	gateway := moderation.New(st,
		moderation.WithLogger(logger.With("component", "moderation")),
		moderation.WithMaxAttempts(cfg.Consensus.MaxTxAttempts),
		moderation.WithPromRegistry(reg),
	)
	auth := middleware.NewAuth(cfg.Auth)

	return &Server{
		cfg: cfg,
		db:  db,
		handler: handlers.NewHandler(handlers.Deps{
			Store:   st,
			Engine:  engine,
			Gateway: gateway,
			Auth:    auth,
			Logger:  logger.With("component", "http"),
		}),
		auth:     auth,
		registry: registry,
		logger:   logger,
	}, nil
}

// HTTPServer returns the configured listener for the API.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.Server.IdleTimeout,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.Server.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", s.healthHandler)
	if s.cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	h := s.handler
	authenticated := s.auth.Authenticate()

	api := r.Group("/api")
	{
		// Public routes
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)

		api.GET("/restaurants", h.Restaurant.GetRestaurants)
		api.GET("/restaurants/search", h.Restaurant.Search)
		api.GET("/restaurants/:id", h.Restaurant.GetRestaurant)
		api.GET("/payment-methods/restaurant/:restaurantId", h.PaymentMethod.GetByRestaurant)
		api.GET("/cash-discounts/restaurant/:restaurantId", h.CashDiscount.GetByRestaurant)
		api.GET("/ratings/restaurant/:restaurantId", h.Rating.GetRatings)

		// Authenticated routes
		protected := api.Group("")
		protected.Use(authenticated)
		{
			protected.GET("/auth/profile", h.Auth.Profile)
			protected.PUT("/auth/profile", h.Auth.UpdateProfile)
			protected.GET("/ratings/restaurant/:restaurantId/user", h.Rating.GetUserRating)
		}

		// Registered users only (no guests)
		registered := api.Group("")
		registered.Use(authenticated, middleware.RequireRegistered())
		{
			registered.POST("/restaurants", h.Restaurant.CreateRestaurant)
			registered.PUT("/restaurants/:id", h.Restaurant.UpdateRestaurant)
			registered.POST("/ratings/restaurant/:restaurantId", h.Rating.RateRestaurant)

			registerFactRoutes(registered.Group("/payment-methods"), h.PaymentMethod)
			registerFactRoutes(registered.Group("/cash-discounts"), h.CashDiscount)
		}

		// Admin routes
		admin := api.Group("")
		admin.Use(authenticated, middleware.Authorize(models.RoleAdmin))
		{
			admin.POST("/restaurants/:id/verify", h.Restaurant.VerifyRestaurant)
			admin.DELETE("/restaurants/:id", h.Restaurant.DeleteRestaurant)
			admin.GET("/restaurants/admin/pending", h.Restaurant.PendingRestaurants)

			admin.POST("/payment-methods/:id/verify", h.PaymentMethod.Verify)
			admin.DELETE("/payment-methods/:id", h.PaymentMethod.Delete)
			admin.POST("/cash-discounts/:id/verify", h.CashDiscount.Verify)
			admin.DELETE("/cash-discounts/:id", h.CashDiscount.Delete)

			admin.GET("/admin/pending", h.Admin.Pending)
			admin.POST("/admin/approve/:type/:id", h.Admin.Approve)
			admin.POST("/admin/reject/:type/:id", h.Admin.Reject)
		}
	}

	return r
}

func registerFactRoutes(g *gin.RouterGroup, h *handlers.FactHandler) {
	g.POST("", h.Submit)
	g.POST("/:id/vote", h.Vote)
	g.GET("/:id/vote", h.GetUserVote)
	g.PUT("/:id", h.Update)
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
