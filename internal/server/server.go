package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"postdeck/internal/config"
	"postdeck/internal/service"
	"postdeck/internal/service/canva"
	"postdeck/internal/service/linkedin"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	AuthService     *service.AuthService
	RateLimiter     *service.RateLimiter
	DraftService    *service.DraftService
	GenerateService *service.GenerateService
	CanvaService    *canva.Service
	Publisher       *linkedin.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	providers, err := service.BuildProviders(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to build providers: %w", err)
	}

	draftService := service.NewDraftService(db, logger)
	tokenService := service.NewTokenService(db)

	srv := &Server{
		Config:          cfg,
		DB:              db,
		Router:          gin.New(),
		Logger:          logger,
		AuthService:     service.NewAuthService(logger, cfg.Auth.TOTPSecret),
		RateLimiter:     service.NewRateLimiter(&cfg.RateLimit),
		DraftService:    draftService,
		GenerateService: service.NewGenerateService(providers, draftService, logger),
		CanvaService:    canva.NewService(&cfg.Canva, tokenService, logger),
		Publisher:       linkedin.NewPublisher(&cfg.LinkedIn, draftService, logger),
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	api.Use(s.AuthService.AuthMiddleware())
	{
		api.POST("/auth/login", s.handleLogin)

		api.POST("/generate", s.handleGenerate)
		api.POST("/publish", s.handlePublish)

		api.GET("/drafts", s.handleListDrafts)
		api.GET("/drafts/:id", s.handleGetDraft)

		// Canva routes
		cv := api.Group("/canva")
		{
			cv.GET("/status", s.handleCanvaStatus)
			cv.GET("/auth", s.handleCanvaAuth)
			cv.GET("/callback", s.handleCanvaCallback)
			cv.GET("/designs", s.handleCanvaDesigns)
			cv.POST("/export", s.handleCanvaExport)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
