package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"letterdrop/config"
	"letterdrop/internal/broadcast"
	"letterdrop/internal/handler"
	"letterdrop/internal/middleware"
	"letterdrop/internal/redis"
	"letterdrop/internal/services"
	"letterdrop/internal/transport/httpdto"
	"letterdrop/pkg/database"
	"letterdrop/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	scheduler  *broadcast.Scheduler
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Post       *handler.PostHandler
	Subscriber *handler.SubscriberHandler
}

func New(cfg *config.Config, l *logger.Logger, scheduler *broadcast.Scheduler) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine:    engine,
		config:    cfg,
		logger:    l,
		scheduler: scheduler,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimitMiddleware(limiter), handlers.Auth.Login)
	}

	posts := s.engine.Group("/v1/posts")
	{
		posts.GET("", handlers.Post.ListPublished)
		posts.GET("/:slug", handlers.Post.GetBySlug)
	}

	subs := s.engine.Group("/v1/subscriptions")
	{
		subs.POST("", middleware.SubscribeRateLimitMiddleware(limiter), handlers.Subscriber.Subscribe)
		subs.GET("/confirm", handlers.Subscriber.Confirm)
		subs.POST("/unsubscribe", middleware.SubscribeRateLimitMiddleware(limiter), handlers.Subscriber.Unsubscribe)
	}

	admin := s.engine.Group("/v1/admin", middleware.AuthMiddleware(authService))
	{
		admin.POST("/posts", handlers.Post.Create)
		admin.POST("/posts/:id/publish", handlers.Post.Publish)
		admin.GET("/posts", handlers.Post.ListAll)
		admin.GET("/posts/:id/deliveries", handlers.Post.Deliveries)
		admin.GET("/subscribers", handlers.Subscriber.List)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
