package main

import (
	"context"
	"log"

	"letterdrop/config"
	"letterdrop/internal/broadcast"
	"letterdrop/internal/handler"
	"letterdrop/internal/mailer"
	"letterdrop/internal/redis"
	"letterdrop/internal/render"
	"letterdrop/internal/repository"
	"letterdrop/internal/server"
	"letterdrop/internal/services"
	"letterdrop/pkg/database"
	"letterdrop/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	// Connect to Database and apply schema
	database.Connect(cfg)
	defer database.Close()
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	limiter := redis.NewRateLimiter(redis.GetClient(), redis.DefaultRateLimitConfig())

	var mail mailer.Mailer
	if cfg.AppMode == server.ReleaseMode {
		mail = mailer.NewSMTPMailer(cfg)
	} else {
		mail = mailer.NewLogMailer(l)
	}

	db := database.DB
	sendRepo := repository.NewSendRepository(db)
	subRepo := repository.NewSubscriberRepository(db)

	expander := broadcast.NewExpander(db, l)
	processor := broadcast.NewProcessor(sendRepo, mail, l, cfg.SendBatchSize, cfg.SendMaxAttempts)
	broadcaster := broadcast.NewBroadcaster(expander, processor)
	promoter := broadcast.NewPromoter(db, l)
	scheduler := broadcast.NewScheduler(promoter, broadcaster, l, cfg.SchedulerInterval)

	if err := scheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	renderer := render.NewMarkdownRenderer()
	postService := services.NewPostService(db, renderer, broadcaster)
	subscriberService := services.NewSubscriberService(subRepo)
	authService := services.NewAuthService(cfg)

	srv := server.New(cfg, l, scheduler)
	srv.SetupRoutes(&server.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Post:       handler.NewPostHandler(postService),
		Subscriber: handler.NewSubscriberHandler(subscriberService),
	}, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
