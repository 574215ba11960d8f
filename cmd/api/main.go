package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/config"
	"github.com/akademia-app/exam-api/internal/database"
	"github.com/akademia-app/exam-api/internal/handler"
	"github.com/akademia-app/exam-api/internal/middleware"
	"github.com/akademia-app/exam-api/internal/models"
	"github.com/akademia-app/exam-api/internal/repository"
	"github.com/akademia-app/exam-api/internal/router"
	"github.com/akademia-app/exam-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Question{}, &models.Exam{}, &models.ExamQuestion{}, &models.ExamAssignment{}, &models.ExamAttempt{}, &models.AttemptAnswer{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	questionRepo := repository.NewQuestionRepository(db)
	examRepo := repository.NewExamRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	monitorService := service.NewMonitorService(logger)
	eventPublisher := service.NewNATSEventPublisher(natsConn, cfg.EventSubject, logger)
	events := service.MultiEventSink{eventPublisher, monitorService, service.MetricsEventSink{}}

	statsService := service.NewStatsService(attemptRepo, examRepo, redisClient, cfg.StatsCacheTTL, logger)
	gradingService := service.NewGradingService(attemptRepo, examRepo, questionRepo, validate, events, statsService, logger)
	attemptService := service.NewAttemptService(attemptRepo, assignmentRepo, examRepo, gradingService, events, validate, logger)
	examCatalogService := service.NewExamCatalogService(examRepo, questionRepo, assignmentRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, examRepo, validate, logger)

	examHandler := handler.NewExamHandler(examCatalogService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	statsHandler := handler.NewStatsHandler(statsService, logger)
	monitorHandler := handler.NewMonitorHandler(monitorService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:       examHandler,
		AssignmentHandler: assignmentHandler,
		AttemptHandler:    attemptHandler,
		GradingHandler:    gradingHandler,
		StatsHandler:      statsHandler,
		MonitorHandler:    monitorHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
