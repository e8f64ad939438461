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

	"github.com/kelasku/kelasku-go-api/internal/config"
	"github.com/kelasku/kelasku-go-api/internal/database"
	"github.com/kelasku/kelasku-go-api/internal/handler"
	"github.com/kelasku/kelasku-go-api/internal/middleware"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
	"github.com/kelasku/kelasku-go-api/internal/router"
	"github.com/kelasku/kelasku-go-api/internal/service"
	cloud "github.com/kelasku/kelasku-go-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.LessonCompletion{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Review{},
		&models.UploadRecord{},
	); err != nil {
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
	if natsConn != nil {
		defer natsConn.Close()
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewEventPublisher(natsConn, "kelasku", logger)

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	authService := service.NewAuthService(userRepo, redisClient, service.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}, validate, logger)
	categoryService := service.NewCategoryService(categoryRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, events, validate, logger)
	curriculumService := service.NewCurriculumService(curriculumRepo, courseRepo, enrollmentRepo, assignmentRepo, validate, logger)
	progressService := service.NewProgressService(enrollmentRepo, events, logger)
	quizService := service.NewQuizService(quizRepo, curriculumRepo, enrollmentRepo, progressService, events, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, curriculumRepo, enrollmentRepo, progressService, events, validate, logger)
	certificateService := service.NewCertificateService(enrollmentRepo, cfg.AppBaseURL, logger)
	reviewService := service.NewReviewService(reviewRepo, enrollmentRepo, courseRepo, validate, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, courseRepo, userRepo, redisClient, cfg.DashboardCacheTTL, logger)
	uploadService := service.NewUploadService(storage, uploadRepo, cfg.UploadMaxSizeMB, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, curriculumService, logger),
		CurriculumHandler: handler.NewCurriculumHandler(curriculumService, logger),
		CategoryHandler:   handler.NewCategoryHandler(categoryService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, certificateService, courseService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		ReviewHandler:     handler.NewReviewHandler(reviewService, logger),
		DashboardHandler:  handler.NewDashboardHandler(dashboardService, logger),
		UploadHandler:     handler.NewUploadHandler(uploadService, logger),
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
