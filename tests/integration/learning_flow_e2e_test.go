package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/config"
	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/handler"
	"github.com/kelasku/kelasku-go-api/internal/middleware"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
	"github.com/kelasku/kelasku-go-api/internal/router"
	"github.com/kelasku/kelasku-go-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))

	mr := miniredis.RunT(t)
	sessions := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Config{
		AppName:         "KelasKu API",
		AppEnv:          "test",
		AppBaseURL:      "https://kelasku.test",
		JWTSecret:       "integration-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	events := service.NewEventPublisher(nil, "kelasku", logger)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	authService := service.NewAuthService(userRepo, sessions, service.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}, validate, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, events, validate, logger)
	curriculumService := service.NewCurriculumService(curriculumRepo, courseRepo, enrollmentRepo, assignmentRepo, validate, logger)
	progressService := service.NewProgressService(enrollmentRepo, events, logger)
	quizService := service.NewQuizService(quizRepo, curriculumRepo, enrollmentRepo, progressService, events, validate, logger)
	certificateService := service.NewCertificateService(enrollmentRepo, cfg.AppBaseURL, logger)

	app := fiber.New(fiber.Config{AppName: cfg.AppName})
	middleware.Register(app, middleware.Config{})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, curriculumService, logger),
		CurriculumHandler: handler.NewCurriculumHandler(curriculumService, logger),
		ProgressHandler:   handler.NewProgressHandler(progressService, certificateService, courseService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
	})

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	return resp.StatusCode, payload
}

func registerAccount(t *testing.T, app *fiber.App, name, email, role string) string {
	t.Helper()

	status, payload := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name":             name,
		"email":            email,
		"password":         "secret-password",
		"confirm_password": "secret-password",
		"role":             role,
	})
	require.Equal(t, fiber.StatusCreated, status)

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(payload.Data, &auth))
	require.NotEmpty(t, auth.Tokens.AccessToken)

	return auth.Tokens.AccessToken
}

func TestLearningFlowEndToEnd(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.Category{Name: "Programming"}).Error)

	instructorToken := registerAccount(t, app, "Instructor", "instructor@kelasku.test", "instructor")
	studentToken := registerAccount(t, app, "Student", "student@kelasku.test", "")

	// Instructor publishes a course with one section and two lessons.
	status, payload := doJSON(t, app, http.MethodPost, "/api/v1/instructor/courses", instructorToken, map[string]interface{}{
		"title":       "Go for Backend Engineers",
		"description": "Build production APIs in Go from scratch.",
		"category_id": 1,
		"level":       "beginner",
		"price":       0,
		"status":      "published",
	})
	require.Equal(t, fiber.StatusCreated, status)

	var course dto.CourseResponse
	require.NoError(t, json.Unmarshal(payload.Data, &course))
	courseID := strconv.FormatUint(uint64(course.ID), 10)

	status, payload = doJSON(t, app, http.MethodPost, "/api/v1/instructor/courses/"+courseID+"/sections", instructorToken, map[string]interface{}{
		"title": "Getting Started",
	})
	require.Equal(t, fiber.StatusCreated, status)

	var section dto.SectionResponse
	require.NoError(t, json.Unmarshal(payload.Data, &section))
	sectionID := strconv.FormatUint(uint64(section.ID), 10)

	var lessons [2]dto.LessonResponse
	for i, title := range []string{"Installing Go", "Your First Handler"} {
		status, payload = doJSON(t, app, http.MethodPost, "/api/v1/instructor/sections/"+sectionID+"/lessons", instructorToken, map[string]interface{}{
			"title":        title,
			"content_type": "video",
			"video_url":    "https://videos.kelasku.test/" + strconv.Itoa(i) + ".mp4",
			"duration":     10,
			"order_index":  i,
		})
		require.Equal(t, fiber.StatusCreated, status)
		require.NoError(t, json.Unmarshal(payload.Data, &lessons[i]))
	}

	// Lesson counters are recomputed as the curriculum grows.
	status, payload = doJSON(t, app, http.MethodGet, "/api/v1/courses/"+courseID, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(payload.Data, &course))
	require.Equal(t, 2, course.TotalLessons)

	// Quiz with a 1-point and a 3-point question on the second lesson.
	lessonTwoID := strconv.FormatUint(uint64(lessons[1].ID), 10)
	status, payload = doJSON(t, app, http.MethodPut, "/api/v1/instructor/lessons/"+lessonTwoID+"/quiz", instructorToken, map[string]interface{}{
		"title":         "Handler Basics",
		"passing_score": 70,
		"questions": []map[string]interface{}{
			{
				"question": "Which package serves HTTP?", "option_a": "net/http", "option_b": "fmt",
				"option_c": "os", "option_d": "io", "correct_answer": "A", "points": 1, "order_index": 0,
			},
			{
				"question": "What does a handler return?", "option_a": "int", "option_b": "string",
				"option_c": "error", "option_d": "bool", "correct_answer": "C", "points": 3, "order_index": 1,
			},
		},
	})
	require.Equal(t, fiber.StatusOK, status)

	var quiz dto.QuizResponse
	require.NoError(t, json.Unmarshal(payload.Data, &quiz))
	require.Len(t, quiz.Questions, 2)
	quizID := strconv.FormatUint(uint64(quiz.ID), 10)

	// Student enrolls and works through the course.
	status, payload = doJSON(t, app, http.MethodPost, "/api/v1/courses/"+courseID+"/enroll", studentToken, nil)
	require.Equal(t, fiber.StatusCreated, status)

	var enrollment dto.EnrollmentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &enrollment))
	require.Equal(t, 0, enrollment.Progress)
	enrollmentID := strconv.FormatUint(uint64(enrollment.ID), 10)

	// Certificate is gated until the course is fully completed.
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/enrollments/"+enrollmentID+"/certificate", studentToken, nil)
	require.Equal(t, fiber.StatusBadRequest, status)

	lessonOneID := strconv.FormatUint(uint64(lessons[0].ID), 10)
	status, payload = doJSON(t, app, http.MethodPost, "/api/v1/lessons/"+lessonOneID+"/complete", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	var progress dto.ProgressResponse
	require.NoError(t, json.Unmarshal(payload.Data, &progress))
	require.Equal(t, 50, progress.Progress)

	answers := map[string]string{}
	for _, question := range quiz.Questions {
		answers[strconv.FormatUint(uint64(question.ID), 10)] = question.CorrectAnswer
	}
	status, payload = doJSON(t, app, http.MethodPost, "/api/v1/quizzes/"+quizID+"/submit", studentToken, map[string]interface{}{
		"answers": answers,
	})
	require.Equal(t, fiber.StatusOK, status)

	var result dto.QuizResultResponse
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.True(t, result.Passed)
	require.Equal(t, 4, result.Score)
	require.InDelta(t, 100.0, result.Percentage, 0.001)

	// A passed quiz completes its lesson, which finishes the course.
	status, payload = doJSON(t, app, http.MethodGet, "/api/v1/enrollments/"+enrollmentID+"/progress", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	var courseProgress dto.CourseProgressResponse
	require.NoError(t, json.Unmarshal(payload.Data, &courseProgress))
	require.Equal(t, 100, courseProgress.Enrollment.Progress)
	require.NotNil(t, courseProgress.Enrollment.CompletedAt)

	status, payload = doJSON(t, app, http.MethodGet, "/api/v1/enrollments/"+enrollmentID+"/certificate", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	var certificate dto.CertificateResponse
	require.NoError(t, json.Unmarshal(payload.Data, &certificate))
	require.True(t, strings.HasPrefix(certificate.Serial, "CERT-"))
	require.Contains(t, certificate.URL, certificate.Serial)
}

func TestStudentCannotTouchInstructorRoutes(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.Category{Name: "Design"}).Error)
	studentToken := registerAccount(t, app, "Student", "student2@kelasku.test", "")

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/instructor/courses", studentToken, map[string]interface{}{
		"title":       "Sneaky Course",
		"description": "Should never be created by a student.",
		"category_id": 1,
		"level":       "beginner",
	})
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/instructor/courses", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}
