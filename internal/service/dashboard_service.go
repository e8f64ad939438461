package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// DashboardService produces aggregated dashboard views for each role,
// fronted by a short-lived Redis cache.
type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	InstructorDashboard(ctx context.Context, instructorID uint) (dto.InstructorDashboardResponse, error)
	AdminDashboard(ctx context.Context) (dto.AdminDashboardResponse, error)
}

type dashboardService struct {
	dashboards repository.DashboardRepository
	courses    repository.CourseRepository
	users      repository.UserRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator. A nil cache disables
// caching entirely.
func NewDashboardService(
	dashboards repository.DashboardRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		dashboards: dashboards,
		courses:    courses,
		users:      users,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	var cached dto.StudentDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	stats, err := s.dashboards.StudentStats(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	recent, err := s.dashboards.RecentEnrollments(ctx, studentID, 5)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := dto.StudentDashboardResponse{
		Stats:         stats,
		RecentCourses: dto.NewRecentCourses(recent),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) InstructorDashboard(ctx context.Context, instructorID uint) (dto.InstructorDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:instructor:%d", instructorID)

	var cached dto.InstructorDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	stats, err := s.dashboards.InstructorStats(ctx, instructorID)
	if err != nil {
		return dto.InstructorDashboardResponse{}, err
	}

	top, err := s.courses.TopByEnrollments(ctx, instructorID, 5)
	if err != nil {
		return dto.InstructorDashboardResponse{}, err
	}

	response := dto.InstructorDashboardResponse{
		Stats:      stats,
		TopCourses: dto.NewTopCourses(top),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) AdminDashboard(ctx context.Context) (dto.AdminDashboardResponse, error) {
	cacheKey := "dashboard:admin"

	var cached dto.AdminDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	students, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}
	instructors, err := s.users.CountByRole(ctx, models.RoleInstructor)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}
	courses, err := s.courses.Count(ctx)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	response := dto.AdminDashboardResponse{
		TotalStudents:    students,
		TotalInstructors: instructors,
		TotalCourses:     courses,
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		return false
	}

	s.logger.Debug().Str("key", key).Msg("dashboard cache hit")
	return true
}

func (s *dashboardService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store dashboard cache")
	}
}
