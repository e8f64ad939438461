package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

func TestStudentDashboardCountsEnrollments(t *testing.T) {
	db := openTestDB(t, "dashboard_student")
	course, lessons := seedCourse(t, db, 1)
	student := seedStudent(t, db)
	seedEnrollment(t, db, student.ID, course.ID)

	enrollments := repository.NewEnrollmentRepository(db)
	progress := NewProgressService(enrollments, NewEventPublisher(nil, "test", testLogger()), testLogger())
	svc := NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		nil,
		time.Minute,
		testLogger(),
	)
	ctx := context.Background()

	dashboard, err := svc.StudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.Stats.TotalEnrolled)
	assert.Equal(t, int64(0), dashboard.Stats.CompletedCourses)
	assert.Len(t, dashboard.RecentCourses, 1)

	_, err = progress.MarkLessonComplete(ctx, lessons[0].ID, student.ID)
	require.NoError(t, err)

	dashboard, err = svc.StudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dashboard.Stats.CompletedCourses)
}

func TestDashboardCachesThroughRedis(t *testing.T) {
	db := openTestDB(t, "dashboard_cache")
	course, _ := seedCourse(t, db, 1)
	student := seedStudent(t, db)
	seedEnrollment(t, db, student.ID, course.ID)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	svc := NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		cache,
		time.Minute,
		testLogger(),
	)
	ctx := context.Background()

	first, err := svc.StudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Stats.TotalEnrolled)

	// A new enrollment is invisible until the cached entry expires.
	other, _ := seedCourse(t, db, 1)
	seedEnrollment(t, db, student.ID, other.ID)

	cached, err := svc.StudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Stats.TotalEnrolled)

	mr.FastForward(2 * time.Minute)

	fresh, err := svc.StudentDashboard(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Stats.TotalEnrolled)
}

func TestAdminDashboardAggregatesPlatformCounts(t *testing.T) {
	db := openTestDB(t, "dashboard_admin")
	seedCourse(t, db, 1)
	seedCourse(t, db, 1)
	seedStudent(t, db)

	svc := NewDashboardService(
		repository.NewDashboardRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		nil,
		time.Minute,
		testLogger(),
	)

	dashboard, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), dashboard.TotalCourses)
	assert.Equal(t, int64(2), dashboard.TotalInstructors)
	assert.Equal(t, int64(1), dashboard.TotalStudents)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(3), users)
}
