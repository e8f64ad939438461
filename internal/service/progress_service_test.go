package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

func newProgressFixture(t *testing.T, dbName string, lessonCount int) (ProgressService, *progressTestDeps) {
	t.Helper()

	db := openTestDB(t, dbName)
	course, lessons := seedCourse(t, db, lessonCount)
	student := seedStudent(t, db)
	enrollment := seedEnrollment(t, db, student.ID, course.ID)

	enrollments := repository.NewEnrollmentRepository(db)
	svc := NewProgressService(enrollments, NewEventPublisher(nil, "test", testLogger()), testLogger())

	return svc, &progressTestDeps{
		db:         db,
		course:     course,
		lessons:    lessons,
		student:    student,
		enrollment: enrollment,
	}
}

type progressTestDeps struct {
	db         *gorm.DB
	course     models.Course
	lessons    []models.Lesson
	student    models.User
	enrollment models.Enrollment
}

func TestRoundPercent(t *testing.T) {
	cases := []struct {
		completed int64
		total     int64
		want      int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 2, 50},
		{1, 6, 17},
		{5, 6, 83},
		{1, 8, 13},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, roundPercent(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestMarkLessonCompleteRoundsAgainstLiveLessonCount(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_rounding", 3)
	ctx := context.Background()

	response, err := svc.MarkLessonComplete(ctx, deps.lessons[0].ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, response.Progress)
	assert.Nil(t, response.Enrollment.CompletedAt)

	response, err = svc.MarkLessonComplete(ctx, deps.lessons[1].ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, response.Progress)

	response, err = svc.MarkLessonComplete(ctx, deps.lessons[2].ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, response.Progress)
	assert.NotNil(t, response.Enrollment.CompletedAt)
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_idempotent", 2)
	ctx := context.Background()

	first, err := svc.MarkLessonComplete(ctx, deps.lessons[0].ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Progress)

	second, err := svc.MarkLessonComplete(ctx, deps.lessons[0].ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, second.Progress)

	var rows int64
	require.NoError(t, deps.db.Model(&models.LessonCompletion{}).
		Where("enrollment_id = ?", deps.enrollment.ID).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestMarkLessonCompleteRequiresEnrollment(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_no_enrollment", 2)

	stranger := seedStudent(t, deps.db)

	_, err := svc.MarkLessonComplete(context.Background(), deps.lessons[0].ID, stranger.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestRecalculateRevokesCompletionWhenLessonAdded(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_lesson_added", 4)
	ctx := context.Background()

	for _, lesson := range deps.lessons {
		_, err := svc.MarkLessonComplete(ctx, lesson.ID, deps.student.ID)
		require.NoError(t, err)
	}

	var enrollment models.Enrollment
	require.NoError(t, deps.db.First(&enrollment, deps.enrollment.ID).Error)
	require.Equal(t, 100, enrollment.Progress)
	require.NotNil(t, enrollment.CompletedAt)

	extra := models.Lesson{
		SectionID:   deps.lessons[0].SectionID,
		Title:       "Bonus Lesson",
		ContentType: models.LessonTypeText,
		OrderIndex:  len(deps.lessons),
	}
	require.NoError(t, deps.db.Create(&extra).Error)

	updated, err := svc.Recalculate(ctx, deps.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, updated.Progress)
	assert.Nil(t, updated.CompletedAt)

	var refreshed models.Enrollment
	require.NoError(t, deps.db.First(&refreshed, deps.enrollment.ID).Error)
	assert.Equal(t, 80, refreshed.Progress)
	assert.Nil(t, refreshed.CompletedAt)
}

func TestRecalculateWithZeroLessons(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_zero_lessons", 0)

	updated, err := svc.Recalculate(context.Background(), deps.enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Progress)
	assert.Nil(t, updated.CompletedAt)
}

func TestGetCourseProgressHidesForeignEnrollments(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_ownership", 2)
	ctx := context.Background()

	_, err := svc.MarkLessonComplete(ctx, deps.lessons[0].ID, deps.student.ID)
	require.NoError(t, err)

	response, err := svc.GetCourseProgress(ctx, deps.enrollment.ID, deps.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, response.Enrollment.Progress)
	assert.Len(t, response.LessonCompletion, 1)

	stranger := seedStudent(t, deps.db)
	_, err = svc.GetCourseProgress(ctx, deps.enrollment.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestCompleteLessonStampsCompletionTime(t *testing.T) {
	svc, deps := newProgressFixture(t, "progress_timestamp", 1)

	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.(*progressService).now = func() time.Time { return fixed }

	updated, err := svc.CompleteLesson(context.Background(), deps.enrollment.ID, deps.lessons[0].ID)
	require.NoError(t, err)
	require.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.CompletedAt.Equal(fixed))
}
