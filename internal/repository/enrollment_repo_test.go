package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

func openRepoDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.LessonCompletion{},
	))

	return db
}

func seedLearningGraph(t *testing.T, db *gorm.DB, lessonCount int) (models.Course, []models.Lesson, models.Enrollment) {
	t.Helper()

	instructor := models.User{Name: "Instructor", Email: "instructor@repo.local", Password: "x", Role: models.RoleInstructor}
	require.NoError(t, db.Create(&instructor).Error)
	student := models.User{Name: "Student", Email: "student@repo.local", Password: "x"}
	require.NoError(t, db.Create(&student).Error)

	course := models.Course{InstructorID: instructor.ID, Title: "Repo Course", Slug: "repo-course", Status: models.CourseStatusPublished}
	require.NoError(t, db.Create(&course).Error)
	section := models.Section{CourseID: course.ID, Title: "Only Section"}
	require.NoError(t, db.Create(&section).Error)

	lessons := make([]models.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lesson := models.Lesson{SectionID: section.ID, Title: fmt.Sprintf("L%d", i+1), ContentType: models.LessonTypeText, OrderIndex: i}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}

	enrollment := models.Enrollment{StudentID: student.ID, CourseID: course.ID}
	require.NoError(t, db.Create(&enrollment).Error)

	return course, lessons, enrollment
}

func TestUpsertCompletionIsIdempotent(t *testing.T) {
	db := openRepoDB(t, "repo_upsert")
	_, lessons, enrollment := seedLearningGraph(t, db, 2)

	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertCompletion(ctx, enrollment.ID, lessons[0].ID, first))

	count, err := repo.CountCompleted(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A repeat refreshes the timestamp without adding a row.
	second := first.Add(time.Hour)
	require.NoError(t, repo.UpsertCompletion(ctx, enrollment.ID, lessons[0].ID, second))

	count, err = repo.CountCompleted(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	completions, err := repo.ListCompletions(ctx, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	require.NotNil(t, completions[0].CompletedAt)
	assert.True(t, completions[0].CompletedAt.Equal(second))
}

func TestCountCourseLessonsIsLive(t *testing.T) {
	db := openRepoDB(t, "repo_live_count")
	course, lessons, _ := seedLearningGraph(t, db, 2)

	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	count, err := repo.CountCourseLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	extra := models.Lesson{SectionID: lessons[0].SectionID, Title: "Late Addition", ContentType: models.LessonTypeText, OrderIndex: 2}
	require.NoError(t, db.Create(&extra).Error)

	count, err = repo.CountCourseLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestResolveByLessonWalksTheCurriculum(t *testing.T) {
	db := openRepoDB(t, "repo_resolve")
	_, lessons, enrollment := seedLearningGraph(t, db, 1)

	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	resolved, err := repo.ResolveByLesson(ctx, lessons[0].ID, enrollment.StudentID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, resolved.ID)

	_, err = repo.ResolveByLesson(ctx, lessons[0].ID, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.ResolveByLesson(ctx, 9999, enrollment.StudentID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInTransactionRollsBackOnError(t *testing.T) {
	db := openRepoDB(t, "repo_txn")
	_, lessons, enrollment := seedLearningGraph(t, db, 1)

	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	sentinel := fmt.Errorf("boom")
	err := repo.InTransaction(ctx, func(txRepo EnrollmentRepository) error {
		if err := txRepo.UpsertCompletion(ctx, enrollment.ID, lessons[0].ID, time.Now()); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	count, err := repo.CountCompleted(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
