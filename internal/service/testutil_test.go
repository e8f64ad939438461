package service

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// openTestDB opens a named in-memory sqlite database. Each test uses its own
// name so state never leaks between tests running in the same process.
func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
		&models.UploadRecord{},
	))

	return db
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

var seedSequence atomic.Uint64

// seedCourse creates an instructor, a published course and one section with
// the requested number of lessons.
func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) (models.Course, []models.Lesson) {
	t.Helper()

	seq := seedSequence.Add(1)
	instructor := models.User{Name: "Instructor", Email: fmt.Sprintf("instructor-%d@test.local", seq), Password: "x", Role: models.RoleInstructor}
	require.NoError(t, db.Create(&instructor).Error)

	course := models.Course{
		InstructorID: instructor.ID,
		Title:        "Test Course",
		Slug:         fmt.Sprintf("test-course-%d", seq),
		Status:       models.CourseStatusPublished,
		Level:        models.CourseLevelBeginner,
	}
	require.NoError(t, db.Create(&course).Error)

	section := models.Section{CourseID: course.ID, Title: "Section 1"}
	require.NoError(t, db.Create(&section).Error)

	lessons := make([]models.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lesson := models.Lesson{
			SectionID:   section.ID,
			Title:       fmt.Sprintf("Lesson %d", i+1),
			ContentType: models.LessonTypeText,
			OrderIndex:  i,
		}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}

	return course, lessons
}

func seedStudent(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	student := models.User{Name: "Student", Email: fmt.Sprintf("student-%d@test.local", seedSequence.Add(1)), Password: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	return student
}

func seedEnrollment(t *testing.T, db *gorm.DB, studentID, courseID uint) models.Enrollment {
	t.Helper()

	enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID}
	require.NoError(t, db.Create(&enrollment).Error)

	return enrollment
}
