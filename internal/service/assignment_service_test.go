package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

type assignmentFixture struct {
	db         *gorm.DB
	svc        AssignmentService
	course     models.Course
	lessons    []models.Lesson
	student    models.User
	enrollment models.Enrollment
	assignment models.Assignment
}

func newAssignmentFixture(t *testing.T, dbName string) *assignmentFixture {
	t.Helper()

	db := openTestDB(t, dbName)
	course, lessons := seedCourse(t, db, 2)
	student := seedStudent(t, db)
	enrollment := seedEnrollment(t, db, student.ID, course.ID)

	assignment := models.Assignment{LessonID: lessons[0].ID, Title: "Essay", MaxScore: 100}
	require.NoError(t, db.Create(&assignment).Error)

	enrollments := repository.NewEnrollmentRepository(db)
	events := NewEventPublisher(nil, "test", testLogger())
	progress := NewProgressService(enrollments, events, testLogger())
	svc := NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewCurriculumRepository(db),
		enrollments,
		progress,
		events,
		testValidator(),
		testLogger(),
	)

	return &assignmentFixture{
		db:         db,
		svc:        svc,
		course:     course,
		lessons:    lessons,
		student:    student,
		enrollment: enrollment,
		assignment: assignment,
	}
}

func TestSubmitWorkRejectsEmptySubmissions(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_empty")

	_, err := f.svc.SubmitWork(context.Background(), f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{})
	assert.ErrorIs(t, err, ErrSubmissionEmpty)
}

func TestSubmitWorkRequiresEnrollment(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_not_enrolled")

	stranger := seedStudent(t, f.db)
	_, err := f.svc.SubmitWork(context.Background(), f.assignment.ID, stranger.ID, dto.SubmissionCreateRequest{
		Content: "my work",
	})
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestResubmitKeepsPreviousGradeUntilRegraded(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_resubmit")
	ctx := context.Background()

	first, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "first draft",
	})
	require.NoError(t, err)
	require.Nil(t, first.Grade)

	grade := 80
	graded, err := f.svc.Grade(ctx, first.ID, dto.GradeRequest{Grade: &grade, Feedback: "solid"}, Actor{
		ID:   f.course.InstructorID,
		Role: models.RoleInstructor,
	})
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 80, *graded.Grade)

	second, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "second draft",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "second draft", second.Content)
	require.NotNil(t, second.Grade)
	assert.Equal(t, 80, *second.Grade)
	assert.Equal(t, "solid", second.Feedback)
}

func TestGradeRejectsScoresAboveMax(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_grade_range")
	ctx := context.Background()

	submission, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "draft",
	})
	require.NoError(t, err)

	tooHigh := 150
	_, err = f.svc.Grade(ctx, submission.ID, dto.GradeRequest{Grade: &tooHigh}, Actor{
		ID:   f.course.InstructorID,
		Role: models.RoleInstructor,
	})
	assert.ErrorIs(t, err, ErrGradeOutOfRange)

	var stored models.AssignmentSubmission
	require.NoError(t, f.db.First(&stored, submission.ID).Error)
	assert.Nil(t, stored.Grade)
}

func TestGradeRequiresCourseOwnership(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_grade_authz")
	ctx := context.Background()

	submission, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "draft",
	})
	require.NoError(t, err)

	intruder := seedStudent(t, f.db)
	grade := 60
	_, err = f.svc.Grade(ctx, submission.ID, dto.GradeRequest{Grade: &grade}, Actor{
		ID:   intruder.ID,
		Role: models.RoleInstructor,
	})
	assert.ErrorIs(t, err, ErrNotCourseOwner)

	var stored models.AssignmentSubmission
	require.NoError(t, f.db.First(&stored, submission.ID).Error)
	assert.Nil(t, stored.Grade)

	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, f.enrollment.ID).Error)
	assert.Equal(t, 0, enrollment.Progress)
}

func TestGradeCompletesLessonAndRecalculatesProgress(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_grade_completes")
	ctx := context.Background()

	submission, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "final draft",
	})
	require.NoError(t, err)

	grade := 95
	graded, err := f.svc.Grade(ctx, submission.ID, dto.GradeRequest{Grade: &grade, Feedback: "great"}, Actor{
		ID:   f.course.InstructorID,
		Role: models.RoleInstructor,
	})
	require.NoError(t, err)
	require.NotNil(t, graded.GradedBy)
	assert.Equal(t, f.course.InstructorID, *graded.GradedBy)
	require.NotNil(t, graded.GradedAt)

	// One of two lessons done through grading.
	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, f.enrollment.ID).Error)
	assert.Equal(t, 50, enrollment.Progress)

	var completions int64
	require.NoError(t, f.db.Model(&models.LessonCompletion{}).
		Where("enrollment_id = ? AND lesson_id = ?", f.enrollment.ID, f.lessons[0].ID).
		Count(&completions).Error)
	assert.Equal(t, int64(1), completions)
}

func TestListSubmissionsAdminBypassesOwnership(t *testing.T) {
	f := newAssignmentFixture(t, "assignment_list_admin")
	ctx := context.Background()

	_, err := f.svc.SubmitWork(ctx, f.assignment.ID, f.student.ID, dto.SubmissionCreateRequest{
		Content: "draft",
	})
	require.NoError(t, err)

	submissions, err := f.svc.ListSubmissions(ctx, f.assignment.ID, Actor{ID: 9999, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, submissions, 1)

	_, err = f.svc.ListSubmissions(ctx, f.assignment.ID, Actor{ID: 9999, Role: models.RoleInstructor})
	assert.ErrorIs(t, err, ErrNotCourseOwner)
}
