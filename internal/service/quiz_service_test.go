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

type quizFixture struct {
	db         *gorm.DB
	svc        QuizService
	progress   ProgressService
	course     models.Course
	lessons    []models.Lesson
	student    models.User
	enrollment models.Enrollment
	quiz       models.Quiz
	questions  []models.QuizQuestion
}

// newQuizFixture builds a two-lesson course with a quiz on the second
// lesson: a 1-point and a 3-point question.
func newQuizFixture(t *testing.T, dbName string) *quizFixture {
	t.Helper()

	db := openTestDB(t, dbName)
	course, lessons := seedCourse(t, db, 2)
	student := seedStudent(t, db)
	enrollment := seedEnrollment(t, db, student.ID, course.ID)

	quiz := models.Quiz{LessonID: lessons[1].ID, Title: "Checkpoint", PassingScore: 70}
	require.NoError(t, db.Create(&quiz).Error)

	questions := []models.QuizQuestion{
		{QuizID: quiz.ID, Question: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "A", Points: 1, OrderIndex: 0},
		{QuizID: quiz.ID, Question: "Q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "C", Points: 3, OrderIndex: 1},
	}
	require.NoError(t, db.Create(&questions).Error)

	enrollments := repository.NewEnrollmentRepository(db)
	events := NewEventPublisher(nil, "test", testLogger())
	progress := NewProgressService(enrollments, events, testLogger())
	svc := NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewCurriculumRepository(db),
		enrollments,
		progress,
		events,
		testValidator(),
		testLogger(),
	)

	return &quizFixture{
		db:         db,
		svc:        svc,
		progress:   progress,
		course:     course,
		lessons:    lessons,
		student:    student,
		enrollment: enrollment,
		quiz:       quiz,
		questions:  questions,
	}
}

func TestSubmitFullMarksPassesAndCompletesLesson(t *testing.T) {
	f := newQuizFixture(t, "quiz_full_marks")
	ctx := context.Background()

	result, err := f.svc.Submit(ctx, f.quiz.ID, f.student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{
			f.questions[0].ID: "A",
			f.questions[1].ID: "C",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Score)
	assert.Equal(t, 4, result.TotalPoints)
	assert.InDelta(t, 100.0, result.Percentage, 0.001)
	assert.True(t, result.Passed)

	// Passing completes the quiz's lesson: one of two lessons done.
	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, f.enrollment.ID).Error)
	assert.Equal(t, 50, enrollment.Progress)

	var completions int64
	require.NoError(t, f.db.Model(&models.LessonCompletion{}).
		Where("enrollment_id = ? AND lesson_id = ?", f.enrollment.ID, f.lessons[1].ID).
		Count(&completions).Error)
	assert.Equal(t, int64(1), completions)
}

func TestSubmitPartialAnswersFailBelowThreshold(t *testing.T) {
	f := newQuizFixture(t, "quiz_partial")
	ctx := context.Background()

	// Only the 1-point question is correct; the 3-point one is unanswered.
	result, err := f.svc.Submit(ctx, f.quiz.ID, f.student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{f.questions[0].ID: "A"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 4, result.TotalPoints)
	assert.InDelta(t, 25.0, result.Percentage, 0.001)
	assert.False(t, result.Passed)

	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, f.enrollment.ID).Error)
	assert.Equal(t, 0, enrollment.Progress)
}

func TestSubmitPassesExactlyAtThreshold(t *testing.T) {
	db := openTestDB(t, "quiz_threshold")
	course, lessons := seedCourse(t, db, 1)
	student := seedStudent(t, db)
	seedEnrollment(t, db, student.ID, course.ID)

	quiz := models.Quiz{LessonID: lessons[0].ID, Title: "Boundary", PassingScore: 70}
	require.NoError(t, db.Create(&quiz).Error)
	questions := []models.QuizQuestion{
		{QuizID: quiz.ID, Question: "Q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "B", Points: 7},
		{QuizID: quiz.ID, Question: "Q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "D", Points: 3},
	}
	require.NoError(t, db.Create(&questions).Error)

	enrollments := repository.NewEnrollmentRepository(db)
	events := NewEventPublisher(nil, "test", testLogger())
	svc := NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewCurriculumRepository(db),
		enrollments,
		NewProgressService(enrollments, events, testLogger()),
		events,
		testValidator(),
		testLogger(),
	)

	result, err := svc.Submit(context.Background(), quiz.ID, student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{questions[0].ID: "B", questions[1].ID: "A"},
	})
	require.NoError(t, err)

	assert.InDelta(t, 70.0, result.Percentage, 0.001)
	assert.True(t, result.Passed)
}

func TestSubmitRejectsNonEnrolledStudents(t *testing.T) {
	f := newQuizFixture(t, "quiz_not_enrolled")

	stranger := seedStudent(t, f.db)

	_, err := f.svc.Submit(context.Background(), f.quiz.ID, stranger.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{f.questions[0].ID: "A"},
	})
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)

	var attempts int64
	require.NoError(t, f.db.Model(&models.QuizAttempt{}).Count(&attempts).Error)
	assert.Equal(t, int64(0), attempts)
}

func TestSubmitUnknownQuiz(t *testing.T) {
	f := newQuizFixture(t, "quiz_unknown")

	_, err := f.svc.Submit(context.Background(), 9999, f.student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{1: "A"},
	})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestSubmitKeepsFullAttemptHistory(t *testing.T) {
	f := newQuizFixture(t, "quiz_history")
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.quiz.ID, f.student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{f.questions[0].ID: "B"},
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.quiz.ID, f.student.ID, dto.QuizSubmitRequest{
		Answers: map[uint]string{f.questions[0].ID: "A", f.questions[1].ID: "C"},
	})
	require.NoError(t, err)

	attempts, err := f.svc.Results(ctx, f.quiz.ID, f.student.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.NotEqual(t, attempts[0].Passed, attempts[1].Passed)
}

func TestQuestionsForAttemptHideAnswers(t *testing.T) {
	f := newQuizFixture(t, "quiz_hidden_answers")

	questions, err := f.svc.QuestionsForAttempt(context.Background(), f.quiz.ID, f.student.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, f.questions[0].ID, questions[0].ID)
}

func TestCreateOrReplaceRequiresCourseOwnership(t *testing.T) {
	f := newQuizFixture(t, "quiz_ownership")

	payload := dto.QuizUpsertRequest{
		Title:        "Rewritten Quiz",
		PassingScore: 60,
		Questions: []dto.QuizQuestionRequest{
			{Question: "New?", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "B", Points: 2},
		},
	}

	intruder := seedStudent(t, f.db)
	_, err := f.svc.CreateOrReplace(context.Background(), f.lessons[1].ID, payload, Actor{ID: intruder.ID, Role: models.RoleInstructor})
	assert.ErrorIs(t, err, ErrNotCourseOwner)

	owner := Actor{ID: f.course.InstructorID, Role: models.RoleInstructor}
	quiz, err := f.svc.CreateOrReplace(context.Background(), f.lessons[1].ID, payload, owner)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "Rewritten Quiz", quiz.Title)
	assert.Equal(t, 60, quiz.PassingScore)
}
