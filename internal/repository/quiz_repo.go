package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// QuizRepository defines persistence operations for quizzes, questions and
// attempts. Attempts are append-only.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	GetByLesson(ctx context.Context, lessonID uint) (models.Quiz, error)
	Replace(ctx context.Context, quiz *models.Quiz, questions []models.QuizQuestion) error
	Questions(ctx context.Context, quizID uint) ([]models.QuizQuestion, error)

	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	ListAttempts(ctx context.Context, quizID, studentID uint) ([]models.QuizAttempt, error)
	ListAttemptsByStudent(ctx context.Context, studentID uint) ([]models.QuizAttempt, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates a GORM-backed repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order_index ASC")
		}).
		First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) GetByLesson(ctx context.Context, lessonID uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order_index ASC")
		}).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

// Replace upserts the quiz settings for a lesson and swaps the question set
// in one transaction, mirroring how instructors edit a quiz as a whole.
func (r *quizRepository) Replace(ctx context.Context, quiz *models.Quiz, questions []models.QuizQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Quiz
		err := tx.Where("lesson_id = ?", quiz.LessonID).First(&existing).Error
		switch {
		case err == nil:
			existing.Title = quiz.Title
			existing.PassingScore = quiz.PassingScore
			existing.TimeLimit = quiz.TimeLimit
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", existing.ID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
			*quiz = existing
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(quiz).Error; err != nil {
				return err
			}
		default:
			return err
		}

		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *quizRepository) Questions(ctx context.Context, quizID uint) ([]models.QuizQuestion, error) {
	var questions []models.QuizQuestion
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *quizRepository) ListAttempts(ctx context.Context, quizID, studentID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Joins("JOIN enrollments ON enrollments.id = quiz_attempts.enrollment_id").
		Where("quiz_attempts.quiz_id = ?", quizID).
		Where("enrollments.student_id = ?", studentID).
		Order("quiz_attempts.completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *quizRepository) ListAttemptsByStudent(ctx context.Context, studentID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Preload("Quiz").
		Joins("JOIN enrollments ON enrollments.id = quiz_attempts.enrollment_id").
		Where("enrollments.student_id = ?", studentID).
		Order("quiz_attempts.completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}
