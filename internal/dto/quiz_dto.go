package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// QuizQuestionRequest is one question inside a quiz upsert.
type QuizQuestionRequest struct {
	Question      string `json:"question" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=A B C D"`
	Points        int    `json:"points" validate:"omitempty,gte=1"`
	OrderIndex    int    `json:"order_index" validate:"gte=0"`
}

// QuizUpsertRequest creates or fully replaces the quiz attached to a lesson.
type QuizUpsertRequest struct {
	Title        string                `json:"title" validate:"required,min=2,max=255"`
	PassingScore int                   `json:"passing_score" validate:"gte=0,lte=100"`
	TimeLimit    int                   `json:"time_limit" validate:"gte=0"`
	Questions    []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizSubmitRequest carries the answer map for scoring. Keys are question
// IDs, values a single letter A-D. Unanswered questions are simply absent.
type QuizSubmitRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}

// QuizQuestionResponse is the full question representation, answer included,
// for instructors editing the quiz.
type QuizQuestionResponse struct {
	ID            uint   `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"correct_answer"`
	Points        int    `json:"points"`
	OrderIndex    int    `json:"order_index"`
}

// AttemptQuestionResponse hides the correct answer for students taking the
// quiz.
type AttemptQuestionResponse struct {
	ID       uint   `json:"id"`
	Question string `json:"question"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
}

// QuizResponse is the serialized quiz with its questions.
type QuizResponse struct {
	ID           uint                   `json:"id"`
	LessonID     uint                   `json:"lesson_id"`
	Title        string                 `json:"title"`
	PassingScore int                    `json:"passing_score"`
	TimeLimit    int                    `json:"time_limit"`
	Questions    []QuizQuestionResponse `json:"questions"`
}

// QuizAttemptResponse is one scored attempt.
type QuizAttemptResponse struct {
	ID          uint      `json:"id"`
	QuizID      uint      `json:"quiz_id"`
	Score       int       `json:"score"`
	TotalPoints int       `json:"total_points"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	CompletedAt time.Time `json:"completed_at"`
}

// QuizResultResponse is returned right after scoring a submission.
type QuizResultResponse struct {
	Score       int                 `json:"score"`
	TotalPoints int                 `json:"total_points"`
	Percentage  float64             `json:"percentage"`
	Passed      bool                `json:"passed"`
	Attempt     QuizAttemptResponse `json:"attempt"`
}

// QuizHistoryEntry is one row of a student's cross-course attempt history.
type QuizHistoryEntry struct {
	QuizAttemptResponse
	QuizTitle string `json:"quiz_title"`
}

// NewQuizResponse converts a model into a DTO, answers included.
func NewQuizResponse(quiz models.Quiz) QuizResponse {
	questions := make([]QuizQuestionResponse, 0, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions = append(questions, QuizQuestionResponse{
			ID:            question.ID,
			Question:      question.Question,
			OptionA:       question.OptionA,
			OptionB:       question.OptionB,
			OptionC:       question.OptionC,
			OptionD:       question.OptionD,
			CorrectAnswer: question.CorrectAnswer,
			Points:        question.Points,
			OrderIndex:    question.OrderIndex,
		})
	}

	return QuizResponse{
		ID:           quiz.ID,
		LessonID:     quiz.LessonID,
		Title:        quiz.Title,
		PassingScore: quiz.PassingScore,
		TimeLimit:    quiz.TimeLimit,
		Questions:    questions,
	}
}

// NewAttemptQuestionResponses strips correct answers for an attempt.
func NewAttemptQuestionResponses(questions []models.QuizQuestion) []AttemptQuestionResponse {
	responses := make([]AttemptQuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, AttemptQuestionResponse{
			ID:       question.ID,
			Question: question.Question,
			OptionA:  question.OptionA,
			OptionB:  question.OptionB,
			OptionC:  question.OptionC,
			OptionD:  question.OptionD,
		})
	}

	return responses
}

// NewQuizAttemptResponse converts a model into a DTO.
func NewQuizAttemptResponse(attempt models.QuizAttempt) QuizAttemptResponse {
	return QuizAttemptResponse{
		ID:          attempt.ID,
		QuizID:      attempt.QuizID,
		Score:       attempt.Score,
		TotalPoints: attempt.TotalPoints,
		Percentage:  attempt.Percentage,
		Passed:      attempt.Passed,
		CompletedAt: attempt.CompletedAt,
	}
}

// NewQuizAttemptResponseSlice converts attempts into DTOs.
func NewQuizAttemptResponseSlice(attempts []models.QuizAttempt) []QuizAttemptResponse {
	responses := make([]QuizAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, NewQuizAttemptResponse(attempt))
	}

	return responses
}
