package models

import "time"

// Assignment is graded work attached to exactly one lesson.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LessonID    uint      `gorm:"not null;index" json:"lesson_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxScore    int       `gorm:"not null;default:100" json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`

	Lesson Lesson `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return !a.DueDate.IsZero() && reference.After(a.DueDate)
}

// AssignmentSubmission is the single submission a student holds per
// assignment. Resubmitting overwrites Content/FileURL and resets SubmittedAt
// but leaves a previously issued grade in place until the instructor grades
// again.
type AssignmentSubmission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	SubmittedAt  time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	Grade        *int       `json:"grade"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	GradedBy     *uint      `json:"graded_by"`
	GradedAt     *time.Time `json:"graded_at"`

	Assignment Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment,omitempty"`
	Student    User       `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// IsGraded reports whether the submission carries an instructor grade.
func (s AssignmentSubmission) IsGraded() bool {
	return s.Grade != nil
}
