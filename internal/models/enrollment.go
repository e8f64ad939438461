package models

import "time"

// Enrollment records a student's registration in a course together with the
// derived completion percentage. Progress is written exclusively by the
// progress service; CompletedAt is set exactly when progress reaches 100 and
// cleared again if the live lesson count grows afterwards.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID    uint       `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"course_id"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	EnrolledAt  time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// IsCompleted reports whether the student currently qualifies for a
// certificate.
func (e Enrollment) IsCompleted() bool {
	return e.Progress == 100
}

// LessonCompletion is the per-(enrollment, lesson) completion flag. Rows only
// ever transition to completed=true; marking an already completed lesson
// refreshes CompletedAt and is not an error.
type LessonCompletion struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	EnrollmentID uint       `gorm:"not null;uniqueIndex:idx_completion_enrollment_lesson" json:"enrollment_id"`
	LessonID     uint       `gorm:"not null;uniqueIndex:idx_completion_enrollment_lesson" json:"lesson_id"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt  *time.Time `json:"completed_at"`

	Enrollment Enrollment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Lesson     Lesson     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
