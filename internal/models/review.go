package models

import "time"

// Review is a student rating for a course. One review per (course, student);
// rating changes feed the course's denormalized average through the aggregate
// refresh.
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CourseID     uint      `gorm:"not null;uniqueIndex:idx_review_course_student" json:"course_id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_review_course_student" json:"student_id"`
	Rating       int       `gorm:"not null" json:"rating"`
	Review       string    `gorm:"type:text" json:"review"`
	HelpfulCount int       `gorm:"not null;default:0" json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Course  Course `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Student User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}
