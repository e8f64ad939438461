package models

import "time"

// Course publication statuses.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

// Course difficulty levels.
const (
	CourseLevelBeginner     = "beginner"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"
)

// Course is the top-level catalog entity owned by an instructor.
//
// TotalLessons, TotalDuration, TotalEnrollments and AverageRating are
// denormalized caches recomputed from child rows by
// CourseRepository.RefreshAggregates after any structural or review mutation.
// They are never authoritative; progress calculations always count lessons
// live instead of trusting TotalLessons.
type Course struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	InstructorID     uint      `gorm:"not null;index" json:"instructor_id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Slug             string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description      string    `gorm:"type:text" json:"description"`
	CategoryID       *uint     `gorm:"index" json:"category_id"`
	Level            string    `gorm:"size:20" json:"level"`
	Price            float64   `gorm:"type:decimal(10,2);default:0" json:"price"`
	Thumbnail        string    `gorm:"size:512" json:"thumbnail"`
	Status           string    `gorm:"size:20;not null;default:draft" json:"status"`
	TotalLessons     int       `gorm:"not null;default:0" json:"total_lessons"`
	TotalDuration    int       `gorm:"not null;default:0" json:"total_duration"`
	TotalEnrollments int       `gorm:"not null;default:0" json:"total_enrollments"`
	AverageRating    float64   `gorm:"type:decimal(3,2);default:0" json:"average_rating"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Instructor User      `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Sections   []Section `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

// IsPublished reports whether the course is visible in the public catalog.
func (c Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}
