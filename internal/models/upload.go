package models

import "time"

// UploadRecord tracks a stored asset: course thumbnails, lesson videos and
// assignment attachments all land here.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:1024;not null" json:"url"`
	MimeType  string    `gorm:"size:100;not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Checksum  string    `gorm:"size:64;index" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
