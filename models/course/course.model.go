package course

import (
	"time"

	"gorm.io/gorm"
)

// CourseStatus enum values
const (
	StatusDraft       = "DRAFT"
	StatusPublished   = "PUBLISHED"
	StatusUnpublished = "UNPUBLISHED"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	OwnerID      uint       `json:"owner_id" gorm:"index;not null"` // teacher who created it
	Price        float64    `json:"price" gorm:"default:0"`
	Duration     int64      `json:"duration" gorm:"default:0"` // duration in hours
	Status       string     `json:"status" gorm:"default:'DRAFT'"`
	Rating       uint       `json:"rating" gorm:"default:0"`
	ThumbnailURL string     `json:"thumbnail_url"`
	PublishedAt  *time.Time `json:"published_at"`

	// Bumped on every content update; enrollments keep the version they
	// started with so published edits never change a learner's snapshot.
	ContentVersion int  `json:"content_version" gorm:"default:1"`
	IsDeleted      bool `gorm:"default:false"`
}

// Lesson represents a single lesson within a course
type Lesson struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	DurationMin int    `json:"duration_min" gorm:"default:0"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // lesson order in course
	IsFreeTrial bool   `json:"is_free_trial" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
