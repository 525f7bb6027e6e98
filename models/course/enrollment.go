package course

import (
	"time"

	"gorm.io/gorm"
)

// EnrollmentStatus enum values
const (
	EnrollmentEnrolled   = "ENROLLED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
	EnrollmentRevoked    = "REVOKED" // access pulled back after a full refund
)

// Enrollment tracks a user's enrollment in a course with progress
type Enrollment struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"index;not null;uniqueIndex:uq_user_course"`
	CourseID       uint       `json:"course_id" gorm:"index;not null;uniqueIndex:uq_user_course"`
	Status         string     `json:"status" gorm:"default:'ENROLLED'"`
	Progress       float64    `json:"progress" gorm:"default:0"` // completion percentage (0-100)
	ContentVersion int        `json:"content_version" gorm:"default:1"` // course version locked at enroll time
	TimeSpentMin   int        `json:"time_spent_min" gorm:"default:0"`
	CompletedAt    *time.Time `json:"completed_at"`
	IsDeleted      bool       `gorm:"default:false"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
