package membership

import (
	"time"

	"gorm.io/gorm"
)

// MembershipStatus enum values
const (
	StatusActive    = "ACTIVE"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// MembershipLevel is an admin-defined tier users can purchase
type MembershipLevel struct {
	gorm.Model
	Name         string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Price        float64 `gorm:"not null" json:"price"`
	DurationDays int     `gorm:"not null" json:"durationDays"`
	SortOrder    int     `gorm:"default:0" json:"sortOrder"`
	IsActive     bool    `gorm:"default:true" json:"isActive"`
	IsDeleted    bool    `gorm:"default:false" json:"isDeleted"`
}

// Membership tracks a user's purchased membership period
type Membership struct {
	gorm.Model
	UserID  uint `gorm:"not null;index" json:"userId"`
	LevelID uint `gorm:"not null" json:"levelId"`

	StartAt time.Time `gorm:"not null" json:"startAt"`
	EndAt   time.Time `gorm:"not null" json:"endAt"`

	Status       string `gorm:"type:varchar(20);default:'ACTIVE';index" json:"status"`
	AutoRenew    bool   `gorm:"default:true" json:"autoRenew"`
	RenewCount   int    `gorm:"default:0" json:"renewCount"`
	ReminderSent bool   `gorm:"default:false" json:"reminderSent"` // expiry reminder already mailed
	IsDeleted    bool   `gorm:"default:false" json:"isDeleted"`

	Level MembershipLevel `gorm:"foreignKey:LevelID" json:"level,omitempty"`
}
