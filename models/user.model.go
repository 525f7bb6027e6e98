package models

import (
	"time"

	"gorm.io/gorm"
)

// Role enum values
const (
	RoleUser    = "USER"
	RoleTeacher = "TEACHER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model
	ProfileImage        string     `gorm:"default:''"`
	Name                string     `gorm:"default:''"`
	Email               string     `gorm:"unique;not null"`
	Mobile              string     `gorm:"default:''"`
	Role                string     `gorm:"default:'USER'"` // USER, TEACHER, ADMIN
	Password            string     `gorm:"not null"`
	IsMobileVerified    bool       `gorm:"default:false"`
	IsEmailVerified     bool       `gorm:"default:false"`
	MainBalance         float64    `gorm:"default:0"` // wallet balance, in rupees
	LastLogin           time.Time  `gorm:"default:NULL"`
	Bio                 string     `gorm:"type:text"`
	FailedLoginAttempts int        `gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"last_failed_login"`
	IsBlocked           bool       `gorm:"default:false"`
	BlockedUntil        *time.Time `json:"blocked_until"`
	IsDeleted           bool       `gorm:"default:false"`
}
