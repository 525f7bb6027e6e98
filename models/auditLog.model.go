package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit outcome derived from the HTTP response code
const (
	AuditStatusSuccess = "success" // 2xx/3xx
	AuditStatusFailed  = "failed"  // 4xx
	AuditStatusError   = "error"   // 5xx
)

// AuditLog records one API action for the admin audit trail
type AuditLog struct {
	gorm.Model
	UserID   uint   `gorm:"index;default:0" json:"userId"`
	Username string `gorm:"type:varchar(100)" json:"username"`
	Action   string `gorm:"type:varchar(50);index" json:"action"` // login, logout, create, update, delete, view

	ResourceType string `gorm:"type:varchar(50);index" json:"resourceType"`
	ResourceID   string `gorm:"type:varchar(50)" json:"resourceId"`
	ResourceName string `gorm:"type:varchar(255)" json:"resourceName"`

	Method   string `gorm:"type:varchar(10)" json:"method"`
	Endpoint string `gorm:"type:varchar(255)" json:"endpoint"`

	// varchar(45) fits a full IPv6 address
	IPAddress string `gorm:"type:varchar(45)" json:"ipAddress"`
	UserAgent string `gorm:"type:varchar(500)" json:"userAgent"`

	Details      datatypes.JSON `gorm:"type:json" json:"details"`
	Status       string         `gorm:"type:varchar(20);default:'success'" json:"status"`
	ErrorMessage string         `gorm:"type:text" json:"errorMessage"`
	DurationMs   int64          `gorm:"default:0" json:"durationMs"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
