package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CouponType enum values
const (
	CouponTypeDiscount = "DISCOUNT" // percentage off
	CouponTypeAmount   = "AMOUNT"   // fixed amount off
	CouponTypeFree     = "FREE"     // full discount
)

// CouponStatus enum values
const (
	CouponActive   = "ACTIVE"
	CouponExpired  = "EXPIRED"
	CouponDisabled = "DISABLED"
)

// Coupon is an admin-issued discount code
type Coupon struct {
	gorm.Model
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	CouponType  string `gorm:"type:varchar(20);not null" json:"couponType"`

	DiscountValue float64 `gorm:"not null" json:"discountValue"` // percent (0-100) or amount
	MinAmount     float64 `gorm:"default:0" json:"minAmount"`    // minimum order total to apply
	MaxDiscount   float64 `gorm:"default:0" json:"maxDiscount"`  // cap for percentage coupons, 0 = no cap

	UsageLimit   int `gorm:"default:0" json:"usageLimit"` // 0 = unlimited
	UsedCount    int `gorm:"default:0" json:"usedCount"`
	PerUserLimit int `gorm:"default:1" json:"perUserLimit"`

	// Optional course scope; empty means any course
	CourseScope datatypes.JSON `gorm:"type:json" json:"courseScope"`

	Status     string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	ValidFrom  time.Time `gorm:"not null" json:"validFrom"`
	ValidUntil time.Time `gorm:"not null" json:"validUntil"`
	IsDeleted  bool      `gorm:"default:false" json:"isDeleted"`
}

// UserCoupon tracks a coupon granted to a specific user
type UserCoupon struct {
	gorm.Model
	UserID      uint       `gorm:"not null;index;uniqueIndex:uq_user_coupon" json:"userId"`
	CouponID    uint       `gorm:"not null;index;uniqueIndex:uq_user_coupon" json:"couponId"`
	IsUsed      bool       `gorm:"default:false" json:"isUsed"`
	UsedAt      *time.Time `json:"usedAt"`
	UsedOrderID uint       `gorm:"default:0" json:"usedOrderId"`
	Source      string     `gorm:"type:varchar(50);default:'system'" json:"source"` // system, signup
	IsDeleted   bool       `gorm:"default:false" json:"isDeleted"`

	Coupon Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}

func (UserCoupon) TableName() string {
	return "user_coupons"
}
