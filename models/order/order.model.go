package order

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus enum values
const (
	StatusCreated   = "CREATED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// Item type enum values
const (
	ItemTypeCourse     = "COURSE"
	ItemTypeMembership = "MEMBERSHIP"
)

// PaymentMethod enum values
const (
	MethodBalance = "BALANCE"
	MethodGateway = "GATEWAY"
)

// Payment attempt status enum values
const (
	AttemptPending = "PENDING" // provider outcome unknown, reconcile later
	AttemptSuccess = "SUCCESS"
	AttemptFailed  = "FAILED"
)

// Order is a purchase of one or more courses or a membership level
type Order struct {
	gorm.Model
	OrderNo string `gorm:"type:varchar(50);uniqueIndex;not null" json:"orderNo"`
	UserID  uint   `gorm:"not null;index" json:"userId"`

	TotalAmount    float64 `gorm:"not null" json:"totalAmount"`    // sum of item prices
	DiscountAmount float64 `gorm:"default:0" json:"discountAmount"`
	FinalAmount    float64 `gorm:"not null" json:"finalAmount"`    // total - discount
	RefundedAmount float64 `gorm:"default:0" json:"refundedAmount"`

	Status        string     `gorm:"type:varchar(20);default:'CREATED';index" json:"status"`
	PaymentMethod string     `gorm:"type:varchar(20)" json:"paymentMethod"`
	PaidAt        *time.Time `json:"paidAt"`
	ExpiresAt     *time.Time `json:"expiresAt"` // unpaid orders past this are swept to CANCELLED

	UserCouponID uint   `gorm:"default:0" json:"userCouponId"` // reserved coupon, 0 = none
	Remark       string `gorm:"type:text" json:"remark"`
	IsDeleted    bool   `gorm:"default:false" json:"isDeleted"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem snapshots one purchased item at checkout time
type OrderItem struct {
	gorm.Model
	OrderID  uint   `gorm:"not null;index" json:"orderId"`
	ItemType string `gorm:"type:varchar(20);not null" json:"itemType"`

	CourseID          uint `gorm:"default:0" json:"courseId"`
	MembershipLevelID uint `gorm:"default:0" json:"membershipLevelId"`

	Title string  `gorm:"type:varchar(200);not null" json:"title"` // snapshot, not a join
	Price float64 `gorm:"not null" json:"price"`
}

// PaymentAttempt records every try against the payment provider for an order
type PaymentAttempt struct {
	gorm.Model
	OrderID       uint           `gorm:"not null;index" json:"orderId"`
	PaymentMethod string         `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	Amount        float64        `gorm:"not null" json:"amount"`
	Status        string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	TransactionID string         `gorm:"type:varchar(100);index" json:"transactionId"` // provider reference
	FailReason    string         `gorm:"type:text" json:"failReason"`
	CallbackData  datatypes.JSON `gorm:"type:json" json:"callbackData"`
	PaidAt        *time.Time     `json:"paidAt"`
}

func (PaymentAttempt) TableName() string {
	return "payment_attempts"
}

// RefundRecord ledgers a (possibly partial) refund against a paid order
type RefundRecord struct {
	gorm.Model
	OrderID     uint       `gorm:"not null;index" json:"orderId"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Reason      string     `gorm:"type:text" json:"reason"`
	ProcessedBy uint       `gorm:"not null" json:"processedBy"` // admin user id
	ProcessedAt *time.Time `json:"processedAt"`
}

func (RefundRecord) TableName() string {
	return "refund_records"
}
