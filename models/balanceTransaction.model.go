package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionType defines the type of balance transaction
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypePurchase    TransactionType = "PURCHASE"
	TransactionTypeRefund      TransactionType = "REFUND"
	TransactionTypeAdminCredit TransactionType = "ADMIN_CREDIT"
	TransactionTypeAdminDebit  TransactionType = "ADMIN_DEBIT"
)

// TransactionStatus defines the status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// BalanceTransaction tracks all wallet balance movements for a user
type BalanceTransaction struct {
	gorm.Model
	UserID          uint              `gorm:"not null;index" json:"userId"`
	TransactionType TransactionType   `gorm:"type:varchar(50);not null" json:"transactionType"`
	Amount          float64           `gorm:"not null" json:"amount"`
	BalanceBefore   float64           `gorm:"not null" json:"balanceBefore"`
	BalanceAfter    float64           `gorm:"not null" json:"balanceAfter"`
	Status          TransactionStatus `gorm:"type:varchar(20);default:'COMPLETED'" json:"status"`
	Description     string            `gorm:"type:text" json:"description"`

	// Payment gateway details (for deposits). PaymentID is unique so a
	// replayed gateway callback can never credit twice; nil for rows that
	// did not come from a gateway.
	PaymentGateway string  `gorm:"type:varchar(50)" json:"paymentGateway"`
	PaymentOrderID string  `gorm:"type:varchar(100)" json:"paymentOrderId"`
	PaymentID      *string `gorm:"type:varchar(100);uniqueIndex" json:"paymentId"`
	PaymentMethod  string  `gorm:"type:varchar(50)" json:"paymentMethod"`

	// Reference details (for purchases and refunds)
	ReferenceType string `gorm:"type:varchar(50)" json:"referenceType"` // order, membership
	ReferenceID   uint   `gorm:"default:0" json:"referenceId"`
	ReferenceName string `gorm:"type:varchar(255)" json:"referenceName"`

	// Admin details (for manual credits/debits)
	AdminID uint   `gorm:"default:0" json:"adminId"`
	Reason  string `gorm:"type:text" json:"reason"`

	TransactionDate time.Time `gorm:"not null" json:"transactionDate"`
	IsDeleted       bool      `gorm:"default:false" json:"isDeleted"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (BalanceTransaction) TableName() string {
	return "balance_transactions"
}
