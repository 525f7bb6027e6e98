package wallet

import (
	"errors"
	"strings"
	"time"

	"lms/models"
	"lms/services"

	"gorm.io/gorm"
)

// Service owns wallet credits. Every balance movement is an atomic increment
// on the stored column plus a ledger row in the same transaction; absolute
// writes from a pre-read balance are never used.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DepositParams describes a gateway-confirmed payment to credit.
type DepositParams struct {
	Amount         float64
	PaymentGateway string
	PaymentOrderID string
	PaymentID      string
	PaymentMethod  string
}

// Deposit credits the wallet once per gateway payment id. The ledger insert
// carries the unique payment id, so a replayed callback fails the insert and
// rolls the credit back instead of double-crediting.
func (s *Service) Deposit(userID uint, p DepositParams) (*models.BalanceTransaction, error) {
	if p.Amount <= 0 || p.PaymentID == "" {
		return nil, services.ErrValidation
	}

	paymentID := p.PaymentID
	ledger := models.BalanceTransaction{
		UserID:          userID,
		TransactionType: models.TransactionTypeDeposit,
		Amount:          p.Amount,
		Status:          models.TransactionStatusCompleted,
		Description:     "Wallet deposit via " + p.PaymentGateway,
		PaymentGateway:  p.PaymentGateway,
		PaymentOrderID:  p.PaymentOrderID,
		PaymentID:       &paymentID,
		PaymentMethod:   p.PaymentMethod,
		TransactionDate: time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		credit := tx.Model(&models.User{}).
			Where("id = ? AND is_deleted = ?", userID, false).
			Update("main_balance", gorm.Expr("main_balance + ?", p.Amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return services.ErrNotFound
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		ledger.BalanceBefore = user.MainBalance - p.Amount
		ledger.BalanceAfter = user.MainBalance

		if err := tx.Create(&ledger).Error; err != nil {
			if isUniqueViolation(err) {
				return services.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// isUniqueViolation matches the duplicate-key error across the postgres and
// sqlite drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
