package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	orderModels "lms/models/order"
	couponService "lms/services/coupon"
	learningService "lms/services/learning"
	membershipService "lms/services/membership"

	"lms/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChargeResult is what the payment provider reports for a charge.
type ChargeResult struct {
	TransactionID string
	Succeeded     bool
	FailReason    string
}

// Gateway abstracts the payment provider. Charge must honor the context
// deadline and return services.ErrOutcomeUnknown when the outcome cannot be
// determined; the order then stays CREATED with a PENDING attempt until
// Reconcile settles it.
type Gateway interface {
	Charge(ctx context.Context, orderNo string, amount float64) (*ChargeResult, error)
	Query(ctx context.Context, orderNo string) (*ChargeResult, error)
}

// Service implements the order lifecycle: CREATED -> PAID -> REFUNDED and
// CREATED -> CANCELLED. Every transition is a compare-and-set on the current
// status, and payment application is at-most-once per order.
type Service struct {
	db          *gorm.DB
	coupons     *couponService.Service
	memberships *membershipService.Service
	learning    *learningService.Service
	gateway     Gateway
	ttl         time.Duration // how long an unpaid order stays payable
}

func New(db *gorm.DB, coupons *couponService.Service, memberships *membershipService.Service,
	learning *learningService.Service, gateway Gateway, ttl time.Duration) *Service {
	return &Service{
		db:          db,
		coupons:     coupons,
		memberships: memberships,
		learning:    learning,
		gateway:     gateway,
		ttl:         ttl,
	}
}

// ItemRef names one thing being bought.
type ItemRef struct {
	Type              string `json:"type"`
	CourseID          uint   `json:"courseId"`
	MembershipLevelID uint   `json:"membershipLevelId"`
}

// PayResult is returned by Pay and by the idempotent replay of Pay.
type PayResult struct {
	OrderNo       string  `json:"orderNo"`
	Status        string  `json:"status"`
	AmountCharged float64 `json:"amountCharged"`
	TransactionID string  `json:"transactionId"`
	AlreadyPaid   bool    `json:"alreadyPaid"`
}

// errLostTransition signals a compare-and-set that affected zero rows.
var errLostTransition = errors.New("lost status transition")

// Create checks out a new order. Item prices are snapshotted, the coupon is
// validated and reserved atomically, and the order expires if unpaid.
func (s *Service) Create(userID uint, items []ItemRef, userCouponID uint, remark string) (*orderModels.Order, error) {
	if len(items) == 0 {
		return nil, services.ErrValidation
	}

	var (
		orderItems      []orderModels.OrderItem
		courseIDs       []uint
		total           float64
		membershipItems int
	)
	for _, ref := range items {
		switch ref.Type {
		case orderModels.ItemTypeCourse:
			var course courseModels.Course
			err := s.db.Where("id = ? AND is_deleted = ? AND status = ?",
				ref.CourseID, false, courseModels.StatusPublished).
				First(&course).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, services.ErrNotFound
				}
				return nil, err
			}

			var enrolled courseModels.Enrollment
			if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?",
				userID, ref.CourseID, false, courseModels.EnrollmentRevoked).
				First(&enrolled).Error; err == nil {
				return nil, services.ErrAlreadyEnrolled
			}

			orderItems = append(orderItems, orderModels.OrderItem{
				ItemType: orderModels.ItemTypeCourse,
				CourseID: course.ID,
				Title:    course.Title,
				Price:    course.Price,
			})
			courseIDs = append(courseIDs, course.ID)
			total += course.Price

		case orderModels.ItemTypeMembership:
			membershipItems++
			if membershipItems > 1 {
				return nil, services.ErrValidation
			}
			level, err := s.memberships.Level(ref.MembershipLevelID)
			if err != nil {
				return nil, err
			}
			orderItems = append(orderItems, orderModels.OrderItem{
				ItemType:          orderModels.ItemTypeMembership,
				MembershipLevelID: level.ID,
				Title:             level.Name,
				Price:             level.Price,
			})
			total += level.Price

		default:
			return nil, services.ErrValidation
		}
	}

	now := time.Now()
	var (
		discount   float64
		userCoupon *models.UserCoupon
	)
	if userCouponID > 0 {
		grant, err := s.coupons.UserCouponFor(userID, userCouponID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return nil, services.ErrInvalidCoupon
			}
			return nil, err
		}
		if grant.IsUsed {
			return nil, services.ErrInvalidCoupon
		}
		discount, err = s.coupons.Discount(&grant.Coupon, total, courseIDs, now)
		if err != nil {
			return nil, err
		}
		userCoupon = grant
	}

	expiresAt := now.Add(s.ttl)
	order := orderModels.Order{
		OrderNo:        newOrderNo(),
		UserID:         userID,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    total - discount,
		Status:         orderModels.StatusCreated,
		ExpiresAt:      &expiresAt,
		UserCouponID:   userCouponID,
		Remark:         remark,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		if userCoupon != nil {
			if err := s.coupons.Reserve(tx, userCoupon, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = orderItems
	return &order, nil
}

// Pay applies a payment to a CREATED order. Retrying against an already-paid
// order is a no-op returning the original result; exactly one of any number
// of concurrent calls can win the status transition.
func (s *Service) Pay(ctx context.Context, callerID, orderID uint, method string) (*PayResult, error) {
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, services.ErrPermissionDenied
	}

	switch order.Status {
	case orderModels.StatusPaid:
		return s.existingResult(order)
	case orderModels.StatusCreated:
		// proceed
	default:
		return nil, services.ErrStateConflict
	}

	switch method {
	case orderModels.MethodBalance:
		return s.payFromBalance(order)
	case orderModels.MethodGateway:
		return s.payViaGateway(ctx, order)
	default:
		return nil, services.ErrValidation
	}
}

func (s *Service) payFromBalance(order *orderModels.Order) (*PayResult, error) {
	txnID := "bal_" + uuid.NewString()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transition(tx, order, orderModels.MethodBalance); err != nil {
			return err
		}

		if order.FinalAmount > 0 {
			debit := tx.Model(&models.User{}).
				Where("id = ? AND is_deleted = ? AND main_balance >= ?", order.UserID, false, order.FinalAmount).
				Update("main_balance", gorm.Expr("main_balance - ?", order.FinalAmount))
			if debit.Error != nil {
				return debit.Error
			}
			if debit.RowsAffected == 0 {
				return services.ErrInsufficientBalance
			}

			// Ledger figures come from the row the debit just wrote, so a
			// concurrent movement between read and update cannot skew them.
			var user models.User
			if err := tx.Where("id = ?", order.UserID).First(&user).Error; err != nil {
				return err
			}

			ledger := models.BalanceTransaction{
				UserID:          order.UserID,
				TransactionType: models.TransactionTypePurchase,
				Amount:          order.FinalAmount,
				BalanceBefore:   user.MainBalance + order.FinalAmount,
				BalanceAfter:    user.MainBalance,
				Status:          models.TransactionStatusCompleted,
				Description:     "Order " + order.OrderNo,
				ReferenceType:   "order",
				ReferenceID:     order.ID,
				ReferenceName:   order.OrderNo,
				TransactionDate: time.Now(),
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
		}

		return s.finalize(tx, order, orderModels.MethodBalance, txnID)
	})
	if err != nil {
		if errors.Is(err, errLostTransition) {
			return s.replayOrConflict(order.ID)
		}
		return nil, err
	}

	return &PayResult{
		OrderNo:       order.OrderNo,
		Status:        orderModels.StatusPaid,
		AmountCharged: order.FinalAmount,
		TransactionID: txnID,
	}, nil
}

func (s *Service) payViaGateway(ctx context.Context, order *orderModels.Order) (*PayResult, error) {
	// A pending attempt means a charge is already in flight or unresolved;
	// never charge again before reconciling.
	var pending orderModels.PaymentAttempt
	if err := s.db.Where("order_id = ? AND status = ?", order.ID, orderModels.AttemptPending).
		First(&pending).Error; err == nil {
		return nil, services.ErrOutcomeUnknown
	}

	result, err := s.gateway.Charge(ctx, order.OrderNo, order.FinalAmount)
	if err != nil {
		if errors.Is(err, services.ErrOutcomeUnknown) {
			// Timeout is not failure: record the unknown and reconcile later
			s.recordAttempt(order, orderModels.AttemptPending, "", "provider timeout")
			return nil, services.ErrOutcomeUnknown
		}
		s.recordAttempt(order, orderModels.AttemptFailed, "", err.Error())
		return nil, services.ErrExternalDependency
	}
	if !result.Succeeded {
		s.recordAttempt(order, orderModels.AttemptFailed, result.TransactionID, result.FailReason)
		return nil, services.ErrExternalDependency
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transition(tx, order, orderModels.MethodGateway); err != nil {
			return err
		}
		return s.finalize(tx, order, orderModels.MethodGateway, result.TransactionID)
	})
	if err != nil {
		if errors.Is(err, errLostTransition) {
			return s.replayOrConflict(order.ID)
		}
		return nil, err
	}

	return &PayResult{
		OrderNo:       order.OrderNo,
		Status:        orderModels.StatusPaid,
		AmountCharged: order.FinalAmount,
		TransactionID: result.TransactionID,
	}, nil
}

// Reconcile settles a PENDING payment attempt by asking the provider what
// actually happened. Unknown stays unknown; success applies the payment
// exactly as a direct success would have.
func (s *Service) Reconcile(ctx context.Context, orderID uint) (*PayResult, error) {
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == orderModels.StatusPaid {
		return s.existingResult(order)
	}

	var pending orderModels.PaymentAttempt
	if err := s.db.Where("order_id = ? AND status = ?", order.ID, orderModels.AttemptPending).
		Order("created_at desc").
		First(&pending).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}

	result, err := s.gateway.Query(ctx, order.OrderNo)
	if err != nil {
		return nil, services.ErrOutcomeUnknown
	}

	if !result.Succeeded {
		if err := s.db.Model(&orderModels.PaymentAttempt{}).
			Where("id = ?", pending.ID).
			Updates(map[string]interface{}{
				"status":      orderModels.AttemptFailed,
				"fail_reason": result.FailReason,
			}).Error; err != nil {
			return nil, err
		}
		return nil, services.ErrExternalDependency
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transition(tx, order, orderModels.MethodGateway); err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&orderModels.PaymentAttempt{}).
			Where("id = ?", pending.ID).
			Updates(map[string]interface{}{
				"status":         orderModels.AttemptSuccess,
				"transaction_id": result.TransactionID,
				"paid_at":        now,
			}).Error; err != nil {
			return err
		}
		return s.applyGrants(tx, order)
	})
	if err != nil {
		if errors.Is(err, errLostTransition) {
			return s.replayOrConflict(order.ID)
		}
		return nil, err
	}

	return &PayResult{
		OrderNo:       order.OrderNo,
		Status:        orderModels.StatusPaid,
		AmountCharged: order.FinalAmount,
		TransactionID: result.TransactionID,
	}, nil
}

// Cancel voids a CREATED order and releases its reserved coupon.
func (s *Service) Cancel(callerID uint, callerRole string, orderID uint) (*orderModels.Order, error) {
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID && callerRole != models.RoleAdmin {
		return nil, services.ErrPermissionDenied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderModels.Order{}).
			Where("id = ? AND status = ?", order.ID, orderModels.StatusCreated).
			Update("status", orderModels.StatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return services.ErrStateConflict
		}
		if order.UserCouponID > 0 {
			return s.coupons.Release(tx, order.UserCouponID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = orderModels.StatusCancelled
	return order, nil
}

// Refund returns money on a PAID order. Partial refunds keep the order PAID
// with a ledger entry; refunding the full remaining amount flips the order
// to REFUNDED and revokes whatever the order granted.
func (s *Service) Refund(adminID, orderID uint, amount float64, reason string) (*orderModels.Order, error) {
	if amount <= 0 {
		return nil, services.ErrValidation
	}

	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orderModels.StatusPaid {
		return nil, services.ErrStateConflict
	}
	if amount > order.FinalAmount-order.RefundedAmount {
		return nil, services.ErrValidation
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Guard the running total in the UPDATE itself so concurrent
		// refunds cannot overshoot the order amount.
		result := tx.Model(&orderModels.Order{}).
			Where("id = ? AND status = ? AND refunded_amount + ? <= final_amount",
				order.ID, orderModels.StatusPaid, amount).
			Update("refunded_amount", gorm.Expr("refunded_amount + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return services.ErrStateConflict
		}

		now := time.Now()
		record := orderModels.RefundRecord{
			OrderID:     order.ID,
			Amount:      amount,
			Reason:      reason,
			ProcessedBy: adminID,
			ProcessedAt: &now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		// Refunds go back to the wallet balance; ledger figures come from
		// the row the credit just wrote
		if err := tx.Model(&models.User{}).
			Where("id = ?", order.UserID).
			Update("main_balance", gorm.Expr("main_balance + ?", amount)).Error; err != nil {
			return err
		}
		var user models.User
		if err := tx.Where("id = ?", order.UserID).First(&user).Error; err != nil {
			return err
		}
		ledger := models.BalanceTransaction{
			UserID:          order.UserID,
			TransactionType: models.TransactionTypeRefund,
			Amount:          amount,
			BalanceBefore:   user.MainBalance - amount,
			BalanceAfter:    user.MainBalance,
			Status:          models.TransactionStatusCompleted,
			Description:     "Refund for order " + order.OrderNo,
			ReferenceType:   "order",
			ReferenceID:     order.ID,
			ReferenceName:   order.OrderNo,
			AdminID:         adminID,
			Reason:          reason,
			TransactionDate: now,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}

		var updated orderModels.Order
		if err := tx.Where("id = ?", order.ID).First(&updated).Error; err != nil {
			return err
		}
		if updated.RefundedAmount >= updated.FinalAmount {
			full := tx.Model(&orderModels.Order{}).
				Where("id = ? AND status = ?", order.ID, orderModels.StatusPaid).
				Update("status", orderModels.StatusRefunded)
			if full.Error != nil {
				return full.Error
			}
			if full.RowsAffected == 0 {
				return services.ErrStateConflict
			}
			return s.revokeGrants(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.load(orderID)
}

// SweepExpired cancels CREATED orders whose expiry passed and releases their
// coupons. Returns the number of orders swept.
func (s *Service) SweepExpired(now time.Time) (int64, error) {
	var stale []orderModels.Order
	if err := s.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ? AND is_deleted = ?",
		orderModels.StatusCreated, now, false).
		Find(&stale).Error; err != nil {
		return 0, err
	}

	var swept int64
	for _, order := range stale {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&orderModels.Order{}).
				Where("id = ? AND status = ?", order.ID, orderModels.StatusCreated).
				Update("status", orderModels.StatusCancelled)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return services.ErrStateConflict
			}
			if order.UserCouponID > 0 {
				return s.coupons.Release(tx, order.UserCouponID)
			}
			return nil
		})
		if err == nil {
			swept++
		} else if !errors.Is(err, services.ErrStateConflict) {
			return swept, err
		}
	}
	return swept, nil
}

// Get loads an order with items for its buyer or an admin.
func (s *Service) Get(callerID uint, callerRole string, orderID uint) (*orderModels.Order, error) {
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID && callerRole != models.RoleAdmin {
		return nil, services.ErrPermissionDenied
	}
	return order, nil
}

// List returns a page of a user's orders, newest first.
func (s *Service) List(userID uint, page, limit int) ([]orderModels.Order, int64, error) {
	query := s.db.Model(&orderModels.Order{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("Items")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []orderModels.Order
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// transition flips CREATED -> PAID; zero rows means another caller won.
func (s *Service) transition(tx *gorm.DB, order *orderModels.Order, method string) error {
	now := time.Now()
	result := tx.Model(&orderModels.Order{}).
		Where("id = ? AND status = ?", order.ID, orderModels.StatusCreated).
		Updates(map[string]interface{}{
			"status":         orderModels.StatusPaid,
			"payment_method": method,
			"paid_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errLostTransition
	}
	return nil
}

// finalize records the successful attempt, consumes the coupon and grants
// the purchased access. Runs inside the payment transaction.
func (s *Service) finalize(tx *gorm.DB, order *orderModels.Order, method, transactionID string) error {
	now := time.Now()
	attempt := orderModels.PaymentAttempt{
		OrderID:       order.ID,
		PaymentMethod: method,
		Amount:        order.FinalAmount,
		Status:        orderModels.AttemptSuccess,
		TransactionID: transactionID,
		PaidAt:        &now,
	}
	if err := tx.Create(&attempt).Error; err != nil {
		return err
	}

	if order.UserCouponID > 0 {
		if err := s.coupons.MarkUsed(tx, order.UserCouponID); err != nil {
			return err
		}
	}

	return s.applyGrants(tx, order)
}

func (s *Service) applyGrants(tx *gorm.DB, order *orderModels.Order) error {
	items, err := s.items(tx, order.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		switch item.ItemType {
		case orderModels.ItemTypeCourse:
			if err := s.learning.Grant(tx, order.UserID, item.CourseID); err != nil {
				return err
			}
		case orderModels.ItemTypeMembership:
			if _, err := s.memberships.Grant(tx, order.UserID, item.MembershipLevelID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) revokeGrants(tx *gorm.DB, order *orderModels.Order) error {
	items, err := s.items(tx, order.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		switch item.ItemType {
		case orderModels.ItemTypeCourse:
			if err := s.learning.Revoke(tx, order.UserID, item.CourseID); err != nil {
				return err
			}
		case orderModels.ItemTypeMembership:
			if err := s.memberships.Revoke(tx, order.UserID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) items(tx *gorm.DB, orderID uint) ([]orderModels.OrderItem, error) {
	var items []orderModels.OrderItem
	err := tx.Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

// replayOrConflict resolves a lost CREATED->PAID race: if the order is now
// PAID the retry is a no-op returning the winner's result, otherwise the
// transition genuinely conflicted.
func (s *Service) replayOrConflict(orderID uint) (*PayResult, error) {
	order, err := s.load(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == orderModels.StatusPaid {
		return s.existingResult(order)
	}
	return nil, services.ErrStateConflict
}

// existingResult rebuilds the original PayResult for an already-paid order.
func (s *Service) existingResult(order *orderModels.Order) (*PayResult, error) {
	var attempt orderModels.PaymentAttempt
	err := s.db.Where("order_id = ? AND status = ?", order.ID, orderModels.AttemptSuccess).
		Order("created_at desc").
		First(&attempt).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return &PayResult{
		OrderNo:       order.OrderNo,
		Status:        order.Status,
		AmountCharged: order.FinalAmount,
		TransactionID: attempt.TransactionID,
		AlreadyPaid:   true,
	}, nil
}

func (s *Service) recordAttempt(order *orderModels.Order, status, transactionID, reason string) {
	attempt := orderModels.PaymentAttempt{
		OrderID:       order.ID,
		PaymentMethod: orderModels.MethodGateway,
		Amount:        order.FinalAmount,
		Status:        status,
		TransactionID: transactionID,
		FailReason:    reason,
	}
	s.db.Create(&attempt)
}

func (s *Service) load(orderID uint) (*orderModels.Order, error) {
	var order orderModels.Order
	err := s.db.Preload("Items").
		Where("id = ? AND is_deleted = ?", orderID, false).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func newOrderNo() string {
	return fmt.Sprintf("ORD%d%s", time.Now().Unix(),
		strings.ToUpper(uuid.NewString()[:8]))
}
