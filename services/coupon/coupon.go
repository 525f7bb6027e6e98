package coupon

import (
	"encoding/json"
	"strings"
	"time"

	"lms/models"
	"lms/services"

	"gorm.io/gorm"
)

// Service manages coupon issuance, grants and redemption. Redemption is a
// conditional increment so the usage-limit check and the consume can never
// race apart.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateParams are the admin-supplied coupon fields.
type CreateParams struct {
	Code          string
	Name          string
	Description   string
	CouponType    string
	DiscountValue float64
	MinAmount     float64
	MaxDiscount   float64
	UsageLimit    int
	PerUserLimit  int
	CourseScope   []uint
	ValidFrom     time.Time
	ValidUntil    time.Time
}

// Create issues a new coupon definition.
func (s *Service) Create(p CreateParams) (*models.Coupon, error) {
	if strings.TrimSpace(p.Code) == "" || strings.TrimSpace(p.Name) == "" {
		return nil, services.ErrValidation
	}
	switch p.CouponType {
	case models.CouponTypeDiscount, models.CouponTypeAmount, models.CouponTypeFree:
	default:
		return nil, services.ErrValidation
	}
	if p.DiscountValue < 0 || !p.ValidUntil.After(p.ValidFrom) {
		return nil, services.ErrValidation
	}
	if p.CouponType == models.CouponTypeDiscount && p.DiscountValue > 100 {
		return nil, services.ErrValidation
	}

	var existing models.Coupon
	if err := s.db.Where("code = ? AND is_deleted = ?", p.Code, false).First(&existing).Error; err == nil {
		return nil, services.ErrAlreadyExists
	}

	scopeJSON, err := json.Marshal(p.CourseScope)
	if err != nil {
		return nil, err
	}

	coupon := models.Coupon{
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		CouponType:    p.CouponType,
		DiscountValue: p.DiscountValue,
		MinAmount:     p.MinAmount,
		MaxDiscount:   p.MaxDiscount,
		UsageLimit:    p.UsageLimit,
		PerUserLimit:  p.PerUserLimit,
		CourseScope:   scopeJSON,
		Status:        models.CouponActive,
		ValidFrom:     p.ValidFrom,
		ValidUntil:    p.ValidUntil,
	}

	if err := s.db.Create(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Grant hands a coupon to a user. A user can hold a given coupon only once.
func (s *Service) Grant(userID, couponID uint, source string) (*models.UserCoupon, error) {
	var coupon models.Coupon
	if err := s.db.Where("id = ? AND is_deleted = ?", couponID, false).First(&coupon).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}

	var existing models.UserCoupon
	if err := s.db.Where("user_id = ? AND coupon_id = ? AND is_deleted = ?", userID, couponID, false).
		First(&existing).Error; err == nil {
		return nil, services.ErrAlreadyExists
	}

	if source == "" {
		source = "system"
	}
	grant := models.UserCoupon{
		UserID:   userID,
		CouponID: couponID,
		Source:   source,
	}
	if err := s.db.Create(&grant).Error; err != nil {
		return nil, err
	}
	grant.Coupon = coupon
	return &grant, nil
}

// Discount computes the discount a coupon yields on the given order total.
// Eligibility (status, window, scope, minimum) must hold or ErrInvalidCoupon
// is returned.
func (s *Service) Discount(coupon *models.Coupon, total float64, courseIDs []uint, at time.Time) (float64, error) {
	if coupon.Status != models.CouponActive || coupon.IsDeleted {
		return 0, services.ErrInvalidCoupon
	}
	if at.Before(coupon.ValidFrom) || at.After(coupon.ValidUntil) {
		return 0, services.ErrInvalidCoupon
	}
	if total < coupon.MinAmount {
		return 0, services.ErrInvalidCoupon
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, services.ErrInvalidCoupon
	}

	if err := checkScope(coupon.CourseScope, courseIDs); err != nil {
		return 0, err
	}

	var discount float64
	switch coupon.CouponType {
	case models.CouponTypeDiscount:
		discount = total * coupon.DiscountValue / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	case models.CouponTypeAmount:
		discount = coupon.DiscountValue
	case models.CouponTypeFree:
		discount = total
	default:
		return 0, services.ErrInvalidCoupon
	}

	if discount > total {
		discount = total
	}
	return discount, nil
}

// Reserve consumes one use of the coupon and locks the user's grant to the
// order, both as conditional updates. Exactly one of N concurrent reserves
// against a limit-1 coupon can succeed; the rest get ErrInvalidCoupon.
func (s *Service) Reserve(tx *gorm.DB, userCoupon *models.UserCoupon, orderID uint) error {
	// Lock this user's grant first so the same grant cannot back two orders
	result := tx.Model(&models.UserCoupon{}).
		Where("id = ? AND is_used = ? AND is_deleted = ?", userCoupon.ID, false, false).
		Updates(map[string]interface{}{
			"is_used":       true,
			"used_order_id": orderID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrInvalidCoupon
	}

	// Then take one global use, respecting the usage limit atomically
	result = tx.Model(&models.Coupon{}).
		Where("id = ? AND status = ? AND is_deleted = ? AND (usage_limit = 0 OR used_count < usage_limit)",
			userCoupon.CouponID, models.CouponActive, false).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrInvalidCoupon
	}
	return nil
}

// Release gives back a reserved coupon after an order is cancelled or swept.
func (s *Service) Release(tx *gorm.DB, userCouponID uint) error {
	var grant models.UserCoupon
	if err := tx.Where("id = ?", userCouponID).First(&grant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return services.ErrNotFound
		}
		return err
	}
	if !grant.IsUsed {
		return nil
	}

	if err := tx.Model(&models.UserCoupon{}).
		Where("id = ?", userCouponID).
		Updates(map[string]interface{}{
			"is_used":       false,
			"used_order_id": 0,
			"used_at":       nil,
		}).Error; err != nil {
		return err
	}

	return tx.Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", grant.CouponID).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}

// MarkUsed stamps the grant once the order it backs is actually paid.
func (s *Service) MarkUsed(tx *gorm.DB, userCouponID uint) error {
	now := time.Now()
	return tx.Model(&models.UserCoupon{}).
		Where("id = ? AND is_used = ?", userCouponID, true).
		Update("used_at", now).Error
}

// UserCouponFor loads a user's grant with its coupon definition.
func (s *Service) UserCouponFor(userID, userCouponID uint) (*models.UserCoupon, error) {
	var grant models.UserCoupon
	err := s.db.Preload("Coupon").
		Where("id = ? AND user_id = ? AND is_deleted = ?", userCouponID, userID, false).
		First(&grant).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &grant, nil
}

func checkScope(scope []byte, courseIDs []uint) error {
	if len(scope) == 0 {
		return nil
	}
	var scoped []uint
	if err := json.Unmarshal(scope, &scoped); err != nil {
		return services.ErrInvalidCoupon
	}
	if len(scoped) == 0 {
		return nil
	}
	allowed := make(map[uint]bool, len(scoped))
	for _, id := range scoped {
		allowed[id] = true
	}
	for _, id := range courseIDs {
		if !allowed[id] {
			return services.ErrInvalidCoupon
		}
	}
	return nil
}
