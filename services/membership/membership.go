package membership

import (
	"strings"
	"time"

	membershipModels "lms/models/membership"
	"lms/services"

	"gorm.io/gorm"
)

// Service implements the membership lifecycle: purchase -> active ->
// renewed/cancelled/expired. Expiry is swept by the cron job, never decided
// inline on a read.
type Service struct {
	db        *gorm.DB
	graceDays int // renew window after end once auto-renew is off
}

func New(db *gorm.DB, graceDays int) *Service {
	return &Service{db: db, graceDays: graceDays}
}

// LevelParams are the admin-supplied fields for a membership level.
type LevelParams struct {
	Name         string
	Description  string
	Price        float64
	DurationDays int
	SortOrder    int
}

// CreateLevel defines a new purchasable tier.
func (s *Service) CreateLevel(p LevelParams) (*membershipModels.MembershipLevel, error) {
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 || p.DurationDays <= 0 {
		return nil, services.ErrValidation
	}

	var existing membershipModels.MembershipLevel
	if err := s.db.Where("name = ? AND is_deleted = ?", p.Name, false).First(&existing).Error; err == nil {
		return nil, services.ErrAlreadyExists
	}

	level := membershipModels.MembershipLevel{
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		DurationDays: p.DurationDays,
		SortOrder:    p.SortOrder,
		IsActive:     true,
	}
	if err := s.db.Create(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// Levels lists active purchasable tiers.
func (s *Service) Levels() ([]membershipModels.MembershipLevel, error) {
	var levels []membershipModels.MembershipLevel
	err := s.db.Where("is_active = ? AND is_deleted = ?", true, false).
		Order("sort_order asc, name asc").
		Find(&levels).Error
	return levels, err
}

// Level loads a single active tier.
func (s *Service) Level(levelID uint) (*membershipModels.MembershipLevel, error) {
	var level membershipModels.MembershipLevel
	err := s.db.Where("id = ? AND is_active = ? AND is_deleted = ?", levelID, true, false).
		First(&level).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// Grant activates or extends a membership after a paid order. Called inside
// the order payment transaction so access and money move together. If the
// user already holds an active membership the new period stacks onto its
// current end.
func (s *Service) Grant(tx *gorm.DB, userID, levelID uint) (*membershipModels.Membership, error) {
	var level membershipModels.MembershipLevel
	if err := tx.Where("id = ? AND is_deleted = ?", levelID, false).First(&level).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}

	duration := time.Duration(level.DurationDays) * 24 * time.Hour
	now := time.Now()

	var current membershipModels.Membership
	err := tx.Where("user_id = ? AND status = ? AND is_deleted = ?",
		userID, membershipModels.StatusActive, false).
		Order("end_at desc").
		First(&current).Error
	if err == nil {
		// Extend from the current end, compare-and-set on the old end so
		// two concurrent grants cannot both extend from the same base.
		newEnd := current.EndAt.Add(duration)
		result := tx.Model(&membershipModels.Membership{}).
			Where("id = ? AND end_at = ?", current.ID, current.EndAt).
			Updates(map[string]interface{}{
				"end_at":        newEnd,
				"level_id":      levelID,
				"renew_count":   gorm.Expr("renew_count + 1"),
				"reminder_sent": false,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, services.ErrStateConflict
		}
		current.EndAt = newEnd
		current.LevelID = levelID
		return &current, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	membership := membershipModels.Membership{
		UserID:  userID,
		LevelID: levelID,
		StartAt: now,
		EndAt:   now.Add(duration),
		Status:  membershipModels.StatusActive,
	}
	if err := tx.Create(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// Renew extends the user's membership by its level duration. An ACTIVE
// membership extends from its current end even when the end is already in
// the past but not yet swept; a swept (EXPIRED) membership restarts from
// now. Once auto-renew is off and the grace window has passed, renewal is
// refused.
func (s *Service) Renew(userID uint) (*membershipModels.Membership, error) {
	membership, err := s.latest(userID)
	if err != nil {
		return nil, err
	}

	var level membershipModels.MembershipLevel
	if err := s.db.Where("id = ?", membership.LevelID).First(&level).Error; err != nil {
		return nil, err
	}
	duration := time.Duration(level.DurationDays) * 24 * time.Hour

	now := time.Now()
	grace := time.Duration(s.graceDays) * 24 * time.Hour
	if !membership.AutoRenew && now.After(membership.EndAt.Add(grace)) {
		return nil, services.ErrAlreadyCancelled
	}

	base := membership.EndAt
	if membership.Status == membershipModels.StatusExpired {
		base = now
	}
	newEnd := base.Add(duration)

	result := s.db.Model(&membershipModels.Membership{}).
		Where("id = ? AND end_at = ?", membership.ID, membership.EndAt).
		Updates(map[string]interface{}{
			"end_at":        newEnd,
			"status":        membershipModels.StatusActive,
			"renew_count":   gorm.Expr("renew_count + 1"),
			"reminder_sent": false,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, services.ErrStateConflict
	}

	membership.EndAt = newEnd
	membership.Status = membershipModels.StatusActive
	return membership, nil
}

// Cancel turns auto-renew off. Access stays until the end timestamp; the
// expiry sweep does the actual revocation.
func (s *Service) Cancel(userID uint) (*membershipModels.Membership, error) {
	membership, err := s.latest(userID)
	if err != nil {
		return nil, err
	}
	if membership.Status != membershipModels.StatusActive {
		return nil, services.ErrStateConflict
	}

	if err := s.db.Model(&membershipModels.Membership{}).
		Where("id = ?", membership.ID).
		Update("auto_renew", false).Error; err != nil {
		return nil, err
	}
	membership.AutoRenew = false
	return membership, nil
}

// Revoke cancels a membership outright after a full refund.
func (s *Service) Revoke(tx *gorm.DB, userID uint) error {
	return tx.Model(&membershipModels.Membership{}).
		Where("user_id = ? AND status = ? AND is_deleted = ?",
			userID, membershipModels.StatusActive, false).
		Updates(map[string]interface{}{
			"status":     membershipModels.StatusCancelled,
			"auto_renew": false,
		}).Error
}

// Current returns the user's latest membership with its level, or
// ErrNotFound if they never had one.
func (s *Service) Current(userID uint) (*membershipModels.Membership, error) {
	var membership membershipModels.Membership
	err := s.db.Preload("Level").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("end_at desc").
		First(&membership).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// SweepExpired marks every ACTIVE membership past its end as EXPIRED.
// Returns the number of memberships swept.
func (s *Service) SweepExpired(now time.Time) (int64, error) {
	result := s.db.Model(&membershipModels.Membership{}).
		Where("status = ? AND end_at < ? AND is_deleted = ?",
			membershipModels.StatusActive, now, false).
		Update("status", membershipModels.StatusExpired)
	return result.RowsAffected, result.Error
}

func (s *Service) latest(userID uint) (*membershipModels.Membership, error) {
	var membership membershipModels.Membership
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("end_at desc").
		First(&membership).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}
