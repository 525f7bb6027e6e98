package learning

import (
	"time"

	courseModels "lms/models/course"
	"lms/services"

	"gorm.io/gorm"
)

// Service tracks enrollments and learning progress. Progress is monotonic
// non-decreasing unless an explicit reset is requested, and the guard is a
// conditional update so concurrent writers cannot interleave a regression.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Enroll creates an enrollment in a published course. Free courses enroll
// directly; paid courses go through the order flow and land in Grant.
func (s *Service) Enroll(userID, courseID uint) (*courseModels.Enrollment, error) {
	var course courseModels.Course
	err := s.db.Where("id = ? AND is_deleted = ? AND status = ?",
		courseID, false, courseModels.StatusPublished).
		First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}

	var existing courseModels.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?",
		userID, courseID, false).First(&existing).Error; err == nil {
		return nil, services.ErrAlreadyEnrolled
	}

	enrollment := courseModels.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         courseModels.EnrollmentEnrolled,
		ContentVersion: course.ContentVersion,
	}
	if err := s.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Grant creates or reactivates an enrollment from a paid order. Runs inside
// the payment transaction. A previously revoked enrollment comes back with
// its progress reset.
func (s *Service) Grant(tx *gorm.DB, userID, courseID uint) error {
	var course courseModels.Course
	if err := tx.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return services.ErrNotFound
		}
		return err
	}

	var existing courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&courseModels.Enrollment{
			UserID:         userID,
			CourseID:       courseID,
			Status:         courseModels.EnrollmentEnrolled,
			ContentVersion: course.ContentVersion,
		}).Error
	}
	if err != nil {
		return err
	}

	if existing.Status == courseModels.EnrollmentRevoked || existing.IsDeleted {
		return tx.Model(&courseModels.Enrollment{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"status":          courseModels.EnrollmentEnrolled,
				"is_deleted":      false,
				"progress":        0,
				"completed_at":    nil,
				"content_version": course.ContentVersion,
			}).Error
	}

	// Already enrolled and active; paying again changes nothing
	return nil
}

// Revoke pulls back access after a full refund. Progress is kept in the row
// in case the user buys again and support needs history.
func (s *Service) Revoke(tx *gorm.DB, userID, courseID uint) error {
	return tx.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Update("status", courseModels.EnrollmentRevoked).Error
}

// UpdateProgress sets the completion percentage for an enrollment. Values
// outside [0,100] are rejected; going backwards requires reset=true. The
// monotonic guard is enforced in the UPDATE itself.
func (s *Service) UpdateProgress(userID, enrollmentID uint, percent float64, reset bool) (*courseModels.Enrollment, error) {
	if percent < 0 || percent > 100 {
		return nil, services.ErrOutOfRange
	}

	enrollment, err := s.load(userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == courseModels.EnrollmentRevoked {
		return nil, services.ErrStateConflict
	}

	fields := map[string]interface{}{
		"progress": percent,
	}
	switch {
	case percent >= 100:
		now := time.Now()
		fields["status"] = courseModels.EnrollmentCompleted
		fields["completed_at"] = now
	case percent > 0:
		fields["status"] = courseModels.EnrollmentInProgress
	}

	query := s.db.Model(&courseModels.Enrollment{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, userID, false)
	if !reset {
		query = query.Where("progress <= ?", percent)
	}

	result := query.Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// The row exists (loaded above), so the guard lost: regression
		return nil, services.ErrStateConflict
	}

	return s.load(userID, enrollmentID)
}

// AddTimeSpent accumulates study minutes on an enrollment.
func (s *Service) AddTimeSpent(userID, enrollmentID uint, minutes int) error {
	if minutes <= 0 {
		return services.ErrValidation
	}
	result := s.db.Model(&courseModels.Enrollment{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, userID, false).
		Update("time_spent_min", gorm.Expr("time_spent_min + ?", minutes))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// Stats are derived from enrollment rows on every call, never stored, so
// they cannot drift from the underlying data.
type Stats struct {
	TotalEnrollments int64   `json:"totalEnrollments"`
	Completed        int64   `json:"completed"`
	InProgress       int64   `json:"inProgress"`
	CompletionRate   float64 `json:"completionRate"` // 0-100
	TotalTimeMin     int64   `json:"totalTimeMin"`
	AverageProgress  float64 `json:"averageProgress"`
}

// StatsFor computes a user's learning statistics.
func (s *Service) StatsFor(userID uint) (*Stats, error) {
	base := s.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND is_deleted = ? AND status <> ?",
			userID, false, courseModels.EnrollmentRevoked)

	var stats Stats
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalEnrollments).Error; err != nil {
		return nil, err
	}
	if stats.TotalEnrollments == 0 {
		return &stats, nil
	}

	if err := base.Session(&gorm.Session{}).
		Where("status = ?", courseModels.EnrollmentCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", courseModels.EnrollmentInProgress).
		Count(&stats.InProgress).Error; err != nil {
		return nil, err
	}

	type sums struct {
		TimeSum     int64
		ProgressAvg float64
	}
	var agg sums
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(time_spent_min),0) as time_sum, COALESCE(AVG(progress),0) as progress_avg").
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	stats.TotalTimeMin = agg.TimeSum
	stats.AverageProgress = agg.ProgressAvg
	stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalEnrollments) * 100
	return &stats, nil
}

// List returns a page of the user's enrollments with courses preloaded.
func (s *Service) List(userID uint, page, limit int) ([]courseModels.Enrollment, int64, error) {
	query := s.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("Course")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []courseModels.Enrollment
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

func (s *Service) load(userID, enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := s.db.Where("id = ? AND user_id = ? AND is_deleted = ?", enrollmentID, userID, false).
		First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}
