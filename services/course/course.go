package course

import (
	"strings"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/services"

	"gorm.io/gorm"
)

// Service implements the draft -> published -> unpublished course lifecycle.
// Every transition is a conditional update against the current status so
// concurrent callers cannot both win.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TransitionResult is returned by every successful state transition.
type TransitionResult struct {
	Status  string `json:"status"`
	Version int    `json:"version"`
}

// CourseUpdate carries the mutable course fields; nil means leave unchanged.
type CourseUpdate struct {
	Title        *string
	Description  *string
	Price        *float64
	Duration     *int64
	ThumbnailURL *string
}

// Create makes a new draft course owned by the given teacher.
func (s *Service) Create(ownerID uint, title, description string, price float64, duration int64) (*courseModels.Course, error) {
	if strings.TrimSpace(title) == "" {
		return nil, services.ErrValidation
	}
	if price < 0 {
		return nil, services.ErrValidation
	}

	course := courseModels.Course{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		Price:       price,
		Duration:    duration,
		Status:      courseModels.StatusDraft,
	}

	if err := s.db.Create(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Publish moves a draft or unpublished course to PUBLISHED. Only the owner
// or an admin may publish, and the course must have a title, a non-negative
// price and at least one lesson.
func (s *Service) Publish(callerID uint, callerRole string, courseID uint) (*TransitionResult, error) {
	course, err := s.load(courseID)
	if err != nil {
		return nil, err
	}

	if err := ownerOrAdmin(course, callerID, callerRole); err != nil {
		return nil, err
	}

	if strings.TrimSpace(course.Title) == "" || course.Price < 0 {
		return nil, services.ErrValidation
	}

	var lessonCount int64
	if err := s.db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&lessonCount).Error; err != nil {
		return nil, err
	}
	if lessonCount == 0 {
		return nil, services.ErrValidation
	}

	now := time.Now()
	result := s.db.Model(&courseModels.Course{}).
		Where("id = ? AND is_deleted = ? AND status IN ?",
			courseID, false, []string{courseModels.StatusDraft, courseModels.StatusUnpublished}).
		Updates(map[string]interface{}{
			"status":       courseModels.StatusPublished,
			"published_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Already published, or someone else won the race
		return nil, services.ErrStateConflict
	}

	return &TransitionResult{Status: courseModels.StatusPublished, Version: course.ContentVersion}, nil
}

// Unpublish moves a published course to UNPUBLISHED. It can be re-published
// later.
func (s *Service) Unpublish(callerID uint, callerRole string, courseID uint) (*TransitionResult, error) {
	course, err := s.load(courseID)
	if err != nil {
		return nil, err
	}

	if err := ownerOrAdmin(course, callerID, callerRole); err != nil {
		return nil, err
	}

	result := s.db.Model(&courseModels.Course{}).
		Where("id = ? AND is_deleted = ? AND status = ?", courseID, false, courseModels.StatusPublished).
		Update("status", courseModels.StatusUnpublished)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, services.ErrStateConflict
	}

	return &TransitionResult{Status: courseModels.StatusUnpublished, Version: course.ContentVersion}, nil
}

// Update edits course fields in any state and bumps the content version.
// Existing enrollments keep the version they enrolled with, so edits to a
// published course never change what an enrolled learner sees.
func (s *Service) Update(callerID uint, callerRole string, courseID uint, upd CourseUpdate) (*courseModels.Course, error) {
	course, err := s.load(courseID)
	if err != nil {
		return nil, err
	}

	if err := ownerOrAdmin(course, callerID, callerRole); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, services.ErrValidation
		}
		fields["title"] = *upd.Title
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, services.ErrValidation
		}
		fields["price"] = *upd.Price
	}
	if upd.Duration != nil {
		fields["duration"] = *upd.Duration
	}
	if upd.ThumbnailURL != nil {
		fields["thumbnail_url"] = *upd.ThumbnailURL
	}

	if len(fields) == 0 {
		return course, nil
	}
	fields["content_version"] = gorm.Expr("content_version + 1")

	if err := s.db.Model(&courseModels.Course{}).
		Where("id = ? AND is_deleted = ?", courseID, false).
		Updates(fields).Error; err != nil {
		return nil, err
	}

	return s.load(courseID)
}

// AddLesson appends a lesson to a course. Allowed in any course state.
func (s *Service) AddLesson(callerID uint, callerRole string, courseID uint, lesson courseModels.Lesson) (*courseModels.Lesson, error) {
	course, err := s.load(courseID)
	if err != nil {
		return nil, err
	}

	if err := ownerOrAdmin(course, callerID, callerRole); err != nil {
		return nil, err
	}

	if strings.TrimSpace(lesson.Title) == "" {
		return nil, services.ErrValidation
	}

	lesson.CourseID = courseID
	if err := s.db.Create(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Delete soft-deletes a course. Published courses must be unpublished first.
func (s *Service) Delete(callerID uint, callerRole string, courseID uint) error {
	course, err := s.load(courseID)
	if err != nil {
		return err
	}

	if err := ownerOrAdmin(course, callerID, callerRole); err != nil {
		return err
	}

	result := s.db.Model(&courseModels.Course{}).
		Where("id = ? AND is_deleted = ? AND status <> ?", courseID, false, courseModels.StatusPublished).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return services.ErrStateConflict
	}
	return nil
}

func (s *Service) load(courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	err := s.db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func ownerOrAdmin(course *courseModels.Course, callerID uint, callerRole string) error {
	if callerRole == models.RoleAdmin {
		return nil
	}
	if course.OwnerID != callerID {
		return services.ErrPermissionDenied
	}
	return nil
}
