package course

import (
	"fmt"
	"testing"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCreateStartsAsDraft(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "intro", 499, 10)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusDraft, course.Status)
	assert.Equal(t, 1, course.ContentVersion)

	_, err = svc.Create(1, "  ", "no title", 0, 0)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Create(1, "Bad Price", "", -5, 0)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestPublishRequiresLesson(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "", 499, 10)
	require.NoError(t, err)

	_, err = svc.Publish(1, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrValidation)

	// Failed publish must leave the course in DRAFT
	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, courseModels.StatusDraft, reloaded.Status)
}

func TestPublishLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "", 499, 10)
	require.NoError(t, err)
	_, err = svc.AddLesson(1, models.RoleTeacher, course.ID, courseModels.Lesson{Title: "Hello"})
	require.NoError(t, err)

	result, err := svc.Publish(1, models.RoleTeacher, course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusPublished, result.Status)

	var reloaded courseModels.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.NotNil(t, reloaded.PublishedAt)

	// Publishing a published course is a conflict, not a silent no-op
	_, err = svc.Publish(1, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrStateConflict)

	result, err = svc.Unpublish(1, models.RoleTeacher, course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusUnpublished, result.Status)

	_, err = svc.Unpublish(1, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrStateConflict)

	// An unpublished course can come back
	result, err = svc.Publish(1, models.RoleTeacher, course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusPublished, result.Status)
}

func TestPublishOwnerOrAdminOnly(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "", 499, 10)
	require.NoError(t, err)
	_, err = svc.AddLesson(1, models.RoleTeacher, course.ID, courseModels.Lesson{Title: "Hello"})
	require.NoError(t, err)

	_, err = svc.Publish(2, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	_, err = svc.Publish(99, models.RoleAdmin, course.ID)
	assert.NoError(t, err)
}

func TestUpdateBumpsContentVersion(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "", 499, 10)
	require.NoError(t, err)

	title := "Go Basics, 2nd edition"
	updated, err := svc.Update(1, models.RoleTeacher, course.ID, CourseUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ContentVersion)
	assert.Equal(t, title, updated.Title)

	// No fields changed means no version bump
	same, err := svc.Update(1, models.RoleTeacher, course.ID, CourseUpdate{})
	require.NoError(t, err)
	assert.Equal(t, 2, same.ContentVersion)

	empty := ""
	_, err = svc.Update(1, models.RoleTeacher, course.ID, CourseUpdate{Title: &empty})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestDeleteRefusedWhilePublished(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	course, err := svc.Create(1, "Go Basics", "", 499, 10)
	require.NoError(t, err)
	_, err = svc.AddLesson(1, models.RoleTeacher, course.ID, courseModels.Lesson{Title: "Hello"})
	require.NoError(t, err)
	_, err = svc.Publish(1, models.RoleTeacher, course.ID)
	require.NoError(t, err)

	err = svc.Delete(1, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrStateConflict)

	_, err = svc.Unpublish(1, models.RoleTeacher, course.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(1, models.RoleTeacher, course.ID))

	_, err = svc.Publish(1, models.RoleTeacher, course.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
