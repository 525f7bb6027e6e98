package learning

import (
	"fmt"
	"testing"

	"lms/database"
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

func newCourse(t *testing.T, db *gorm.DB, status string, version int) *courseModels.Course {
	t.Helper()
	course := courseModels.Course{
		Title:          "Go Basics",
		OwnerID:        100,
		Status:         status,
		ContentVersion: version,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestEnrollOnlyPublished(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	draft := newCourse(t, db, courseModels.StatusDraft, 1)
	_, err := svc.Enroll(1, draft.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	published := newCourse(t, db, courseModels.StatusPublished, 3)
	enrollment, err := svc.Enroll(1, published.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentEnrolled, enrollment.Status)
	// The course version is locked in at enroll time
	assert.Equal(t, 3, enrollment.ContentVersion)

	_, err = svc.Enroll(1, published.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyEnrolled)
}

func TestProgressMonotonic(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	course := newCourse(t, db, courseModels.StatusPublished, 1)

	enrollment, err := svc.Enroll(1, course.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateProgress(1, enrollment.ID, 50, false)
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.Progress)
	assert.Equal(t, courseModels.EnrollmentInProgress, updated.Status)

	// Going backwards without reset is refused and changes nothing
	_, err = svc.UpdateProgress(1, enrollment.ID, 30, false)
	assert.ErrorIs(t, err, services.ErrStateConflict)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, 50.0, reloaded.Progress)

	// Explicit reset may go backwards
	updated, err = svc.UpdateProgress(1, enrollment.ID, 30, true)
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Progress)

	// Same value is not a regression
	_, err = svc.UpdateProgress(1, enrollment.ID, 30, false)
	assert.NoError(t, err)

	updated, err = svc.UpdateProgress(1, enrollment.ID, 100, false)
	require.NoError(t, err)
	assert.Equal(t, courseModels.EnrollmentCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestProgressOutOfRange(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	course := newCourse(t, db, courseModels.StatusPublished, 1)

	enrollment, err := svc.Enroll(1, course.ID)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(1, enrollment.ID, -1, false)
	assert.ErrorIs(t, err, services.ErrOutOfRange)
	_, err = svc.UpdateProgress(1, enrollment.ID, 100.5, false)
	assert.ErrorIs(t, err, services.ErrOutOfRange)
}

func TestRevokedEnrollmentRejectsProgress(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	course := newCourse(t, db, courseModels.StatusPublished, 1)

	enrollment, err := svc.Enroll(1, course.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(db, 1, course.ID))

	_, err = svc.UpdateProgress(1, enrollment.ID, 10, false)
	assert.ErrorIs(t, err, services.ErrStateConflict)
}

func TestGrantReactivatesRevoked(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	course := newCourse(t, db, courseModels.StatusPublished, 2)

	enrollment, err := svc.Enroll(1, course.ID)
	require.NoError(t, err)
	_, err = svc.UpdateProgress(1, enrollment.ID, 60, false)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(db, 1, course.ID))

	// Course content moved on while the user was away
	require.NoError(t, db.Model(&courseModels.Course{}).
		Where("id = ?", course.ID).
		Update("content_version", 5).Error)

	require.NoError(t, svc.Grant(db, 1, course.ID))

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentEnrolled, reloaded.Status)
	assert.Equal(t, 0.0, reloaded.Progress)
	assert.Equal(t, 5, reloaded.ContentVersion)
}

func TestAddTimeSpent(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	course := newCourse(t, db, courseModels.StatusPublished, 1)

	enrollment, err := svc.Enroll(1, course.ID)
	require.NoError(t, err)

	require.NoError(t, svc.AddTimeSpent(1, enrollment.ID, 25))
	require.NoError(t, svc.AddTimeSpent(1, enrollment.ID, 15))

	err = svc.AddTimeSpent(1, enrollment.ID, 0)
	assert.ErrorIs(t, err, services.ErrValidation)

	err = svc.AddTimeSpent(1, 9999, 10)
	assert.ErrorIs(t, err, services.ErrNotFound)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, 40, reloaded.TimeSpentMin)
}

func TestStatsDerived(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	a := newCourse(t, db, courseModels.StatusPublished, 1)
	b := newCourse(t, db, courseModels.StatusPublished, 1)
	c := newCourse(t, db, courseModels.StatusPublished, 1)
	d := newCourse(t, db, courseModels.StatusPublished, 1)

	ea, err := svc.Enroll(1, a.ID)
	require.NoError(t, err)
	eb, err := svc.Enroll(1, b.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(1, c.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(1, d.ID)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(1, ea.ID, 100, false)
	require.NoError(t, err)
	_, err = svc.UpdateProgress(1, eb.ID, 50, false)
	require.NoError(t, err)
	require.NoError(t, svc.AddTimeSpent(1, ea.ID, 60))
	require.NoError(t, svc.AddTimeSpent(1, eb.ID, 30))

	// Revoked enrollments are excluded from stats
	require.NoError(t, svc.Revoke(db, 1, d.ID))

	stats, err := svc.StatsFor(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEnrollments)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.InProgress)
	assert.Equal(t, int64(90), stats.TotalTimeMin)
	assert.InDelta(t, 50.0, stats.AverageProgress, 0.01)
	assert.InDelta(t, 33.33, stats.CompletionRate, 0.01)
}

func TestStatsEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)

	stats, err := svc.StatsFor(42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalEnrollments)
	assert.Equal(t, 0.0, stats.CompletionRate)
}
