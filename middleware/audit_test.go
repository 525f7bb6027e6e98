package middleware

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuditTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))

	app := fiber.New()
	app.Use(AuditLogger(db))
	return app, db
}

func lastAuditLog(t *testing.T, db *gorm.DB) *models.AuditLog {
	t.Helper()
	var entry models.AuditLog
	require.NoError(t, db.Order("id desc").First(&entry).Error)
	return &entry
}

func TestAuditLoggerRecordsRequest(t *testing.T) {
	app, db := newAuditTestApp(t)
	app.Get("/course/:id", func(c *fiber.Ctx) error {
		c.Locals("userId", uint(7))
		c.Locals("userName", "Asha")
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/course/42", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	entry := lastAuditLog(t, db)
	assert.Equal(t, uint(7), entry.UserID)
	assert.Equal(t, "Asha", entry.Username)
	assert.Equal(t, "view", entry.Action)
	assert.Equal(t, "course", entry.ResourceType)
	assert.Equal(t, "42", entry.ResourceID)
	assert.Equal(t, "GET", entry.Method)
	assert.Equal(t, "/course/42", entry.Endpoint)
	assert.Equal(t, models.AuditStatusSuccess, entry.Status)
}

func TestAuditLoggerStatusFromResponseCode(t *testing.T) {
	app, db := newAuditTestApp(t)
	app.Post("/order", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusConflict).SendString("no")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).SendString("boom")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/order", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	entry := lastAuditLog(t, db)
	assert.Equal(t, models.AuditStatusFailed, entry.Status)
	assert.Equal(t, "create", entry.Action)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	entry = lastAuditLog(t, db)
	assert.Equal(t, models.AuditStatusError, entry.Status)
}

func TestAuditLoggerSkipsNoisePaths(t *testing.T) {
	app, db := newAuditTestApp(t)
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/auth/login", func(c *fiber.Ctx) error { return c.SendString("ok") })

	_, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Authentication endpoints are always recorded with their own action
	_, err = app.Test(httptest.NewRequest("POST", "/auth/login", nil))
	require.NoError(t, err)
	entry := lastAuditLog(t, db)
	assert.Equal(t, "login", entry.Action)
	assert.Equal(t, "auth", entry.ResourceType)
}
