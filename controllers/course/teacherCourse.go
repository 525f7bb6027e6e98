package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseService "lms/services/course"

	"github.com/gofiber/fiber/v2"
)

func svc() *courseService.Service {
	return courseService.New(database.Database.Db)
}

func caller(c *fiber.Ctx) (uint, string, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return 0, "", false
	}
	role, _ := c.Locals("role").(string)
	return userID, role, true
}

// CreateCourse creates a new draft course owned by the caller
func CreateCourse(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCourse").(*struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Duration    int64   `json:"duration"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := svc().Create(userID, reqData.Title, reqData.Description, reqData.Price, reqData.Duration)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// UpdateCourse edits course fields; content version bumps so enrolled
// learners keep their snapshot
func UpdateCourse(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedCourseUpdate").(*struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Price        *float64 `json:"price"`
		Duration     *int64   `json:"duration"`
		ThumbnailURL *string  `json:"thumbnail_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := svc().Update(userID, role, uint(courseID), courseService.CourseUpdate{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Price:        reqData.Price,
		Duration:     reqData.Duration,
		ThumbnailURL: reqData.ThumbnailURL,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// PublishCourse moves a draft or unpublished course live
func PublishCourse(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	result, err := svc().Publish(userID, role, uint(courseID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully!", result)
}

// UnpublishCourse takes a published course offline
func UnpublishCourse(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	result, err := svc().Unpublish(userID, role, uint(courseID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course unpublished successfully!", result)
}

// AddLesson appends a lesson to the caller's course
func AddLesson(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedLesson").(*struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		VideoURL    string `json:"video_url"`
		DurationMin int    `json:"duration_min"`
		OrderIndex  int    `json:"order_index"`
		IsFreeTrial bool   `json:"is_free_trial"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson, err := svc().AddLesson(userID, role, uint(courseID), courseModels.Lesson{
		Title:       reqData.Title,
		Description: reqData.Description,
		VideoURL:    reqData.VideoURL,
		DurationMin: reqData.DurationMin,
		OrderIndex:  reqData.OrderIndex,
		IsFreeTrial: reqData.IsFreeTrial,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson added successfully!", lesson)
}

// DeleteCourse soft-deletes a non-published course
func DeleteCourse(c *fiber.Ctx) error {
	userID, role, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	if err := svc().Delete(userID, role, uint(courseID)); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// GetMyCourses lists the caller's own courses in any state
func GetMyCourses(c *fiber.Ctx) error {
	userID, _, ok := caller(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var courses []courseModels.Course
	if err := database.Database.Db.
		Where("owner_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}
