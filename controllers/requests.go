package controllers

import (
	"time"

	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RequestController struct{}

type CreateRequestRequest struct {
	RequestType string     `json:"request_type" validate:"required,oneof=leave schedule_change room_change other"`
	Subject     string     `json:"subject" validate:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type ProcessRequestRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Response string `json:"response"`
}

// GetRequests returns teacher requests. Teachers see only their own;
// principals and super-admins see everything.
func (rc *RequestController) GetRequests(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var requests []models.TeacherRequest
	query := database.DB.Model(&models.TeacherRequest{}).Preload("Teacher")

	if user.Role == models.RoleTeacher {
		query = query.Where("teacher_id = ?", user.ID)
	} else if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Where("teacher_id = ?", teacherID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch requests",
		})
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"total":    len(requests),
	})
}

// GetRequest returns one request. Teachers may only read their own.
func (rc *RequestController) GetRequest(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	var request models.TeacherRequest
	if err := database.DB.Preload("Teacher").First(&request, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
			"code":  "REQUEST_NOT_FOUND",
		})
	}

	if user.Role == models.RoleTeacher && request.TeacherID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You can only view your own requests",
		})
	}

	return c.JSON(fiber.Map{
		"request": request,
	})
}

// CreateRequest raises a request on behalf of the authenticated teacher
func (rc *RequestController) CreateRequest(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if details := utils.ValidateStruct(req); details != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": details,
		})
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "end_date must not be before start_date",
		})
	}

	if req.Priority == "" {
		req.Priority = "medium"
	}

	request := models.TeacherRequest{
		TeacherID:   user.ID,
		RequestType: req.RequestType,
		Subject:     req.Subject,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      "pending",
		Priority:    req.Priority,
	}

	if err := database.DB.Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create request",
		})
	}

	middleware.LogAudit(c, "CREATE", "teacher_requests", request.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Request submitted successfully",
		"request": request,
	})
}

// ProcessRequest approves or rejects a pending request
func (rc *RequestController) ProcessRequest(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	var request models.TeacherRequest
	if err := database.DB.First(&request, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
			"code":  "REQUEST_NOT_FOUND",
		})
	}

	if request.Status != "pending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Request has already been processed",
		})
	}

	var req ProcessRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if details := utils.ValidateStruct(req); details != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": details,
		})
	}

	now := time.Now()
	processedBy := user.ID
	updates := map[string]interface{}{
		"status":       req.Status,
		"response":     req.Response,
		"processed_by": processedBy,
		"processed_at": now,
	}

	if err := database.DB.Model(&request).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process request",
		})
	}

	database.DB.Preload("Teacher").First(&request, "id = ?", request.ID)

	middleware.LogAudit(c, "UPDATE", "teacher_requests", request.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Request processed successfully",
		"request": request,
	})
}

// DeleteRequest lets a teacher withdraw their own pending request
func (rc *RequestController) DeleteRequest(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	var request models.TeacherRequest
	if err := database.DB.First(&request, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Request not found",
			"code":  "REQUEST_NOT_FOUND",
		})
	}

	if user.Role == models.RoleTeacher {
		if request.TeacherID != user.ID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You can only withdraw your own requests",
			})
		}
		if request.Status != "pending" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Only pending requests can be withdrawn",
			})
		}
	}

	if err := database.DB.Delete(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete request",
		})
	}

	middleware.LogAudit(c, "DELETE", "teacher_requests", request.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Request deleted successfully",
	})
}
