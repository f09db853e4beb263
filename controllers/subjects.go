package controllers

import (
	"strconv"

	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SubjectController struct{}

type SubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	WeeklyHours int    `json:"weekly_hours" validate:"min=0"`
}

// GetSubjects returns all subjects with pagination
func (sc *SubjectController) GetSubjects(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset := (page - 1) * limit

	var subjects []models.Subject
	var total int64

	query := database.DB.Model(&models.Subject{})
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Order("name").Offset(offset).Limit(limit).Find(&subjects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subjects",
		})
	}

	return c.JSON(fiber.Map{
		"subjects": subjects,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetSubject returns a specific subject by ID
func (sc *SubjectController) GetSubject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subject ID",
		})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subject not found",
			"code":  "SUBJECT_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"subject": subject,
	})
}

// CreateSubject creates a new subject
func (sc *SubjectController) CreateSubject(c *fiber.Ctx) error {
	var req SubjectRequest
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

	var existing models.Subject
	if err := database.DB.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Subject with this code already exists",
		})
	}

	user, _ := middleware.GetCurrentUser(c)
	subject := models.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Color:       req.Color,
		WeeklyHours: req.WeeklyHours,
	}
	if user != nil {
		id := user.ID
		subject.CreatedBy = &id
	}

	if err := database.DB.Create(&subject).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create subject",
		})
	}

	middleware.LogAudit(c, "CREATE", "subjects", subject.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Subject created successfully",
		"subject": subject,
	})
}

// UpdateSubject updates an existing subject
func (sc *SubjectController) UpdateSubject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subject ID",
		})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subject not found",
			"code":  "SUBJECT_NOT_FOUND",
		})
	}

	var req SubjectRequest
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

	if req.Code != subject.Code {
		var existing models.Subject
		if err := database.DB.Where("code = ? AND id <> ?", req.Code, subject.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Subject with this code already exists",
			})
		}
	}

	updates := models.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Color:       req.Color,
		WeeklyHours: req.WeeklyHours,
	}

	if err := database.DB.Model(&subject).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update subject",
		})
	}

	middleware.LogAudit(c, "UPDATE", "subjects", subject.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Subject updated successfully",
		"subject": subject,
	})
}

// DeleteSubject soft-deletes a subject
func (sc *SubjectController) DeleteSubject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subject ID",
		})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subject not found",
			"code":  "SUBJECT_NOT_FOUND",
		})
	}

	var scheduleCount int64
	database.DB.Model(&models.Schedule{}).Where("subject_id = ?", subject.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Subject is still referenced by schedules; remove them first",
		})
	}

	if err := database.DB.Delete(&subject).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete subject",
		})
	}

	middleware.LogAudit(c, "DELETE", "subjects", subject.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Subject deleted successfully",
	})
}
