package controllers

import (
	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ClassController struct{}

type ClassRequest struct {
	Name         string `json:"name" validate:"required"`
	GradeLevel   string `json:"grade_level"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// GetClasses returns all classes, optionally filtered by academic year
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	var classes []models.Class

	query := database.DB.Model(&models.Class{}).Preload("Sections")
	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}

	if err := query.Order("name").Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	return c.JSON(fiber.Map{
		"classes": classes,
		"total":   len(classes),
	})
}

// GetClass returns a specific class with its sections
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.Preload("Sections").First(&class, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
			"code":  "CLASS_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"class": class,
	})
}

// CreateClass creates a new class
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	var req ClassRequest
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

	user, _ := middleware.GetCurrentUser(c)
	class := models.Class{
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
	}
	if user != nil {
		id := user.ID
		class.CreatedBy = &id
	}

	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create class",
		})
	}

	middleware.LogAudit(c, "CREATE", "classes", class.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   class,
	})
}

// UpdateClass updates an existing class
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
			"code":  "CLASS_NOT_FOUND",
		})
	}

	var req ClassRequest
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

	updates := models.Class{
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		AcademicYear: req.AcademicYear,
	}

	if err := database.DB.Model(&class).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	middleware.LogAudit(c, "UPDATE", "classes", class.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   class,
	})
}

// DeleteClass soft-deletes a class
func (cc *ClassController) DeleteClass(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
			"code":  "CLASS_NOT_FOUND",
		})
	}

	var scheduleCount int64
	database.DB.Model(&models.Schedule{}).Where("class_id = ?", class.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Class is still referenced by schedules; remove them first",
		})
	}

	if err := database.DB.Delete(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete class",
		})
	}

	middleware.LogAudit(c, "DELETE", "classes", class.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Class deleted successfully",
	})
}
