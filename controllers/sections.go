package controllers

import (
	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SectionController struct{}

type SectionRequest struct {
	ClassID  uuid.UUID `json:"class_id" validate:"required"`
	Name     string    `json:"name" validate:"required"`
	Capacity int       `json:"capacity" validate:"min=0"`
}

// GetSections returns sections, optionally filtered by class
func (sc *SectionController) GetSections(c *fiber.Ctx) error {
	var sections []models.Section

	query := database.DB.Model(&models.Section{}).Preload("Class")
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	if err := query.Order("name").Find(&sections).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sections",
		})
	}

	return c.JSON(fiber.Map{
		"sections": sections,
		"total":    len(sections),
	})
}

// GetSection returns a specific section by ID
func (sc *SectionController) GetSection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid section ID",
		})
	}

	var section models.Section
	if err := database.DB.Preload("Class").First(&section, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Section not found",
			"code":  "SECTION_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"section": section,
	})
}

// CreateSection creates a new section under a class
func (sc *SectionController) CreateSection(c *fiber.Ctx) error {
	var req SectionRequest
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

	var class models.Class
	if err := database.DB.First(&class, "id = ?", req.ClassID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
			"code":  "CLASS_NOT_FOUND",
		})
	}

	var existing models.Section
	if err := database.DB.Where("class_id = ? AND name = ?", req.ClassID, req.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Section with this name already exists in the class",
		})
	}

	user, _ := middleware.GetCurrentUser(c)
	section := models.Section{
		ClassID:  req.ClassID,
		Name:     req.Name,
		Capacity: req.Capacity,
	}
	if user != nil {
		id := user.ID
		section.CreatedBy = &id
	}

	if err := database.DB.Create(&section).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create section",
		})
	}

	middleware.LogAudit(c, "CREATE", "sections", section.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Section created successfully",
		"section": section,
	})
}

// UpdateSection updates an existing section
func (sc *SectionController) UpdateSection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid section ID",
		})
	}

	var section models.Section
	if err := database.DB.First(&section, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Section not found",
			"code":  "SECTION_NOT_FOUND",
		})
	}

	var req SectionRequest
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

	if req.Name != section.Name || req.ClassID != section.ClassID {
		var existing models.Section
		if err := database.DB.Where("class_id = ? AND name = ? AND id <> ?", req.ClassID, req.Name, section.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Section with this name already exists in the class",
			})
		}
	}

	updates := models.Section{
		ClassID:  req.ClassID,
		Name:     req.Name,
		Capacity: req.Capacity,
	}

	if err := database.DB.Model(&section).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update section",
		})
	}

	middleware.LogAudit(c, "UPDATE", "sections", section.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Section updated successfully",
		"section": section,
	})
}

// DeleteSection soft-deletes a section
func (sc *SectionController) DeleteSection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid section ID",
		})
	}

	var section models.Section
	if err := database.DB.First(&section, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Section not found",
			"code":  "SECTION_NOT_FOUND",
		})
	}

	var scheduleCount int64
	database.DB.Model(&models.Schedule{}).Where("section_id = ?", section.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Section is still referenced by schedules; remove them first",
		})
	}

	if err := database.DB.Delete(&section).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete section",
		})
	}

	middleware.LogAudit(c, "DELETE", "sections", section.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Section deleted successfully",
	})
}
