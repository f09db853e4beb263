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

type ClassroomController struct{}

type ClassroomRequest struct {
	RoomNumber string `json:"room_number" validate:"required"`
	Building   string `json:"building"`
	Floor      int    `json:"floor"`
	Capacity   int    `json:"capacity" validate:"required,min=1"`
	RoomType   string `json:"room_type" validate:"omitempty,oneof=lecture lab auditorium"`
}

// GetClassrooms returns all classrooms with pagination
func (cc *ClassroomController) GetClassrooms(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset := (page - 1) * limit

	var classrooms []models.Classroom
	var total int64

	query := database.DB.Model(&models.Classroom{})

	if building := c.Query("building"); building != "" {
		query = query.Where("building = ?", building)
	}
	if roomType := c.Query("room_type"); roomType != "" {
		query = query.Where("room_type = ?", roomType)
	}
	if minCapacity := c.Query("min_capacity"); minCapacity != "" {
		query = query.Where("capacity >= ?", minCapacity)
	}

	query.Count(&total)

	if err := query.Order("building, room_number").Offset(offset).Limit(limit).Find(&classrooms).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classrooms",
		})
	}

	return c.JSON(fiber.Map{
		"classrooms": classrooms,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetClassroom returns a specific classroom by ID
func (cc *ClassroomController) GetClassroom(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid classroom ID",
		})
	}

	var classroom models.Classroom
	if err := database.DB.First(&classroom, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Classroom not found",
			"code":  "CLASSROOM_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"classroom": classroom,
	})
}

// CreateClassroom creates a new classroom
func (cc *ClassroomController) CreateClassroom(c *fiber.Ctx) error {
	var req ClassroomRequest
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

	var existing models.Classroom
	if err := database.DB.Where("room_number = ?", req.RoomNumber).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Classroom with this room number already exists",
		})
	}

	if req.RoomType == "" {
		req.RoomType = "lecture"
	}

	user, _ := middleware.GetCurrentUser(c)
	classroom := models.Classroom{
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
		Floor:      req.Floor,
		Capacity:   req.Capacity,
		RoomType:   req.RoomType,
	}
	if user != nil {
		id := user.ID
		classroom.CreatedBy = &id
	}

	if err := database.DB.Create(&classroom).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create classroom",
		})
	}

	middleware.LogAudit(c, "CREATE", "classrooms", classroom.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Classroom created successfully",
		"classroom": classroom,
	})
}

// UpdateClassroom updates an existing classroom
func (cc *ClassroomController) UpdateClassroom(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid classroom ID",
		})
	}

	var classroom models.Classroom
	if err := database.DB.First(&classroom, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Classroom not found",
			"code":  "CLASSROOM_NOT_FOUND",
		})
	}

	var req ClassroomRequest
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

	if req.RoomNumber != classroom.RoomNumber {
		var existing models.Classroom
		if err := database.DB.Where("room_number = ? AND id <> ?", req.RoomNumber, classroom.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Classroom with this room number already exists",
			})
		}
	}

	updates := models.Classroom{
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
		Floor:      req.Floor,
		Capacity:   req.Capacity,
		RoomType:   req.RoomType,
	}

	if err := database.DB.Model(&classroom).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update classroom",
		})
	}

	middleware.LogAudit(c, "UPDATE", "classrooms", classroom.ID.String(), req)

	return c.JSON(fiber.Map{
		"message":   "Classroom updated successfully",
		"classroom": classroom,
	})
}

// DeleteClassroom soft-deletes a classroom
func (cc *ClassroomController) DeleteClassroom(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid classroom ID",
		})
	}

	var classroom models.Classroom
	if err := database.DB.First(&classroom, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Classroom not found",
			"code":  "CLASSROOM_NOT_FOUND",
		})
	}

	var scheduleCount int64
	database.DB.Model(&models.Schedule{}).Where("classroom_id = ?", classroom.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Classroom is still referenced by schedules; remove them first",
		})
	}

	if err := database.DB.Delete(&classroom).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete classroom",
		})
	}

	middleware.LogAudit(c, "DELETE", "classrooms", classroom.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Classroom deleted successfully",
	})
}
