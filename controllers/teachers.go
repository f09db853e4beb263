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

type TeacherController struct{}

type CreateTeacherRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Phone          string `json:"phone"`
	EmployeeID     string `json:"employee_id"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
}

type UpdateTeacherRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	EmployeeID     string `json:"employee_id"`
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	Active         *bool  `json:"active"`
}

// GetTeachers returns all teacher users with pagination
func (tc *TeacherController) GetTeachers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset := (page - 1) * limit

	var teachers []models.User
	var total int64

	query := database.DB.Model(&models.User{}).Where("role = ?", models.RoleTeacher)

	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Order("name").Offset(offset).Limit(limit).Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch teachers",
		})
	}

	return c.JSON(fiber.Map{
		"teachers": teachers,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetTeacher returns a specific teacher by ID
func (tc *TeacherController) GetTeacher(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.User
	if err := database.DB.Where("id = ? AND role = ?", id, models.RoleTeacher).First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
			"code":  "TEACHER_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"teacher": teacher,
	})
}

// CreateTeacher creates a new teacher user
func (tc *TeacherController) CreateTeacher(c *fiber.Ctx) error {
	var req CreateTeacherRequest
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

	var existing models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A user with this email already exists",
		})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	teacher := models.User{
		Name:           req.Name,
		Email:          req.Email,
		Password:       hashed,
		Role:           models.RoleTeacher,
		Phone:          req.Phone,
		Active:         true,
		EmployeeID:     req.EmployeeID,
		Qualification:  req.Qualification,
		Specialization: req.Specialization,
	}

	if err := database.DB.Create(&teacher).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create teacher",
		})
	}

	middleware.LogAudit(c, "CREATE", "teachers", teacher.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Teacher created successfully",
		"teacher": teacher,
	})
}

// UpdateTeacher updates an existing teacher
func (tc *TeacherController) UpdateTeacher(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.User
	if err := database.DB.Where("id = ? AND role = ?", id, models.RoleTeacher).First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
			"code":  "TEACHER_NOT_FOUND",
		})
	}

	var req UpdateTeacherRequest
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

	if req.Email != "" && req.Email != teacher.Email {
		var existing models.User
		if err := database.DB.Where("email = ? AND id <> ?", req.Email, teacher.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A user with this email already exists",
			})
		}
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.EmployeeID != "" {
		updates["employee_id"] = req.EmployeeID
	}
	if req.Qualification != "" {
		updates["qualification"] = req.Qualification
	}
	if req.Specialization != "" {
		updates["specialization"] = req.Specialization
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if err := database.DB.Model(&teacher).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update teacher",
		})
	}

	database.DB.First(&teacher, "id = ?", teacher.ID)

	middleware.LogAudit(c, "UPDATE", "teachers", teacher.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Teacher updated successfully",
		"teacher": teacher,
	})
}

// DeleteTeacher soft-deletes a teacher
func (tc *TeacherController) DeleteTeacher(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.User
	if err := database.DB.Where("id = ? AND role = ?", id, models.RoleTeacher).First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
			"code":  "TEACHER_NOT_FOUND",
		})
	}

	// Refuse deletion while the teacher still has schedule entries
	var scheduleCount int64
	database.DB.Model(&models.Schedule{}).Where("teacher_id = ?", teacher.ID).Count(&scheduleCount)
	if scheduleCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Teacher still has schedule entries; remove them first",
		})
	}

	if err := database.DB.Delete(&teacher).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete teacher",
		})
	}

	middleware.LogAudit(c, "DELETE", "teachers", teacher.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Teacher deleted successfully",
	})
}
