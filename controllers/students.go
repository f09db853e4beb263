package controllers

import (
	"strconv"
	"time"

	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StudentController struct{}

type StudentRequest struct {
	RollNumber    string     `json:"roll_number" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Email         string     `json:"email" validate:"omitempty,email"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	ClassID       uuid.UUID  `json:"class_id" validate:"required"`
	SectionID     *uuid.UUID `json:"section_id"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone"`
}

// GetStudents returns students with pagination and class/section filters
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := database.DB.Model(&models.Student{}).Preload("Class").Preload("Section")

	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if sectionID := c.Query("section_id"); sectionID != "" {
		query = query.Where("section_id = ?", sectionID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ? OR roll_number ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Order("roll_number").Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a specific student by ID
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.Preload("Class").Preload("Section").First(&student, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
			"code":  "STUDENT_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

// CreateStudent enrolls a new student into a class (and optional section)
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
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

	if req.SectionID != nil {
		var section models.Section
		if err := database.DB.Where("id = ? AND class_id = ?", *req.SectionID, req.ClassID).First(&section).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Section not found in this class",
				"code":  "SECTION_NOT_FOUND",
			})
		}
	}

	var existing models.Student
	if err := database.DB.Where("roll_number = ?", req.RollNumber).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Student with this roll number already exists",
		})
	}

	user, _ := middleware.GetCurrentUser(c)
	student := models.Student{
		RollNumber:    req.RollNumber,
		Name:          req.Name,
		Email:         req.Email,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		ClassID:       req.ClassID,
		SectionID:     req.SectionID,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
	}
	if user != nil {
		id := user.ID
		student.CreatedBy = &id
	}

	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	middleware.LogAudit(c, "CREATE", "students", student.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates an existing student
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
			"code":  "STUDENT_NOT_FOUND",
		})
	}

	var req StudentRequest
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

	if req.RollNumber != student.RollNumber {
		var existing models.Student
		if err := database.DB.Where("roll_number = ? AND id <> ?", req.RollNumber, student.ID).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Student with this roll number already exists",
			})
		}
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", req.ClassID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
			"code":  "CLASS_NOT_FOUND",
		})
	}

	if req.SectionID != nil {
		var section models.Section
		if err := database.DB.Where("id = ? AND class_id = ?", *req.SectionID, req.ClassID).First(&section).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Section not found in this class",
				"code":  "SECTION_NOT_FOUND",
			})
		}
	}

	updates := map[string]interface{}{
		"roll_number":    req.RollNumber,
		"name":           req.Name,
		"email":          req.Email,
		"gender":         req.Gender,
		"date_of_birth":  req.DateOfBirth,
		"class_id":       req.ClassID,
		"section_id":     req.SectionID,
		"guardian_name":  req.GuardianName,
		"guardian_phone": req.GuardianPhone,
	}

	if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update student",
		})
	}

	database.DB.Preload("Class").Preload("Section").First(&student, "id = ?", student.ID)

	middleware.LogAudit(c, "UPDATE", "students", student.ID.String(), req)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent soft-deletes a student
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
			"code":  "STUDENT_NOT_FOUND",
		})
	}

	if err := database.DB.Delete(&student).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete student",
		})
	}

	middleware.LogAudit(c, "DELETE", "students", student.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}
