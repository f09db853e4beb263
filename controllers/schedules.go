package controllers

import (
	"errors"
	"time"

	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"
	"timetable_go/services"
	"timetable_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleController struct{}

type ScheduleRequest struct {
	TeacherID    uuid.UUID  `json:"teacher_id" validate:"required"`
	SubjectID    uuid.UUID  `json:"subject_id" validate:"required"`
	ClassroomID  uuid.UUID  `json:"classroom_id" validate:"required"`
	ClassID      uuid.UUID  `json:"class_id" validate:"required"`
	SectionID    *uuid.UUID `json:"section_id"`
	DayOfWeek    int        `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime    string     `json:"start_time" validate:"required"`
	EndTime      string     `json:"end_time" validate:"required"`
	AcademicYear string     `json:"academic_year" validate:"required"`
}

var errScheduleConflict = errors.New("schedule conflict")

// normalizeWindow parses and normalizes the requested time window to
// HH:MM:SS. Returns minutes for the ordering check.
func normalizeWindow(req *ScheduleRequest) (int, int, error) {
	start, err := services.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := services.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return 0, 0, err
	}
	req.StartTime = services.FormatTimeOfDay(start)
	req.EndTime = services.FormatTimeOfDay(end)
	return start, end, nil
}

// resolveReferences checks every foreign key in the request. On a miss it
// returns the not-found body to send; nil means all references resolve.
func resolveReferences(req *ScheduleRequest) fiber.Map {
	var teacher models.User
	if err := database.DB.Where("id = ? AND role = ? AND active = ?", req.TeacherID, models.RoleTeacher, true).First(&teacher).Error; err != nil {
		return fiber.Map{"error": "Teacher not found", "code": "TEACHER_NOT_FOUND"}
	}

	var subject models.Subject
	if err := database.DB.First(&subject, "id = ?", req.SubjectID).Error; err != nil {
		return fiber.Map{"error": "Subject not found", "code": "SUBJECT_NOT_FOUND"}
	}

	var classroom models.Classroom
	if err := database.DB.First(&classroom, "id = ?", req.ClassroomID).Error; err != nil {
		return fiber.Map{"error": "Classroom not found", "code": "CLASSROOM_NOT_FOUND"}
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", req.ClassID).Error; err != nil {
		return fiber.Map{"error": "Class not found", "code": "CLASS_NOT_FOUND"}
	}

	if req.SectionID != nil {
		var section models.Section
		if err := database.DB.Where("id = ? AND class_id = ?", *req.SectionID, req.ClassID).First(&section).Error; err != nil {
			return fiber.Map{"error": "Section not found in this class", "code": "SECTION_NOT_FOUND"}
		}
	}

	return nil
}

// GetSchedules returns schedule entries with joined display data
func (sc *ScheduleController) GetSchedules(c *fiber.Ctx) error {
	var schedules []models.Schedule

	query := database.DB.Model(&models.Schedule{}).
		Preload("Teacher").
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section")

	if day := c.Query("day_of_week"); day != "" {
		query = query.Where("day_of_week = ?", day)
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Where("teacher_id = ?", teacherID)
	}
	if classroomID := c.Query("classroom_id"); classroomID != "" {
		query = query.Where("classroom_id = ?", classroomID)
	}
	if subjectID := c.Query("subject_id"); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}
	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}

	if err := query.Order("day_of_week, start_time, id").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	return c.JSON(fiber.Map{
		"schedules": schedules,
		"total":     len(schedules),
	})
}

// GetSchedule returns one schedule entry
func (sc *ScheduleController) GetSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule ID",
		})
	}

	var schedule models.Schedule
	if err := database.DB.
		Preload("Teacher").
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section").
		First(&schedule, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
			"code":  "SCHEDULE_NOT_FOUND",
		})
	}

	return c.JSON(fiber.Map{
		"schedule": schedule,
	})
}

// GetMySchedules returns the authenticated teacher's own timetable,
// split into today's sessions and the rest of the week.
func (sc *ScheduleController) GetMySchedules(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var schedules []models.Schedule
	query := database.DB.Model(&models.Schedule{}).
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section").
		Where("teacher_id = ?", user.ID)

	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}

	if err := query.Order("day_of_week, start_time, id").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	// time.Weekday has Sunday=0; schedules use Monday=1 ... Sunday=7
	now := time.Now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	nowMinutes := now.Hour()*60 + now.Minute()

	current := []models.Schedule{}
	upcoming := []models.Schedule{}
	for _, s := range schedules {
		if s.DayOfWeek != weekday {
			continue
		}
		start, err := services.ParseTimeOfDay(s.StartTime)
		if err != nil {
			continue
		}
		end, err := services.ParseTimeOfDay(s.EndTime)
		if err != nil {
			continue
		}
		switch {
		case start <= nowMinutes && nowMinutes < end:
			current = append(current, s)
		case start > nowMinutes:
			upcoming = append(upcoming, s)
		}
	}

	return c.JSON(fiber.Map{
		"schedules": schedules,
		"current":   current,
		"upcoming":  upcoming,
		"total":     len(schedules),
	})
}

// GetTeacherSchedules returns one teacher's timetable
func (sc *ScheduleController) GetTeacherSchedules(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.User
	if err := database.DB.Where("id = ? AND role = ?", teacherID, models.RoleTeacher).First(&teacher).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
			"code":  "TEACHER_NOT_FOUND",
		})
	}

	var schedules []models.Schedule
	query := database.DB.Model(&models.Schedule{}).
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section").
		Where("teacher_id = ?", teacherID)

	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}

	if err := query.Order("day_of_week, start_time, id").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	return c.JSON(fiber.Map{
		"teacher":   teacher,
		"schedules": schedules,
		"total":     len(schedules),
	})
}

// GetWeeklySchedules returns the timetable grouped by day 1-7
func (sc *ScheduleController) GetWeeklySchedules(c *fiber.Ctx) error {
	var schedules []models.Schedule

	query := database.DB.Model(&models.Schedule{}).
		Preload("Teacher").
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section")

	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	if err := query.Order("day_of_week, start_time, id").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	week := map[int][]models.Schedule{}
	for day := 1; day <= 7; day++ {
		week[day] = []models.Schedule{}
	}
	for _, s := range schedules {
		week[s.DayOfWeek] = append(week[s.DayOfWeek], s)
	}

	return c.JSON(fiber.Map{
		"week":  week,
		"total": len(schedules),
	})
}

// CreateSchedule creates a schedule entry after the conflict guard passes.
// The guard runs inside a transaction holding advisory locks on the
// (teacher, day) and (classroom, day) slots so two concurrent writers
// cannot both pass the check and commit colliding rows.
func (sc *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req ScheduleRequest
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

	start, end, err := normalizeWindow(&req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid time format, expected HH:MM",
		})
	}
	if start >= end {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "start_time must be before end_time",
		})
	}

	if body := resolveReferences(&req); body != nil {
		return c.Status(fiber.StatusNotFound).JSON(body)
	}

	user, _ := middleware.GetCurrentUser(c)
	schedule := models.Schedule{
		TeacherID:    req.TeacherID,
		SubjectID:    req.SubjectID,
		ClassroomID:  req.ClassroomID,
		ClassID:      req.ClassID,
		SectionID:    req.SectionID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		AcademicYear: req.AcademicYear,
	}
	if user != nil {
		id := user.ID
		schedule.CreatedBy = &id
	}

	var conflicts []services.ConflictGroup
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, key := range services.AdvisoryLockKeys(req.TeacherID, req.ClassroomID, req.DayOfWeek) {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
				return err
			}
		}

		guard := services.NewConflictService(services.NewGormScheduleStore(tx))
		found, err := guard.CheckConflicts(req.TeacherID, req.ClassroomID, req.AcademicYear, req.DayOfWeek, req.StartTime, req.EndTime, nil)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return errScheduleConflict
		}

		return tx.Create(&schedule).Error
	})

	if errors.Is(txErr, errScheduleConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Schedule conflicts detected",
			"code":      "SCHEDULE_CONFLICT",
			"conflicts": conflicts,
		})
	}
	if txErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create schedule",
		})
	}

	database.DB.
		Preload("Teacher").
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section").
		First(&schedule, "id = ?", schedule.ID)

	middleware.LogAudit(c, "CREATE", "schedules", schedule.ID.String(), req)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Schedule created successfully",
		"schedule": schedule,
	})
}

// UpdateSchedule rewrites a schedule entry. The conflict guard runs with
// the entry's own ID excluded so an unchanged window does not collide
// with itself.
func (sc *ScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule ID",
		})
	}

	var schedule models.Schedule
	if err := database.DB.First(&schedule, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
			"code":  "SCHEDULE_NOT_FOUND",
		})
	}

	var req ScheduleRequest
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

	start, end, err := normalizeWindow(&req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid time format, expected HH:MM",
		})
	}
	if start >= end {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "start_time must be before end_time",
		})
	}

	if body := resolveReferences(&req); body != nil {
		return c.Status(fiber.StatusNotFound).JSON(body)
	}

	var conflicts []services.ConflictGroup
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		// Lock both the old and new slots: moving an entry frees one
		// slot and claims another, and writers racing on either must
		// serialize with us.
		keys := services.AdvisoryLockKeys(req.TeacherID, req.ClassroomID, req.DayOfWeek)
		keys = append(keys, services.AdvisoryLockKeys(schedule.TeacherID, schedule.ClassroomID, schedule.DayOfWeek)...)
		seen := map[int64]bool{}
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
				return err
			}
		}

		guard := services.NewConflictService(services.NewGormScheduleStore(tx))
		excludeID := schedule.ID
		found, err := guard.CheckConflicts(req.TeacherID, req.ClassroomID, req.AcademicYear, req.DayOfWeek, req.StartTime, req.EndTime, &excludeID)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return errScheduleConflict
		}

		updates := map[string]interface{}{
			"teacher_id":    req.TeacherID,
			"subject_id":    req.SubjectID,
			"classroom_id":  req.ClassroomID,
			"class_id":      req.ClassID,
			"section_id":    req.SectionID,
			"day_of_week":   req.DayOfWeek,
			"start_time":    req.StartTime,
			"end_time":      req.EndTime,
			"academic_year": req.AcademicYear,
		}
		return tx.Model(&schedule).Updates(updates).Error
	})

	if errors.Is(txErr, errScheduleConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Schedule conflicts detected",
			"code":      "SCHEDULE_CONFLICT",
			"conflicts": conflicts,
		})
	}
	if txErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedule",
		})
	}

	database.DB.
		Preload("Teacher").
		Preload("Subject").
		Preload("Classroom").
		Preload("Class").
		Preload("Section").
		First(&schedule, "id = ?", schedule.ID)

	middleware.LogAudit(c, "UPDATE", "schedules", schedule.ID.String(), req)

	return c.JSON(fiber.Map{
		"message":  "Schedule updated successfully",
		"schedule": schedule,
	})
}

// DeleteSchedule removes a schedule entry. Deleting never creates
// conflicts, so no guard runs.
func (sc *ScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid schedule ID",
		})
	}

	var schedule models.Schedule
	if err := database.DB.First(&schedule, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Schedule not found",
			"code":  "SCHEDULE_NOT_FOUND",
		})
	}

	if err := database.DB.Delete(&schedule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete schedule",
		})
	}

	middleware.LogAudit(c, "DELETE", "schedules", schedule.ID.String(), nil)

	return c.JSON(fiber.Map{
		"message": "Schedule deleted successfully",
	})
}

// GetConflicts runs the pairwise overlap scan over the whole timetable
func (sc *ScheduleController) GetConflicts(c *fiber.Ctx) error {
	store := services.NewGormScheduleStore(database.GetDB())
	entries, err := store.FindAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	conflicts := services.ComputeAllConflicts(entries)

	return c.JSON(fiber.Map{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

// GetFullConflictReport unions the pairwise scan with the workload and
// capacity checks.
func (sc *ScheduleController) GetFullConflictReport(c *fiber.Ctx) error {
	store := services.NewGormScheduleStore(database.GetDB())
	entries, err := store.FindAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch schedules",
		})
	}

	enrolled, err := enrolledCounts(entries)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count enrolled students",
		})
	}

	capacities, err := classroomCapacities()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classroom capacities",
		})
	}

	conflicts := services.ComputeFullReport(entries, enrolled, capacities)

	return c.JSON(fiber.Map{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

// enrolledCounts resolves how many students attend each schedule entry:
// the section headcount when the entry targets a section, the whole
// class headcount otherwise.
func enrolledCounts(entries []models.Schedule) (map[uuid.UUID]int, error) {
	type countRow struct {
		ID    uuid.UUID
		Count int
	}

	var byClass []countRow
	if err := database.DB.Model(&models.Student{}).
		Select("class_id AS id, COUNT(*) AS count").
		Group("class_id").
		Scan(&byClass).Error; err != nil {
		return nil, err
	}

	var bySection []countRow
	if err := database.DB.Model(&models.Student{}).
		Select("section_id AS id, COUNT(*) AS count").
		Where("section_id IS NOT NULL").
		Group("section_id").
		Scan(&bySection).Error; err != nil {
		return nil, err
	}

	classCounts := make(map[uuid.UUID]int, len(byClass))
	for _, row := range byClass {
		classCounts[row.ID] = row.Count
	}
	sectionCounts := make(map[uuid.UUID]int, len(bySection))
	for _, row := range bySection {
		sectionCounts[row.ID] = row.Count
	}

	enrolled := make(map[uuid.UUID]int, len(entries))
	for _, e := range entries {
		if e.SectionID != nil {
			enrolled[e.ID] = sectionCounts[*e.SectionID]
		} else {
			enrolled[e.ID] = classCounts[e.ClassID]
		}
	}
	return enrolled, nil
}

func classroomCapacities() (map[uuid.UUID]int, error) {
	var classrooms []models.Classroom
	if err := database.DB.Find(&classrooms).Error; err != nil {
		return nil, err
	}

	capacities := make(map[uuid.UUID]int, len(classrooms))
	for _, room := range classrooms {
		capacities[room.ID] = room.Capacity
	}
	return capacities, nil
}
