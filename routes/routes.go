package routes

import (
	"timetable_go/controllers"
	"timetable_go/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires every API endpoint. Teachers authenticate and read;
// principals and super-admins manage master data and the timetable;
// super-admins additionally read the audit trail.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	authController := &controllers.AuthController{}
	teacherController := &controllers.TeacherController{}
	subjectController := &controllers.SubjectController{}
	classroomController := &controllers.ClassroomController{}
	classController := &controllers.ClassController{}
	sectionController := &controllers.SectionController{}
	studentController := &controllers.StudentController{}
	scheduleController := &controllers.ScheduleController{}
	requestController := &controllers.RequestController{}
	logController := &controllers.LogController{}

	// Public auth endpoints
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Everything below requires a valid token
	protected := api.Group("", middleware.JWTMiddleware())

	protected.Get("/auth/profile", authController.GetProfile)
	protected.Put("/auth/password", authController.ChangePassword)

	// Teachers
	teachers := protected.Group("/teachers")
	teachers.Get("/", teacherController.GetTeachers)
	teachers.Get("/:id", teacherController.GetTeacher)
	teachers.Post("/", middleware.RequirePrincipal(), teacherController.CreateTeacher)
	teachers.Put("/:id", middleware.RequirePrincipal(), teacherController.UpdateTeacher)
	teachers.Delete("/:id", middleware.RequirePrincipal(), teacherController.DeleteTeacher)

	// Subjects
	subjects := protected.Group("/subjects")
	subjects.Get("/", subjectController.GetSubjects)
	subjects.Get("/:id", subjectController.GetSubject)
	subjects.Post("/", middleware.RequirePrincipal(), subjectController.CreateSubject)
	subjects.Put("/:id", middleware.RequirePrincipal(), subjectController.UpdateSubject)
	subjects.Delete("/:id", middleware.RequirePrincipal(), subjectController.DeleteSubject)

	// Classrooms
	classrooms := protected.Group("/classrooms")
	classrooms.Get("/", classroomController.GetClassrooms)
	classrooms.Get("/:id", classroomController.GetClassroom)
	classrooms.Post("/", middleware.RequirePrincipal(), classroomController.CreateClassroom)
	classrooms.Put("/:id", middleware.RequirePrincipal(), classroomController.UpdateClassroom)
	classrooms.Delete("/:id", middleware.RequirePrincipal(), classroomController.DeleteClassroom)

	// Classes and sections
	classes := protected.Group("/classes")
	classes.Get("/", classController.GetClasses)
	classes.Get("/:id", classController.GetClass)
	classes.Post("/", middleware.RequirePrincipal(), classController.CreateClass)
	classes.Put("/:id", middleware.RequirePrincipal(), classController.UpdateClass)
	classes.Delete("/:id", middleware.RequirePrincipal(), classController.DeleteClass)

	sections := protected.Group("/sections")
	sections.Get("/", sectionController.GetSections)
	sections.Get("/:id", sectionController.GetSection)
	sections.Post("/", middleware.RequirePrincipal(), sectionController.CreateSection)
	sections.Put("/:id", middleware.RequirePrincipal(), sectionController.UpdateSection)
	sections.Delete("/:id", middleware.RequirePrincipal(), sectionController.DeleteSection)

	// Students
	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Get("/:id", studentController.GetStudent)
	students.Post("/", middleware.RequirePrincipal(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequirePrincipal(), studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequirePrincipal(), studentController.DeleteStudent)

	// Schedules. Static paths before the parameterized ones so
	// /schedules/conflicts does not match :id.
	schedules := protected.Group("/schedules")
	schedules.Get("/", scheduleController.GetSchedules)
	schedules.Get("/my", scheduleController.GetMySchedules)
	schedules.Get("/weekly", scheduleController.GetWeeklySchedules)
	schedules.Get("/conflicts", middleware.RequirePrincipal(), scheduleController.GetConflicts)
	schedules.Get("/conflicts/full", middleware.RequirePrincipal(), scheduleController.GetFullConflictReport)
	schedules.Get("/teacher/:id", scheduleController.GetTeacherSchedules)
	schedules.Get("/:id", scheduleController.GetSchedule)
	schedules.Post("/", middleware.RequirePrincipal(), scheduleController.CreateSchedule)
	schedules.Put("/:id", middleware.RequirePrincipal(), scheduleController.UpdateSchedule)
	schedules.Delete("/:id", middleware.RequirePrincipal(), scheduleController.DeleteSchedule)

	// Teacher requests
	requests := protected.Group("/requests")
	requests.Get("/", requestController.GetRequests)
	requests.Get("/:id", requestController.GetRequest)
	requests.Post("/", requestController.CreateRequest)
	requests.Patch("/:id/status", middleware.RequirePrincipal(), requestController.ProcessRequest)
	requests.Delete("/:id", requestController.DeleteRequest)

	// Audit trail
	logs := protected.Group("/logs", middleware.RequireSuperAdmin())
	logs.Get("/", logController.GetAuditLogs)
	logs.Get("/:id", logController.GetAuditLog)
}
