package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. Primary keys are UUIDs, matching the
// identifiers the dashboard clients already consume.
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Role is the closed set of user roles. Authorization compares against
// these constants only; free-form role strings are rejected at the model
// boundary.
type Role string

const (
	RoleTeacher    Role = "TEACHER"
	RolePrincipal  Role = "PRINCIPAL"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RolePrincipal, RoleSuperAdmin:
		return true
	}
	return false
}

// CanManageTimetable reports whether the role may create, update or delete
// schedules and master data. Teachers only read their own slice.
func (r Role) CanManageTimetable() bool {
	return r == RolePrincipal || r == RoleSuperAdmin
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch s := value.(type) {
	case []byte:
		*j = append((*j)[0:0], s...)
	case string:
		*j = append((*j)[0:0], s...)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// User model. Teachers, principals and super-admins all live here; the
// role column decides what they can touch.
type User struct {
	BaseModel
	Name     string `json:"name" gorm:"size:255;not null"`
	Email    string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:255;not null"`
	Role     Role   `json:"role" gorm:"size:50;not null;default:'TEACHER'"`
	Phone    string `json:"phone" gorm:"size:20"`
	Active   bool   `json:"active" gorm:"default:true"`

	// Teacher profile fields, empty for other roles
	EmployeeID     string `json:"employee_id,omitempty" gorm:"size:50"`
	Qualification  string `json:"qualification,omitempty" gorm:"size:255"`
	Specialization string `json:"specialization,omitempty" gorm:"size:255"`
}

// Class model, e.g. "First Year CS". Partitioned by academic year.
type Class struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:100;not null"`
	GradeLevel   string     `json:"grade_level" gorm:"size:50"`
	AcademicYear string     `json:"academic_year" gorm:"size:20;not null;index"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`

	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:ClassID"`
}

// Section model, a named subdivision of a class ("A", "B", ...).
type Section struct {
	BaseModel
	ClassID   uuid.UUID  `json:"class_id" gorm:"type:uuid;not null;index"`
	Name      string     `json:"name" gorm:"size:50;not null"`
	Capacity  int        `json:"capacity" gorm:"default:0"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`

	Class Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// Student model
type Student struct {
	BaseModel
	RollNumber    string     `json:"roll_number" gorm:"size:50;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:255;not null"`
	Email         string     `json:"email" gorm:"size:255"`
	Gender        string     `json:"gender" gorm:"size:10"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	ClassID       uuid.UUID  `json:"class_id" gorm:"type:uuid;not null;index"`
	SectionID     *uuid.UUID `json:"section_id,omitempty" gorm:"type:uuid;index"`
	GuardianName  string     `json:"guardian_name" gorm:"size:255"`
	GuardianPhone string     `json:"guardian_phone" gorm:"size:20"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`

	Class   Class    `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Section *Section `json:"section,omitempty" gorm:"foreignKey:SectionID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name        string     `json:"name" gorm:"size:255;not null"`
	Code        string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	Color       string     `json:"color" gorm:"size:20"`
	WeeklyHours int        `json:"weekly_hours" gorm:"default:0"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
}

// Classroom model. Capacity feeds the CAPACITY conflict check.
type Classroom struct {
	BaseModel
	RoomNumber string     `json:"room_number" gorm:"size:50;not null;uniqueIndex"`
	Building   string     `json:"building" gorm:"size:100"`
	Floor      int        `json:"floor"`
	Capacity   int        `json:"capacity" gorm:"not null"`
	RoomType   string     `json:"room_type" gorm:"size:50;default:'lecture'"` // lecture, lab, auditorium
	CreatedBy  *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
}

// Schedule is one recurring weekly session: a teacher teaching a subject
// in a classroom to a class/section on day_of_week between start and end.
// Times are stored as HH:MM:SS time-of-day strings (Postgres TIME) so they
// compare consistently both in SQL and in Go. start_time < end_time is
// enforced at creation.
type Schedule struct {
	BaseModel
	TeacherID    uuid.UUID  `json:"teacher_id" gorm:"type:uuid;not null;index:idx_schedules_teacher_day,priority:1"`
	SubjectID    uuid.UUID  `json:"subject_id" gorm:"type:uuid;not null"`
	ClassroomID  uuid.UUID  `json:"classroom_id" gorm:"type:uuid;not null;index:idx_schedules_room_day,priority:1"`
	ClassID      uuid.UUID  `json:"class_id" gorm:"type:uuid;not null"`
	SectionID    *uuid.UUID `json:"section_id,omitempty" gorm:"type:uuid"`
	DayOfWeek    int        `json:"day_of_week" gorm:"not null;index:idx_schedules_teacher_day,priority:2;index:idx_schedules_room_day,priority:2;check:day_of_week >= 1 AND day_of_week <= 7"` // 1=Monday ... 7=Sunday
	StartTime    string     `json:"start_time" gorm:"type:time;not null"`
	EndTime      string     `json:"end_time" gorm:"type:time;not null"`
	AcademicYear string     `json:"academic_year" gorm:"size:20;not null;index"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`

	Teacher   User      `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Subject   Subject   `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Classroom Classroom `json:"classroom,omitempty" gorm:"foreignKey:ClassroomID"`
	Class     Class     `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Section   *Section  `json:"section,omitempty" gorm:"foreignKey:SectionID"`
}

// TeacherRequest is a leave-style request raised by a teacher and
// processed by a principal.
type TeacherRequest struct {
	BaseModel
	TeacherID   uuid.UUID  `json:"teacher_id" gorm:"type:uuid;not null;index"`
	RequestType string     `json:"request_type" gorm:"size:50;not null"` // leave, schedule_change, room_change, other
	Subject     string     `json:"subject" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'pending'"`  // pending, approved, rejected
	Priority    string     `json:"priority" gorm:"size:20;not null;default:'medium'"` // low, medium, high
	Response    string     `json:"response" gorm:"type:text"`
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty" gorm:"type:uuid"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	Teacher User `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// AuditLog model for activity tracking
type AuditLog struct {
	BaseModel
	UserID     *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Action     string     `json:"action" gorm:"size:100;not null"`
	Resource   string     `json:"resource" gorm:"size:100;not null"`
	ResourceID string     `json:"resource_id" gorm:"size:100"`
	Details    JSON       `json:"details" gorm:"type:jsonb"`
	IPAddress  string     `json:"ip_address" gorm:"size:45"`
	UserAgent  string     `json:"user_agent" gorm:"size:500"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
