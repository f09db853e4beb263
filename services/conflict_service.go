package services

import (
	"hash/fnv"
	"sort"

	"timetable_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictType identifies the constraint a pair (or entry) violates.
type ConflictType string

const (
	TeacherConflict   ConflictType = "TEACHER_CONFLICT"
	ClassroomConflict ConflictType = "CLASSROOM_CONFLICT"
	WorkloadConflict  ConflictType = "WORKLOAD"
	CapacityConflict  ConflictType = "CAPACITY"
)

// MaxDailyTeachingHours is the per-teacher per-day workload ceiling.
// Totals strictly above this trigger a WORKLOAD conflict.
const MaxDailyTeachingHours = 6.0

// Conflict is a derived record describing a violation between schedule
// entries. It is always recomputed from current schedule state, never
// persisted; the schedules table stays the single store of record.
type Conflict struct {
	Type         ConflictType `json:"type"`
	Message      string       `json:"message"`
	ScheduleA    uuid.UUID    `json:"schedule_a"`
	ScheduleB    *uuid.UUID   `json:"schedule_b,omitempty"`
	DayOfWeek    int          `json:"day_of_week"`
	AcademicYear string       `json:"academic_year,omitempty"`
	StartTime    string       `json:"start_time,omitempty"`
	EndTime      string       `json:"end_time,omitempty"`

	// WORKLOAD only
	TeacherID  *uuid.UUID `json:"teacher_id,omitempty"`
	TotalHours float64    `json:"total_hours,omitempty"`

	// CAPACITY only
	ClassroomID *uuid.UUID `json:"classroom_id,omitempty"`
	Students    int        `json:"students,omitempty"`
	Capacity    int        `json:"capacity,omitempty"`
}

// ScheduleRef carries enough of a colliding entry's identity for the
// client to render "Schedule 1 vs Schedule 2".
type ScheduleRef struct {
	ID          uuid.UUID  `json:"id"`
	TeacherID   uuid.UUID  `json:"teacher_id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	ClassroomID uuid.UUID  `json:"classroom_id"`
	SectionID   *uuid.UUID `json:"section_id,omitempty"`
	DayOfWeek   int        `json:"day_of_week"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
}

// ConflictGroup is one write-time guard finding: the violated constraint
// plus every existing entry colliding with the candidate. Teacher and
// classroom collisions are reported as separate groups even when they
// involve the same existing row.
type ConflictGroup struct {
	Type      ConflictType  `json:"type"`
	Message   string        `json:"message"`
	Conflicts []ScheduleRef `json:"conflicts"`
}

// ScheduleStore is the persistence dependency of the conflict engine.
// The overlap filter is part of the contract: implementations return only
// entries whose half-open window intersects [startTime, endTime) on the
// given day within the given academic year.
type ScheduleStore interface {
	FindOverlappingByTeacher(teacherID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error)
	FindOverlappingByClassroom(classroomID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error)
	FindAll() ([]models.Schedule, error)
}

// GormScheduleStore backs ScheduleStore with the schedules table.
type GormScheduleStore struct {
	DB *gorm.DB
}

func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore {
	return &GormScheduleStore{DB: db}
}

func (s *GormScheduleStore) FindOverlappingByTeacher(teacherID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	return s.findOverlapping("teacher_id", teacherID, academicYear, dayOfWeek, startTime, endTime, excludeID)
}

func (s *GormScheduleStore) FindOverlappingByClassroom(classroomID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	return s.findOverlapping("classroom_id", classroomID, academicYear, dayOfWeek, startTime, endTime, excludeID)
}

func (s *GormScheduleStore) findOverlapping(column string, id uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	var entries []models.Schedule
	query := s.DB.
		Where(column+" = ?", id).
		Where("academic_year = ?", academicYear).
		Where("day_of_week = ?", dayOfWeek).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	if err := query.Order("start_time").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormScheduleStore) FindAll() ([]models.Schedule, error) {
	var entries []models.Schedule
	if err := s.DB.Order("day_of_week, start_time, id").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ConflictService is the write-time guard and report engine. It holds no
// state between calls and never writes; the caller owns the commit/abort
// decision.
type ConflictService struct {
	Store ScheduleStore
}

func NewConflictService(store ScheduleStore) *ConflictService {
	return &ConflictService{Store: store}
}

// CheckConflicts scans existing entries sharing the target teacher or
// classroom for overlap with the proposed window. Two independent scans:
// a teacher collision and a classroom collision are distinct groups.
// excludeID omits the entry being updated from comparison with itself.
// A store read failure propagates as-is; it must never be treated as
// "no conflict found".
func (cs *ConflictService) CheckConflicts(teacherID, classroomID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]ConflictGroup, error) {
	var groups []ConflictGroup

	teacherHits, err := cs.Store.FindOverlappingByTeacher(teacherID, academicYear, dayOfWeek, startTime, endTime, excludeID)
	if err != nil {
		return nil, err
	}
	if len(teacherHits) > 0 {
		groups = append(groups, ConflictGroup{
			Type:      TeacherConflict,
			Message:   "Teacher is already scheduled during this time",
			Conflicts: toRefs(teacherHits),
		})
	}

	classroomHits, err := cs.Store.FindOverlappingByClassroom(classroomID, academicYear, dayOfWeek, startTime, endTime, excludeID)
	if err != nil {
		return nil, err
	}
	if len(classroomHits) > 0 {
		groups = append(groups, ConflictGroup{
			Type:      ClassroomConflict,
			Message:   "Classroom is already booked during this time",
			Conflicts: toRefs(classroomHits),
		})
	}

	return groups, nil
}

func toRefs(entries []models.Schedule) []ScheduleRef {
	refs := make([]ScheduleRef, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, ScheduleRef{
			ID:          e.ID,
			TeacherID:   e.TeacherID,
			SubjectID:   e.SubjectID,
			ClassroomID: e.ClassroomID,
			SectionID:   e.SectionID,
			DayOfWeek:   e.DayOfWeek,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		})
	}
	return refs
}

// ClassifyPair emits the conflicts for two entries already known to share
// a day and overlap in time: TEACHER_CONFLICT first, then
// CLASSROOM_CONFLICT, both when both match. The caller owns the
// day/overlap gate.
func ClassifyPair(a, b models.Schedule) []Conflict {
	aStart, errA := ParseTimeOfDay(a.StartTime)
	aEnd, errB := ParseTimeOfDay(a.EndTime)
	bStart, errC := ParseTimeOfDay(b.StartTime)
	bEnd, errD := ParseTimeOfDay(b.EndTime)
	if errA != nil || errB != nil || errC != nil || errD != nil {
		return nil
	}

	winStart, winEnd := overlapWindow(aStart, aEnd, bStart, bEnd)
	bID := b.ID

	var conflicts []Conflict
	if a.TeacherID == b.TeacherID {
		conflicts = append(conflicts, Conflict{
			Type:      TeacherConflict,
			Message:   "Teacher has overlapping classes",
			ScheduleA: a.ID,
			ScheduleB: &bID,
			DayOfWeek: a.DayOfWeek,
			StartTime: FormatTimeOfDay(winStart),
			EndTime:   FormatTimeOfDay(winEnd),
		})
	}
	if a.ClassroomID == b.ClassroomID {
		conflicts = append(conflicts, Conflict{
			Type:      ClassroomConflict,
			Message:   "Classroom is double-booked",
			ScheduleA: a.ID,
			ScheduleB: &bID,
			DayOfWeek: a.DayOfWeek,
			StartTime: FormatTimeOfDay(winStart),
			EndTime:   FormatTimeOfDay(winEnd),
		})
	}
	return conflicts
}

// ComputeAllConflicts runs the pairwise scan over every unordered pair of
// entries. Deliberately O(n^2): timetables are tens to low hundreds of
// rows. Output order is the scan's insertion order (ascending i, then
// ascending j), so repeated calls on the same input yield identical
// results. Entries in different academic years never coexist and are
// skipped.
func ComputeAllConflicts(entries []models.Schedule) []Conflict {
	conflicts := []Conflict{}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.AcademicYear != b.AcademicYear {
				continue
			}
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			aStart, err := ParseTimeOfDay(a.StartTime)
			if err != nil {
				continue
			}
			aEnd, err := ParseTimeOfDay(a.EndTime)
			if err != nil {
				continue
			}
			bStart, err := ParseTimeOfDay(b.StartTime)
			if err != nil {
				continue
			}
			bEnd, err := ParseTimeOfDay(b.EndTime)
			if err != nil {
				continue
			}
			if !Overlaps(aStart, aEnd, bStart, bEnd) {
				continue
			}
			conflicts = append(conflicts, ClassifyPair(a, b)...)
		}
	}

	return conflicts
}

// ComputeWorkloadConflicts sums per-teacher per-day teaching duration
// within each academic year and emits one WORKLOAD conflict for every
// (teacher, day, year) total strictly above MaxDailyTeachingHours. Hours
// in different academic years never coexist and never accumulate. Output
// order follows first appearance of each slot in the input so reports
// stay reproducible.
func ComputeWorkloadConflicts(entries []models.Schedule) []Conflict {
	type slot struct {
		teacher uuid.UUID
		day     int
		year    string
	}

	totals := make(map[slot]float64)
	first := make(map[slot]uuid.UUID)
	order := []slot{}

	for _, e := range entries {
		start, err := ParseTimeOfDay(e.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseTimeOfDay(e.EndTime)
		if err != nil {
			continue
		}

		key := slot{teacher: e.TeacherID, day: e.DayOfWeek, year: e.AcademicYear}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
			first[key] = e.ID
		}
		totals[key] += float64(end-start) / 60.0
	}

	conflicts := []Conflict{}
	for _, key := range order {
		total := totals[key]
		if total <= MaxDailyTeachingHours {
			continue
		}
		teacherID := key.teacher
		conflicts = append(conflicts, Conflict{
			Type:         WorkloadConflict,
			Message:      "Teacher exceeds the daily teaching hour limit",
			ScheduleA:    first[key],
			DayOfWeek:    key.day,
			AcademicYear: key.year,
			TeacherID:    &teacherID,
			TotalHours:   total,
		})
	}
	return conflicts
}

// ComputeCapacityConflicts flags entries whose enrolled-student count
// exceeds the classroom's capacity. enrolled is keyed by schedule id;
// capacities by classroom id. Entries without either datum are skipped.
func ComputeCapacityConflicts(entries []models.Schedule, enrolled map[uuid.UUID]int, capacities map[uuid.UUID]int) []Conflict {
	conflicts := []Conflict{}
	for _, e := range entries {
		students, ok := enrolled[e.ID]
		if !ok {
			continue
		}
		capacity, ok := capacities[e.ClassroomID]
		if !ok || capacity <= 0 {
			continue
		}
		if students <= capacity {
			continue
		}
		classroomID := e.ClassroomID
		conflicts = append(conflicts, Conflict{
			Type:        CapacityConflict,
			Message:     "Enrolled students exceed classroom capacity",
			ScheduleA:   e.ID,
			DayOfWeek:   e.DayOfWeek,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
			ClassroomID: &classroomID,
			Students:    students,
			Capacity:    capacity,
		})
	}
	return conflicts
}

// ComputeFullReport unions the pairwise scan with the workload and
// capacity checks. The three lists are concatenated, never deduplicated
// against each other.
func ComputeFullReport(entries []models.Schedule, enrolled map[uuid.UUID]int, capacities map[uuid.UUID]int) []Conflict {
	report := ComputeAllConflicts(entries)
	report = append(report, ComputeWorkloadConflicts(entries)...)
	report = append(report, ComputeCapacityConflicts(entries, enrolled, capacities)...)
	return report
}

// AdvisoryLockKeys derives the pg_advisory_xact_lock keys serializing
// writers that touch the same (teacher, day) or (classroom, day) slot.
// Keys are sorted so competing transactions acquire them in the same
// order.
func AdvisoryLockKeys(teacherID, classroomID uuid.UUID, dayOfWeek int) []int64 {
	keys := []int64{
		advisoryKey("teacher", teacherID, dayOfWeek),
		advisoryKey("room", classroomID, dayOfWeek),
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func advisoryKey(kind string, id uuid.UUID, dayOfWeek int) int64 {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write([]byte(id.String()))
	h.Write([]byte{':', byte('0' + dayOfWeek)})
	return int64(h.Sum64())
}
