package services

import (
	"testing"

	"timetable_go/models"

	"github.com/google/uuid"
)

// memoryScheduleStore is an in-memory ScheduleStore used to exercise the
// guard without a database.
type memoryScheduleStore struct {
	entries []models.Schedule
}

func (m *memoryScheduleStore) FindOverlappingByTeacher(teacherID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	return m.filter(func(e models.Schedule) bool { return e.TeacherID == teacherID }, academicYear, dayOfWeek, startTime, endTime, excludeID)
}

func (m *memoryScheduleStore) FindOverlappingByClassroom(classroomID uuid.UUID, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	return m.filter(func(e models.Schedule) bool { return e.ClassroomID == classroomID }, academicYear, dayOfWeek, startTime, endTime, excludeID)
}

func (m *memoryScheduleStore) filter(match func(models.Schedule) bool, academicYear string, dayOfWeek int, startTime, endTime string, excludeID *uuid.UUID) ([]models.Schedule, error) {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return nil, err
	}

	var hits []models.Schedule
	for _, e := range m.entries {
		if !match(e) || e.AcademicYear != academicYear || e.DayOfWeek != dayOfWeek {
			continue
		}
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		eStart, _ := ParseTimeOfDay(e.StartTime)
		eEnd, _ := ParseTimeOfDay(e.EndTime)
		if Overlaps(start, end, eStart, eEnd) {
			hits = append(hits, e)
		}
	}
	return hits, nil
}

func (m *memoryScheduleStore) FindAll() ([]models.Schedule, error) {
	return m.entries, nil
}

func makeSchedule(teacher, room uuid.UUID, day int, start, end, year string) models.Schedule {
	s := models.Schedule{
		TeacherID:    teacher,
		ClassroomID:  room,
		SubjectID:    uuid.New(),
		ClassID:      uuid.New(),
		DayOfWeek:    day,
		StartTime:    start,
		EndTime:      end,
		AcademicYear: year,
	}
	s.ID = uuid.New()
	return s
}

func TestCheckConflictsTeacherDoubleBooking(t *testing.T) {
	teacher := uuid.New()
	existing := makeSchedule(teacher, uuid.New(), 1, "09:00:00", "10:00:00", "2025-26")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	groups, err := cs.CheckConflicts(teacher, uuid.New(), "2025-26", 1, "09:30:00", "10:30:00", nil)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 conflict group, got %d", len(groups))
	}
	if groups[0].Type != TeacherConflict {
		t.Errorf("expected %s, got %s", TeacherConflict, groups[0].Type)
	}
	if len(groups[0].Conflicts) != 1 || groups[0].Conflicts[0].ID != existing.ID {
		t.Errorf("conflict group should reference the existing entry")
	}
}

func TestCheckConflictsClassroomDoubleBooking(t *testing.T) {
	room := uuid.New()
	existing := makeSchedule(uuid.New(), room, 2, "13:00:00", "14:00:00", "2025-26")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	groups, err := cs.CheckConflicts(uuid.New(), room, "2025-26", 2, "13:30:00", "15:00:00", nil)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 1 || groups[0].Type != ClassroomConflict {
		t.Fatalf("expected a single classroom conflict group, got %+v", groups)
	}
}

func TestCheckConflictsBothTypesFire(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()
	existing := makeSchedule(teacher, room, 3, "09:00:00", "11:00:00", "2025-26")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	groups, err := cs.CheckConflicts(teacher, room, "2025-26", 3, "10:00:00", "12:00:00", nil)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected two groups (teacher and classroom), got %d", len(groups))
	}
	if groups[0].Type != TeacherConflict || groups[1].Type != ClassroomConflict {
		t.Errorf("groups out of order: %s then %s", groups[0].Type, groups[1].Type)
	}
}

func TestCheckConflictsAdjacentWindowsAllowed(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()
	existing := makeSchedule(teacher, room, 1, "08:00:00", "09:00:00", "2025-26")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	// Back-to-back sessions share an endpoint but not a minute
	groups, err := cs.CheckConflicts(teacher, room, "2025-26", 1, "09:00:00", "10:00:00", nil)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("adjacent windows must not conflict, got %+v", groups)
	}
}

func TestCheckConflictsExcludeSelfOnUpdate(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()
	existing := makeSchedule(teacher, room, 1, "09:00:00", "10:00:00", "2025-26")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	// Re-saving the entry with its own window must not collide with itself
	groups, err := cs.CheckConflicts(teacher, room, "2025-26", 1, "09:00:00", "10:00:00", &existing.ID)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("entry conflicted with itself during update: %+v", groups)
	}
}

func TestCheckConflictsScopedByAcademicYear(t *testing.T) {
	teacher := uuid.New()
	existing := makeSchedule(teacher, uuid.New(), 1, "09:00:00", "10:00:00", "2024-25")
	store := &memoryScheduleStore{entries: []models.Schedule{existing}}
	cs := NewConflictService(store)

	groups, err := cs.CheckConflicts(teacher, uuid.New(), "2025-26", 1, "09:00:00", "10:00:00", nil)
	if err != nil {
		t.Fatalf("CheckConflicts returned error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("entries in different academic years must not conflict, got %+v", groups)
	}
}

func TestComputeAllConflictsPairEmitsBothTypes(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()
	a := makeSchedule(teacher, room, 1, "09:00:00", "10:00:00", "2025-26")
	b := makeSchedule(teacher, room, 1, "09:30:00", "10:30:00", "2025-26")

	conflicts := ComputeAllConflicts([]models.Schedule{a, b})
	if len(conflicts) != 2 {
		t.Fatalf("expected exactly 2 conflicts for a shared teacher+room pair, got %d", len(conflicts))
	}
	if conflicts[0].Type != TeacherConflict {
		t.Errorf("teacher conflict must come first, got %s", conflicts[0].Type)
	}
	if conflicts[1].Type != ClassroomConflict {
		t.Errorf("classroom conflict must come second, got %s", conflicts[1].Type)
	}
	for _, cf := range conflicts {
		if cf.ScheduleA != a.ID || cf.ScheduleB == nil || *cf.ScheduleB != b.ID {
			t.Errorf("conflict must reference the pair in scan order")
		}
		if cf.StartTime != "09:30:00" || cf.EndTime != "10:00:00" {
			t.Errorf("overlap window = %s-%s, want 09:30:00-10:00:00", cf.StartTime, cf.EndTime)
		}
	}
}

func TestComputeAllConflictsSkipsNonOverlapping(t *testing.T) {
	teacher := uuid.New()
	entries := []models.Schedule{
		makeSchedule(teacher, uuid.New(), 1, "08:00:00", "09:00:00", "2025-26"),
		makeSchedule(teacher, uuid.New(), 1, "09:00:00", "10:00:00", "2025-26"), // adjacent
		makeSchedule(teacher, uuid.New(), 2, "08:30:00", "09:30:00", "2025-26"), // other day
		makeSchedule(teacher, uuid.New(), 1, "08:30:00", "09:30:00", "2024-25"), // other year
	}

	conflicts := ComputeAllConflicts(entries)
	if len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", conflicts)
	}
}

func TestComputeAllConflictsDeterministicOrder(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()
	entries := []models.Schedule{
		makeSchedule(teacher, uuid.New(), 1, "09:00:00", "10:00:00", "2025-26"),
		makeSchedule(teacher, uuid.New(), 1, "09:30:00", "10:30:00", "2025-26"),
		makeSchedule(uuid.New(), room, 1, "11:00:00", "12:00:00", "2025-26"),
		makeSchedule(uuid.New(), room, 1, "11:30:00", "12:30:00", "2025-26"),
	}

	first := ComputeAllConflicts(entries)
	second := ComputeAllConflicts(entries)

	if len(first) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("repeated scans disagree on count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Type != b.Type || a.ScheduleA != b.ScheduleA ||
			a.DayOfWeek != b.DayOfWeek || a.StartTime != b.StartTime || a.EndTime != b.EndTime {
			t.Errorf("conflict %d differs between identical scans", i)
		}
		if (a.ScheduleB == nil) != (b.ScheduleB == nil) || (a.ScheduleB != nil && *a.ScheduleB != *b.ScheduleB) {
			t.Errorf("conflict %d second schedule differs between identical scans", i)
		}
	}
	if first[0].Type != TeacherConflict || first[1].Type != ClassroomConflict {
		t.Errorf("scan order must follow input order: got %s then %s", first[0].Type, first[1].Type)
	}
}

func TestComputeWorkloadConflicts(t *testing.T) {
	teacher := uuid.New()

	// Exactly six hours: no conflict
	atLimit := []models.Schedule{
		makeSchedule(teacher, uuid.New(), 1, "08:00:00", "11:00:00", "2025-26"),
		makeSchedule(teacher, uuid.New(), 1, "12:00:00", "15:00:00", "2025-26"),
	}
	if got := ComputeWorkloadConflicts(atLimit); len(got) != 0 {
		t.Errorf("6h exactly must not trigger, got %+v", got)
	}

	// Six and a half hours: one conflict for the (teacher, day) slot
	over := append(atLimit, makeSchedule(teacher, uuid.New(), 1, "15:00:00", "15:30:00", "2025-26"))
	got := ComputeWorkloadConflicts(over)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 workload conflict, got %d", len(got))
	}
	if got[0].Type != WorkloadConflict {
		t.Errorf("type = %s, want %s", got[0].Type, WorkloadConflict)
	}
	if got[0].TotalHours != 6.5 {
		t.Errorf("total hours = %v, want 6.5", got[0].TotalHours)
	}
	if got[0].TeacherID == nil || *got[0].TeacherID != teacher {
		t.Errorf("workload conflict must name the teacher")
	}
	if got[0].ScheduleA != atLimit[0].ID {
		t.Errorf("workload conflict should anchor on the slot's first entry")
	}

	// Same total spread over two days stays under the per-day limit
	spread := []models.Schedule{
		makeSchedule(teacher, uuid.New(), 1, "08:00:00", "12:00:00", "2025-26"),
		makeSchedule(teacher, uuid.New(), 2, "08:00:00", "12:00:00", "2025-26"),
	}
	if got := ComputeWorkloadConflicts(spread); len(got) != 0 {
		t.Errorf("hours on different days must not accumulate, got %+v", got)
	}
}

func TestComputeWorkloadConflictsScopedByAcademicYear(t *testing.T) {
	teacher := uuid.New()

	// Four hours on the same weekday in two different academic years:
	// the timetables never coexist, so neither year is over the limit.
	entries := []models.Schedule{
		makeSchedule(teacher, uuid.New(), 1, "08:00:00", "12:00:00", "2024-25"),
		makeSchedule(teacher, uuid.New(), 1, "13:00:00", "17:00:00", "2025-26"),
	}
	if got := ComputeWorkloadConflicts(entries); len(got) != 0 {
		t.Errorf("hours in different academic years must not accumulate, got %+v", got)
	}

	// The same eight hours within one year do trigger, and the conflict
	// names the year it belongs to.
	entries[1].AcademicYear = "2024-25"
	got := ComputeWorkloadConflicts(entries)
	if len(got) != 1 {
		t.Fatalf("expected 1 workload conflict within a single year, got %d", len(got))
	}
	if got[0].TotalHours != 8.0 {
		t.Errorf("total hours = %v, want 8.0", got[0].TotalHours)
	}
	if got[0].AcademicYear != "2024-25" {
		t.Errorf("academic year = %q, want 2024-25", got[0].AcademicYear)
	}
}

func TestComputeCapacityConflicts(t *testing.T) {
	room := uuid.New()
	fits := makeSchedule(uuid.New(), room, 1, "08:00:00", "09:00:00", "2025-26")
	overfull := makeSchedule(uuid.New(), room, 1, "09:00:00", "10:00:00", "2025-26")
	unknownRoom := makeSchedule(uuid.New(), uuid.New(), 1, "10:00:00", "11:00:00", "2025-26")

	entries := []models.Schedule{fits, overfull, unknownRoom}
	enrolled := map[uuid.UUID]int{
		fits.ID:        30,
		overfull.ID:    31,
		unknownRoom.ID: 100,
	}
	capacities := map[uuid.UUID]int{room: 30}

	got := ComputeCapacityConflicts(entries, enrolled, capacities)
	if len(got) != 1 {
		t.Fatalf("expected 1 capacity conflict, got %d", len(got))
	}
	if got[0].ScheduleA != overfull.ID {
		t.Errorf("wrong entry flagged")
	}
	if got[0].Students != 31 || got[0].Capacity != 30 {
		t.Errorf("students/capacity = %d/%d, want 31/30", got[0].Students, got[0].Capacity)
	}
}

func TestComputeFullReportUnionWithoutDedup(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()

	// Two long overlapping sessions: the pair collides on teacher and
	// room, the teacher also blows the daily limit, and the room is
	// over capacity for both entries.
	a := makeSchedule(teacher, room, 1, "08:00:00", "12:00:00", "2025-26")
	b := makeSchedule(teacher, room, 1, "11:00:00", "15:00:00", "2025-26")
	entries := []models.Schedule{a, b}

	enrolled := map[uuid.UUID]int{a.ID: 40, b.ID: 40}
	capacities := map[uuid.UUID]int{room: 35}

	report := ComputeFullReport(entries, enrolled, capacities)

	// 2 pairwise + 1 workload + 2 capacity
	if len(report) != 5 {
		t.Fatalf("expected 5 conflicts in the full report, got %d", len(report))
	}

	wantOrder := []ConflictType{TeacherConflict, ClassroomConflict, WorkloadConflict, CapacityConflict, CapacityConflict}
	for i, want := range wantOrder {
		if report[i].Type != want {
			t.Errorf("report[%d].Type = %s, want %s", i, report[i].Type, want)
		}
	}
}

func TestAdvisoryLockKeys(t *testing.T) {
	teacher := uuid.New()
	room := uuid.New()

	keys := AdvisoryLockKeys(teacher, room, 3)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0] > keys[1] {
		t.Errorf("keys must be sorted ascending: %v", keys)
	}

	// Stable across calls
	again := AdvisoryLockKeys(teacher, room, 3)
	if keys[0] != again[0] || keys[1] != again[1] {
		t.Errorf("keys changed between calls: %v vs %v", keys, again)
	}

	// Different day yields different keys
	other := AdvisoryLockKeys(teacher, room, 4)
	if keys[0] == other[0] && keys[1] == other[1] {
		t.Errorf("day must contribute to key derivation")
	}
}
