package models

import "time"

// Days of week as stored on base slots, Monday first to match the teaching week.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
	DaySunday    = "SUNDAY"
)

// WeekDays lists the seven day labels in Monday..Sunday order.
var WeekDays = []string{
	DayMonday,
	DayTuesday,
	DayWednesday,
	DayThursday,
	DayFriday,
	DaySaturday,
	DaySunday,
}

var weekdayNames = map[time.Weekday]string{
	time.Monday:    DayMonday,
	time.Tuesday:   DayTuesday,
	time.Wednesday: DayWednesday,
	time.Thursday:  DayThursday,
	time.Friday:    DayFriday,
	time.Saturday:  DaySaturday,
	time.Sunday:    DaySunday,
}

// DayOfWeek returns the slot day label for a calendar date.
func DayOfWeek(t time.Time) string {
	return weekdayNames[t.UTC().Weekday()]
}

// IsWeekDay reports whether the given label is one of the seven day labels.
func IsWeekDay(day string) bool {
	_, ok := weekdayIndex[day]
	return ok
}

var weekdayIndex = func() map[string]int {
	m := make(map[string]int, len(WeekDays))
	for i, d := range WeekDays {
		m[d] = i
	}
	return m
}()

// BaseSlot is one recurring weekly timetable entry for a classroom.
// Faculty is referenced by id; legacy imports matched teachers by name and
// are migrated to ids at import time.
type BaseSlot struct {
	ID          string    `db:"id" json:"id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	DayOfWeek   string    `db:"day_of_week" json:"day_of_week"`
	TimeSlot    string    `db:"time_slot" json:"time_slot"`
	Subject     string    `db:"subject" json:"subject"`
	FacultyID   string    `db:"faculty_id" json:"faculty_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BaseSlotDetail extends BaseSlot with denormalised display names.
type BaseSlotDetail struct {
	BaseSlot
	FacultyName   string `db:"faculty_name" json:"faculty_name"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
}
