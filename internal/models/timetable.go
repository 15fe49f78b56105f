package models

// SlotReplacement describes the substitute shown for a resolved slot.
type SlotReplacement struct {
	FacultyID   string `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`
	Subject     string `json:"subject"`
}

// ResolvedSlot is one effective timetable entry: a base slot with any dated
// override already applied. Subject and FacultyName reflect the replacement
// when Replacement is set.
type ResolvedSlot struct {
	SlotID        string           `json:"slot_id"`
	ClassroomID   string           `json:"classroom_id"`
	ClassroomName string           `json:"classroom_name,omitempty"`
	DayOfWeek     string           `json:"day_of_week"`
	TimeSlot      string           `json:"time_slot"`
	Subject       string           `json:"subject"`
	FacultyID     string           `json:"faculty_id"`
	FacultyName   string           `json:"faculty_name"`
	Date          string           `json:"date,omitempty"`
	Replacement   *SlotReplacement `json:"replacement,omitempty"`
}

// DaySchedule groups the resolved slots of one calendar date.
type DaySchedule struct {
	Date  string         `json:"date"`
	Day   string         `json:"day"`
	Slots []ResolvedSlot `json:"slots"`
}

// WeekSchedule is a full Monday..Sunday composition for one classroom.
type WeekSchedule struct {
	ClassroomID string        `json:"classroom_id"`
	WeekStart   string        `json:"week_start"`
	Days        []DaySchedule `json:"days"`
}
