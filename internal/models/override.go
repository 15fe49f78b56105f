package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Override is a dated exception to one base slot: on Date the slot is taught
// by the replacement faculty instead of the original. At most one override
// exists per (base_slot_id, date); the store enforces this.
type Override struct {
	ID                   string    `db:"id" json:"id"`
	BaseSlotID           string    `db:"base_slot_id" json:"base_slot_id"`
	OriginalFacultyID    string    `db:"original_faculty_id" json:"original_faculty_id"`
	ReplacementFacultyID string    `db:"replacement_faculty_id" json:"replacement_faculty_id"`
	Date                 time.Time `db:"date" json:"-"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// DateString returns the override date in wire format.
func (o Override) DateString() string {
	return o.Date.UTC().Format(DateLayout)
}

// OverrideDetail annotates an Override with the replacement's display data.
type OverrideDetail struct {
	Override
	ReplacementName    string `db:"replacement_name" json:"replacement_name"`
	ReplacementSubject string `db:"replacement_subject" json:"replacement_subject"`
}

// OverrideSummary is the API projection of an override with its calendar date
// rendered in wire format.
type OverrideSummary struct {
	ID                   string `json:"id"`
	BaseSlotID           string `json:"base_slot_id"`
	OriginalFacultyID    string `json:"original_faculty_id"`
	ReplacementFacultyID string `json:"replacement_faculty_id"`
	Date                 string `json:"date"`
	ReplacementName      string `json:"replacement_name,omitempty"`
	ReplacementSubject   string `json:"replacement_subject,omitempty"`
}

// Summary converts an OverrideDetail into its API projection.
func (o OverrideDetail) Summary() OverrideSummary {
	return OverrideSummary{
		ID:                   o.ID,
		BaseSlotID:           o.BaseSlotID,
		OriginalFacultyID:    o.OriginalFacultyID,
		ReplacementFacultyID: o.ReplacementFacultyID,
		Date:                 o.DateString(),
		ReplacementName:      o.ReplacementName,
		ReplacementSubject:   o.ReplacementSubject,
	}
}
