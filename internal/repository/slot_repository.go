package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

const baseSlotColumns = `s.id, s.classroom_id, s.day_of_week, s.time_slot, s.subject, s.faculty_id, s.created_at, s.updated_at, f.full_name AS faculty_name, c.room_number AS classroom_name`

const baseSlotJoins = `FROM base_slots s
JOIN faculty f ON f.id = s.faculty_id
JOIN classrooms c ON c.id = s.classroom_id`

// SlotRepository provides persistence for the recurring weekly template.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListByClassroom returns the weekly template of a classroom ordered by day/time.
func (r *SlotRepository) ListByClassroom(ctx context.Context, classroomID string) ([]models.BaseSlotDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.classroom_id = $1 ORDER BY s.day_of_week ASC, s.time_slot ASC`, baseSlotColumns, baseSlotJoins)
	var slots []models.BaseSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, classroomID); err != nil {
		return nil, fmt.Errorf("list slots by classroom: %w", err)
	}
	return slots, nil
}

// ListByFaculty returns every template entry taught by a faculty member.
func (r *SlotRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.BaseSlotDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.faculty_id = $1 ORDER BY s.day_of_week ASC, s.time_slot ASC`, baseSlotColumns, baseSlotJoins)
	var slots []models.BaseSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, facultyID); err != nil {
		return nil, fmt.Errorf("list slots by faculty: %w", err)
	}
	return slots, nil
}

// FindByID loads a single template entry.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.BaseSlotDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.id = $1`, baseSlotColumns, baseSlotJoins)
	var slot models.BaseSlotDetail
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ListFacultyIDsForSlot returns ids of faculty teaching a base slot at the
// given day of week and time slot, in any classroom.
func (r *SlotRepository) ListFacultyIDsForSlot(ctx context.Context, dayOfWeek, timeSlot string) ([]string, error) {
	const query = `SELECT DISTINCT faculty_id FROM base_slots WHERE day_of_week = $1 AND time_slot = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, dayOfWeek, timeSlot); err != nil {
		return nil, fmt.Errorf("list faculty ids for slot: %w", err)
	}
	return ids, nil
}

// ListFacultyIDsForTimeSlot matches on time slot alone, regardless of day.
// Kept for the legacy availability mode.
func (r *SlotRepository) ListFacultyIDsForTimeSlot(ctx context.Context, timeSlot string) ([]string, error) {
	const query = `SELECT DISTINCT faculty_id FROM base_slots WHERE time_slot = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, timeSlot); err != nil {
		return nil, fmt.Errorf("list faculty ids for time slot: %w", err)
	}
	return ids, nil
}

// ReplaceForClassroom swaps a classroom's entire template in one transaction.
func (r *SlotRepository) ReplaceForClassroom(ctx context.Context, classroomID string, slots []models.BaseSlot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace slots: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM base_slots WHERE classroom_id = $1`, classroomID); err != nil {
		return fmt.Errorf("clear classroom slots: %w", err)
	}

	now := time.Now().UTC()
	for i := range slots {
		payload := slots[i]
		payload.ClassroomID = classroomID
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = tx.NamedExecContext(ctx, `INSERT INTO base_slots (id, classroom_id, day_of_week, time_slot, subject, faculty_id, created_at, updated_at) VALUES (:id, :classroom_id, :day_of_week, :time_slot, :subject, :faculty_id, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		slots[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace slots: %w", err)
	}
	return nil
}

// DeleteByClassroom clears a classroom's template.
func (r *SlotRepository) DeleteByClassroom(ctx context.Context, classroomID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM base_slots WHERE classroom_id = $1`, classroomID); err != nil {
		return fmt.Errorf("delete classroom slots: %w", err)
	}
	return nil
}
