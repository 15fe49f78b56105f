package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-api/internal/models"
)

const overrideColumns = `o.id, o.base_slot_id, o.original_faculty_id, o.replacement_faculty_id, o.date, o.created_at, f.full_name AS replacement_name, f.subject AS replacement_subject`

const overrideJoins = `FROM overrides o
JOIN faculty f ON f.id = o.replacement_faculty_id`

// OverrideRepository provides persistence for dated substitution records.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new override repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Create stores a new override. The unique constraint on (base_slot_id, date)
// is the final guard against two substitutes claiming the same occurrence;
// callers detect it via IsUniqueViolation.
func (r *OverrideRepository) Create(ctx context.Context, override *models.Override) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.CreatedAt.IsZero() {
		override.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO overrides (id, base_slot_id, original_faculty_id, replacement_faculty_id, date, created_at) VALUES (:id, :base_slot_id, :original_faculty_id, :replacement_faculty_id, :date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("create override: %w", err)
	}
	return nil
}

// FindBySlotAndDate returns the override for one slot occurrence, if any.
func (r *OverrideRepository) FindBySlotAndDate(ctx context.Context, baseSlotID string, date time.Time) (*models.OverrideDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE o.base_slot_id = $1 AND o.date = $2`, overrideColumns, overrideJoins)
	var override models.OverrideDetail
	if err := r.db.GetContext(ctx, &override, query, baseSlotID, date); err != nil {
		return nil, err
	}
	return &override, nil
}

// ListInRange returns all overrides dated within [start, end] inclusive.
func (r *OverrideRepository) ListInRange(ctx context.Context, start, end time.Time) ([]models.OverrideDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE o.date BETWEEN $1 AND $2 ORDER BY o.date ASC`, overrideColumns, overrideJoins)
	var overrides []models.OverrideDetail
	if err := r.db.SelectContext(ctx, &overrides, query, start, end); err != nil {
		return nil, fmt.Errorf("list overrides in range: %w", err)
	}
	return overrides, nil
}

// ListForOriginalFacultyInMonth returns overrides displacing the given
// faculty within a calendar month ("2006-01").
func (r *OverrideRepository) ListForOriginalFacultyInMonth(ctx context.Context, facultyID, month string) ([]models.OverrideDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE o.original_faculty_id = $1 AND to_char(o.date, 'YYYY-MM') = $2 ORDER BY o.date ASC`, overrideColumns, overrideJoins)
	var overrides []models.OverrideDetail
	if err := r.db.SelectContext(ctx, &overrides, query, facultyID, month); err != nil {
		return nil, fmt.Errorf("list faculty overrides for month: %w", err)
	}
	return overrides, nil
}

// ListReplacementFacultyIDs returns ids of faculty already committed as
// replacements at the given date and time slot.
func (r *OverrideRepository) ListReplacementFacultyIDs(ctx context.Context, date time.Time, timeSlot string) ([]string, error) {
	const query = `SELECT DISTINCT o.replacement_faculty_id FROM overrides o JOIN base_slots s ON s.id = o.base_slot_id WHERE o.date = $1 AND s.time_slot = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, date, timeSlot); err != nil {
		return nil, fmt.Errorf("list replacement faculty ids: %w", err)
	}
	return ids, nil
}

// Delete removes an override by id and reports whether a row was removed.
func (r *OverrideRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM overrides WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete override: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete override rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
