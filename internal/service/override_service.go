package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type overrideRepositoryPort interface {
	Create(ctx context.Context, override *models.Override) error
	FindBySlotAndDate(ctx context.Context, baseSlotID string, date time.Time) (*models.OverrideDetail, error)
	ListForOriginalFacultyInMonth(ctx context.Context, facultyID, month string) ([]models.OverrideDetail, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type overrideSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.BaseSlotDetail, error)
}

type replacementChecker interface {
	IsAvailable(ctx context.Context, facultyID string, date time.Time, timeSlot string) (bool, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateOverrideRequest describes payload for assigning a substitute.
type CreateOverrideRequest struct {
	BaseSlotID           string `json:"base_slot_id" validate:"required"`
	OriginalFacultyID    string `json:"original_faculty_id" validate:"required"`
	ReplacementFacultyID string `json:"replacement_faculty_id" validate:"required"`
	Date                 string `json:"date" validate:"required"`
}

// OverrideService owns the substitution lifecycle: creating dated exceptions
// after re-validating availability server-side, and removing them.
type OverrideService struct {
	repo      overrideRepositoryPort
	slots     overrideSlotRepository
	checker   replacementChecker
	cache     cacheInvalidator
	warmer    scheduleWarmer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService instantiates OverrideService. cache may be nil.
func NewOverrideService(repo overrideRepositoryPort, slots overrideSlotRepository, checker replacementChecker, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{repo: repo, slots: slots, checker: checker, cache: cache, validator: validate, logger: logger}
}

// WithWarmer repopulates the week cache in the background after mutations.
func (s *OverrideService) WithWarmer(warmer scheduleWarmer) *OverrideService {
	s.warmer = warmer
	return s
}

// Create records a substitution for one slot occurrence. The replacement's
// availability is re-checked here rather than trusted from the client, and
// the store's (base_slot_id, date) uniqueness is treated as the authoritative
// conflict signal when two writers race.
func (s *OverrideService) Create(ctx context.Context, req CreateOverrideRequest) (*models.Override, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}

	date, err := time.ParseInLocation(models.DateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override date")
	}

	if req.ReplacementFacultyID == req.OriginalFacultyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "replacement must differ from original faculty")
	}

	slot, err := s.slots.FindByID(ctx, req.BaseSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "base slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load base slot")
	}

	if slot.FacultyID != req.OriginalFacultyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot is not taught by the original faculty")
	}
	if slot.DayOfWeek != models.DayOfWeek(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date does not fall on the slot's day of week")
	}

	available, err := s.checker.IsAvailable(ctx, req.ReplacementFacultyID, date, slot.TimeSlot)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, appErrors.Clone(appErrors.ErrConflict, "replacement faculty already committed at this time slot")
	}

	override := &models.Override{
		BaseSlotID:           req.BaseSlotID,
		OriginalFacultyID:    req.OriginalFacultyID,
		ReplacementFacultyID: req.ReplacementFacultyID,
		Date:                 date,
	}
	if err := s.repo.Create(ctx, override); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence already has a substitute assigned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override")
	}

	s.invalidateWeekCache(ctx)
	if s.warmer != nil {
		s.warmer.WarmWeek(slot.ClassroomID, date)
	}
	return override, nil
}

// Delete removes an override by id. A missing id reports NOT_FOUND rather
// than silently succeeding; repeated deletes leave the store unchanged.
func (s *OverrideService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "override not found")
	}

	s.invalidateWeekCache(ctx)
	return nil
}

// ListForFacultyMonth returns every override displacing the given faculty in
// a calendar month, annotated with the replacement's name and subject.
func (s *OverrideService) ListForFacultyMonth(ctx context.Context, facultyID, month string) ([]models.OverrideSummary, error) {
	if facultyID == "" || month == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty id and month are required")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid month, expected YYYY-MM")
	}

	overrides, err := s.repo.ListForOriginalFacultyInMonth(ctx, facultyID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty overrides")
	}

	summaries := make([]models.OverrideSummary, 0, len(overrides))
	for _, o := range overrides {
		summaries = append(summaries, o.Summary())
	}
	return summaries, nil
}

func (s *OverrideService) invalidateWeekCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:week:*"); err != nil {
		s.logger.Warn("failed to invalidate week cache", zap.Error(err))
	}
}
