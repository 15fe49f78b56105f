package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type availabilitySlotRepository interface {
	ListFacultyIDsForSlot(ctx context.Context, dayOfWeek, timeSlot string) ([]string, error)
	ListFacultyIDsForTimeSlot(ctx context.Context, timeSlot string) ([]string, error)
}

type availabilityOverrideRepository interface {
	ListReplacementFacultyIDs(ctx context.Context, date time.Time, timeSlot string) ([]string, error)
}

type availabilityFacultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
}

// AvailabilityService computes which faculty are free to substitute at a
// given date and time slot.
type AvailabilityService struct {
	slots     availabilitySlotRepository
	overrides availabilityOverrideRepository
	faculty   availabilityFacultyRepository
	logger    *zap.Logger

	// legacyTimeSlotMatch ignores the day of week when matching base slots,
	// reproducing the historical over-broad busy set.
	legacyTimeSlotMatch bool
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(slots availabilitySlotRepository, overrides availabilityOverrideRepository, faculty availabilityFacultyRepository, legacyTimeSlotMatch bool, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		slots:               slots,
		overrides:           overrides,
		faculty:             faculty,
		logger:              logger,
		legacyTimeSlotMatch: legacyTimeSlotMatch,
	}
}

// FindAvailable returns every active faculty member not committed at the
// given date and time slot, via either a recurring base slot on that weekday
// or an override dated that day. excludeFacultyID is always removed so a
// requester can never be offered as their own substitute.
func (s *AvailabilityService) FindAvailable(ctx context.Context, date time.Time, timeSlot, excludeFacultyID string) ([]models.FacultyInfo, error) {
	busy, err := s.busySet(ctx, date, timeSlot)
	if err != nil {
		return nil, err
	}
	if excludeFacultyID != "" {
		busy[excludeFacultyID] = struct{}{}
	}

	active := true
	all, _, err := s.faculty.List(ctx, models.FacultyFilter{Active: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}

	available := make([]models.FacultyInfo, 0, len(all))
	for _, f := range all {
		if _, taken := busy[f.ID]; taken {
			continue
		}
		available = append(available, f.Info())
	}
	return available, nil
}

// IsAvailable reports whether one faculty member is free at the given date
// and time slot. Used by the override lifecycle for its server-side check.
func (s *AvailabilityService) IsAvailable(ctx context.Context, facultyID string, date time.Time, timeSlot string) (bool, error) {
	busy, err := s.busySet(ctx, date, timeSlot)
	if err != nil {
		return false, err
	}
	_, taken := busy[facultyID]
	return !taken, nil
}

func (s *AvailabilityService) busySet(ctx context.Context, date time.Time, timeSlot string) (map[string]struct{}, error) {
	var baseIDs []string
	var err error
	if s.legacyTimeSlotMatch {
		baseIDs, err = s.slots.ListFacultyIDsForTimeSlot(ctx, timeSlot)
	} else {
		baseIDs, err = s.slots.ListFacultyIDsForSlot(ctx, models.DayOfWeek(date), timeSlot)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve base commitments")
	}

	overrideIDs, err := s.overrides.ListReplacementFacultyIDs(ctx, date, timeSlot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve override commitments")
	}

	busy := make(map[string]struct{}, len(baseIDs)+len(overrideIDs))
	for _, id := range baseIDs {
		busy[id] = struct{}{}
	}
	for _, id := range overrideIDs {
		busy[id] = struct{}{}
	}
	return busy, nil
}
