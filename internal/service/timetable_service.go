package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableSlotRepository interface {
	ListByClassroom(ctx context.Context, classroomID string) ([]models.BaseSlotDetail, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.BaseSlotDetail, error)
}

type timetableOverrideRepository interface {
	FindBySlotAndDate(ctx context.Context, baseSlotID string, date time.Time) (*models.OverrideDetail, error)
	ListInRange(ctx context.Context, start, end time.Time) ([]models.OverrideDetail, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheMetrics interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

// TimetableService composes effective schedules by merging the weekly
// template with dated overrides. It never mutates store state.
type TimetableService struct {
	slots     timetableSlotRepository
	overrides timetableOverrideRepository
	cache     scheduleCache
	cacheTTL  time.Duration
	metrics   cacheMetrics
	logger    *zap.Logger
}

// NewTimetableService instantiates TimetableService. cache may be nil, in
// which case week compositions are always computed from the store.
func NewTimetableService(slots timetableSlotRepository, overrides timetableOverrideRepository, cache scheduleCache, cacheTTL time.Duration, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{slots: slots, overrides: overrides, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// WithMetrics attaches cache instrumentation.
func (s *TimetableService) WithMetrics(metrics cacheMetrics) *TimetableService {
	s.metrics = metrics
	return s
}

// Template returns a classroom's raw weekly template without overrides.
func (s *TimetableService) Template(ctx context.Context, classroomID string) ([]models.BaseSlotDetail, error) {
	slots, err := s.slots.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom template")
	}
	return slots, nil
}

// ResolveDay returns the effective schedule of one classroom on one date:
// template entries on that weekday, with any override for the date applied.
func (s *TimetableService) ResolveDay(ctx context.Context, classroomID string, date time.Time) ([]models.ResolvedSlot, error) {
	slots, err := s.slots.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom template")
	}

	day := models.DayOfWeek(date)
	dateStr := date.UTC().Format(models.DateLayout)

	resolved := make([]models.ResolvedSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.DayOfWeek != day {
			continue
		}
		entry := resolvedFromSlot(slot, dateStr)

		override, err := s.overrides.FindBySlotAndDate(ctx, slot.ID, date)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				resolved = append(resolved, entry)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
		}
		applyOverride(&entry, *override)
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// ResolveWeek composes the Monday..Sunday week containing now for one
// classroom: seven day buckets in consecutive calendar order, each labelled
// with the weekday name and ISO date. All date math is UTC.
func (s *TimetableService) ResolveWeek(ctx context.Context, classroomID string, now time.Time) (*models.WeekSchedule, error) {
	start := WeekStart(now)
	cacheKey := fmt.Sprintf("timetable:week:%s:%s", classroomID, start.Format(models.DateLayout))

	if s.cache != nil {
		var cached models.WeekSchedule
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("week cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	slots, err := s.slots.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom template")
	}

	end := start.AddDate(0, 0, 6)
	overrides, err := s.overrides.ListInRange(ctx, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}

	// Index overrides by date and slot for the merge.
	byOccurrence := make(map[string]map[string]models.OverrideDetail)
	for _, o := range overrides {
		key := o.DateString()
		if byOccurrence[key] == nil {
			byOccurrence[key] = make(map[string]models.OverrideDetail)
		}
		byOccurrence[key][o.BaseSlotID] = o
	}

	week := &models.WeekSchedule{
		ClassroomID: classroomID,
		WeekStart:   start.Format(models.DateLayout),
		Days:        make([]models.DaySchedule, 0, 7),
	}

	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		dateStr := date.Format(models.DateLayout)
		day := models.DayOfWeek(date)

		daySlots := make([]models.ResolvedSlot, 0)
		for _, slot := range slots {
			if slot.DayOfWeek != day {
				continue
			}
			entry := resolvedFromSlot(slot, dateStr)
			if override, ok := byOccurrence[dateStr][slot.ID]; ok {
				applyOverride(&entry, override)
			}
			daySlots = append(daySlots, entry)
		}
		week.Days = append(week.Days, models.DaySchedule{Date: dateStr, Day: day, Slots: daySlots})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, week, s.cacheTTL); err != nil {
			s.logger.Warn("week cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return week, nil
}

// FacultyTimetable returns every template entry taught by a faculty member.
// When date is non-nil, overrides for that date are attached as annotations;
// base subject and faculty stay untouched so the owner sees what is covered.
func (s *TimetableService) FacultyTimetable(ctx context.Context, facultyID string, date *time.Time) ([]models.ResolvedSlot, error) {
	slots, err := s.slots.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty template")
	}

	resolved := make([]models.ResolvedSlot, 0, len(slots))
	for _, slot := range slots {
		entry := resolvedFromSlot(slot, "")
		if date != nil {
			entry.Date = date.UTC().Format(models.DateLayout)
			override, err := s.overrides.FindBySlotAndDate(ctx, slot.ID, *date)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
			}
			if err == nil {
				entry.Replacement = &models.SlotReplacement{
					FacultyID:   override.ReplacementFacultyID,
					FacultyName: override.ReplacementName,
					Subject:     override.ReplacementSubject,
				}
			}
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// WeekStart returns the Monday (UTC, midnight) of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

func resolvedFromSlot(slot models.BaseSlotDetail, date string) models.ResolvedSlot {
	return models.ResolvedSlot{
		SlotID:        slot.ID,
		ClassroomID:   slot.ClassroomID,
		ClassroomName: slot.ClassroomName,
		DayOfWeek:     slot.DayOfWeek,
		TimeSlot:      slot.TimeSlot,
		Subject:       slot.Subject,
		FacultyID:     slot.FacultyID,
		FacultyName:   slot.FacultyName,
		Date:          date,
	}
}

// applyOverride substitutes the replacement's name and subject into a
// resolved entry for the viewer-facing day and week compositions.
func applyOverride(entry *models.ResolvedSlot, override models.OverrideDetail) {
	entry.FacultyID = override.ReplacementFacultyID
	entry.FacultyName = override.ReplacementName
	if override.ReplacementSubject != "" {
		entry.Subject = override.ReplacementSubject
	}
	entry.Replacement = &models.SlotReplacement{
		FacultyID:   override.ReplacementFacultyID,
		FacultyName: override.ReplacementName,
		Subject:     override.ReplacementSubject,
	}
}
