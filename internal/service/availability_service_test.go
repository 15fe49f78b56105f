package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
)

type fakeAvailabilitySlots struct {
	byDayTime map[string][]string
	byTime    map[string][]string
}

func (f *fakeAvailabilitySlots) ListFacultyIDsForSlot(ctx context.Context, dayOfWeek, timeSlot string) ([]string, error) {
	return f.byDayTime[dayOfWeek+"|"+timeSlot], nil
}

func (f *fakeAvailabilitySlots) ListFacultyIDsForTimeSlot(ctx context.Context, timeSlot string) ([]string, error) {
	return f.byTime[timeSlot], nil
}

type fakeAvailabilityOverrides struct {
	byDateTime map[string][]string
}

func (f *fakeAvailabilityOverrides) ListReplacementFacultyIDs(ctx context.Context, date time.Time, timeSlot string) ([]string, error) {
	return f.byDateTime[date.UTC().Format(models.DateLayout)+"|"+timeSlot], nil
}

type fakeAvailabilityFaculty struct {
	faculty []models.Faculty
}

func (f *fakeAvailabilityFaculty) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return f.faculty, len(f.faculty), nil
}

func activeFaculty() *fakeAvailabilityFaculty {
	return &fakeAvailabilityFaculty{faculty: []models.Faculty{
		{ID: "f1", FullName: "Alice Johnson", Subject: "Mathematics", Active: true},
		{ID: "f2", FullName: "Bob Smith", Subject: "Physics", Active: true},
		{ID: "f3", FullName: "Carol Davis", Subject: "English", Active: true},
	}}
}

// 2025-03-14 is a Friday.
var friday = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestFindAvailableSkipsTemplateAndOverrideCommitments(t *testing.T) {
	slots := &fakeAvailabilitySlots{byDayTime: map[string][]string{
		"FRIDAY|08:00-09:00": {"f1"},
	}}
	overrides := &fakeAvailabilityOverrides{byDateTime: map[string][]string{
		"2025-03-14|08:00-09:00": {"f2"},
	}}
	svc := NewAvailabilityService(slots, overrides, activeFaculty(), false, zap.NewNop())

	available, err := svc.FindAvailable(context.Background(), friday, "08:00-09:00", "")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "f3", available[0].ID)
}

func TestFindAvailableNeverOffersTheExcludedFaculty(t *testing.T) {
	svc := NewAvailabilityService(&fakeAvailabilitySlots{}, &fakeAvailabilityOverrides{}, activeFaculty(), false, zap.NewNop())

	available, err := svc.FindAvailable(context.Background(), friday, "08:00-09:00", "f1")
	require.NoError(t, err)
	ids := make([]string, 0, len(available))
	for _, f := range available {
		ids = append(ids, f.ID)
	}
	assert.NotContains(t, ids, "f1")
	assert.ElementsMatch(t, []string{"f2", "f3"}, ids)
}

func TestFindAvailableMatchesDayOfWeek(t *testing.T) {
	// f1 teaches Mondays at 08:00; on a Friday at the same time they are free.
	slots := &fakeAvailabilitySlots{
		byDayTime: map[string][]string{"MONDAY|08:00-09:00": {"f1"}},
		byTime:    map[string][]string{"08:00-09:00": {"f1"}},
	}
	overrides := &fakeAvailabilityOverrides{}

	svc := NewAvailabilityService(slots, overrides, activeFaculty(), false, zap.NewNop())
	available, err := svc.FindAvailable(context.Background(), friday, "08:00-09:00", "")
	require.NoError(t, err)
	assert.Len(t, available, 3)

	legacy := NewAvailabilityService(slots, overrides, activeFaculty(), true, zap.NewNop())
	available, err = legacy.FindAvailable(context.Background(), friday, "08:00-09:00", "")
	require.NoError(t, err)
	assert.Len(t, available, 2)
	for _, f := range available {
		assert.NotEqual(t, "f1", f.ID)
	}
}

func TestIsAvailable(t *testing.T) {
	slots := &fakeAvailabilitySlots{byDayTime: map[string][]string{
		"FRIDAY|08:00-09:00": {"f1"},
	}}
	svc := NewAvailabilityService(slots, &fakeAvailabilityOverrides{}, activeFaculty(), false, zap.NewNop())

	busy, err := svc.IsAvailable(context.Background(), "f1", friday, "08:00-09:00")
	require.NoError(t, err)
	assert.False(t, busy)

	free, err := svc.IsAvailable(context.Background(), "f2", friday, "08:00-09:00")
	require.NoError(t, err)
	assert.True(t, free)
}
