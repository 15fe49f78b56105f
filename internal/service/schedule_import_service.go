package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type importSlotRepository interface {
	ListByClassroom(ctx context.Context, classroomID string) ([]models.BaseSlotDetail, error)
	ReplaceForClassroom(ctx context.Context, classroomID string, slots []models.BaseSlot) error
	DeleteByClassroom(ctx context.Context, classroomID string) error
}

type importFacultyRepository interface {
	FindByNames(ctx context.Context, names []string) ([]models.Faculty, error)
}

type importClassroomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type importArchive interface {
	Save(classroomID string, data []byte) (string, error)
}

type scheduleWarmer interface {
	WarmWeek(classroomID string, date time.Time)
}

// ScheduleImportService manages a classroom's weekly template: CSV import,
// wholesale deletion, and tabular export.
type ScheduleImportService struct {
	slots      importSlotRepository
	faculty    importFacultyRepository
	classrooms importClassroomRepository
	cache      cacheInvalidator
	archive    importArchive
	warmer     scheduleWarmer
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewScheduleImportService instantiates ScheduleImportService. cache may be nil.
func NewScheduleImportService(slots importSlotRepository, faculty importFacultyRepository, classrooms importClassroomRepository, cache cacheInvalidator, logger *zap.Logger) *ScheduleImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleImportService{
		slots:      slots,
		faculty:    faculty,
		classrooms: classrooms,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// WithArchive keeps a copy of every accepted upload for auditing.
func (s *ScheduleImportService) WithArchive(archive importArchive) *ScheduleImportService {
	s.archive = archive
	return s
}

// WithWarmer repopulates the week cache in the background after mutations.
func (s *ScheduleImportService) WithWarmer(warmer scheduleWarmer) *ScheduleImportService {
	s.warmer = warmer
	return s
}

var importHeader = []string{"day", "time_slot", "subject", "faculty"}

// Import parses a CSV template (columns day, time_slot, subject, faculty)
// and replaces the classroom's schedule with it. Faculty are referenced by
// display name in the file and resolved to ids; an unmatched name is a
// data-integrity error, never silently trusted.
func (s *ScheduleImportService) Import(ctx context.Context, classroomID string, r io.Reader) (int, error) {
	if classroomID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "classroom id is required")
	}
	if _, err := s.classrooms.FindByID(ctx, classroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read schedule file")
	}

	rows, err := parseScheduleCSV(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "schedule file contains no rows")
	}

	names := make([]string, 0, len(rows))
	seenNames := make(map[string]struct{})
	for _, row := range rows {
		if _, ok := seenNames[row.faculty]; !ok {
			seenNames[row.faculty] = struct{}{}
			names = append(names, row.faculty)
		}
	}

	matched, err := s.faculty.FindByNames(ctx, names)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty names")
	}
	idByName := make(map[string]string, len(matched))
	for _, f := range matched {
		idByName[f.FullName] = f.ID
	}

	slots := make([]models.BaseSlot, 0, len(rows))
	seenSlots := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		facultyID, ok := idByName[row.faculty]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: unknown faculty %q", i+2, row.faculty))
		}
		key := row.day + "|" + row.timeSlot
		if _, dup := seenSlots[key]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: duplicate entry for %s %s", i+2, row.day, row.timeSlot))
		}
		seenSlots[key] = struct{}{}

		slots = append(slots, models.BaseSlot{
			ClassroomID: classroomID,
			DayOfWeek:   row.day,
			TimeSlot:    row.timeSlot,
			Subject:     row.subject,
			FacultyID:   facultyID,
		})
	}

	if err := s.slots.ReplaceForClassroom(ctx, classroomID, slots); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace classroom schedule")
	}

	if s.archive != nil {
		if _, err := s.archive.Save(classroomID, raw); err != nil {
			s.logger.Warn("failed to archive schedule upload", zap.String("classroom_id", classroomID), zap.Error(err))
		}
	}

	s.invalidateWeekCache(ctx)
	if s.warmer != nil {
		s.warmer.WarmWeek(classroomID, time.Now().UTC())
	}
	return len(slots), nil
}

// Delete clears a classroom's weekly template.
func (s *ScheduleImportService) Delete(ctx context.Context, classroomID string) error {
	if classroomID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "classroom id is required")
	}
	if err := s.slots.DeleteByClassroom(ctx, classroomID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom schedule")
	}

	s.invalidateWeekCache(ctx)
	return nil
}

// Export renders a classroom's template as CSV or PDF bytes.
func (s *ScheduleImportService) Export(ctx context.Context, classroomID, format string) ([]byte, string, error) {
	classroom, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	slots, err := s.slots.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom schedule")
	}

	dataset := export.Dataset{Headers: []string{"Day", "Time Slot", "Subject", "Faculty"}}
	for _, slot := range slots {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":       slot.DayOfWeek,
			"Time Slot": slot.TimeSlot,
			"Subject":   slot.Subject,
			"Faculty":   slot.FacultyName,
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Timetable %s", classroom.RoomNumber))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

type scheduleRow struct {
	day      string
	timeSlot string
	subject  string
	faculty  string
}

func parseScheduleCSV(r io.Reader) ([]scheduleRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read csv header")
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range importHeader {
		if _, ok := index[col]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing csv column %q", col))
		}
	}

	var rows []scheduleRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid csv at line %d", line))
		}

		row := scheduleRow{
			day:      strings.ToUpper(strings.TrimSpace(record[index["day"]])),
			timeSlot: strings.TrimSpace(record[index["time_slot"]]),
			subject:  strings.TrimSpace(record[index["subject"]]),
			faculty:  strings.TrimSpace(record[index["faculty"]])}
		if row.day == "" && row.timeSlot == "" && row.subject == "" && row.faculty == "" {
			continue
		}
		if row.day == "" || row.timeSlot == "" || row.subject == "" || row.faculty == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: day, time_slot, subject, and faculty are required", line))
		}
		if !models.IsWeekDay(row.day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("line %d: unknown day %q", line, row.day))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ScheduleImportService) invalidateWeekCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:week:*"); err != nil {
		s.logger.Warn("failed to invalidate week cache", zap.Error(err))
	}
}
