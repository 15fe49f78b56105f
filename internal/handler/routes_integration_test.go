package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
)

const overridePayload = `{"base_slot_id":"s1","original_faculty_id":"f1","replacement_faculty_id":"f2","date":"2025-03-14"}`

func TestScheduleRoutesIntegration(t *testing.T) {
	router, _ := buildScheduleRouter()

	t.Run("public day timetable needs no token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/public/classrooms/c1/timetable?date=2025-03-14", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "Alice Johnson")
		require.Contains(t, resp.Body.String(), "Mathematics")
	})

	t.Run("public day timetable rejects bad date", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/public/classrooms/c1/timetable?date=14-03-2025", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("availability unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/availability?date=2025-03-14&time_slot=08:00-09:00", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("availability excludes busy faculty", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/availability?date=2025-03-14&time_slot=08:00-09:00", nil)
		req.Header.Set("X-Test-Role", string(models.RoleFaculty))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "Bob Smith")
		require.Contains(t, resp.Body.String(), "Carol White")
		require.NotContains(t, resp.Body.String(), "Alice Johnson")
	})

	t.Run("availability requires date and time slot", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/availability?date=2025-03-14", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("faculty timetable forbidden for other accounts", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/faculty/f1/timetable", nil)
		req.Header.Set("X-Test-Role", string(models.RoleFaculty))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("faculty timetable allowed for self", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/faculty/test-user/timetable", nil)
		req.Header.Set("X-Test-Role", string(models.RoleFaculty))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("faculty timetable allowed for admin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/faculty/f1/timetable", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestOverrideLifecycleIntegration(t *testing.T) {
	router, overrides := buildScheduleRouter()

	t.Run("create unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/overrides", bytes.NewBufferString(overridePayload))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("create success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/overrides", bytes.NewBufferString(overridePayload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"replacement_faculty_id":"f2"`)
		require.Contains(t, resp.Body.String(), `"date":"2025-03-14"`)
	})

	t.Run("public day reflects the substitution", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/public/classrooms/c1/timetable?date=2025-03-14", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "Bob Smith")
		require.Contains(t, resp.Body.String(), `"replacement"`)
	})

	t.Run("duplicate occurrence conflicts", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/overrides", bytes.NewBufferString(overridePayload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("now busy replacement conflicts elsewhere", func(t *testing.T) {
		payload := `{"base_slot_id":"s2","original_faculty_id":"f3","replacement_faculty_id":"f2","date":"2025-03-14"}`
		req, _ := http.NewRequest(http.MethodPost, "/overrides", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("delete unknown override", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/overrides/missing", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("delete created override", func(t *testing.T) {
		require.Len(t, overrides.items, 1)
		req, _ := http.NewRequest(http.MethodDelete, "/overrides/"+overrides.items[0].ID, nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNoContent, resp.Code)
		require.Empty(t, overrides.items)
	})
}

// buildScheduleRouter wires real services over in-memory stores behind the
// same route guards main.go installs, with a header-driven stand-in for the
// JWT middleware.
func buildScheduleRouter() (*gin.Engine, *overrideStoreStub) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID:   "test-user",
				Role:     models.FacultyRole(role),
				Username: "test-user",
			})
		}
		c.Next()
	})

	slots := &slotStoreStub{slots: []models.BaseSlotDetail{
		detailSlot("s1", "c1", models.DayFriday, "08:00-09:00", "Mathematics", "f1"),
		detailSlot("s2", "c2", models.DayFriday, "10:00-11:00", "History", "f3"),
	}}
	overrides := &overrideStoreStub{names: map[string]string{"f2": "Bob Smith", "f3": "Carol White"}}
	faculty := &facultyStoreStub{all: []models.Faculty{
		{ID: "f1", FullName: "Alice Johnson", Active: true},
		{ID: "f2", FullName: "Bob Smith", Active: true},
		{ID: "f3", FullName: "Carol White", Active: true},
	}}

	logr := zap.NewNop()
	availabilitySvc := service.NewAvailabilityService(slots, overrides, faculty, false, logr)
	overrideSvc := service.NewOverrideService(overrides, slots, availabilitySvc, nil, nil, logr)
	timetableSvc := service.NewTimetableService(slots, overrides, nil, 0, logr)

	overrideHandler := NewOverrideHandler(overrideSvc, availabilitySvc)
	timetableHandler := NewTimetableHandler(timetableSvc, nil)

	router.GET("/public/classrooms/:id/timetable", timetableHandler.PublicDay)

	secured := router.Group("")
	secured.Use(requireTestClaims())
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), "SELF")

	secured.GET("/faculty/:id/timetable", adminOrSelf, timetableHandler.FacultyTimetable)
	secured.GET("/availability", overrideHandler.Availability)
	secured.POST("/overrides", overrideHandler.Create)
	secured.DELETE("/overrides/:id", overrideHandler.Delete)

	return router, overrides
}

// requireTestClaims mirrors the JWT middleware's unauthenticated rejection.
func requireTestClaims() gin.HandlerFunc {
	return internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleFaculty))
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func detailSlot(id, classroomID, day, timeSlot, subject, facultyID string) models.BaseSlotDetail {
	return models.BaseSlotDetail{
		BaseSlot: models.BaseSlot{
			ID:          id,
			ClassroomID: classroomID,
			DayOfWeek:   day,
			TimeSlot:    timeSlot,
			Subject:     subject,
			FacultyID:   facultyID,
		},
		FacultyName:   "Alice Johnson",
		ClassroomName: "Room " + classroomID,
	}
}

type slotStoreStub struct {
	slots []models.BaseSlotDetail
}

func (s *slotStoreStub) FindByID(ctx context.Context, id string) (*models.BaseSlotDetail, error) {
	for i := range s.slots {
		if s.slots[i].ID == id {
			return &s.slots[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *slotStoreStub) ListByClassroom(ctx context.Context, classroomID string) ([]models.BaseSlotDetail, error) {
	var out []models.BaseSlotDetail
	for _, slot := range s.slots {
		if slot.ClassroomID == classroomID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotStoreStub) ListByFaculty(ctx context.Context, facultyID string) ([]models.BaseSlotDetail, error) {
	var out []models.BaseSlotDetail
	for _, slot := range s.slots {
		if slot.FacultyID == facultyID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *slotStoreStub) ListFacultyIDsForSlot(ctx context.Context, dayOfWeek, timeSlot string) ([]string, error) {
	var ids []string
	for _, slot := range s.slots {
		if slot.DayOfWeek == dayOfWeek && slot.TimeSlot == timeSlot {
			ids = append(ids, slot.FacultyID)
		}
	}
	return ids, nil
}

func (s *slotStoreStub) ListFacultyIDsForTimeSlot(ctx context.Context, timeSlot string) ([]string, error) {
	var ids []string
	for _, slot := range s.slots {
		if slot.TimeSlot == timeSlot {
			ids = append(ids, slot.FacultyID)
		}
	}
	return ids, nil
}

type overrideStoreStub struct {
	items []models.Override
	names map[string]string
}

func (o *overrideStoreStub) Create(ctx context.Context, override *models.Override) error {
	for _, existing := range o.items {
		if existing.BaseSlotID == override.BaseSlotID && existing.DateString() == override.DateString() {
			return &pq.Error{Code: "23505"}
		}
	}
	override.ID = "o-" + override.BaseSlotID
	override.CreatedAt = time.Now().UTC()
	o.items = append(o.items, *override)
	return nil
}

func (o *overrideStoreStub) FindBySlotAndDate(ctx context.Context, baseSlotID string, date time.Time) (*models.OverrideDetail, error) {
	for _, item := range o.items {
		if item.BaseSlotID == baseSlotID && item.DateString() == date.UTC().Format(models.DateLayout) {
			return &models.OverrideDetail{Override: item, ReplacementName: o.names[item.ReplacementFacultyID]}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (o *overrideStoreStub) ListInRange(ctx context.Context, start, end time.Time) ([]models.OverrideDetail, error) {
	var out []models.OverrideDetail
	for _, item := range o.items {
		if !item.Date.Before(start) && item.Date.Before(end) {
			out = append(out, models.OverrideDetail{Override: item, ReplacementName: o.names[item.ReplacementFacultyID]})
		}
	}
	return out, nil
}

func (o *overrideStoreStub) ListForOriginalFacultyInMonth(ctx context.Context, facultyID, month string) ([]models.OverrideDetail, error) {
	var out []models.OverrideDetail
	for _, item := range o.items {
		if item.OriginalFacultyID == facultyID && item.Date.UTC().Format("2006-01") == month {
			out = append(out, models.OverrideDetail{Override: item})
		}
	}
	return out, nil
}

func (o *overrideStoreStub) ListReplacementFacultyIDs(ctx context.Context, date time.Time, timeSlot string) ([]string, error) {
	var ids []string
	for _, item := range o.items {
		if item.DateString() == date.UTC().Format(models.DateLayout) {
			ids = append(ids, item.ReplacementFacultyID)
		}
	}
	return ids, nil
}

func (o *overrideStoreStub) Delete(ctx context.Context, id string) (bool, error) {
	for i, item := range o.items {
		if item.ID == id {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type facultyStoreStub struct {
	all []models.Faculty
}

func (f *facultyStoreStub) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return f.all, len(f.all), nil
}
