package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// TimetableHandler serves template management and effective-schedule views.
type TimetableHandler struct {
	timetable *service.TimetableService
	importer  *service.ScheduleImportService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(timetable *service.TimetableService, importer *service.ScheduleImportService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable, importer: importer}
}

// Template godoc
// @Summary Raw weekly template of a classroom
// @Tags Timetable
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/timetable [get]
func (h *TimetableHandler) Template(c *gin.Context) {
	slots, err := h.timetable.Template(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Import godoc
// @Summary Replace a classroom's template from CSV
// @Tags Timetable
// @Accept mpfd
// @Produce json
// @Param id path string true "Classroom ID"
// @Param file formData file true "CSV file with day,time_slot,subject,faculty columns"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/timetable/import [post]
func (h *TimetableHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing schedule file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to open schedule file"))
		return
	}
	defer file.Close()

	imported, err := h.importer.Import(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"imported": imported}, nil)
}

// DeleteTemplate godoc
// @Summary Clear a classroom's template
// @Tags Timetable
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 204
// @Router /classrooms/{id}/timetable [delete]
func (h *TimetableHandler) DeleteTemplate(c *gin.Context) {
	if err := h.importer.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a classroom's template
// @Tags Timetable
// @Produce text/csv
// @Param id path string true "Classroom ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /classrooms/{id}/timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	classroomID := c.Param("id")
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.importer.Export(c.Request.Context(), classroomID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.%s", classroomID, format))
	c.Data(http.StatusOK, contentType, payload)
}

// PublicDay godoc
// @Summary Effective classroom schedule for one date
// @Tags Timetable
// @Produce json
// @Param id path string true "Classroom ID"
// @Param date query string false "ISO date, defaults to today (UTC)"
// @Success 200 {object} response.Envelope
// @Router /public/classrooms/{id}/timetable [get]
func (h *TimetableHandler) PublicDay(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	slots, err := h.timetable.ResolveDay(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// PublicWeek godoc
// @Summary Effective classroom schedule for the current week
// @Tags Timetable
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /public/classrooms/{id}/timetable/week [get]
func (h *TimetableHandler) PublicWeek(c *gin.Context) {
	week, err := h.timetable.ResolveWeek(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// FacultyTimetable godoc
// @Summary Template entries taught by a faculty member
// @Tags Timetable
// @Produce json
// @Param id path string true "Faculty ID"
// @Param date query string false "ISO date for override annotations"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/timetable [get]
func (h *TimetableHandler) FacultyTimetable(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, raw, time.UTC)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD"))
			return
		}
		date = &parsed
	}

	slots, err := h.timetable.FacultyTimetable(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
