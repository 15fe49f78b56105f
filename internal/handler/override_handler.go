package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// OverrideHandler manages substitution endpoints.
type OverrideHandler struct {
	overrides    *service.OverrideService
	availability *service.AvailabilityService
}

// NewOverrideHandler constructs handler.
func NewOverrideHandler(overrides *service.OverrideService, availability *service.AvailabilityService) *OverrideHandler {
	return &OverrideHandler{overrides: overrides, availability: availability}
}

// Create godoc
// @Summary Assign a substitute for one slot occurrence
// @Tags Overrides
// @Accept json
// @Produce json
// @Param payload body service.CreateOverrideRequest true "Override payload"
// @Success 201 {object} response.Envelope
// @Router /overrides [post]
func (h *OverrideHandler) Create(c *gin.Context) {
	var req service.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	override, err := h.overrides.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"id":                     override.ID,
		"base_slot_id":           override.BaseSlotID,
		"original_faculty_id":    override.OriginalFacultyID,
		"replacement_faculty_id": override.ReplacementFacultyID,
		"date":                   override.DateString(),
	})
}

// Delete godoc
// @Summary Remove a substitution by id
// @Tags Overrides
// @Produce json
// @Param id path string true "Override ID"
// @Success 204
// @Router /overrides/{id} [delete]
func (h *OverrideHandler) Delete(c *gin.Context) {
	if err := h.overrides.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForFacultyMonth godoc
// @Summary Substitutions displacing a faculty member in a month
// @Tags Overrides
// @Produce json
// @Param id path string true "Faculty ID"
// @Param month query string true "Calendar month, YYYY-MM"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/overrides [get]
func (h *OverrideHandler) ListForFacultyMonth(c *gin.Context) {
	overrides, err := h.overrides.ListForFacultyMonth(c.Request.Context(), c.Param("id"), c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, nil)
}

// Availability godoc
// @Summary Faculty free to substitute at a date and time slot
// @Tags Overrides
// @Produce json
// @Param date query string true "ISO date"
// @Param time_slot query string true "Time slot label"
// @Param exclude_id query string false "Faculty id to exclude"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *OverrideHandler) Availability(c *gin.Context) {
	rawDate := c.Query("date")
	timeSlot := c.Query("time_slot")
	if rawDate == "" || timeSlot == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date and time_slot are required"))
		return
	}
	date, err := time.ParseInLocation(models.DateLayout, rawDate, time.UTC)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD"))
		return
	}

	available, err := h.availability.FindAvailable(c.Request.Context(), date, timeSlot, c.Query("exclude_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, available, nil)
}
