package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/response"
)

type periodService interface {
	List(ctx context.Context, classID *int64) ([]models.Period, error)
	Timetable(ctx context.Context, classID int64) ([]service.TimetableDay, error)
	EditableDays() []models.DayOfWeek
	Create(ctx context.Context, req dto.PeriodRequest) (*models.Period, error)
	Update(ctx context.Context, id int64, req dto.PeriodRequest) (*models.Period, error)
	Delete(ctx context.Context, id int64) error
}

// PeriodHandler exposes timetable periods.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(service periodService) *PeriodHandler {
	return &PeriodHandler{service: service}
}

// List godoc
// @Summary List periods
// @Tags Periods
// @Produce json
// @Param classId query int false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	classID, ok := optionalInt64Query(c, "classId")
	if !ok {
		return
	}
	periods, err := h.service.List(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, map[string]interface{}{"total": len(periods)})
}

// Timetable godoc
// @Summary Weekly timetable of a class
// @Tags Periods
// @Produce json
// @Param classId path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /periods/timetable/{classId} [get]
func (h *PeriodHandler) Timetable(c *gin.Context) {
	classID, ok := int64Param(c, "classId")
	if !ok {
		return
	}
	days, err := h.service.Timetable(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}

// EditableDays godoc
// @Summary Weekdays offered by the period editor
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/editable-days [get]
func (h *PeriodHandler) EditableDays(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.EditableDays())
}

// Create godoc
// @Summary Create a period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.PeriodRequest true "Period"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.PeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update a period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path int true "Period ID"
// @Param payload body dto.PeriodRequest true "Period"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.PeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period)
}

// Delete godoc
// @Summary Delete a period
// @Tags Periods
// @Param id path int true "Period ID"
// @Success 204
// @Router /periods/{id} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
