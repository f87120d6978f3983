package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/response"
)

type attendanceService interface {
	DayOfWeek(raw string) (models.DayOfWeek, bool, error)
	Open(date string) (*service.AttendanceView, error)
	View(id string) (*service.AttendanceView, error)
	SetDate(ctx context.Context, id, raw string) (*service.AttendanceView, error)
	SetClass(ctx context.Context, id string, classID int64) (*service.AttendanceView, error)
	SetPeriod(ctx context.Context, id string, periodID int64) (*service.AttendanceView, error)
	UpdateStudent(id string, studentID int64, update service.AttendanceUpdate) (*service.AttendanceView, error)
	Submit(ctx context.Context, id string) (*service.AttendanceView, error)
	Close(id string) error
}

// AttendanceHandler exposes mark-attendance sessions.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// DayOfWeek godoc
// @Summary Weekday of a date
// @Tags Attendance
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/day-of-week [get]
func (h *AttendanceHandler) DayOfWeek(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	day, editable, err := h.service.DayOfWeek(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"date": raw, "dayOfWeek": day, "editable": editable})
}

// Open godoc
// @Summary Open an attendance session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.AttendanceSessionRequest false "Date, defaults to today"
// @Success 201 {object} response.Envelope
// @Router /attendance-sessions [post]
func (h *AttendanceHandler) Open(c *gin.Context) {
	var req dto.AttendanceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	view, err := h.service.Open(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// View godoc
// @Summary Current state of an attendance session
// @Tags Attendance
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid} [get]
func (h *AttendanceHandler) View(c *gin.Context) {
	h.respond(c)(h.service.View(c.Param("sid")))
}

// SetDate godoc
// @Summary Change the attendance date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.AttendanceDateRequest true "Date"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid}/date [put]
func (h *AttendanceHandler) SetDate(c *gin.Context) {
	var req dto.AttendanceDateRequest
	if !bindValid(c, &req) {
		return
	}
	h.respond(c)(h.service.SetDate(c.Request.Context(), c.Param("sid"), req.Date))
}

// SetClass godoc
// @Summary Choose the class and load its periods
// @Tags Attendance
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.AttendanceClassRequest true "Class"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid}/class [put]
func (h *AttendanceHandler) SetClass(c *gin.Context) {
	var req dto.AttendanceClassRequest
	if !bindValid(c, &req) {
		return
	}
	h.respond(c)(h.service.SetClass(c.Request.Context(), c.Param("sid"), req.ClassID))
}

// SetPeriod godoc
// @Summary Choose the period and load the sheet
// @Tags Attendance
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.AttendancePeriodRequest true "Period"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid}/period [put]
func (h *AttendanceHandler) SetPeriod(c *gin.Context) {
	var req dto.AttendancePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PeriodID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Please select a valid period"))
		return
	}
	h.respond(c)(h.service.SetPeriod(c.Request.Context(), c.Param("sid"), req.PeriodID))
}

// UpdateStudent godoc
// @Summary Edit one student's mark
// @Tags Attendance
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param studentId path int true "Student ID"
// @Param payload body dto.AttendanceStudentRequest true "Change"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid}/students/{studentId} [put]
func (h *AttendanceHandler) UpdateStudent(c *gin.Context) {
	studentID, ok := int64Param(c, "studentId")
	if !ok {
		return
	}
	var req dto.AttendanceStudentRequest
	if !bindValid(c, &req) {
		return
	}
	update := service.AttendanceUpdate{Toggle: req.Toggle, Present: req.Present, Remarks: req.Remarks}
	h.respond(c)(h.service.UpdateStudent(c.Param("sid"), studentID, update))
}

// Submit godoc
// @Summary Post the attendance sheet
// @Tags Attendance
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /attendance-sessions/{sid}/submit [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	h.respond(c)(h.service.Submit(c.Request.Context(), c.Param("sid")))
}

// Close godoc
// @Summary Close an attendance session
// @Tags Attendance
// @Param sid path string true "Session ID"
// @Success 204
// @Router /attendance-sessions/{sid} [delete]
func (h *AttendanceHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("sid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AttendanceHandler) respond(c *gin.Context) func(*service.AttendanceView, error) {
	return func(view *service.AttendanceView, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, view)
	}
}
