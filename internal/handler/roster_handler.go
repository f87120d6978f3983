package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/response"
)

type rosterService interface {
	Open(ctx context.Context, classID int64, selected []string) (*service.RosterView, error)
	View(id string) (*service.RosterView, error)
	ToggleField(id, key string) (*service.RosterView, error)
	AddColumn(id, label string) (*service.RosterView, bool, error)
	RemoveColumn(id, label string) (*service.RosterView, error)
	SetCell(id, rowID, label, value string) (*service.RosterView, error)
	Refresh(ctx context.Context, id string) (*service.RosterView, error)
	Export(ctx context.Context, id string, format export.Format) (*service.Artifact, error)
	Close(id string) error
}

// RosterHandler exposes class roster sessions.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// Open godoc
// @Summary Open a roster session for a class
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body dto.RosterSessionRequest false "Initial field selection"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/roster-sessions [post]
func (h *RosterHandler) Open(c *gin.Context) {
	classID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.RosterSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	view, err := h.service.Open(c.Request.Context(), classID, req.Fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// View godoc
// @Summary Current state of a roster session
// @Tags Roster
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid} [get]
func (h *RosterHandler) View(c *gin.Context) {
	h.respond(c)(h.service.View(c.Param("sid")))
}

// ToggleField godoc
// @Summary Toggle a default field or custom column
// @Tags Roster
// @Produce json
// @Param sid path string true "Session ID"
// @Param key path string true "Field key or custom label"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid}/fields/{key}/toggle [post]
func (h *RosterHandler) ToggleField(c *gin.Context) {
	h.respond(c)(h.service.ToggleField(c.Param("sid"), c.Param("key")))
}

// AddColumn godoc
// @Summary Add a custom export column
// @Tags Roster
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.CustomColumnRequest true "Column label"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid}/columns [post]
func (h *RosterHandler) AddColumn(c *gin.Context) {
	var req dto.CustomColumnRequest
	if !bindValid(c, &req) {
		return
	}
	view, added, err := h.service.AddColumn(c.Param("sid"), req.Label)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{"added": added})
}

// RemoveColumn godoc
// @Summary Remove a custom export column and its values
// @Tags Roster
// @Produce json
// @Param sid path string true "Session ID"
// @Param label path string true "Custom label"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid}/columns/{label} [delete]
func (h *RosterHandler) RemoveColumn(c *gin.Context) {
	h.respond(c)(h.service.RemoveColumn(c.Param("sid"), c.Param("label")))
}

// SetCell godoc
// @Summary Edit one custom value
// @Tags Roster
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param payload body dto.CellRequest true "Cell"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid}/cells [put]
func (h *RosterHandler) SetCell(c *gin.Context) {
	var req dto.CellRequest
	if !bindValid(c, &req) {
		return
	}
	h.respond(c)(h.service.SetCell(c.Param("sid"), req.RowID, req.Label, req.Value))
}

// Refresh godoc
// @Summary Refetch the class and its students
// @Tags Roster
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /roster-sessions/{sid}/refresh [post]
func (h *RosterHandler) Refresh(c *gin.Context) {
	h.respond(c)(h.service.Refresh(c.Request.Context(), c.Param("sid")))
}

// Export godoc
// @Summary Download the roster
// @Tags Roster
// @Produce application/pdf
// @Param sid path string true "Session ID"
// @Param format query string false "pdf, docx, xlsx or csv"
// @Success 200 {file} binary
// @Router /roster-sessions/{sid}/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	artifact, err := h.service.Export(c.Request.Context(), c.Param("sid"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.Filename, artifact.ContentType, artifact.Data)
}

// Close godoc
// @Summary Close a roster session
// @Tags Roster
// @Param sid path string true "Session ID"
// @Success 204
// @Router /roster-sessions/{sid} [delete]
func (h *RosterHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("sid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *RosterHandler) respond(c *gin.Context) func(*service.RosterView, error) {
	return func(view *service.RosterView, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, view)
	}
}
