package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/response"
)

type examResultService interface {
	List(ctx context.Context, principal models.Principal, query dto.ExamResultQuery) (*service.ExamResultListing, error)
	PrintOptions(ctx context.Context, principal models.Principal) (service.PrintOptions, error)
	Export(ctx context.Context, principal models.Principal, req dto.ExamResultExportRequest) (*service.Artifact, error)
	Create(ctx context.Context, principal models.Principal, req dto.ExamResultRequest) (*models.ExamResult, error)
	Update(ctx context.Context, principal models.Principal, id int64, req dto.ExamResultRequest) (*models.ExamResult, error)
	Delete(ctx context.Context, principal models.Principal, id int64) error
}

// ExamResultHandler exposes exam result listing, printing and editing.
type ExamResultHandler struct {
	service examResultService
}

// NewExamResultHandler constructs the handler.
func NewExamResultHandler(service examResultService) *ExamResultHandler {
	return &ExamResultHandler{service: service}
}

// List godoc
// @Summary List exam results scoped to the caller's role
// @Tags ExamResults
// @Produce json
// @Param view query string false "grouped or flat"
// @Param search query string false "Student, class or course name contains"
// @Param examType query string false "Exam type"
// @Param date query string false "Exam date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /exam-results [get]
func (h *ExamResultHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var query dto.ExamResultQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	listing, err := h.service.List(c.Request.Context(), principal, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing, map[string]interface{}{"total": listing.Total, "view": listing.View})
}

// PrintOptions godoc
// @Summary Classes, students and dates offered by the print dialog
// @Tags ExamResults
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exam-results/print-options [get]
func (h *ExamResultHandler) PrintOptions(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	opts, err := h.service.PrintOptions(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts)
}

// Export godoc
// @Summary Render the filtered exam results as a document
// @Tags ExamResults
// @Accept json
// @Produce application/pdf
// @Param payload body dto.ExamResultExportRequest true "Print selection"
// @Success 200 {file} binary
// @Failure 422 {object} response.Envelope
// @Router /exam-results/export [post]
func (h *ExamResultHandler) Export(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ExamResultExportRequest
	if !bindJSON(c, &req) {
		return
	}
	artifact, err := h.service.Export(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, artifact.Filename, artifact.ContentType, artifact.Data)
}

// Create godoc
// @Summary Record an exam result
// @Tags ExamResults
// @Accept json
// @Produce json
// @Param payload body dto.ExamResultRequest true "Exam result"
// @Success 201 {object} response.Envelope
// @Router /exam-results [post]
func (h *ExamResultHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req dto.ExamResultRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update an exam result
// @Tags ExamResults
// @Accept json
// @Produce json
// @Param id path int true "Exam result ID"
// @Param payload body dto.ExamResultRequest true "Exam result"
// @Success 200 {object} response.Envelope
// @Router /exam-results/{id} [put]
func (h *ExamResultHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req dto.ExamResultRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete an exam result
// @Tags ExamResults
// @Param id path int true "Exam result ID"
// @Success 204
// @Router /exam-results/{id} [delete]
func (h *ExamResultHandler) Delete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
