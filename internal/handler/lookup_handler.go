package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/response"
)

type lookupService interface {
	Classes(ctx context.Context, principal models.Principal) ([]models.ClassSection, error)
	ClassStudents(ctx context.Context, classID int64) ([]models.Student, error)
	Students(ctx context.Context, principal models.Principal) ([]models.Student, error)
	Teachers(ctx context.Context) ([]models.Teacher, error)
	Courses(ctx context.Context, classID *int64) ([]models.Course, error)
}

// LookupHandler serves the entity lists that populate selectors.
type LookupHandler struct {
	service lookupService
}

// NewLookupHandler constructs the handler.
func NewLookupHandler(service lookupService) *LookupHandler {
	return &LookupHandler{service: service}
}

// Classes godoc
// @Summary List classes visible to the caller
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/classes [get]
func (h *LookupHandler) Classes(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	classes, err := h.service.Classes(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, map[string]interface{}{"total": len(classes)})
}

// ClassStudents godoc
// @Summary List the students of a class
// @Tags Lookups
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /lookups/classes/{id}/students [get]
func (h *LookupHandler) ClassStudents(c *gin.Context) {
	classID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	students, err := h.service.ClassStudents(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// Students godoc
// @Summary List students visible to the caller
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/students [get]
func (h *LookupHandler) Students(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	students, err := h.service.Students(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// Teachers godoc
// @Summary List teachers
// @Tags Lookups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lookups/teachers [get]
func (h *LookupHandler) Teachers(c *gin.Context) {
	teachers, err := h.service.Teachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, map[string]interface{}{"total": len(teachers)})
}

// Courses godoc
// @Summary List courses, optionally for one class
// @Tags Lookups
// @Produce json
// @Param classId query int false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /lookups/courses [get]
func (h *LookupHandler) Courses(c *gin.Context) {
	classID, ok := optionalInt64Query(c, "classId")
	if !ok {
		return
	}
	courses, err := h.service.Courses(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}
