package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-dashboard-gateway/internal/middleware"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// Handlers groups every HTTP handler the gateway mounts.
type Handlers struct {
	Lookups     *LookupHandler
	ExamResults *ExamResultHandler
	Roster      *RosterHandler
	Attendance  *AttendanceHandler
	Periods     *PeriodHandler
}

// Register mounts the authenticated API under api. claims must populate the caller principal.
func Register(api *gin.RouterGroup, h Handlers, claims gin.HandlerFunc) {
	api.Use(claims)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	lookups := api.Group("/lookups")
	lookups.GET("/classes", h.Lookups.Classes)
	lookups.GET("/classes/:id/students", h.Lookups.ClassStudents)
	lookups.GET("/courses", h.Lookups.Courses)
	lookups.GET("/teachers", h.Lookups.Teachers)
	lookups.GET("/students", staff, h.Lookups.Students)

	exams := api.Group("/exam-results")
	exams.GET("", h.ExamResults.List)
	exams.GET("/print-options", h.ExamResults.PrintOptions)
	exams.POST("/export", h.ExamResults.Export)
	exams.POST("", staff, h.ExamResults.Create)
	exams.PUT("/:id", staff, h.ExamResults.Update)
	exams.DELETE("/:id", staff, h.ExamResults.Delete)

	api.POST("/classes/:id/roster-sessions", staff, h.Roster.Open)
	roster := api.Group("/roster-sessions/:sid", staff)
	roster.GET("", h.Roster.View)
	roster.POST("/fields/:key/toggle", h.Roster.ToggleField)
	roster.POST("/columns", h.Roster.AddColumn)
	roster.DELETE("/columns/:label", h.Roster.RemoveColumn)
	roster.PUT("/cells", h.Roster.SetCell)
	roster.POST("/refresh", h.Roster.Refresh)
	roster.GET("/export", h.Roster.Export)
	roster.DELETE("", h.Roster.Close)

	api.GET("/attendance/day-of-week", h.Attendance.DayOfWeek)
	api.POST("/attendance-sessions", staff, h.Attendance.Open)
	attendance := api.Group("/attendance-sessions/:sid", staff)
	attendance.GET("", h.Attendance.View)
	attendance.PUT("/date", h.Attendance.SetDate)
	attendance.PUT("/class", h.Attendance.SetClass)
	attendance.PUT("/period", h.Attendance.SetPeriod)
	attendance.PUT("/students/:studentId", h.Attendance.UpdateStudent)
	attendance.POST("/submit", h.Attendance.Submit)
	attendance.DELETE("", h.Attendance.Close)

	periods := api.Group("/periods")
	periods.GET("", h.Periods.List)
	periods.GET("/timetable/:classId", h.Periods.Timetable)
	periods.GET("/editable-days", h.Periods.EditableDays)
	periods.POST("", admin, h.Periods.Create)
	periods.PUT("/:id", admin, h.Periods.Update)
	periods.DELETE("/:id", admin, h.Periods.Delete)
}
