package dto

// PeriodRequest captures the create and update payload of a timetable period.
type PeriodRequest struct {
	ClassID      int64  `json:"classId" validate:"required,gt=0"`
	CourseID     int64  `json:"courseId" validate:"required,gt=0"`
	PeriodNumber int    `json:"periodNumber" validate:"required,gte=1"`
	DayOfWeek    string `json:"dayOfWeek" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
}
