package dto

// ExamResultRequest captures the create and update payload of an exam result. Marks arrive as a
// number or a numeric string and are checked separately.
type ExamResultRequest struct {
	ClassID       int64       `json:"classId" validate:"required,gt=0"`
	StudentID     int64       `json:"studentId" validate:"required,gt=0"`
	CourseID      int64       `json:"courseId" validate:"required,gt=0"`
	ExamType      string      `json:"examType" validate:"required"`
	ExamDate      string      `json:"examDate" validate:"required"`
	MarksObtained interface{} `json:"marksObtained"`
	Remarks       string      `json:"remarks"`
}

// ExamResultQuery holds the list filters of GET /exam-results.
type ExamResultQuery struct {
	View     string `form:"view" validate:"omitempty,oneof=grouped flat"`
	Search   string `form:"search"`
	ExamType string `form:"examType"`
	Date     string `form:"date"`
}

// ExamResultExportRequest captures POST /exam-results/export.
type ExamResultExportRequest struct {
	Format     string   `json:"format" validate:"omitempty,oneof=pdf docx xlsx csv"`
	Scope      string   `json:"scope" validate:"omitempty,oneof=all byClass byStudent"`
	ClassName  string   `json:"className"`
	StudentKey string   `json:"studentKey"`
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	Fields     []string `json:"fields"`
	Search     string   `json:"search"`
	ExamType   string   `json:"examType"`
}
