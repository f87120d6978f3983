package models

import "strings"

// Suggested exam types. The backend accepts any string.
var ExamTypes = []string{"Midterm", "Final", "Quiz", "Assignment"}

// StudentSummary is the embedded student reference on an exam result.
type StudentSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ExamResult is the backend view of a graded exam.
type ExamResult struct {
	ID            int64           `json:"id"`
	Student       *StudentSummary `json:"student,omitempty"`
	StudentName   string          `json:"studentName"`
	ClassName     string          `json:"className"`
	CourseName    string          `json:"courseName"`
	ExamType      string          `json:"examType"`
	ExamDate      Date            `json:"examDate"`
	MarksObtained float64         `json:"marksObtained"`
	Grade         string          `json:"grade"`
	Remarks       string          `json:"remarks,omitempty"`
}

// DisplayName prefers the embedded student name and falls back to the flat field.
func (r ExamResult) DisplayName() string {
	if r.Student != nil {
		if name := strings.TrimSpace(r.Student.FirstName + " " + r.Student.LastName); name != "" {
			return name
		}
	}
	return r.StudentName
}

// ExamResultInput is the create/update payload forwarded to the backend.
type ExamResultInput struct {
	ClassID       int64   `json:"classId"`
	StudentID     int64   `json:"studentId"`
	CourseID      int64   `json:"courseId"`
	ExamType      string  `json:"examType"`
	ExamDate      Date    `json:"examDate"`
	MarksObtained float64 `json:"marksObtained"`
	Remarks       string  `json:"remarks,omitempty"`
}
