package models

// AttendanceRecord is a persisted mark for one student in one period on one date.
type AttendanceRecord struct {
	ID             int64  `json:"id,omitempty"`
	StudentID      int64  `json:"studentId"`
	StudentName    string `json:"studentName,omitempty"`
	ClassID        int64  `json:"classId"`
	ClassName      string `json:"className,omitempty"`
	CourseID       int64  `json:"courseId"`
	CourseName     string `json:"courseName,omitempty"`
	PeriodID       int64  `json:"periodId"`
	PeriodName     string `json:"periodName,omitempty"`
	AttendanceDate Date   `json:"attendanceDate"`
	Present        bool   `json:"present"`
	MarkedByName   string `json:"markedByName,omitempty"`
	Remarks        string `json:"remarks"`
}

// AttendanceState is the editable mark for a student on the sheet.
type AttendanceState struct {
	Present bool   `json:"present"`
	Remarks string `json:"remarks"`
}

// AttendanceEntry is one submitted line.
type AttendanceEntry struct {
	StudentID int64  `json:"studentId"`
	Present   bool   `json:"present"`
	Remarks   string `json:"remarks"`
}

// AttendanceSubmission is the body posted to the backend when marking attendance.
type AttendanceSubmission struct {
	ClassID        int64             `json:"classId"`
	CourseID       int64             `json:"courseId"`
	PeriodID       int64             `json:"periodId"`
	AttendanceDate Date              `json:"attendanceDate"`
	Students       []AttendanceEntry `json:"students"`
}
