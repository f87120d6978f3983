package dto

// RosterSessionRequest opens a roster session with an optional initial field selection.
type RosterSessionRequest struct {
	Fields []string `json:"fields"`
}

// CustomColumnRequest adds a custom export column.
type CustomColumnRequest struct {
	Label string `json:"label" validate:"required"`
}

// CellRequest edits one custom cell.
type CellRequest struct {
	RowID string `json:"rowId" validate:"required"`
	Label string `json:"label" validate:"required"`
	Value string `json:"value"`
}

// AttendanceSessionRequest opens an attendance session. An empty date means today.
type AttendanceSessionRequest struct {
	Date string `json:"date"`
}

// AttendanceDateRequest changes the session date.
type AttendanceDateRequest struct {
	Date string `json:"date" validate:"required"`
}

// AttendanceClassRequest selects the class.
type AttendanceClassRequest struct {
	ClassID int64 `json:"classId" validate:"required,gt=0"`
}

// AttendancePeriodRequest selects the period.
type AttendancePeriodRequest struct {
	PeriodID int64 `json:"periodId" validate:"required,gt=0"`
}

// AttendanceStudentRequest edits one student's mark. Toggle flips the flag.
type AttendanceStudentRequest struct {
	Toggle  bool    `json:"toggle"`
	Present *bool   `json:"present"`
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}
