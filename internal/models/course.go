package models

// Course is a subject taught to one or more classes.
type Course struct {
	ID          int64    `json:"id"`
	CourseCode  string   `json:"courseCode"`
	CourseName  string   `json:"courseName"`
	Description string   `json:"description,omitempty"`
	Teacher     *Teacher `json:"teacher,omitempty"`
}
