package models

// ClassSection is a class or section. Enrolled students are fetched separately.
type ClassSection struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	TeacherIDs []int64 `json:"teacherIds,omitempty"`
}

// HasTeacher reports whether teacherID is linked to the class.
func (c ClassSection) HasTeacher(teacherID int64) bool {
	for _, id := range c.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}
