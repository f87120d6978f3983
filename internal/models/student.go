package models

import "strings"

// Student represents a learner as returned by the backend.
type Student struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	DateOfBirth   Date   `json:"dateOfBirth"`
	Gender        string `json:"gender,omitempty"`
	AdmissionDate Date   `json:"admissionDate"`
	Address       string `json:"address,omitempty"`
	ClassID       *int64 `json:"classId,omitempty"`
	ClassName     string `json:"className,omitempty"`
	SessionID     *int64 `json:"sessionId,omitempty"`
	UserID        string `json:"userId,omitempty"`
	Active        bool   `json:"active"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Assigned reports whether the student belongs to a class.
func (s Student) Assigned() bool {
	return s.ClassID != nil
}
