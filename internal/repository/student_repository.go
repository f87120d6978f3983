package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// StudentRepository fetches student lists.
type StudentRepository struct {
	client *BackendClient
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(client *BackendClient) *StudentRepository {
	return &StudentRepository{client: client}
}

// List returns all students.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	return getList[models.Student](ctx, r.client, "/students", "/students", nil)
}

// ListForTeacher returns the students taught by a teacher's user id.
func (r *StudentRepository) ListForTeacher(ctx context.Context, teacherUserID string) ([]models.Student, error) {
	return getList[models.Student](ctx, r.client, "/teacher/students/{userId}", "/teacher/students/"+url.PathEscape(teacherUserID), nil)
}
