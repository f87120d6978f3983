package repository

import (
	"context"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// TeacherRepository fetches teachers.
type TeacherRepository struct {
	client *BackendClient
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(client *BackendClient) *TeacherRepository {
	return &TeacherRepository{client: client}
}

// List returns all teachers.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	return getList[models.Teacher](ctx, r.client, "/teachers", "/teachers", nil)
}
