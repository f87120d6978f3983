package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// ClassRepository fetches class sections and their enrolments.
type ClassRepository struct {
	client *BackendClient
}

// NewClassRepository constructs a class repository.
func NewClassRepository(client *BackendClient) *ClassRepository {
	return &ClassRepository{client: client}
}

// List returns every class visible to the caller.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassSection, error) {
	return getList[models.ClassSection](ctx, r.client, "/classes", "/classes", nil)
}

// FindByID fetches a single class.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.ClassSection, error) {
	var class models.ClassSection
	if err := r.client.GetJSON(ctx, "/classes/{id}", fmt.Sprintf("/classes/%d", id), nil, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListStudents returns the students enrolled in a class.
func (r *ClassRepository) ListStudents(ctx context.Context, classID int64) ([]models.Student, error) {
	return getList[models.Student](ctx, r.client, "/classes/{id}/students", fmt.Sprintf("/classes/%d/students", classID), nil)
}

// ListForTeacher returns the classes linked to a teacher's user id.
func (r *ClassRepository) ListForTeacher(ctx context.Context, teacherUserID string) ([]models.ClassSection, error) {
	return getList[models.ClassSection](ctx, r.client, "/teacher/classes/{userId}", "/teacher/classes/"+url.PathEscape(teacherUserID), nil)
}
