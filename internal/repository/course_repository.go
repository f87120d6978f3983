package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// CourseRepository fetches courses.
type CourseRepository struct {
	client *BackendClient
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(client *BackendClient) *CourseRepository {
	return &CourseRepository{client: client}
}

// List returns courses, narrowed to one class when classID is set.
func (r *CourseRepository) List(ctx context.Context, classID *int64) ([]models.Course, error) {
	var query url.Values
	if classID != nil {
		query = url.Values{"classId": []string{strconv.FormatInt(*classID, 10)}}
	}
	return getList[models.Course](ctx, r.client, "/courses", "/courses", query)
}
