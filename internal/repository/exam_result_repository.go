package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// ExamResultRepository reads and maintains exam results.
type ExamResultRepository struct {
	client *BackendClient
}

// NewExamResultRepository constructs an exam result repository.
func NewExamResultRepository(client *BackendClient) *ExamResultRepository {
	return &ExamResultRepository{client: client}
}

// ListAll returns every exam result (admin scope).
func (r *ExamResultRepository) ListAll(ctx context.Context) ([]models.ExamResult, error) {
	return getList[models.ExamResult](ctx, r.client, "/exam-results", "/exam-results", nil)
}

// ListMine returns the caller's own exam results (student scope).
func (r *ExamResultRepository) ListMine(ctx context.Context) ([]models.ExamResult, error) {
	return getList[models.ExamResult](ctx, r.client, "/exam-results/mine", "/exam-results/mine", nil)
}

// ListForTeacher returns results for the classes a teacher teaches.
func (r *ExamResultRepository) ListForTeacher(ctx context.Context, teacherUserID string) ([]models.ExamResult, error) {
	return getList[models.ExamResult](ctx, r.client, "/teacher/exam-results/{userId}", "/teacher/exam-results/"+url.PathEscape(teacherUserID), nil)
}

// Create records a new exam result. The backend derives the grade.
func (r *ExamResultRepository) Create(ctx context.Context, input models.ExamResultInput) (*models.ExamResult, error) {
	var created models.ExamResult
	if err := r.client.Send(ctx, http.MethodPost, "/exam-results", "/exam-results", input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces an exam result.
func (r *ExamResultRepository) Update(ctx context.Context, id int64, input models.ExamResultInput) (*models.ExamResult, error) {
	var updated models.ExamResult
	if err := r.client.Send(ctx, http.MethodPut, "/exam-results/{id}", fmt.Sprintf("/exam-results/%d", id), input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an exam result.
func (r *ExamResultRepository) Delete(ctx context.Context, id int64) error {
	return r.client.Send(ctx, http.MethodDelete, "/exam-results/{id}", fmt.Sprintf("/exam-results/%d", id), nil, nil)
}
