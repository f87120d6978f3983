package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// PeriodRepository reads and maintains timetable periods.
type PeriodRepository struct {
	client *BackendClient
}

// NewPeriodRepository constructs a period repository.
func NewPeriodRepository(client *BackendClient) *PeriodRepository {
	return &PeriodRepository{client: client}
}

// List returns every period.
func (r *PeriodRepository) List(ctx context.Context) ([]models.Period, error) {
	return getList[models.Period](ctx, r.client, "/periods", "/periods", nil)
}

// ListByClass returns the periods of one class.
func (r *PeriodRepository) ListByClass(ctx context.Context, classID int64) ([]models.Period, error) {
	return getList[models.Period](ctx, r.client, "/periods/class/{classId}", fmt.Sprintf("/periods/class/%d", classID), nil)
}

// ListByClassDay returns the periods of one class on a weekday.
func (r *PeriodRepository) ListByClassDay(ctx context.Context, classID int64, day models.DayOfWeek) ([]models.Period, error) {
	return getList[models.Period](ctx, r.client, "/periods/class/{classId}/day/{day}", fmt.Sprintf("/periods/class/%d/day/%s", classID, day), nil)
}

// Create stores a new period.
func (r *PeriodRepository) Create(ctx context.Context, period models.Period) (*models.Period, error) {
	var created models.Period
	if err := r.client.Send(ctx, http.MethodPost, "/periods", "/periods", period, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a period.
func (r *PeriodRepository) Update(ctx context.Context, id int64, period models.Period) (*models.Period, error) {
	var updated models.Period
	if err := r.client.Send(ctx, http.MethodPut, "/periods/{id}", fmt.Sprintf("/periods/%d", id), period, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a period.
func (r *PeriodRepository) Delete(ctx context.Context, id int64) error {
	return r.client.Send(ctx, http.MethodDelete, "/periods/{id}", fmt.Sprintf("/periods/%d", id), nil, nil)
}
