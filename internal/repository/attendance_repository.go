package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
)

// AttendanceRepository reads and submits attendance marks.
type AttendanceRepository struct {
	client *BackendClient
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(client *BackendClient) *AttendanceRepository {
	return &AttendanceRepository{client: client}
}

// ListForPeriod returns existing marks for a class, course and period on a date.
func (r *AttendanceRepository) ListForPeriod(ctx context.Context, classID, courseID, periodID int64, date models.Date) ([]models.AttendanceRecord, error) {
	path := fmt.Sprintf("/attendance/class/%d/course/%d/period/%d", classID, courseID, periodID)
	query := url.Values{"date": []string{date.String()}}
	return getList[models.AttendanceRecord](ctx, r.client, "/attendance/class/{classId}/course/{courseId}/period/{periodId}", path, query)
}

// Mark submits a full attendance sheet.
func (r *AttendanceRepository) Mark(ctx context.Context, submission models.AttendanceSubmission) error {
	return r.client.Send(ctx, http.MethodPost, "/attendance/mark", "/attendance/mark", submission, nil)
}
