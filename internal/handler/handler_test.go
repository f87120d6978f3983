package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/middleware"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	"github.com/noah-isme/sma-dashboard-gateway/internal/service"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newContext(method, target string, body []byte, principal *models.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if principal != nil {
		c.Set(middleware.ContextUserKey, principal)
	}
	return c, rec
}

type fakeExamResultSrv struct {
	listing   *service.ExamResultListing
	artifact  *service.Artifact
	err       error
	lastQuery dto.ExamResultQuery
	lastPrint dto.ExamResultExportRequest
	lastRole  models.UserRole
	deletedID int64
}

func (f *fakeExamResultSrv) List(_ context.Context, p models.Principal, q dto.ExamResultQuery) (*service.ExamResultListing, error) {
	f.lastRole = p.Role
	f.lastQuery = q
	return f.listing, f.err
}

func (f *fakeExamResultSrv) PrintOptions(context.Context, models.Principal) (service.PrintOptions, error) {
	return service.PrintOptions{Classes: []string{"Grade 10 - A"}}, f.err
}

func (f *fakeExamResultSrv) Export(_ context.Context, _ models.Principal, req dto.ExamResultExportRequest) (*service.Artifact, error) {
	f.lastPrint = req
	return f.artifact, f.err
}

func (f *fakeExamResultSrv) Create(context.Context, models.Principal, dto.ExamResultRequest) (*models.ExamResult, error) {
	return &models.ExamResult{ID: 9}, f.err
}

func (f *fakeExamResultSrv) Update(_ context.Context, _ models.Principal, id int64, _ dto.ExamResultRequest) (*models.ExamResult, error) {
	return &models.ExamResult{ID: id}, f.err
}

func (f *fakeExamResultSrv) Delete(_ context.Context, _ models.Principal, id int64) error {
	f.deletedID = id
	return f.err
}

func TestExamResultHandlerListRequiresPrincipal(t *testing.T) {
	handler := NewExamResultHandler(&fakeExamResultSrv{})
	c, rec := newContext(http.MethodGet, "/exam-results", nil, nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExamResultHandlerListBindsQuery(t *testing.T) {
	srv := &fakeExamResultSrv{listing: &service.ExamResultListing{View: "grouped", Total: 3}}
	handler := NewExamResultHandler(srv)
	c, rec := newContext(http.MethodGet, "/exam-results?view=grouped&search=amina&examType=Final", nil, &models.Principal{Role: models.RoleTeacher, UserID: "7"})

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ExamResultQuery{View: "grouped", Search: "amina", ExamType: "Final"}, srv.lastQuery)
	assert.Equal(t, models.RoleTeacher, srv.lastRole)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(3), envelope.Meta["total"])
	assert.Equal(t, "grouped", envelope.Meta["view"])
}

func TestExamResultHandlerExportWritesAttachment(t *testing.T) {
	srv := &fakeExamResultSrv{artifact: &service.Artifact{Filename: "Grade_10_-_A_exam_results.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}}
	handler := NewExamResultHandler(srv)
	body := []byte(`{"format":"pdf","scope":"byClass","className":"Grade 10 - A"}`)
	c, rec := newContext(http.MethodPost, "/exam-results/export", body, &models.Principal{Role: models.RoleAdmin})

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Grade_10_-_A_exam_results.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
	assert.Equal(t, "byClass", srv.lastPrint.Scope)
}

func TestExamResultHandlerExportEmptySelection(t *testing.T) {
	srv := &fakeExamResultSrv{err: appErrors.Clone(appErrors.ErrEmptyExport, "No data available for printing with the selected filters.")}
	handler := NewExamResultHandler(srv)
	c, rec := newContext(http.MethodPost, "/exam-results/export", []byte(`{}`), &models.Principal{Role: models.RoleAdmin})

	handler.Export(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "EMPTY_EXPORT", envelope.Error.Code)
}

func TestExamResultHandlerDelete(t *testing.T) {
	srv := &fakeExamResultSrv{}
	handler := NewExamResultHandler(srv)
	c, rec := newContext(http.MethodDelete, "/exam-results/12", nil, &models.Principal{Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "12"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(12), srv.deletedID)
}

func TestExamResultHandlerUpdateRejectsBadID(t *testing.T) {
	handler := NewExamResultHandler(&fakeExamResultSrv{})
	c, rec := newContext(http.MethodPut, "/exam-results/abc", []byte(`{}`), &models.Principal{Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Update(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeRosterSrv struct {
	view     *service.RosterView
	artifact *service.Artifact
	err      error
	added    bool
	format   export.Format
	fields   []string
}

func (f *fakeRosterSrv) Open(_ context.Context, _ int64, selected []string) (*service.RosterView, error) {
	f.fields = selected
	return f.view, f.err
}
func (f *fakeRosterSrv) View(string) (*service.RosterView, error)                { return f.view, f.err }
func (f *fakeRosterSrv) ToggleField(string, string) (*service.RosterView, error) { return f.view, f.err }
func (f *fakeRosterSrv) AddColumn(string, string) (*service.RosterView, bool, error) {
	return f.view, f.added, f.err
}
func (f *fakeRosterSrv) RemoveColumn(string, string) (*service.RosterView, error) { return f.view, f.err }
func (f *fakeRosterSrv) SetCell(string, string, string, string) (*service.RosterView, error) {
	return f.view, f.err
}
func (f *fakeRosterSrv) Refresh(context.Context, string) (*service.RosterView, error) {
	return f.view, f.err
}
func (f *fakeRosterSrv) Export(_ context.Context, _ string, format export.Format) (*service.Artifact, error) {
	f.format = format
	return f.artifact, f.err
}
func (f *fakeRosterSrv) Close(string) error { return f.err }

func TestRosterHandlerOpenWithoutBody(t *testing.T) {
	srv := &fakeRosterSrv{view: &service.RosterView{SessionID: "s-1"}}
	handler := NewRosterHandler(srv)
	c, rec := newContext(http.MethodPost, "/classes/3/roster-sessions", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Open(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, srv.fields)
}

func TestRosterHandlerOpenWithFields(t *testing.T) {
	srv := &fakeRosterSrv{view: &service.RosterView{SessionID: "s-1"}}
	handler := NewRosterHandler(srv)
	c, rec := newContext(http.MethodPost, "/classes/3/roster-sessions", []byte(`{"fields":["name"]}`), nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.Open(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"name"}, srv.fields)
}

func TestRosterHandlerAddColumnReportsAdded(t *testing.T) {
	srv := &fakeRosterSrv{view: &service.RosterView{SessionID: "s-1"}, added: false}
	handler := NewRosterHandler(srv)
	c, rec := newContext(http.MethodPost, "/roster-sessions/s-1/columns", []byte(`{"label":"Final Grade"}`), nil)
	c.Params = gin.Params{{Key: "sid", Value: "s-1"}}

	handler.AddColumn(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["added"])
}

func TestRosterHandlerAddColumnRequiresLabel(t *testing.T) {
	handler := NewRosterHandler(&fakeRosterSrv{})
	c, rec := newContext(http.MethodPost, "/roster-sessions/s-1/columns", []byte(`{}`), nil)

	handler.AddColumn(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRosterHandlerExportFormat(t *testing.T) {
	srv := &fakeRosterSrv{artifact: &service.Artifact{Filename: "Grade_10_-_A_students.csv", ContentType: "text/csv", Data: []byte("ID,Name\n")}}
	handler := NewRosterHandler(srv)

	c, rec := newContext(http.MethodGet, "/roster-sessions/s-1/export?format=CSV", nil, nil)
	handler.Export(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.FormatCSV, srv.format)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Grade_10_-_A_students.csv")

	c, rec = newContext(http.MethodGet, "/roster-sessions/s-1/export?format=odt", nil, nil)
	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRosterHandlerUnknownSession(t *testing.T) {
	handler := NewRosterHandler(&fakeRosterSrv{err: service.ErrSessionNotFound})
	c, rec := newContext(http.MethodGet, "/roster-sessions/missing", nil, nil)
	c.Params = gin.Params{{Key: "sid", Value: "missing"}}

	handler.View(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeAttendanceSrv struct {
	view     *service.AttendanceView
	err      error
	periodID int64
	update   service.AttendanceUpdate
}

func (f *fakeAttendanceSrv) DayOfWeek(raw string) (models.DayOfWeek, bool, error) {
	if raw == "bad" {
		return "", false, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	return models.Sunday, false, nil
}
func (f *fakeAttendanceSrv) Open(string) (*service.AttendanceView, error) { return f.view, f.err }
func (f *fakeAttendanceSrv) View(string) (*service.AttendanceView, error) { return f.view, f.err }
func (f *fakeAttendanceSrv) SetDate(context.Context, string, string) (*service.AttendanceView, error) {
	return f.view, f.err
}
func (f *fakeAttendanceSrv) SetClass(context.Context, string, int64) (*service.AttendanceView, error) {
	return f.view, f.err
}
func (f *fakeAttendanceSrv) SetPeriod(_ context.Context, _ string, periodID int64) (*service.AttendanceView, error) {
	f.periodID = periodID
	return f.view, f.err
}
func (f *fakeAttendanceSrv) UpdateStudent(_ string, _ int64, update service.AttendanceUpdate) (*service.AttendanceView, error) {
	f.update = update
	return f.view, f.err
}
func (f *fakeAttendanceSrv) Submit(context.Context, string) (*service.AttendanceView, error) {
	return f.view, f.err
}
func (f *fakeAttendanceSrv) Close(string) error { return f.err }

func TestAttendanceHandlerDayOfWeek(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	c, rec := newContext(http.MethodGet, "/attendance/day-of-week?date=2024-06-09", nil, nil)
	handler.DayOfWeek(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, "SUNDAY", data["dayOfWeek"])
	assert.Equal(t, false, data["editable"])

	c, rec = newContext(http.MethodGet, "/attendance/day-of-week", nil, nil)
	handler.DayOfWeek(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerSetPeriodRequiresID(t *testing.T) {
	srv := &fakeAttendanceSrv{view: &service.AttendanceView{}}
	handler := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodPut, "/attendance-sessions/s-1/period", []byte(`{"periodId":0}`), nil)

	handler.SetPeriod(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Please select a valid period", envelope.Error.Message)
	assert.Zero(t, srv.periodID)
}

func TestAttendanceHandlerUpdateStudent(t *testing.T) {
	srv := &fakeAttendanceSrv{view: &service.AttendanceView{SessionID: "s-1"}}
	handler := NewAttendanceHandler(srv)
	c, rec := newContext(http.MethodPut, "/attendance-sessions/s-1/students/4", []byte(`{"toggle":true,"remarks":"late"}`), nil)
	c.Params = gin.Params{{Key: "sid", Value: "s-1"}, {Key: "studentId", Value: "4"}}

	handler.UpdateStudent(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.update.Toggle)
	require.NotNil(t, srv.update.Remarks)
	assert.Equal(t, "late", *srv.update.Remarks)
	assert.Nil(t, srv.update.Present)
}

func TestAttendanceHandlerSubmitFetchFailure(t *testing.T) {
	handler := NewAttendanceHandler(&fakeAttendanceSrv{err: appErrors.Wrap(errors.New("dial tcp"), appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, "backend unavailable")})
	c, rec := newContext(http.MethodPost, "/attendance-sessions/s-1/submit", nil, nil)

	handler.Submit(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

type fakeLookupSrv struct {
	classes []models.ClassSection
	classID *int64
}

func (f *fakeLookupSrv) Classes(context.Context, models.Principal) ([]models.ClassSection, error) {
	return f.classes, nil
}
func (f *fakeLookupSrv) ClassStudents(context.Context, int64) ([]models.Student, error) {
	return nil, nil
}
func (f *fakeLookupSrv) Students(context.Context, models.Principal) ([]models.Student, error) {
	return nil, nil
}
func (f *fakeLookupSrv) Teachers(context.Context) ([]models.Teacher, error) { return nil, nil }
func (f *fakeLookupSrv) Courses(_ context.Context, classID *int64) ([]models.Course, error) {
	f.classID = classID
	return []models.Course{{ID: 1}}, nil
}

func TestLookupHandlerClasses(t *testing.T) {
	handler := NewLookupHandler(&fakeLookupSrv{classes: []models.ClassSection{{ID: 1, Name: "Grade 10 - A"}}})
	c, rec := newContext(http.MethodGet, "/lookups/classes", nil, &models.Principal{Role: models.RoleAdmin})

	handler.Classes(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeEnvelope(t, rec).Meta["total"])
}

func TestLookupHandlerCoursesClassFilter(t *testing.T) {
	srv := &fakeLookupSrv{}
	handler := NewLookupHandler(srv)

	c, rec := newContext(http.MethodGet, "/lookups/courses?classId=5", nil, nil)
	handler.Courses(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.classID)
	assert.Equal(t, int64(5), *srv.classID)

	c, rec = newContext(http.MethodGet, "/lookups/courses?classId=x", nil, nil)
	handler.Courses(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"redis": func(context.Context) error { return nil },
	})
	c, rec := newContext(http.MethodGet, "/ready", nil, nil)
	ok.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	c, rec = newContext(http.MethodGet, "/ready", nil, nil)
	failing.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
