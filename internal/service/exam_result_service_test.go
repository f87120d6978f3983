package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type examRepoStub struct {
	results   []models.ExamResult
	calls     []string
	teacherID string
	created   []models.ExamResultInput
	deleted   []int64
}

func (s *examRepoStub) ListAll(ctx context.Context) ([]models.ExamResult, error) {
	s.calls = append(s.calls, "all")
	return s.results, nil
}

func (s *examRepoStub) ListMine(ctx context.Context) ([]models.ExamResult, error) {
	s.calls = append(s.calls, "mine")
	return s.results, nil
}

func (s *examRepoStub) ListForTeacher(ctx context.Context, teacherUserID string) ([]models.ExamResult, error) {
	s.calls = append(s.calls, "teacher")
	s.teacherID = teacherUserID
	return s.results, nil
}

func (s *examRepoStub) Create(ctx context.Context, input models.ExamResultInput) (*models.ExamResult, error) {
	s.created = append(s.created, input)
	return &models.ExamResult{ID: 50, ExamType: input.ExamType, MarksObtained: input.MarksObtained}, nil
}

func (s *examRepoStub) Update(ctx context.Context, id int64, input models.ExamResultInput) (*models.ExamResult, error) {
	return &models.ExamResult{ID: id, ExamType: input.ExamType, MarksObtained: input.MarksObtained}, nil
}

func (s *examRepoStub) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

var (
	admin   = models.Principal{UserID: "A1", Subject: "admin", Role: models.RoleAdmin}
	teacher = models.Principal{UserID: "T7", Subject: "teacher", Role: models.RoleTeacher}
	student = models.Principal{UserID: "S3", Subject: "student", Role: models.RoleStudent}
)

func newExamFixture(t *testing.T) (*ExamResultService, *examRepoStub, *recordingExporter) {
	repo := &examRepoStub{results: printFixture(t)}
	repo.results[0].ExamType = "Midterm"
	repo.results[0].CourseName = "Math"
	repo.results[0].MarksObtained = 88.5
	repo.results[0].Grade = "A"
	repo.results[1].ExamType = "Final"
	repo.results[1].CourseName = "Biology"
	exporter := &recordingExporter{}
	return NewExamResultService(repo, exporter, nil, nil), repo, exporter
}

func TestExamResultsAreRoleScoped(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	for _, p := range []models.Principal{admin, teacher, student} {
		_, err := svc.Load(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"all", "teacher", "mine"}, repo.calls)
	assert.Equal(t, "T7", repo.teacherID)

	_, err := svc.Load(context.Background(), models.Principal{Role: "ROLE_GUEST"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExamResultListFilters(t *testing.T) {
	svc, _, _ := newExamFixture(t)
	listing, err := svc.List(context.Background(), admin, dto.ExamResultQuery{Search: "bio"})
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, int64(2), listing.Results[0].ID)
	assert.Equal(t, []string{"Midterm", "Final"}, listing.ExamTypes)

	listing, err = svc.List(context.Background(), admin, dto.ExamResultQuery{View: "grouped", Date: "2024-05-08"})
	require.NoError(t, err)
	assert.Equal(t, "grouped", listing.View)
	assert.Len(t, listing.Groups, 2)
	assert.Nil(t, listing.Results)

	_, err = svc.List(context.Background(), admin, dto.ExamResultQuery{View: "cards"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExamResultExportByClass(t *testing.T) {
	svc, _, exporter := newExamFixture(t)
	artifact, err := svc.Export(context.Background(), admin, dto.ExamResultExportRequest{
		Format:    "docx",
		Scope:     "byClass",
		ClassName: "Grade 10 - A",
		Date:      "2024-05-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Grade_10_-_A_exam_results.docx", artifact.Filename)

	require.Len(t, exporter.requests, 1)
	req := exporter.requests[0]
	assert.Equal(t, export.FormatDOCX, req.Format)
	assert.Equal(t, "Grade 10 - A Exam Results - 2024-05-01", req.Title)
	assert.Equal(t, "Class: Grade 10 - A", req.Subtitle)
	assert.Equal(t, []string{"Student", "Class", "Course", "Exam Type", "Date", "Marks", "Grade"}, export.Dataset{Columns: req.Columns}.Headers())
	require.Len(t, req.Rows, 1)
	assert.Equal(t, "88.5", req.Rows[0].Values["marksObtained"])
	assert.Equal(t, "Amina Yusuf", req.Rows[0].Values["studentName"])
}

func TestExamResultExportRefusals(t *testing.T) {
	svc, _, exporter := newExamFixture(t)

	_, err := svc.Export(context.Background(), admin, dto.ExamResultExportRequest{Scope: "byStudent"})
	require.Error(t, err)
	assert.Equal(t, "please select a student to print", appErrors.FromError(err).Message)

	artifact, err := svc.Export(context.Background(), admin, dto.ExamResultExportRequest{Scope: "byStudent", StudentKey: "id:2", Search: "Math"})
	assert.Nil(t, artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEmptyExport)
	assert.Equal(t, "No data available for printing with the selected filters.", appErrors.FromError(err).Message)
	assert.Empty(t, exporter.requests)

	_, err = svc.Export(context.Background(), admin, dto.ExamResultExportRequest{Format: "odt"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExamResultExportDefaultsToAllScope(t *testing.T) {
	svc, _, exporter := newExamFixture(t)
	artifact, err := svc.Export(context.Background(), student, dto.ExamResultExportRequest{Fields: []string{"courseName", "grade", "remarks"}})
	require.NoError(t, err)
	assert.Equal(t, "exam_results.pdf", artifact.Filename)
	req := exporter.requests[0]
	assert.Equal(t, "Exam Results Report", req.Title)
	assert.Equal(t, []string{"Course", "Grade", "Remarks"}, export.Dataset{Columns: req.Columns}.Headers())
	assert.Len(t, req.Rows, 4)
}

func TestValidateMarks(t *testing.T) {
	for _, ok := range []interface{}{0, 100, 55.5, "73", json.Number("99.9"), int64(12)} {
		_, err := ValidateMarks(ok)
		assert.NoError(t, err, "%v", ok)
	}
	for _, bad := range []interface{}{101, -1, "abc", "", nil, true, "NaN", 100.01} {
		_, err := ValidateMarks(bad)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "%v", bad)
	}
}

func TestExamResultCreateValidatesForm(t *testing.T) {
	svc, repo, _ := newExamFixture(t)
	req := dto.ExamResultRequest{ClassID: 1, StudentID: 2, CourseID: 3, ExamType: "Quiz", ExamDate: "2024-05-01", MarksObtained: "77"}

	created, err := svc.Create(context.Background(), teacher, req)
	require.NoError(t, err)
	assert.Equal(t, 77.0, created.MarksObtained)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "2024-05-01", repo.created[0].ExamDate.String())
	assert.Empty(t, repo.created[0].Remarks)

	withRemarks := req
	withRemarks.Remarks = "  retake scheduled  "
	_, err = svc.Create(context.Background(), teacher, withRemarks)
	require.NoError(t, err)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "retake scheduled", repo.created[1].Remarks)

	missing := req
	missing.ExamType = " "
	_, err = svc.Create(context.Background(), teacher, missing)
	require.Error(t, err)
	assert.Equal(t, "All fields are required.", appErrors.FromError(err).Message)

	tooHigh := req
	tooHigh.MarksObtained = 101
	_, err = svc.Create(context.Background(), admin, tooHigh)
	assert.Equal(t, "Marks must be a number between 0 and 100.", appErrors.FromError(err).Message)

	_, err = svc.Create(context.Background(), student, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), student, 4), appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), admin, 4))
	assert.Equal(t, []int64{4}, repo.deleted)
}
