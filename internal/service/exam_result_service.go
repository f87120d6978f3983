package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

// ExamResultFields are the columns an exam result export can project.
var ExamResultFields = []Field{
	{Key: "studentName", Label: "Student"},
	{Key: "className", Label: "Class"},
	{Key: "courseName", Label: "Course"},
	{Key: "examType", Label: "Exam Type"},
	{Key: "examDate", Label: "Date"},
	{Key: "marksObtained", Label: "Marks"},
	{Key: "grade", Label: "Grade"},
	{Key: "remarks", Label: "Remarks"},
}

// defaultExamResultKeys is the selection used when an export names no fields.
var defaultExamResultKeys = []string{"studentName", "className", "courseName", "examType", "examDate", "marksObtained", "grade"}

var (
	errMarksRange     = appErrors.Validation("Marks must be a number between 0 and 100.")
	errFieldsRequired = "All fields are required."
	errEmptyPrint     = appErrors.Clone(appErrors.ErrEmptyExport, "No data available for printing with the selected filters.")
)

type examResultRepository interface {
	ListAll(ctx context.Context) ([]models.ExamResult, error)
	ListMine(ctx context.Context) ([]models.ExamResult, error)
	ListForTeacher(ctx context.Context, teacherUserID string) ([]models.ExamResult, error)
	Create(ctx context.Context, input models.ExamResultInput) (*models.ExamResult, error)
	Update(ctx context.Context, id int64, input models.ExamResultInput) (*models.ExamResult, error)
	Delete(ctx context.Context, id int64) error
}

// ExamResultListing is the list screen payload.
type ExamResultListing struct {
	View      string              `json:"view"`
	Total     int                 `json:"total"`
	Results   []models.ExamResult `json:"results,omitempty"`
	Groups    []ExamResultGroup   `json:"groups,omitempty"`
	ExamTypes []string            `json:"examTypes"`
	Dates     []string            `json:"dates"`
}

// ExamResultService serves role-scoped exam results, their print exports and edits.
type ExamResultService struct {
	repo      examResultRepository
	exporter  artifactExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamResultService constructs an ExamResultService.
func NewExamResultService(repo examResultRepository, exporter artifactExporter, validate *validator.Validate, logger *zap.Logger) *ExamResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamResultService{repo: repo, exporter: exporter, validator: validate, logger: logger}
}

// Load fetches the results visible to the caller: every result for admins, taught classes for
// teachers and the caller's own results for students.
func (s *ExamResultService) Load(ctx context.Context, principal models.Principal) ([]models.ExamResult, error) {
	switch principal.Role {
	case models.RoleAdmin:
		return s.repo.ListAll(ctx)
	case models.RoleTeacher:
		if principal.UserID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher identity missing from token")
		}
		return s.repo.ListForTeacher(ctx, principal.UserID)
	case models.RoleStudent:
		return s.repo.ListMine(ctx)
	}
	return nil, appErrors.ErrForbidden
}

// List applies the screen filters and shapes the results as a flat or grouped view.
func (s *ExamResultService) List(ctx context.Context, principal models.Principal, query dto.ExamResultQuery) (*ExamResultListing, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam result filter")
	}
	results, err := s.Load(ctx, principal)
	if err != nil {
		return nil, err
	}
	filtered, err := FilterExamResults(results, query.Search, query.ExamType, query.Date)
	if err != nil {
		return nil, err
	}
	opts := BuildPrintOptions(results)
	listing := &ExamResultListing{
		View:      "flat",
		Total:     len(filtered),
		ExamTypes: distinctExamTypes(results),
		Dates:     opts.Dates,
	}
	if query.View == "grouped" {
		listing.View = "grouped"
		listing.Groups = GroupExamResultsByStudent(filtered, s.logger)
		return listing, nil
	}
	listing.Results = filtered
	return listing, nil
}

// PrintOptions lists the classes, students and dates available to the print filter.
func (s *ExamResultService) PrintOptions(ctx context.Context, principal models.Principal) (PrintOptions, error) {
	results, err := s.Load(ctx, principal)
	if err != nil {
		return PrintOptions{}, err
	}
	return BuildPrintOptions(results), nil
}

// Export narrows the loaded results with the print filter and renders them.
func (s *ExamResultService) Export(ctx context.Context, principal models.Principal, req dto.ExamResultExportRequest) (*Artifact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Validation(err.Error())
	}
	results, err := s.Load(ctx, principal)
	if err != nil {
		return nil, err
	}

	filter := NewPrintFilter(results)
	if err := filter.SetScope(PrintScope(req.Scope)); err != nil {
		return nil, err
	}
	switch filter.Scope() {
	case PrintByClass:
		if req.ClassName != "" {
			if err := filter.SelectClass(req.ClassName); err != nil {
				return nil, err
			}
		}
	case PrintByStudent:
		if req.StudentKey != "" {
			if err := filter.SelectStudent(req.StudentKey); err != nil {
				return nil, err
			}
		}
	}
	if err := filter.SelectDate(req.Date); err != nil {
		return nil, err
	}
	if err := filter.Ready(); err != nil {
		return nil, err
	}

	printed, err := FilterExamResults(filter.Apply(), req.Search, req.ExamType, "")
	if err != nil {
		return nil, err
	}
	if len(printed) == 0 {
		return nil, errEmptyPrint
	}

	selected := req.Fields
	if len(selected) == 0 {
		selected = defaultExamResultKeys
	}
	projection := NewProjection(ExamResultFields, selected...)
	title := filter.Title()
	if t := strings.TrimSpace(req.Title); t != "" {
		title = t
	}
	return s.exporter.Export(ctx, ExportRequest{
		Format:   format,
		Columns:  projection.Columns(),
		Rows:     examResultRows(printed),
		Title:    title,
		Subtitle: filter.Subtitle(),
		Scope:    filter.ScopeName(),
		Suffix:   "exam_results",
	})
}

// Create forwards a new exam result after validating the form.
func (s *ExamResultService) Create(ctx context.Context, principal models.Principal, req dto.ExamResultRequest) (*models.ExamResult, error) {
	input, err := s.input(principal, req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("exam result created", zap.Int64("id", created.ID), zap.String("by", principal.Subject))
	return created, nil
}

// Update replaces an exam result.
func (s *ExamResultService) Update(ctx context.Context, principal models.Principal, id int64, req dto.ExamResultRequest) (*models.ExamResult, error) {
	if id <= 0 {
		return nil, appErrors.Validation("exam result id is required")
	}
	input, err := s.input(principal, req)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("exam result updated", zap.Int64("id", id), zap.String("by", principal.Subject))
	return updated, nil
}

// Delete removes an exam result.
func (s *ExamResultService) Delete(ctx context.Context, principal models.Principal, id int64) error {
	if !principal.Is(models.RoleAdmin, models.RoleTeacher) {
		return appErrors.ErrForbidden
	}
	if id <= 0 {
		return appErrors.Validation("exam result id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("exam result deleted", zap.Int64("id", id), zap.String("by", principal.Subject))
	return nil
}

func (s *ExamResultService) input(principal models.Principal, req dto.ExamResultRequest) (models.ExamResultInput, error) {
	if !principal.Is(models.RoleAdmin, models.RoleTeacher) {
		return models.ExamResultInput{}, appErrors.ErrForbidden
	}
	req.ExamType = strings.TrimSpace(req.ExamType)
	if err := s.validator.Struct(req); err != nil {
		return models.ExamResultInput{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, errFieldsRequired)
	}
	if raw, ok := req.MarksObtained.(string); req.MarksObtained == nil || (ok && strings.TrimSpace(raw) == "") {
		return models.ExamResultInput{}, appErrors.Validation(errFieldsRequired)
	}
	marks, err := ValidateMarks(req.MarksObtained)
	if err != nil {
		return models.ExamResultInput{}, err
	}
	date, err := models.ParseDate(req.ExamDate)
	if err != nil {
		return models.ExamResultInput{}, appErrors.Validation(err.Error())
	}
	return models.ExamResultInput{
		ClassID:       req.ClassID,
		StudentID:     req.StudentID,
		CourseID:      req.CourseID,
		ExamType:      req.ExamType,
		ExamDate:      date,
		MarksObtained: marks,
		Remarks:       strings.TrimSpace(req.Remarks),
	}, nil
}

// ValidateMarks accepts a number or numeric string that is finite and within 0 to 100.
func ValidateMarks(raw interface{}) (float64, error) {
	var marks float64
	switch v := raw.(type) {
	case float64:
		marks = v
	case float32:
		marks = float64(v)
	case int:
		marks = float64(v)
	case int64:
		marks = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errMarksRange
		}
		marks = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errMarksRange
		}
		marks = f
	default:
		return 0, errMarksRange
	}
	if math.IsNaN(marks) || math.IsInf(marks, 0) || marks < 0 || marks > 100 {
		return 0, errMarksRange
	}
	return marks, nil
}

// FilterExamResults keeps results matching the free-text search over student, class and course
// names, the exact exam type and the exact exam date. Empty filters match everything.
func FilterExamResults(results []models.ExamResult, search, examType, date string) ([]models.ExamResult, error) {
	var day string
	if date != "" {
		parsed, err := models.ParseDate(date)
		if err != nil {
			return nil, appErrors.Validation(err.Error())
		}
		day = parsed.String()
	}
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.ExamResult, 0, len(results))
	for _, r := range results {
		if term != "" &&
			!strings.Contains(strings.ToLower(r.DisplayName()), term) &&
			!strings.Contains(strings.ToLower(r.ClassName), term) &&
			!strings.Contains(strings.ToLower(r.CourseName), term) {
			continue
		}
		if examType != "" && r.ExamType != examType {
			continue
		}
		if day != "" && r.ExamDate.String() != day {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func distinctExamTypes(results []models.ExamResult) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range results {
		if r.ExamType == "" {
			continue
		}
		if _, ok := seen[r.ExamType]; !ok {
			seen[r.ExamType] = struct{}{}
			out = append(out, r.ExamType)
		}
	}
	return out
}

func examResultRows(results []models.ExamResult) []SourceRow {
	rows := make([]SourceRow, len(results))
	for i, r := range results {
		date := r.ExamDate.String()
		if date == "" {
			date = "N/A"
		}
		rows[i] = SourceRow{
			ID: strconv.FormatInt(r.ID, 10),
			Values: map[string]string{
				"studentName":   r.DisplayName(),
				"className":     r.ClassName,
				"courseName":    r.CourseName,
				"examType":      r.ExamType,
				"examDate":      date,
				"marksObtained": strconv.FormatFloat(r.MarksObtained, 'f', -1, 64),
				"grade":         r.Grade,
				"remarks":       r.Remarks,
			},
		}
	}
	return rows
}
