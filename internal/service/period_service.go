package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dashboard-gateway/internal/dto"
	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context) ([]models.Period, error)
	ListByClass(ctx context.Context, classID int64) ([]models.Period, error)
	Create(ctx context.Context, period models.Period) (*models.Period, error)
	Update(ctx context.Context, id int64, period models.Period) (*models.Period, error)
	Delete(ctx context.Context, id int64) error
}

// PeriodService manages the class timetable.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// List returns every period, or those of one class.
func (s *PeriodService) List(ctx context.Context, classID *int64) ([]models.Period, error) {
	if classID != nil {
		return s.repo.ListByClass(ctx, *classID)
	}
	return s.repo.List(ctx)
}

// Timetable groups the periods of a class by weekday.
func (s *PeriodService) Timetable(ctx context.Context, classID int64) ([]TimetableDay, error) {
	if classID <= 0 {
		return nil, appErrors.Validation("class id is required")
	}
	periods, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return Timetable(periods, classID), nil
}

// EditableDays lists the weekdays the period editor offers.
func (s *PeriodService) EditableDays() []models.DayOfWeek {
	return models.EditableDays()
}

// Create stores a new period.
func (s *PeriodService) Create(ctx context.Context, req dto.PeriodRequest) (*models.Period, error) {
	period, err := s.period(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, period)
	if err != nil {
		return nil, err
	}
	s.logger.Info("period created", zap.Int64("id", created.ID), zap.Int64("class_id", created.ClassID), zap.String("day", string(created.DayOfWeek)))
	return created, nil
}

// Update replaces a period.
func (s *PeriodService) Update(ctx context.Context, id int64, req dto.PeriodRequest) (*models.Period, error) {
	if id <= 0 {
		return nil, appErrors.Validation("period id is required")
	}
	period, err := s.period(req)
	if err != nil {
		return nil, err
	}
	period.ID = id
	return s.repo.Update(ctx, id, period)
}

// Delete removes a period.
func (s *PeriodService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Validation("period id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("period deleted", zap.Int64("id", id))
	return nil
}

// period validates the form. Weekend days pass; the editor simply does not offer them.
func (s *PeriodService) period(req dto.PeriodRequest) (models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Period{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return models.Period{}, appErrors.Validation(err.Error())
	}
	if !models.ValidWallClock(req.StartTime) || !models.ValidWallClock(req.EndTime) {
		return models.Period{}, appErrors.Validation("start and end time must be HH:MM or HH:MM:SS")
	}
	return models.Period{
		ClassID:      req.ClassID,
		CourseID:     req.CourseID,
		PeriodNumber: req.PeriodNumber,
		DayOfWeek:    day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}, nil
}
