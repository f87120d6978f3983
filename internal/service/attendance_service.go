package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

const attendanceSessionKind = "attendance"

type attendancePeriodReader interface {
	ListByClassDay(ctx context.Context, classID int64, day models.DayOfWeek) ([]models.Period, error)
}

type attendanceStudentReader interface {
	ListStudents(ctx context.Context, classID int64) ([]models.Student, error)
}

type attendanceRecordStore interface {
	ListForPeriod(ctx context.Context, classID, courseID, periodID int64, date models.Date) ([]models.AttendanceRecord, error)
	Mark(ctx context.Context, submission models.AttendanceSubmission) error
}

// AttendanceSession is the state of one mark-attendance screen.
type AttendanceSession struct {
	mu       sync.Mutex
	date     models.Date
	classID  *int64
	periods  []models.Period
	periodID *int64
	students []models.Student
	sheet    map[int64]models.AttendanceState
	// loaded is set once the sheet for periodID has been reconciled from a current fetch
	loaded bool
	guard  requestGuard
}

// PeriodOption is a period offered by the picker.
type PeriodOption struct {
	models.Period
	Label string `json:"label"`
}

// AttendanceLine is one student row of the sheet.
type AttendanceLine struct {
	StudentID int64  `json:"studentId"`
	Name      string `json:"name"`
	Present   bool   `json:"present"`
	Remarks   string `json:"remarks"`
}

// AttendanceView is the rendered state of an attendance session.
type AttendanceView struct {
	SessionID      string           `json:"sessionId"`
	Date           models.Date      `json:"date"`
	DayOfWeek      models.DayOfWeek `json:"dayOfWeek"`
	NonEditableDay bool             `json:"nonEditableDay"`
	ClassID        *int64           `json:"classId,omitempty"`
	Periods        []PeriodOption   `json:"periods"`
	PeriodID       *int64           `json:"periodId,omitempty"`
	SheetLoaded    bool             `json:"sheetLoaded"`
	Students       []AttendanceLine `json:"students"`
}

// AttendanceUpdate edits one student. Toggle flips the present flag; Present sets it.
type AttendanceUpdate struct {
	Toggle  bool
	Present *bool
	Remarks *string
}

// AttendanceService drives mark-attendance sessions.
type AttendanceService struct {
	periods  attendancePeriodReader
	students attendanceStudentReader
	records  attendanceRecordStore
	sessions *SessionStore[*AttendanceSession]
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(periods attendancePeriodReader, students attendanceStudentReader, records attendanceRecordStore, sessions *SessionStore[*AttendanceSession], logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		periods:  periods,
		students: students,
		records:  records,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// DayOfWeek resolves the weekday of a date and whether the period editor offers it.
func (s *AttendanceService) DayOfWeek(raw string) (models.DayOfWeek, bool, error) {
	date, err := models.ParseDate(raw)
	if err != nil {
		return "", false, appErrors.Validation(err.Error())
	}
	day := models.DayOfWeekFor(date)
	return day, day.Editable(), nil
}

// Open starts a session for date, or today when date is empty.
func (s *AttendanceService) Open(date string) (*AttendanceView, error) {
	y, m, day := s.now().Date()
	d := models.NewDate(y, m, day)
	if date != "" {
		parsed, err := models.ParseDate(date)
		if err != nil {
			return nil, appErrors.Validation(err.Error())
		}
		d = parsed
	}
	session := &AttendanceSession{date: d, sheet: map[int64]models.AttendanceState{}}
	id := s.sessions.Put(session)

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view(id), nil
}

// View renders the current state.
func (s *AttendanceService) View(id string) (*AttendanceView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view(id), nil
}

// SetDate changes the attendance date. With a class chosen the periods for the new weekday are
// refetched and the period choice is cleared.
func (s *AttendanceService) SetDate(ctx context.Context, id, raw string) (*AttendanceView, error) {
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Validation(err.Error())
	}
	if date.IsZero() {
		return nil, appErrors.Validation("please select a date")
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	session.date = date
	session.clearPeriod()
	session.periods = nil
	token := session.guard.Begin()
	classID := session.classID
	session.mu.Unlock()

	if classID == nil {
		session.mu.Lock()
		defer session.mu.Unlock()
		return session.view(id), nil
	}
	return s.loadPeriods(ctx, id, session, token, *classID, models.DayOfWeekFor(date))
}

// SetClass chooses the class and loads its periods for the session's weekday.
func (s *AttendanceService) SetClass(ctx context.Context, id string, classID int64) (*AttendanceView, error) {
	if classID <= 0 {
		return nil, appErrors.Validation("class id is required")
	}
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	session.classID = &classID
	session.clearPeriod()
	session.periods = nil
	token := session.guard.Begin()
	day := models.DayOfWeekFor(session.date)
	session.mu.Unlock()

	return s.loadPeriods(ctx, id, session, token, classID, day)
}

func (s *AttendanceService) loadPeriods(ctx context.Context, id string, session *AttendanceSession, token uint64, classID int64, day models.DayOfWeek) (*AttendanceView, error) {
	periods, err := s.periods.ListByClassDay(ctx, classID, day)

	session.mu.Lock()
	defer session.mu.Unlock()
	if !session.guard.Current(token) {
		s.logger.Debug("stale period fetch discarded", zap.String("session", id), zap.Int64("class_id", classID))
		return session.view(id), nil
	}
	if err != nil {
		s.logger.Warn("failed to fetch periods for class", zap.Int64("class_id", classID), zap.String("day", string(day)), zap.Error(err))
		return nil, err
	}
	session.periods = PeriodsForClassDay(periods, classID, day)
	return session.view(id), nil
}

// SetPeriod chooses one of the loaded periods and builds the sheet from the class students and
// any attendance already recorded for that period and date.
func (s *AttendanceService) SetPeriod(ctx context.Context, id string, periodID int64) (*AttendanceView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	period, ok := session.period(periodID)
	if session.classID == nil || !ok {
		session.mu.Unlock()
		return nil, appErrors.Validation("Please select a valid period")
	}
	session.periodID = &periodID
	session.students = nil
	session.sheet = map[int64]models.AttendanceState{}
	session.loaded = false
	token := session.guard.Begin()
	classID := *session.classID
	date := session.date
	session.mu.Unlock()

	var (
		students []models.Student
		records  []models.AttendanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.students.ListStudents(gctx, classID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.records.ListForPeriod(gctx, classID, period.CourseID, periodID, date)
		return err
	})
	err = g.Wait()

	session.mu.Lock()
	defer session.mu.Unlock()
	if !session.guard.Current(token) {
		s.logger.Debug("stale attendance fetch discarded", zap.String("session", id), zap.Int64("period_id", periodID))
		return session.view(id), nil
	}
	if err != nil {
		s.logger.Warn("failed to load attendance sheet", zap.Int64("class_id", classID), zap.Int64("period_id", periodID), zap.Error(err))
		return nil, err
	}
	session.students = students
	session.sheet = ReconcileAttendance(students, records)
	session.loaded = true
	return session.view(id), nil
}

// UpdateStudent edits one student's mark. The change stays local until Submit.
func (s *AttendanceService) UpdateStudent(id string, studentID int64, update AttendanceUpdate) (*AttendanceView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	state, ok := session.sheet[studentID]
	if !ok {
		return nil, appErrors.Validation(fmt.Sprintf("student %d is not on the sheet", studentID))
	}
	if update.Toggle {
		state.Present = !state.Present
	}
	if update.Present != nil {
		state.Present = *update.Present
	}
	if update.Remarks != nil {
		state.Remarks = *update.Remarks
	}
	session.sheet[studentID] = state
	return session.view(id), nil
}

// Submit posts the whole sheet. Nothing is sent unless class, date and a period are set and the
// sheet for that period finished loading.
func (s *AttendanceService) Submit(ctx context.Context, id string) (*AttendanceView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	if session.classID == nil {
		session.mu.Unlock()
		return nil, appErrors.Validation("please select a class")
	}
	if session.date.IsZero() {
		session.mu.Unlock()
		return nil, appErrors.Validation("please select a date")
	}
	var period models.Period
	ok := false
	if session.periodID != nil {
		period, ok = session.period(*session.periodID)
	}
	if !ok {
		session.mu.Unlock()
		return nil, appErrors.Validation("Please select a valid period")
	}
	if !session.loaded {
		session.mu.Unlock()
		return nil, appErrors.Validation("please load the attendance sheet")
	}
	submission := models.AttendanceSubmission{
		ClassID:        *session.classID,
		CourseID:       period.CourseID,
		PeriodID:       period.ID,
		AttendanceDate: session.date,
		Students:       make([]models.AttendanceEntry, 0, len(session.students)),
	}
	for _, st := range session.students {
		state := session.sheet[st.ID]
		submission.Students = append(submission.Students, models.AttendanceEntry{StudentID: st.ID, Present: state.Present, Remarks: state.Remarks})
	}
	session.mu.Unlock()

	if err := s.records.Mark(ctx, submission); err != nil {
		s.logger.Warn("attendance submit failed", zap.Int64("class_id", submission.ClassID), zap.Int64("period_id", submission.PeriodID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("attendance marked",
		zap.Int64("class_id", submission.ClassID),
		zap.Int64("period_id", submission.PeriodID),
		zap.String("date", submission.AttendanceDate.String()),
		zap.Int("students", len(submission.Students)),
	)
	return s.View(id)
}

// Close ends the session.
func (s *AttendanceService) Close(id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (as *AttendanceSession) clearPeriod() {
	as.periodID = nil
	as.students = nil
	as.sheet = map[int64]models.AttendanceState{}
	as.loaded = false
}

func (as *AttendanceSession) period(id int64) (models.Period, bool) {
	for _, p := range as.periods {
		if p.ID == id {
			return p, true
		}
	}
	return models.Period{}, false
}

func (as *AttendanceSession) view(id string) *AttendanceView {
	day := models.DayOfWeekFor(as.date)
	v := &AttendanceView{
		SessionID:      id,
		Date:           as.date,
		DayOfWeek:      day,
		NonEditableDay: !day.Editable(),
		ClassID:        as.classID,
		Periods:        make([]PeriodOption, len(as.periods)),
		PeriodID:       as.periodID,
		SheetLoaded:    as.loaded,
		Students:       make([]AttendanceLine, len(as.students)),
	}
	for i, p := range as.periods {
		v.Periods[i] = PeriodOption{Period: p, Label: p.Label()}
	}
	for i, st := range as.students {
		state := as.sheet[st.ID]
		v.Students[i] = AttendanceLine{StudentID: st.ID, Name: st.FullName(), Present: state.Present, Remarks: state.Remarks}
	}
	return v
}
