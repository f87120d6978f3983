package service

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

// RosterFields are the fixed columns of a class roster.
var RosterFields = []Field{
	{Key: "id", Label: "ID"},
	{Key: "name", Label: "Name"},
}

const rosterSessionKind = "roster"

type rosterClassReader interface {
	FindByID(ctx context.Context, id int64) (*models.ClassSection, error)
	ListStudents(ctx context.Context, classID int64) ([]models.Student, error)
}

type artifactExporter interface {
	Export(ctx context.Context, req ExportRequest) (*Artifact, error)
}

// RosterSession is the state of one class detail screen.
type RosterSession struct {
	mu         sync.Mutex
	class      models.ClassSection
	students   []models.Student
	projection *Projection
	guard      requestGuard
}

// RosterRow is one student with every projected value, custom columns included.
type RosterRow struct {
	ID     string            `json:"id"`
	Values map[string]string `json:"values"`
}

// RosterView is the rendered state of a roster session.
type RosterView struct {
	SessionID     string              `json:"sessionId"`
	Class         models.ClassSection `json:"class"`
	Fields        []SelectableField   `json:"fields"`
	CustomColumns []SelectableField   `json:"customColumns"`
	Columns       []export.Column     `json:"columns"`
	Rows          []RosterRow         `json:"rows"`
}

// RosterService drives class roster sessions: column projection, custom columns and export.
type RosterService struct {
	classes  rosterClassReader
	exporter artifactExporter
	sessions *SessionStore[*RosterSession]
	logger   *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(classes rosterClassReader, exporter artifactExporter, sessions *SessionStore[*RosterSession], logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{classes: classes, exporter: exporter, sessions: sessions, logger: logger}
}

// Open fetches the class and its students concurrently and starts a session. No session is
// created when either fetch fails.
func (s *RosterService) Open(ctx context.Context, classID int64, selected []string) (*RosterView, error) {
	if classID <= 0 {
		return nil, appErrors.Validation("class id is required")
	}
	class, students, err := s.fetch(ctx, classID)
	if err != nil {
		return nil, err
	}
	session := &RosterSession{
		class:      *class,
		students:   students,
		projection: NewProjection(RosterFields, selected...),
	}
	session.projection.SyncRows(rosterRowIDs(students))
	id := s.sessions.Put(session)
	s.logger.Info("roster session opened", zap.String("session", id), zap.Int64("class_id", classID), zap.Int("students", len(students)))

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view(id), nil
}

// View renders the current state.
func (s *RosterService) View(id string) (*RosterView, error) {
	return s.mutate(id, func(*RosterSession) error { return nil })
}

// ToggleField flips one default field or custom column.
func (s *RosterService) ToggleField(id, key string) (*RosterView, error) {
	return s.mutate(id, func(rs *RosterSession) error { return rs.projection.ToggleField(key) })
}

// AddColumn adds a custom column. Empty and duplicate labels leave the session unchanged.
func (s *RosterService) AddColumn(id, label string) (*RosterView, bool, error) {
	var added bool
	view, err := s.mutate(id, func(rs *RosterSession) error {
		_, added = rs.projection.AddCustomColumn(label)
		return nil
	})
	return view, added, err
}

// RemoveColumn drops a custom column and its values.
func (s *RosterService) RemoveColumn(id, label string) (*RosterView, error) {
	return s.mutate(id, func(rs *RosterSession) error {
		if !rs.projection.RemoveCustomColumn(label) {
			return appErrors.Validation("unknown custom column " + strconv.Quote(label))
		}
		return nil
	})
}

// SetCell edits one custom value. The edit stays in the session.
func (s *RosterService) SetCell(id, rowID, label, value string) (*RosterView, error) {
	return s.mutate(id, func(rs *RosterSession) error { return rs.projection.SetCell(rowID, label, value) })
}

// Refresh refetches the class and students. A failed fetch keeps the previous data, and a
// response overtaken by a newer refresh is discarded.
func (s *RosterService) Refresh(ctx context.Context, id string) (*RosterView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	token := session.guard.Begin()
	classID := session.class.ID
	session.mu.Unlock()

	class, students, err := s.fetch(ctx, classID)

	session.mu.Lock()
	defer session.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !session.guard.Current(token) {
		s.logger.Debug("stale roster refresh discarded", zap.String("session", id))
		return session.view(id), nil
	}
	session.class = *class
	session.students = students
	session.projection.SyncRows(rosterRowIDs(students))
	return session.view(id), nil
}

// Export renders the roster in the requested format.
func (s *RosterService) Export(ctx context.Context, id string, format export.Format) (*Artifact, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	req := ExportRequest{
		Format:   format,
		Columns:  session.projection.Columns(),
		Rows:     rosterSourceRows(session.students),
		Cell:     session.projection.snapshot().Cell,
		Title:    "Student Roster",
		Subtitle: "Class: " + session.class.Name,
		Scope:    session.class.Name,
		Suffix:   "students",
	}
	session.mu.Unlock()
	return s.exporter.Export(ctx, req)
}

// Close ends the session.
func (s *RosterService) Close(id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RosterService) mutate(id string, fn func(*RosterSession) error) (*RosterView, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := fn(session); err != nil {
		return nil, err
	}
	return session.view(id), nil
}

func (s *RosterService) fetch(ctx context.Context, classID int64) (*models.ClassSection, []models.Student, error) {
	var (
		class    *models.ClassSection
		students []models.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		class, err = s.classes.FindByID(gctx, classID)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.classes.ListStudents(gctx, classID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("roster fetch failed", zap.Int64("class_id", classID), zap.Error(err))
		return nil, nil, err
	}
	return class, students, nil
}

func (rs *RosterSession) view(id string) *RosterView {
	rows := rosterSourceRows(rs.students)
	cols := rs.projection.Columns()
	out := make([]RosterRow, len(rows))
	for i, row := range rows {
		values := make(map[string]string, len(cols))
		for _, col := range cols {
			values[col.Key] = rs.projection.Cell(row, col)
		}
		out[i] = RosterRow{ID: row.ID, Values: values}
	}
	return &RosterView{
		SessionID:     id,
		Class:         rs.class,
		Fields:        rs.projection.Defaults(),
		CustomColumns: rs.projection.CustomColumns(),
		Columns:       cols,
		Rows:          out,
	}
}

func rosterRowIDs(students []models.Student) []string {
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = strconv.FormatInt(st.ID, 10)
	}
	return ids
}

func rosterSourceRows(students []models.Student) []SourceRow {
	rows := make([]SourceRow, len(students))
	for i, st := range students {
		id := strconv.FormatInt(st.ID, 10)
		rows[i] = SourceRow{ID: id, Values: map[string]string{"id": id, "name": st.FullName()}}
	}
	return rows
}
