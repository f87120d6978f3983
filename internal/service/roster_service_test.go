package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type rosterClassStub struct {
	mu          sync.Mutex
	class       *models.ClassSection
	students    []models.Student
	studentsErr error
	// gate, when set, blocks ListStudents until closed
	gate    chan struct{}
	started chan struct{}
}

func (s *rosterClassStub) FindByID(ctx context.Context, id int64) (*models.ClassSection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	c := *s.class
	return &c, nil
}

func (s *rosterClassStub) ListStudents(ctx context.Context, classID int64) ([]models.Student, error) {
	s.mu.Lock()
	gate, started := s.gate, s.started
	students, err := append([]models.Student(nil), s.students...), s.studentsErr
	s.mu.Unlock()
	if gate != nil {
		if started != nil {
			close(started)
		}
		<-gate
	}
	return students, err
}

func newRosterFixture() (*RosterService, *rosterClassStub) {
	stub := &rosterClassStub{
		class: &models.ClassSection{ID: 10, Name: "Grade 10 - A"},
		students: []models.Student{
			{ID: 1, FirstName: "Amina", LastName: "Yusuf"},
			{ID: 2, FirstName: "Omar", LastName: "Ali"},
		},
	}
	sessions := NewSessionStore[*RosterSession](rosterSessionKind, time.Hour, nil, nil)
	return NewRosterService(stub, newTestExportService(), sessions, nil), stub
}

func TestRosterOpenAndExport(t *testing.T) {
	svc, _ := newRosterFixture()
	view, err := svc.Open(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, map[string]string{"id": "1", "name": "Amina Yusuf"}, view.Rows[0].Values)

	view, added, err := svc.AddColumn(view.SessionID, "Final Grade")
	require.NoError(t, err)
	require.True(t, added)
	_, added, err = svc.AddColumn(view.SessionID, "Final Grade")
	require.NoError(t, err)
	assert.False(t, added)

	view, err = svc.SetCell(view.SessionID, "2", "Final Grade", "B+")
	require.NoError(t, err)
	assert.Equal(t, "B+", view.Rows[1].Values["Final Grade"])

	artifact, err := svc.Export(context.Background(), view.SessionID, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Grade_10_-_A_students.csv", artifact.Filename)
	assert.Equal(t, "ID,Name,Final Grade\n1,Amina Yusuf,\n2,Omar Ali,B+\n", string(artifact.Data))

	pdf, err := svc.Export(context.Background(), view.SessionID, export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Grade_10_-_A_students.pdf", pdf.Filename)
}

func TestRosterOpenFailureCreatesNoSession(t *testing.T) {
	svc, stub := newRosterFixture()
	stub.studentsErr = appErrors.ErrFetchFailed
	_, err := svc.Open(context.Background(), 10, nil)
	assert.ErrorIs(t, err, appErrors.ErrFetchFailed)
	assert.Zero(t, svc.sessions.Len())
}

func TestRosterExportEmptyClassIsRefused(t *testing.T) {
	svc, stub := newRosterFixture()
	stub.students = nil
	view, err := svc.Open(context.Background(), 10, nil)
	require.NoError(t, err)
	artifact, err := svc.Export(context.Background(), view.SessionID, export.FormatPDF)
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, appErrors.ErrEmptyExport)
}

func TestRosterRefreshFailureKeepsData(t *testing.T) {
	svc, stub := newRosterFixture()
	view, err := svc.Open(context.Background(), 10, nil)
	require.NoError(t, err)

	stub.mu.Lock()
	stub.studentsErr = errors.New("backend down")
	stub.mu.Unlock()
	_, err = svc.Refresh(context.Background(), view.SessionID)
	require.Error(t, err)

	current, err := svc.View(view.SessionID)
	require.NoError(t, err)
	assert.Len(t, current.Rows, 2)
}

func TestRosterStaleRefreshIsDiscarded(t *testing.T) {
	svc, stub := newRosterFixture()
	view, err := svc.Open(context.Background(), 10, nil)
	require.NoError(t, err)

	// the slow refresh sees the old roster of three students
	stub.mu.Lock()
	stub.students = append(stub.students, models.Student{ID: 3, FirstName: "Stale", LastName: "Row"})
	stub.gate = make(chan struct{})
	stub.started = make(chan struct{})
	gate, started := stub.gate, stub.started
	stub.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Refresh(context.Background(), view.SessionID)
	}()
	<-started

	stub.mu.Lock()
	stub.gate = nil
	stub.started = nil
	stub.students = []models.Student{{ID: 4, FirstName: "Fresh", LastName: "Row"}}
	stub.mu.Unlock()
	fresh, err := svc.Refresh(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.Len(t, fresh.Rows, 1)

	close(gate)
	<-done

	current, err := svc.View(view.SessionID)
	require.NoError(t, err)
	require.Len(t, current.Rows, 1)
	assert.Equal(t, "Fresh Row", current.Rows[0].Values["name"])
}

func TestRosterUnknownSession(t *testing.T) {
	svc, _ := newRosterFixture()
	_, err := svc.View("missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.ErrorIs(t, svc.Close("missing"), appErrors.ErrNotFound)
}
