package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(doc export.Document) ([]byte, error) {
	return nil, errors.New("encoder exploded")
}

func rosterRequest(format export.Format, rows int) ExportRequest {
	src := make([]SourceRow, rows)
	for i := range src {
		src[i] = SourceRow{ID: "r", Values: map[string]string{"id": "1", "name": "Amina Yusuf"}}
	}
	return ExportRequest{
		Format:   format,
		Columns:  []export.Column{{Key: "id", Label: "ID"}, {Key: "name", Label: "Name"}},
		Rows:     src,
		Title:    "Student Roster",
		Subtitle: "Class: Grade 10 - A",
		Scope:    "Grade 10 - A",
		Suffix:   "students",
	}
}

func TestExportServiceRendersEveryFormat(t *testing.T) {
	svc := newTestExportService()
	cases := map[export.Format][]byte{
		export.FormatPDF:  []byte("%PDF"),
		export.FormatDOCX: []byte("PK"),
		export.FormatXLSX: []byte("PK"),
		export.FormatCSV:  []byte("ID,Name"),
	}
	for format, prefix := range cases {
		artifact, err := svc.Export(context.Background(), rosterRequest(format, 5))
		require.NoError(t, err, format)
		assert.Equal(t, "Grade_10_-_A_students."+string(format), artifact.Filename)
		assert.Equal(t, format.ContentType(), artifact.ContentType)
		assert.True(t, bytes.HasPrefix(artifact.Data, prefix), format)
	}
	snap := svc.metrics.Snapshot()
	assert.Equal(t, uint64(4), snap.ExportsTotal)
	assert.Zero(t, snap.ExportFailures)
}

func TestExportServiceRefusesEmptyRows(t *testing.T) {
	svc := newTestExportService()
	artifact, err := svc.Export(context.Background(), rosterRequest(export.FormatPDF, 0))
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, appErrors.ErrEmptyExport)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().ExportFailures)
}

func TestExportServiceWrapsRenderFailure(t *testing.T) {
	svc := newTestExportService()
	svc.renderers[export.FormatPDF] = failingRenderer{}
	artifact, err := svc.Export(context.Background(), rosterRequest(export.FormatPDF, 3))
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, appErrors.ErrExportFailed)
}

func TestExportServiceBrandingFailure(t *testing.T) {
	svc := newTestExportService()
	svc.assets = brandingStub{err: appErrors.Clone(appErrors.ErrExportFailed, "failed to load school logo")}
	_, err := svc.Export(context.Background(), rosterRequest(export.FormatDOCX, 1))
	assert.ErrorIs(t, err, appErrors.ErrExportFailed)
}

func TestExportServiceStopsOnCancelledContext(t *testing.T) {
	svc := newTestExportService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Export(ctx, rosterRequest(export.FormatCSV, 10))
	assert.ErrorIs(t, err, appErrors.ErrExportFailed)
}

func TestExportServiceValidatesRequest(t *testing.T) {
	svc := newTestExportService()
	req := rosterRequest(export.Format("odt"), 1)
	_, err := svc.Export(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = rosterRequest(export.FormatPDF, 1)
	req.Columns = nil
	_, err = svc.Export(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceUsesCellFunc(t *testing.T) {
	svc := newTestExportService()
	req := rosterRequest(export.FormatCSV, 3)
	req.Scope = ""
	req.Cell = func(row SourceRow, col export.Column) string { return "x" + col.Key }
	artifact, err := svc.Export(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "students.csv", artifact.Filename)
	assert.Equal(t, 3, bytes.Count(artifact.Data, []byte("xid,xname")))
}
