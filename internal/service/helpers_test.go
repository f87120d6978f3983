package service

import (
	"context"
	"time"

	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type brandingStub struct {
	err error
}

func (b brandingStub) Branding(ctx context.Context) (export.Branding, error) {
	if b.err != nil {
		return export.Branding{}, b.err
	}
	return export.Branding{SchoolName: "Learn Ease", Address: "Km4, Mogadishu", Phone: "+252 61 1234567"}, nil
}

type recordingExporter struct {
	requests []ExportRequest
	err      error
}

func (r *recordingExporter) Export(ctx context.Context, req ExportRequest) (*Artifact, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &Artifact{Filename: export.Filename(req.Scope, req.Suffix, req.Format), ContentType: req.Format.ContentType(), Data: []byte("doc")}, nil
}

func newTestExportService() *ExportService {
	svc := NewExportService(brandingStub{}, ExportConfig{BatchSize: 2}, NewMetricsService(), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC) }
	return svc
}
