package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type brandingSource interface {
	Branding(ctx context.Context) (export.Branding, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	BatchSize   int
	CompressPDF bool
}

// CellFunc resolves the display value of one column for one row.
type CellFunc func(row SourceRow, col export.Column) string

// ExportRequest is one document to build.
type ExportRequest struct {
	Format   export.Format
	Columns  []export.Column
	Rows     []SourceRow
	Cell     CellFunc
	Title    string
	Subtitle string
	// Scope is the most specific selected name and Suffix the fixed filename tail.
	Scope  string
	Suffix string
}

// Artifact is a fully rendered document ready for delivery.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders projected rows into downloadable documents.
type ExportService struct {
	assets    brandingSource
	renderers map[export.Format]documentRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService with the PDF, DOCX, XLSX and CSV renderers.
func NewExportService(assets brandingSource, cfg ExportConfig, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &ExportService{
		assets: assets,
		renderers: map[export.Format]documentRenderer{
			export.FormatPDF:  export.NewPDFExporter(cfg.CompressPDF),
			export.FormatDOCX: export.NewDOCXExporter(),
			export.FormatXLSX: export.NewXLSXExporter(),
			export.FormatCSV:  export.NewCSVExporter(),
		},
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Export builds the artifact entirely in memory. Nothing is returned unless rendering succeeded.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*Artifact, error) {
	start := time.Now()
	artifact, err := s.export(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.ObserveExport(string(req.Format), outcome, time.Since(start))
	return artifact, err
}

func (s *ExportService) export(ctx context.Context, req ExportRequest) (*Artifact, error) {
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Validation(fmt.Sprintf("unsupported export format %q", req.Format))
	}
	if len(req.Columns) == 0 {
		return nil, appErrors.Validation("select at least one column to export")
	}
	if len(req.Rows) == 0 {
		return nil, appErrors.ErrEmptyExport
	}

	branding, err := s.assets.Branding(ctx)
	if err != nil {
		return nil, err
	}

	cells, err := s.toCells(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := export.Document{
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		GeneratedAt: s.now(),
		Branding:    branding,
		Data:        export.Dataset{Columns: req.Columns, Rows: cells},
	}
	payload, err := renderer.Render(doc)
	if err != nil {
		s.logger.Error("document render failed", zap.String("format", string(req.Format)), zap.Int("rows", len(cells)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, appErrors.ErrExportFailed.Message)
	}

	filename := export.Filename(req.Scope, req.Suffix, req.Format)
	s.logger.Info("document exported",
		zap.String("format", string(req.Format)),
		zap.String("filename", filename),
		zap.Int("rows", len(cells)),
		zap.Int("bytes", len(payload)),
	)
	return &Artifact{Filename: filename, ContentType: req.Format.ContentType(), Data: payload}, nil
}

// toCells converts rows in batches, checking for cancellation and yielding between batches so
// large exports do not monopolise a scheduler thread.
func (s *ExportService) toCells(ctx context.Context, req ExportRequest) ([][]string, error) {
	cell := req.Cell
	if cell == nil {
		cell = func(row SourceRow, col export.Column) string { return row.Values[col.Key] }
	}
	out := make([][]string, 0, len(req.Rows))
	for startIdx := 0; startIdx < len(req.Rows); startIdx += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "export cancelled")
			}
			return nil, err
		}
		end := startIdx + s.cfg.BatchSize
		if end > len(req.Rows) {
			end = len(req.Rows)
		}
		for _, row := range req.Rows[startIdx:end] {
			cells := make([]string, len(req.Columns))
			for j, col := range req.Columns {
				cells[j] = cell(row, col)
			}
			out = append(out, cells)
		}
		runtime.Gosched()
	}
	return out, nil
}
