package export

import (
	"fmt"
	"strings"
	"time"
)

// Format names a supported artifact type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat normalises user input into a Format.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatPDF, FormatDOCX, FormatXLSX, FormatCSV:
		return f, nil
	case "":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served with the artifact.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Column describes one projected column in output order.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Dataset defines tabular export content. Rows hold display strings already in column order.
type Dataset struct {
	Columns []Column
	Rows    [][]string
}

// Headers returns the column labels in order.
func (d Dataset) Headers() []string {
	headers := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		headers[i] = col.Label
	}
	return headers
}

// Logo is an embeddable PNG raster.
type Logo struct {
	PNG    []byte `json:"png"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Branding is the school identity printed on every page.
type Branding struct {
	SchoolName string
	Address    string
	Phone      string
	Logo       *Logo
}

// ContactLine joins address and phone the way the letterhead prints them.
func (b Branding) ContactLine() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(b.Address); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(b.Phone); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}

// Document bundles everything a renderer needs.
type Document struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Branding    Branding
	Data        Dataset
}

// Timestamp formats the generation time for headers and footers.
func (d Document) Timestamp() string {
	t := d.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04")
}

// Renderer turns a document into artifact bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}
