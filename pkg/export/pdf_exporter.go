package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	totalPagesAlias = "{nb}"
	logoImageName   = "school-logo"

	pageMargin   = 14.0
	headerBottom = 40.0
	footerMargin = 18.0
	rowHeight    = 7.0
	lineHeight   = 5.0
	cellPadding  = 1.0
	minColWidth  = 14.0
)

// PDFExporter renders documents into a branded tabular PDF.
type PDFExporter struct {
	compress bool
}

// NewPDFExporter constructs a PDF exporter. Stream compression can be disabled so the output is
// inspectable in tests.
func NewPDFExporter(compress bool) *PDFExporter {
	return &PDFExporter{compress: compress}
}

// Render draws the letterhead and footer on every page and repeats the table header after each
// page break.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	cols := doc.Data.Columns
	if len(cols) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}

	orientation := "P"
	if len(cols) > 7 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(pageMargin, headerBottom, pageMargin)
	pdf.SetAutoPageBreak(true, footerMargin)
	pdf.AliasNbPages(totalPagesAlias)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pageMargin

	logoOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	hasLogo := doc.Branding.Logo != nil && len(doc.Branding.Logo.PNG) > 0
	if hasLogo {
		pdf.RegisterImageOptionsReader(logoImageName, logoOpts, bytes.NewReader(doc.Branding.Logo.PNG))
		if pdf.Err() {
			return nil, fmt.Errorf("embed logo: %w", pdf.Error())
		}
	}

	pdf.SetFont("Arial", "", 9)
	widths := columnWidths(pdf, tr, doc.Data, usable)
	headers := doc.Data.Headers()

	drawHeaderRow := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(243, 244, 246)
		pdf.SetTextColor(17, 24, 39)
		pdf.SetDrawColor(209, 213, 219)
		for i, h := range headers {
			pdf.CellFormat(widths[i], rowHeight+1, fitText(pdf, tr, h, widths[i]), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	tableStarted := false
	pdf.SetHeaderFunc(func() {
		textX := pageMargin
		if hasLogo {
			pdf.ImageOptions(logoImageName, pageMargin, 8, 20, 20, false, logoOpts, 0, "")
			textX = 38
		}
		pdf.SetTextColor(17, 24, 39)
		pdf.SetFont("Arial", "B", 15)
		pdf.Text(textX, 13, tr(doc.Branding.SchoolName))
		if contact := doc.Branding.ContactLine(); contact != "" {
			pdf.SetFont("Arial", "", 8)
			pdf.SetTextColor(85, 85, 85)
			pdf.Text(textX, 18, tr(contact))
		}
		pdf.SetTextColor(17, 24, 39)
		pdf.SetFont("Arial", "B", 12)
		pdf.Text(textX, 25, tr(doc.Title))
		if doc.Subtitle != "" {
			pdf.SetFont("Arial", "", 10)
			pdf.SetTextColor(55, 65, 81)
			pdf.Text(textX, 31, tr(doc.Subtitle))
		}
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pageMargin, 34, pageW-pageMargin, 34)
		pdf.SetY(headerBottom)
		if tableStarted {
			drawHeaderRow()
		}
	})

	footerLeft := tr(fmt.Sprintf("%s | Generated on: %s", doc.Branding.SchoolName, doc.Timestamp()))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(usable/2, 5, footerLeft, "", 0, "L", false, 0, "")
		pdf.CellFormat(usable/2, 5, fmt.Sprintf("Page %d of %s", pdf.PageNo(), totalPagesAlias), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	drawHeaderRow()
	tableStarted = true

	pdf.SetDrawColor(229, 231, 235)
	for r, row := range doc.Data.Rows {
		lines := make([][][]byte, len(cols))
		height := rowHeight
		for i := range cols {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			lines[i] = pdf.SplitLines([]byte(tr(value)), widths[i])
			if h := float64(len(lines[i]))*lineHeight + 2*cellPadding; h > height {
				height = h
			}
		}
		if pdf.GetY()+height > pageH-footerMargin {
			pdf.AddPage()
		}

		style := "D"
		if r%2 == 1 {
			style = "FD"
		}
		pdf.SetFillColor(249, 250, 251)
		pdf.SetTextColor(31, 41, 55)
		x, y := pageMargin, pdf.GetY()
		for i := range cols {
			pdf.Rect(x, y, widths[i], height, style)
			for k, line := range lines[i] {
				pdf.SetXY(x, y+cellPadding+float64(k)*lineHeight)
				pdf.CellFormat(widths[i], lineHeight, string(line), "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(pageMargin, y+height)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths sizes columns by their widest sampled content and scales them to fill the page.
func columnWidths(pdf *gofpdf.Fpdf, tr func(string) string, data Dataset, usable float64) []float64 {
	const sampleRows = 50
	widths := make([]float64, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = pdf.GetStringWidth(tr(col.Label)) + 4
	}
	for r, row := range data.Rows {
		if r >= sampleRows {
			break
		}
		for i := range widths {
			if i < len(row) {
				if w := pdf.GetStringWidth(tr(row[i])) + 4; w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	total := 0.0
	for i := range widths {
		if widths[i] < minColWidth {
			widths[i] = minColWidth
		}
		total += widths[i]
	}
	scale := usable / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

// fitText translates s and truncates it with an ellipsis so it stays inside a header cell of
// width w. Body cells wrap instead.
func fitText(pdf *gofpdf.Fpdf, tr func(string) string, s string, w float64) string {
	limit := w - 2
	out := tr(s)
	if pdf.GetStringWidth(out) <= limit {
		return out
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := tr(string(runes) + "...")
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}
