package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXHeaderRow is the worksheet row holding column labels; data starts on the next row.
const XLSXHeaderRow = 7

// XLSXExporter renders documents into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the letterhead into the first rows, followed by the table. The printed page
// header and footer mirror the PDF layout.
func (e *XLSXExporter) Render(doc Document) ([]byte, error) {
	cols := doc.Data.Columns
	if len(cols) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one column")
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("xlsx title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F3F4F6"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "D1D5DB", Style: 1},
			{Type: "right", Color: "D1D5DB", Style: 1},
			{Type: "top", Color: "D1D5DB", Style: 1},
			{Type: "bottom", Color: "D1D5DB", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx header style: %w", err)
	}
	stripeStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F9FAFB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx stripe style: %w", err)
	}

	letterhead := []string{
		doc.Branding.SchoolName,
		doc.Branding.ContactLine(),
		doc.Title,
		doc.Subtitle,
		"Date: " + doc.Timestamp(),
	}
	for i, line := range letterhead {
		if line == "" {
			continue
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), line); err != nil {
			return nil, fmt.Errorf("xlsx letterhead: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return nil, fmt.Errorf("xlsx letterhead style: %w", err)
	}

	headerCell, err := excelize.CoordinatesToCellName(1, XLSXHeaderRow)
	if err != nil {
		return nil, err
	}
	headers := make([]interface{}, len(cols))
	for i, label := range doc.Data.Headers() {
		headers[i] = label
	}
	if err := f.SetSheetRow(sheet, headerCell, &headers); err != nil {
		return nil, fmt.Errorf("xlsx header row: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(cols), XLSXHeaderRow)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, headerCell, lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("xlsx header style: %w", err)
	}

	widths := make([]int, len(cols))
	for i, label := range doc.Data.Headers() {
		widths[i] = len(label)
	}
	values := make([]interface{}, len(cols))
	for r, row := range doc.Data.Rows {
		rowNum := XLSXHeaderRow + 1 + r
		for i := range values {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			values[i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
		}
		if r%2 == 1 {
			end, _ := excelize.CoordinatesToCellName(len(cols), rowNum)
			if err := f.SetCellStyle(sheet, start, end, stripeStyle); err != nil {
				return nil, fmt.Errorf("xlsx stripe: %w", err)
			}
		}
	}
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, float64(clampWidth(w+2))); err != nil {
			return nil, fmt.Errorf("xlsx column width: %w", err)
		}
	}

	if logo := doc.Branding.Logo; logo != nil && len(logo.PNG) > 0 {
		anchor, _ := excelize.CoordinatesToCellName(len(cols)+2, 1)
		scale := 1.0
		if logo.Height > 60 {
			scale = 60 / float64(logo.Height)
		}
		if err := f.AddPictureFromBytes(sheet, anchor, &excelize.Picture{
			Extension: ".png",
			File:      logo.PNG,
			Format:    &excelize.GraphicOptions{AltText: doc.Branding.SchoolName, ScaleX: scale, ScaleY: scale},
		}); err != nil {
			return nil, fmt.Errorf("xlsx logo: %w", err)
		}
	}

	if err := f.SetHeaderFooter(sheet, &excelize.HeaderFooterOptions{
		OddHeader: "&L" + escapeHeaderFooter(doc.Branding.SchoolName) + "&R" + escapeHeaderFooter(doc.Title),
		OddFooter: "&L" + escapeHeaderFooter(doc.Branding.SchoolName+" | Generated on: "+doc.Timestamp()) + "&RPage &P of &N",
	}); err != nil {
		return nil, fmt.Errorf("xlsx header footer: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func clampWidth(w int) int {
	switch {
	case w < 8:
		return 8
	case w > 60:
		return 60
	default:
		return w
	}
}

// escapeHeaderFooter doubles ampersands, which Excel treats as control codes.
func escapeHeaderFooter(s string) string {
	return strings.ReplaceAll(s, "&", "&&")
}
