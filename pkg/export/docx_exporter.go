package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
)

// emuPerPixel converts raster pixels at 96 DPI into drawing units.
const emuPerPixel = 9525

// docxLogoHeight is the rendered logo height in pixels inside the page header.
const docxLogoHeight = 50

// DOCXExporter renders documents as WordprocessingML packages.
type DOCXExporter struct{}

// NewDOCXExporter builds a DOCX exporter.
func NewDOCXExporter() *DOCXExporter {
	return &DOCXExporter{}
}

type docxPart struct {
	name string
	tmpl *template.Template
}

type docxView struct {
	Doc        Document
	Headers    []string
	Rows       [][]string
	HasLogo    bool
	LogoCX     int
	LogoCY     int
	ColWidth   int
	Contact    string
	DateString string
}

var docxFuncs = template.FuncMap{
	"x":   xmlEscape,
	"mod": func(i int) int { return i % 2 },
}

var docxParts = []docxPart{
	{"[Content_Types].xml", template.Must(template.New("ct").Funcs(docxFuncs).Parse(contentTypesXML))},
	{"_rels/.rels", template.Must(template.New("rels").Funcs(docxFuncs).Parse(rootRelsXML))},
	{"word/_rels/document.xml.rels", template.Must(template.New("docrels").Funcs(docxFuncs).Parse(documentRelsXML))},
	{"word/styles.xml", template.Must(template.New("styles").Funcs(docxFuncs).Parse(stylesXML))},
	{"word/document.xml", template.Must(template.New("document").Funcs(docxFuncs).Parse(documentXML))},
	{"word/header1.xml", template.Must(template.New("header").Funcs(docxFuncs).Parse(headerXML))},
	{"word/footer1.xml", template.Must(template.New("footer").Funcs(docxFuncs).Parse(footerXML))},
}

var headerRelsTmpl = template.Must(template.New("hdrrels").Parse(headerRelsXML))

// Render builds the package in memory. The header carries the logo and school identity, the
// footer carries live page number fields, and the table header row repeats on every page.
func (e *DOCXExporter) Render(doc Document) ([]byte, error) {
	cols := doc.Data.Columns
	if len(cols) == 0 {
		return nil, fmt.Errorf("docx requires at least one column")
	}

	view := docxView{
		Doc:        doc,
		Headers:    doc.Data.Headers(),
		Rows:       normaliseRows(doc.Data.Rows, len(cols)),
		Contact:    doc.Branding.ContactLine(),
		DateString: doc.Timestamp(),
		// usable width of an A4 page with 1440 twip margins
		ColWidth: (11906 - 2*1440) / len(cols),
	}
	if logo := doc.Branding.Logo; logo != nil && len(logo.PNG) > 0 && logo.Width > 0 && logo.Height > 0 {
		view.HasLogo = true
		view.LogoCY = docxLogoHeight * emuPerPixel
		view.LogoCX = logo.Width * docxLogoHeight / logo.Height * emuPerPixel
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, part := range docxParts {
		if err := writeTemplatePart(zw, part.name, part.tmpl, view); err != nil {
			return nil, err
		}
	}
	if view.HasLogo {
		if err := writeTemplatePart(zw, "word/_rels/header1.xml.rels", headerRelsTmpl, view); err != nil {
			return nil, err
		}
		w, err := zw.Create("word/media/logo.png")
		if err != nil {
			return nil, fmt.Errorf("docx logo part: %w", err)
		}
		if _, err := w.Write(doc.Branding.Logo.PNG); err != nil {
			return nil, fmt.Errorf("docx logo write: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalise docx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTemplatePart(zw *zip.Writer, name string, tmpl *template.Template, view docxView) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("docx part %s: %w", name, err)
	}
	if err := tmpl.Execute(w, view); err != nil {
		return fmt.Errorf("docx render %s: %w", name, err)
	}
	return nil
}

func normaliseRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, width)
		copy(cells, row)
		out[i] = cells
	}
	return out
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Default Extension="png" ContentType="image/png"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>
<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>
</Relationships>`

const headerRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rIdLogo" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/logo.png"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="20"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="120" w:after="60"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/><w:color w:val="111827"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:after="60"/></w:pPr><w:rPr><w:sz w:val="24"/><w:color w:val="374151"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="SchoolName"><w:name w:val="School Name"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="28"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="SchoolContact"><w:name w:val="School Contact"/><w:basedOn w:val="Normal"/><w:rPr><w:sz w:val="16"/><w:color w:val="555555"/></w:rPr></w:style>
<w:style w:type="table" w:styleId="ReportTable"><w:name w:val="Report Table"/><w:tblPr><w:tblBorders><w:top w:val="single" w:sz="4" w:color="D1D5DB"/><w:left w:val="single" w:sz="4" w:color="D1D5DB"/><w:bottom w:val="single" w:sz="4" w:color="D1D5DB"/><w:right w:val="single" w:sz="4" w:color="D1D5DB"/><w:insideH w:val="single" w:sz="4" w:color="D1D5DB"/><w:insideV w:val="single" w:sz="4" w:color="D1D5DB"/></w:tblBorders></w:tblPr></w:style>
</w:styles>`

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">{{x .Doc.Title}}</w:t></w:r></w:p>
{{- if .Doc.Subtitle}}
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t xml:space="preserve">{{x .Doc.Subtitle}}</w:t></w:r></w:p>
{{- end}}
<w:p><w:pPr><w:jc w:val="right"/></w:pPr><w:r><w:t xml:space="preserve">Date: {{x .DateString}}</w:t></w:r></w:p>
<w:tbl>
<w:tblPr><w:tblStyle w:val="ReportTable"/><w:tblW w:w="5000" w:type="pct"/><w:tblLayout w:type="fixed"/></w:tblPr>
<w:tblGrid>{{range .Headers}}<w:gridCol w:w="{{$.ColWidth}}"/>{{end}}</w:tblGrid>
<w:tr><w:trPr><w:tblHeader/></w:trPr>{{range .Headers}}<w:tc><w:tcPr><w:tcW w:w="{{$.ColWidth}}" w:type="dxa"/><w:shd w:val="clear" w:color="auto" w:fill="F3F4F6"/></w:tcPr><w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">{{x .}}</w:t></w:r></w:p></w:tc>{{end}}</w:tr>
{{- range $i, $row := .Rows}}
<w:tr>{{range $row}}<w:tc><w:tcPr><w:tcW w:w="{{$.ColWidth}}" w:type="dxa"/>{{if eq (mod $i) 1}}<w:shd w:val="clear" w:color="auto" w:fill="F9FAFB"/>{{end}}</w:tcPr><w:p><w:r><w:t xml:space="preserve">{{x .}}</w:t></w:r></w:p></w:tc>{{end}}</w:tr>
{{- end}}
</w:tbl>
<w:p/>
<w:sectPr>
<w:headerReference w:type="default" r:id="rId2"/>
<w:footerReference w:type="default" r:id="rId3"/>
<w:pgSz w:w="11906" w:h="16838"/>
<w:pgMar w:top="1800" w:right="1440" w:bottom="1440" w:left="1440" w:header="567" w:footer="567" w:gutter="0"/>
</w:sectPr>
</w:body>
</w:document>`

const headerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">
{{- if .HasLogo}}
<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0"><wp:extent cx="{{.LogoCX}}" cy="{{.LogoCY}}"/><wp:docPr id="1" name="Logo"/><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture"><pic:pic><pic:nvPicPr><pic:cNvPr id="1" name="logo.png"/><pic:cNvPicPr/></pic:nvPicPr><pic:blipFill><a:blip r:embed="rIdLogo"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill><pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="{{.LogoCX}}" cy="{{.LogoCY}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>
{{- end}}
<w:p><w:pPr><w:pStyle w:val="SchoolName"/></w:pPr><w:r><w:t xml:space="preserve">{{x .Doc.Branding.SchoolName}}</w:t></w:r></w:p>
{{- if .Contact}}
<w:p><w:pPr><w:pStyle w:val="SchoolContact"/><w:pBdr><w:bottom w:val="single" w:sz="4" w:space="4" w:color="C8C8C8"/></w:pBdr></w:pPr><w:r><w:t xml:space="preserve">{{x .Contact}}</w:t></w:r></w:p>
{{- end}}
</w:hdr>`

const footerXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:sz w:val="16"/></w:rPr><w:t xml:space="preserve">Page </w:t></w:r><w:fldSimple w:instr=" PAGE "><w:r><w:rPr><w:sz w:val="16"/></w:rPr><w:t>1</w:t></w:r></w:fldSimple><w:r><w:rPr><w:sz w:val="16"/></w:rPr><w:t xml:space="preserve"> of </w:t></w:r><w:fldSimple w:instr=" NUMPAGES "><w:r><w:rPr><w:sz w:val="16"/></w:rPr><w:t>1</w:t></w:r></w:fldSimple></w:p>
</w:ftr>`
