package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer writes timetable tables as a landscape A4 grid. gofpdf's core
// fonts are Latin-1 only, so Vietnamese text is transliterated through the
// built-in unicode translator before drawing.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates a one-page-per-overflow PDF document for the table.
func (r *PDFRenderer) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(table.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 20
	// The period column stays narrow; weekday columns share the rest.
	periodWidth := usable * 0.18
	dayWidth := (usable - periodWidth) / float64(len(table.Headers)-1)

	widthAt := func(i int) float64 {
		if i == 0 {
			return periodWidth
		}
		return dayWidth
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, header := range table.Headers {
		pdf.CellFormat(widthAt(i), 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range table.Rows {
		for i := range table.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			align := "C"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widthAt(i), 7, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Renderer.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }
