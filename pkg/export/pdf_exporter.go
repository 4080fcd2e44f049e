package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Sheet is a printable weekly timetable: one section per weekday.
type Sheet struct {
	Title    string
	Subtitle string
	Headers  []string
	Widths   []float64
	Days     []DaySection
}

// DaySection holds the rows printed under one weekday heading.
type DaySection struct {
	Name string
	Rows [][]string
}

// PDFExporter renders weekly sheets into landscape A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render writes the sheet. Days without rows still get a heading so gaps in the week stay visible.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	widths := columnWidths(sheet.Headers, sheet.Widths)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
	}
	if sheet.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, sheet.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	for _, day := range sheet.Days {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 8, day.Name, "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 9)
		for i, header := range sheet.Headers {
			pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		if len(day.Rows) == 0 {
			pdf.CellFormat(0, 7, "No sessions", "1", 1, "C", false, 0, "")
		}
		for _, row := range day.Rows {
			for i := range sheet.Headers {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(widths[i], 7, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(headers []string, widths []float64) []float64 {
	if len(widths) == len(headers) {
		return widths
	}
	out := make([]float64, len(headers))
	for i := range out {
		out[i] = 277.0 / float64(len(headers))
	}
	return out
}
