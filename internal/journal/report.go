package journal

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// ReportTitle heads the PDF report.
const ReportTitle = "NeuroSense Journey Report"

// WriteReport renders the timeline as a PDF, one block per entry with a
// rule under each. Text outside the cp1252 range is replaced.
func WriteReport(w io.Writer, items []TimelineItem) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ReportTitle, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(ReportTitle), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 12)
	if len(items) == 0 {
		pdf.MultiCell(0, 8, "No entries yet.", "", "L", false)
	}

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()

	for _, item := range items {
		for _, f := range item.Fields {
			pdf.MultiCell(0, 8, tr(f.Key+": "+f.Value), "", "L", false)
		}
		y := pdf.GetY() + 2
		pdf.Line(left, y, pageWidth-right, y)
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
