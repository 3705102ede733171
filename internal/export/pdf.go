package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

var pdfHeaders = []string{"Day", "Start", "End", "Group", "Rooms", "Teachers"}

// WritePDF renders rows as a single table with an optional title
func WritePDF(out io.Writer, title string, rows []Row) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	colWidth := 190.0 / float64(len(pdfHeaders))
	pdf.SetFont("Arial", "B", 10)
	for _, header := range pdfHeaders {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		values := []string{
			strconv.FormatUint(row.Day, 10),
			strconv.FormatUint(row.Start, 10),
			strconv.FormatUint(row.End, 10),
			strconv.FormatUint(row.GroupId, 10),
			row.Rooms,
			row.Teachers,
		}
		for _, value := range values {
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
