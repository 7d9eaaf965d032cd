package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is one labelled line on a receipt.
type Field struct {
	Label string
	Value string
}

// PDFExporter renders ledger data into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a tabular PDF with an optional title, one column per
// dataset header.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("dataset has no headers")
	}
	pdf := newDocument(title)

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return finish(pdf)
}

// RenderReceipt creates a two-column label/value document, one field
// per line. Field order is preserved as given.
func (e *PDFExporter) RenderReceipt(title string, fields []Field) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("receipt has no fields")
	}
	pdf := newDocument(title)

	for _, field := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 8, field.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 8, field.Value, "", 1, "", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, "Keep this receipt as proof of enrollment.", "", 1, "", false, 0, "")

	return finish(pdf)
}

func newDocument(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	return pdf
}

func finish(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
