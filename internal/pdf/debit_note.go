package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/itops-hk/itpm-service/internal/model"
)

// Generator renders charge-out debit notes. The document uses the built-in
// Helvetica face, so all text on it is ASCII.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) DebitNote(chargeOut model.ChargeOut) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "DEBIT NOTE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	noteNumber := "-"
	if chargeOut.DebitNoteNumber != nil && *chargeOut.DebitNoteNumber != "" {
		noteNumber = *chargeOut.DebitNoteNumber
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Debit Note No: %s", noteNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issue Date: %s", formatDate(chargeOut.IssueDate)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Billed To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if chargeOut.OpCo != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (%s)", chargeOut.OpCo.Name, chargeOut.OpCo.Code), "", 1, "L", false, 0, "")
	}
	if chargeOut.Project != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Project: %s", chargeOut.Project.Name), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Charged Items", "", 1, "L", false, 0, "")

	colWidths := []float64{15, 95, 35, 35}
	headers := []string{"#", "Expense", "Invoice No", "Amount"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, item := range chargeOut.Items {
		expenseName := item.Description
		invoiceNumber := ""
		if item.Expense != nil {
			expenseName = item.Expense.Name
			invoiceNumber = item.Expense.InvoiceNumber
		}
		pdf.CellFormat(colWidths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 7, expenseName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 7, invoiceNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, fmt.Sprintf("%.2f", item.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colWidths[0]+colWidths[1]+colWidths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[3], 8, fmt.Sprintf("%.2f", chargeOut.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", chargeOut.Status), "", 1, "L", false, 0, "")
	if chargeOut.ConfirmedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Confirmed At: %s", chargeOut.ConfirmedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
