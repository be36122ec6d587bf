package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

// column widths for the item table, in mm
var itemCols = []float64{85, 20, 30, 15, 30}

// RenderInvoicePDF lays out a single A4 invoice. Items and Client should be loaded.
func RenderInvoicePDF(w io.Writer, inv *model.Invoice, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetCreator("invoicehub", true)
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(100, 12, "INVOICE")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("No. "+inv.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Status: "+string(inv.EffectiveStatus(now)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, lineHeight, "Bill To")
	pdf.Ln(lineHeight)
	pdf.SetFont("Arial", "", 10)
	if c := inv.Client; c != nil {
		for _, line := range []string{c.Name, c.CompanyName, c.Address, c.Email, taxIDLine(c.TaxID)} {
			if line == "" {
				continue
			}
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	pdf.Ln(3)

	pdf.Cell(40, 5, "Issue date:")
	pdf.Cell(0, 5, inv.IssueDate.Format("2006-01-02"))
	pdf.Ln(5)
	pdf.Cell(40, 5, "Due date:")
	pdf.Cell(0, 5, inv.DueDate.Format("2006-01-02"))
	pdf.Ln(5)
	pdf.Cell(40, 5, "Currency:")
	pdf.Cell(0, 5, inv.Currency)
	pdf.Ln(10)

	writeItemTable(pdf, inv, tr)
	writeTotals(pdf, inv)

	if inv.Notes != "" || inv.Terms != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		if inv.Notes != "" {
			pdf.MultiCell(0, 5, tr("Notes: "+inv.Notes), "", "L", false)
		}
		if inv.Terms != "" {
			pdf.MultiCell(0, 5, tr("Terms: "+inv.Terms), "", "L", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write invoice pdf: %w", err)
	}
	return nil
}

func writeItemTable(pdf *gofpdf.Fpdf, inv *model.Invoice, tr func(string) string) {
	headers := []string{"Description", "Qty", "Unit price", "Tax %", "Amount"}
	aligns := []string{"L", "R", "R", "R", "R"}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(itemCols[i], lineHeight, h, "1", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		rate := ""
		if it.TaxRate != nil {
			rate = it.TaxRate.String()
		}
		cells := []string{
			tr(it.Description),
			strconv.Itoa(it.Quantity),
			billing.Format(it.UnitPrice),
			rate,
			billing.Format(it.Amount),
		}
		for i, c := range cells {
			pdf.CellFormat(itemCols[i], lineHeight, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeTotals(pdf *gofpdf.Fpdf, inv *model.Invoice) {
	labelWidth := itemCols[0] + itemCols[1] + itemCols[2] + itemCols[3]
	taxLabel := "Tax"
	if billing.ModeFor(inv.LineItems()) == billing.InvoiceLevel {
		taxLabel = fmt.Sprintf("Tax (%s %s%%)", inv.TaxType, inv.TaxRate.String())
	}

	rows := [][2]string{
		{"Subtotal", billing.Format(inv.Subtotal)},
		{taxLabel, billing.Format(inv.TaxAmount)},
		{"Total", billing.Format(inv.Total)},
	}
	if len(inv.Payments) > 0 {
		rows = append(rows,
			[2]string{"Paid", billing.Format(inv.AmountPaid())},
			[2]string{"Balance due", billing.Format(inv.BalanceDue())},
		)
	}

	pdf.Ln(2)
	for _, r := range rows {
		style := ""
		if r[0] == "Total" || r[0] == "Balance due" {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(labelWidth, lineHeight, r[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(itemCols[4], lineHeight, r[1]+" "+inv.Currency, "", 1, "R", false, 0, "")
	}
}

func taxIDLine(id string) string {
	if id == "" {
		return ""
	}
	return "Tax ID: " + id
}
