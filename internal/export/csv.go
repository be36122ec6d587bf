package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"invoicehub/internal/billing"
)

// WriteReportCSV writes the report as three blank-line separated sections:
// summary, revenue by month and top clients, followed by the status distribution.
func WriteReportCSV(w io.Writer, report billing.Report) error {
	cw := csv.NewWriter(w)

	s := report.Summary
	rows := [][]string{
		{"generated_at", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"invoice_count", strconv.Itoa(s.InvoiceCount)},
		{"invoiced", billing.Format(s.Invoiced)},
		{"paid", billing.Format(s.Paid)},
		{"outstanding", billing.Format(s.Outstanding)},
		{"overdue_count", strconv.Itoa(s.OverdueCount)},
		{"overdue_amount", billing.Format(s.OverdueAmount)},
		{},
		{"month", "revenue"},
	}
	for _, m := range report.Revenue {
		rows = append(rows, []string{m.Month, billing.Format(m.Revenue)})
	}

	rows = append(rows, []string{}, []string{"client_id", "client_name", "invoice_count", "total", "paid", "outstanding"})
	for _, c := range report.TopClients {
		rows = append(rows, []string{
			c.ClientID,
			c.ClientName,
			strconv.Itoa(c.InvoiceCount),
			billing.Format(c.Total),
			billing.Format(c.Paid),
			billing.Format(c.Outstanding),
		})
	}

	rows = append(rows, []string{}, []string{"status", "count", "percent"})
	for _, st := range report.Statuses {
		rows = append(rows, []string{string(st.Status), strconv.Itoa(st.Count), billing.Format(st.Percent)})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write report csv: %w", err)
	}
	return nil
}
