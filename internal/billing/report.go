package billing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRevenueMonths is the trailing window used when none is given.
const DefaultRevenueMonths = 12

// Record is the slice of an invoice the reducers need.
type Record struct {
	InvoiceID  string
	Number     string
	ClientID   string
	ClientName string
	IssueDate  time.Time
	DueDate    time.Time
	Status     Status // stored status
	Total      decimal.Decimal
}

// Effective resolves the record's status at now.
func (r Record) Effective(now time.Time) Status {
	return EffectiveStatus(r.Status, r.DueDate, now)
}

type MonthlyRevenue struct {
	Month   string          `json:"month"` // YYYY-MM
	Revenue decimal.Decimal `json:"revenue"`
}

type StatusShare struct {
	Status  Status          `json:"status"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

type ClientRollup struct {
	ClientID     string          `json:"client_id"`
	ClientName   string          `json:"client_name"`
	InvoiceCount int             `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// ClientStats is the denormalized per-client cache. Always rebuildable from invoices.
type ClientStats struct {
	TotalInvoices int             `json:"total_invoices"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
}

type Summary struct {
	InvoiceCount  int             `json:"invoice_count"`
	Invoiced      decimal.Decimal `json:"invoiced"`
	Paid          decimal.Decimal `json:"paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	OverdueCount  int             `json:"overdue_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

// RevenueByMonth buckets paid invoice totals by issue month over the trailing window
// ending with now's month. Every month in the window is present, oldest first.
func RevenueByMonth(records []Record, now time.Time, months int) []MonthlyRevenue {
	if months <= 0 {
		months = DefaultRevenueMonths
	}
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -(months - 1), 0)

	out := make([]MonthlyRevenue, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthlyRevenue{Month: key, Revenue: decimal.Zero}
		index[key] = i
	}

	for _, r := range records {
		if r.Effective(now) != StatusPaid {
			continue
		}
		i, ok := index[monthKey(r.IssueDate)]
		if !ok {
			continue
		}
		out[i].Revenue = Add(out[i].Revenue, r.Total)
	}
	return out
}

func monthKey(t time.Time) string {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// StatusDistribution counts effective statuses and their share of the collection.
// An empty collection yields zero counts and zero percentages.
func StatusDistribution(records []Record, now time.Time) []StatusShare {
	counts := make(map[Status]int, len(AllStatuses))
	for _, r := range records {
		counts[r.Effective(now)]++
	}

	total := decimal.NewFromInt(int64(len(records)))
	out := make([]StatusShare, 0, len(AllStatuses))
	for _, st := range AllStatuses {
		pct := decimal.Zero
		if len(records) > 0 {
			pct = Round(decimal.NewFromInt(int64(counts[st])).Mul(hundred).Div(total))
		}
		out = append(out, StatusShare{Status: st, Count: counts[st], Percent: pct})
	}
	return out
}

// ClientRollups groups invoices by client, sorted by total descending.
// topN <= 0 returns every client.
func ClientRollups(records []Record, now time.Time, topN int) []ClientRollup {
	byClient := make(map[string]*ClientRollup)
	for _, r := range records {
		cr, ok := byClient[r.ClientID]
		if !ok {
			cr = &ClientRollup{ClientID: r.ClientID, ClientName: r.ClientName, Total: decimal.Zero, Paid: decimal.Zero}
			byClient[r.ClientID] = cr
		}
		cr.InvoiceCount++
		cr.Total = Add(cr.Total, r.Total)
		if r.Effective(now) == StatusPaid {
			cr.Paid = Add(cr.Paid, r.Total)
		}
	}

	out := make([]ClientRollup, 0, len(byClient))
	for _, cr := range byClient {
		cr.Outstanding = Round(cr.Total.Sub(cr.Paid))
		out = append(out, *cr)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].ClientID < out[j].ClientID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// ClientStatsFor recomputes the per-client cache values.
func ClientStatsFor(records []Record, now time.Time) map[string]ClientStats {
	out := make(map[string]ClientStats)
	for _, r := range records {
		st := out[r.ClientID]
		st.TotalInvoices++
		if r.Effective(now) == StatusPaid {
			st.TotalSpent = Add(st.TotalSpent, r.Total)
		}
		out[r.ClientID] = st
	}
	return out
}

// Summarize produces the dashboard header figures. Cancelled invoices are not invoiced.
func Summarize(records []Record, now time.Time) Summary {
	s := Summary{Invoiced: decimal.Zero, Paid: decimal.Zero, Outstanding: decimal.Zero, OverdueAmount: decimal.Zero}
	for _, r := range records {
		s.InvoiceCount++
		switch r.Effective(now) {
		case StatusCancelled, StatusDraft:
			continue
		case StatusPaid:
			s.Paid = Add(s.Paid, r.Total)
		case StatusOverdue:
			s.OverdueCount++
			s.OverdueAmount = Add(s.OverdueAmount, r.Total)
			s.Outstanding = Add(s.Outstanding, r.Total)
		default:
			s.Outstanding = Add(s.Outstanding, r.Total)
		}
		s.Invoiced = Add(s.Invoiced, r.Total)
	}
	return s
}

// ReportOptions tunes BuildReport.
type ReportOptions struct {
	Months     int
	TopClients int
}

// Report bundles every reducer output for one point in time.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     Summary          `json:"summary"`
	Revenue     []MonthlyRevenue `json:"revenue_by_month"`
	Statuses    []StatusShare    `json:"status_distribution"`
	TopClients  []ClientRollup   `json:"top_clients"`
}

// BuildReport runs all reducers over the same records and clock.
func BuildReport(records []Record, now time.Time, opts ReportOptions) Report {
	return Report{
		GeneratedAt: now,
		Summary:     Summarize(records, now),
		Revenue:     RevenueByMonth(records, now, opts.Months),
		Statuses:    StatusDistribution(records, now),
		TopClients:  ClientRollups(records, now, opts.TopClients),
	}
}
