package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/export"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
)

// ReportDefaults are applied when a request leaves the window or top-N unset.
type ReportDefaults struct {
	Months     int
	TopClients int
}

type ReportService interface {
	GetReport(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions) (billing.Report, error)
	Summary(ctx context.Context, ownerID uuid.UUID) (billing.Summary, error)
	RevenueByMonth(ctx context.Context, ownerID uuid.UUID, months int) ([]billing.MonthlyRevenue, error)
	StatusDistribution(ctx context.Context, ownerID uuid.UUID) ([]billing.StatusShare, error)
	TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]billing.ClientRollup, error)
	ExportCSV(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions, w io.Writer) error
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
	defaults    ReportDefaults
	now         func() time.Time
}

// NewReportService creates a report service computing every figure from the invoice table.
func NewReportService(invoiceRepo repository.InvoiceRepository, defaults ReportDefaults) ReportService {
	if defaults.Months <= 0 {
		defaults.Months = billing.DefaultRevenueMonths
	}
	return &reportService{invoiceRepo: invoiceRepo, defaults: defaults, now: time.Now}
}

func (s *reportService) records(ctx context.Context, ownerID uuid.UUID) ([]billing.Record, error) {
	invoices, err := s.invoiceRepo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	return records(invoices), nil
}

func (s *reportService) options(opts billing.ReportOptions) (billing.ReportOptions, error) {
	if opts.Months < 0 || opts.Months > 120 {
		return opts, &billing.ValidationError{Field: "months", Message: "must be between 1 and 120"}
	}
	if opts.TopClients < 0 {
		return opts, &billing.ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if opts.Months == 0 {
		opts.Months = s.defaults.Months
	}
	if opts.TopClients == 0 {
		opts.TopClients = s.defaults.TopClients
	}
	return opts, nil
}

func (s *reportService) GetReport(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions) (billing.Report, error) {
	opts, err := s.options(opts)
	if err != nil {
		return billing.Report{}, err
	}
	recs, err := s.records(ctx, ownerID)
	if err != nil {
		return billing.Report{}, err
	}
	return billing.BuildReport(recs, s.now(), opts), nil
}

func (s *reportService) Summary(ctx context.Context, ownerID uuid.UUID) (billing.Summary, error) {
	recs, err := s.records(ctx, ownerID)
	if err != nil {
		return billing.Summary{}, err
	}
	return billing.Summarize(recs, s.now()), nil
}

func (s *reportService) RevenueByMonth(ctx context.Context, ownerID uuid.UUID, months int) ([]billing.MonthlyRevenue, error) {
	opts, err := s.options(billing.ReportOptions{Months: months})
	if err != nil {
		return nil, err
	}
	recs, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return billing.RevenueByMonth(recs, s.now(), opts.Months), nil
}

func (s *reportService) StatusDistribution(ctx context.Context, ownerID uuid.UUID) ([]billing.StatusShare, error) {
	recs, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return billing.StatusDistribution(recs, s.now()), nil
}

func (s *reportService) TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]billing.ClientRollup, error) {
	opts, err := s.options(billing.ReportOptions{TopClients: limit})
	if err != nil {
		return nil, err
	}
	recs, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return billing.ClientRollups(recs, s.now(), opts.TopClients), nil
}

func (s *reportService) ExportCSV(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions, w io.Writer) error {
	report, err := s.GetReport(ctx, ownerID, opts)
	if err != nil {
		return err
	}
	return export.WriteReportCSV(w, report)
}
