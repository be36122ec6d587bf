package handler

import (
	"context"
	"io"

	"invoicehub/internal/billing"
	"invoicehub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockInvoiceService struct {
	mock.Mock
}

func (m *mockInvoiceService) CreateInvoice(ctx context.Context, ownerID uuid.UUID, req service.CreateInvoiceRequest) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, req)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) ListInvoices(ctx context.Context, ownerID uuid.UUID, filter service.InvoiceFilter) ([]service.InvoiceResponse, int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]service.InvoiceResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceService) UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req service.UpdateInvoiceRequest) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *mockInvoiceService) SendInvoice(ctx context.Context, ownerID uuid.UUID, id string) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) MarkPaid(ctx context.Context, ownerID uuid.UUID, id string, req service.MarkPaidRequest) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) CancelInvoice(ctx context.Context, ownerID uuid.UUID, id string) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) DuplicateInvoice(ctx context.Context, ownerID uuid.UUID, id string) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) PreviewTotals(ctx context.Context, ownerID uuid.UUID, req service.PreviewTotalsRequest) (service.TotalsPreviewResponse, error) {
	args := m.Called(ctx, ownerID, req)
	return args.Get(0).(service.TotalsPreviewResponse), args.Error(1)
}

func (m *mockInvoiceService) RenderPDF(ctx context.Context, ownerID uuid.UUID, id string, w io.Writer) (string, error) {
	args := m.Called(ctx, ownerID, id, w)
	if body, ok := args.Get(1).([]byte); ok {
		_, _ = w.Write(body)
	}
	return args.String(0), args.Error(2)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) RecordPayment(ctx context.Context, ownerID uuid.UUID, invoiceID string, req service.RecordPaymentRequest) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, invoiceID, req)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

func (m *mockPaymentService) ListPayments(ctx context.Context, ownerID uuid.UUID, invoiceID string) ([]service.PaymentResponse, error) {
	args := m.Called(ctx, ownerID, invoiceID)
	return args.Get(0).([]service.PaymentResponse), args.Error(1)
}

func (m *mockPaymentService) DeletePayment(ctx context.Context, ownerID uuid.UUID, invoiceID, paymentID string) (service.InvoiceResponse, error) {
	args := m.Called(ctx, ownerID, invoiceID, paymentID)
	return args.Get(0).(service.InvoiceResponse), args.Error(1)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) GetReport(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions) (billing.Report, error) {
	args := m.Called(ctx, ownerID, opts)
	return args.Get(0).(billing.Report), args.Error(1)
}

func (m *mockReportService) Summary(ctx context.Context, ownerID uuid.UUID) (billing.Summary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(billing.Summary), args.Error(1)
}

func (m *mockReportService) RevenueByMonth(ctx context.Context, ownerID uuid.UUID, months int) ([]billing.MonthlyRevenue, error) {
	args := m.Called(ctx, ownerID, months)
	return args.Get(0).([]billing.MonthlyRevenue), args.Error(1)
}

func (m *mockReportService) StatusDistribution(ctx context.Context, ownerID uuid.UUID) ([]billing.StatusShare, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]billing.StatusShare), args.Error(1)
}

func (m *mockReportService) TopClients(ctx context.Context, ownerID uuid.UUID, limit int) ([]billing.ClientRollup, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]billing.ClientRollup), args.Error(1)
}

func (m *mockReportService) ExportCSV(ctx context.Context, ownerID uuid.UUID, opts billing.ReportOptions, w io.Writer) error {
	args := m.Called(ctx, ownerID, opts, w)
	_, _ = io.WriteString(w, "generated_at,2024-03-15\n")
	return args.Error(0)
}

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) RefreshClient(ctx context.Context, ownerID, clientID uuid.UUID) (billing.ClientStats, error) {
	args := m.Called(ctx, ownerID, clientID)
	return args.Get(0).(billing.ClientStats), args.Error(1)
}

func (m *mockStatsService) RebuildOwner(ctx context.Context, ownerID uuid.UUID) (service.RebuildResult, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(service.RebuildResult), args.Error(1)
}

func (m *mockStatsService) RebuildAll(ctx context.Context) (service.RebuildResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.RebuildResult), args.Error(1)
}

type mockClientService struct {
	mock.Mock
}

func (m *mockClientService) CreateClient(ctx context.Context, ownerID uuid.UUID, req service.CreateClientRequest) (service.ClientResponse, error) {
	args := m.Called(ctx, ownerID, req)
	return args.Get(0).(service.ClientResponse), args.Error(1)
}

func (m *mockClientService) GetClient(ctx context.Context, ownerID uuid.UUID, id string) (service.ClientDetailResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.ClientDetailResponse), args.Error(1)
}

func (m *mockClientService) ListClients(ctx context.Context, ownerID uuid.UUID, search, status string, page, limit int) ([]service.ClientResponse, int64, error) {
	args := m.Called(ctx, ownerID, search, status, page, limit)
	return args.Get(0).([]service.ClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockClientService) UpdateClient(ctx context.Context, ownerID uuid.UUID, id string, req service.UpdateClientRequest) (service.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id, req)
	return args.Get(0).(service.ClientResponse), args.Error(1)
}

func (m *mockClientService) ArchiveClient(ctx context.Context, ownerID uuid.UUID, id string) (service.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.ClientResponse), args.Error(1)
}

func (m *mockClientService) RestoreClient(ctx context.Context, ownerID uuid.UUID, id string) (service.ClientResponse, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(service.ClientResponse), args.Error(1)
}
