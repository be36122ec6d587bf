package app

import (
	"invoicehub/internal/config"
	"invoicehub/internal/repository"
	"invoicehub/internal/service"

	"gorm.io/gorm"
)

// Services is the wired service layer shared by the API server and the CLI.
type Services struct {
	Clients  service.ClientService
	Stats    service.ClientStatsService
	Products service.ProductService
	Invoices service.InvoiceService
	Payments service.PaymentService
	Reports  service.ReportService
	Tax      service.TaxService
	Audit    service.AuditService
}

// NewServices builds repositories and services on top of db.
// events may be nil when nothing listens for live updates.
func NewServices(db *gorm.DB, cfg *config.Config, events service.EventPublisher) *Services {
	txManager := repository.NewTransactionManager(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	stats := service.NewClientStatsService(clientRepo, invoiceRepo, auditRepo, events)
	reportDefaults := service.ReportDefaults{Months: cfg.ReportMonths, TopClients: cfg.TopClients}

	return &Services{
		Clients:  service.NewClientService(clientRepo, invoiceRepo, auditRepo),
		Stats:    stats,
		Products: service.NewProductService(productRepo, auditRepo),
		Invoices: service.NewInvoiceService(invoiceRepo, clientRepo, productRepo, paymentRepo, auditRepo, txManager, stats, events, cfg.DefaultCountry),
		Payments: service.NewPaymentService(invoiceRepo, paymentRepo, auditRepo, txManager, stats, events),
		Reports:  service.NewReportService(invoiceRepo, reportDefaults),
		Tax:      service.NewTaxService(),
		Audit:    service.NewAuditService(auditRepo),
	}
}
