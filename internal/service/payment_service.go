package service

import (
	"context"
	"fmt"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/logger"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"omitempty,oneof=bank_transfer card cash check other"`
	Reference string          `json:"reference" validate:"max=100"`
	PaidAt    string          `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
	Notes     string          `json:"notes"`
}

type PaymentResponse struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	PaidAt    string `json:"paid_at"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

type PaymentService interface {
	RecordPayment(ctx context.Context, ownerID uuid.UUID, invoiceID string, req RecordPaymentRequest) (InvoiceResponse, error)
	ListPayments(ctx context.Context, ownerID uuid.UUID, invoiceID string) ([]PaymentResponse, error)
	DeletePayment(ctx context.Context, ownerID uuid.UUID, invoiceID, paymentID string) (InvoiceResponse, error)
}

type paymentService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	stats       ClientStatsService
	events      EventPublisher
	now         func() time.Time
	log         zerolog.Logger
}

func NewPaymentService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	stats ClientStatsService,
	events EventPublisher,
) PaymentService {
	return &paymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		stats:       stats,
		events:      publisherOrNop(events),
		now:         time.Now,
		log:         logger.WithComponent("payment-service"),
	}
}

// RecordPayment books a payment against a pending invoice. Once the balance
// reaches zero the invoice moves to paid inside the same transaction.
func (s *paymentService) RecordPayment(ctx context.Context, ownerID uuid.UUID, invoiceID string, req RecordPaymentRequest) (InvoiceResponse, error) {
	if err := validateStruct(req); err != nil {
		return InvoiceResponse{}, err
	}
	id, err := parseID("invoice_id", invoiceID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	amount := billing.Round(req.Amount)
	if !amount.IsPositive() {
		return InvoiceResponse{}, &billing.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	now := s.now()
	paidAt := today(now)
	if req.PaidAt != "" {
		if paidAt, err = parseDate("paid_at", req.PaidAt); err != nil {
			return InvoiceResponse{}, err
		}
	}
	method := req.Method
	if method == "" {
		method = model.PaymentMethodBankTransfer
	}

	var invoice *model.Invoice
	var payment *model.Payment
	settled := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, ownerID, id)
		if err != nil {
			return lookupErr("invoice", err)
		}
		if invoice.StoredStatus() != billing.StatusPending {
			return conflictf("payments can only be recorded on pending invoices, %s is %s", invoice.Number, invoice.Status)
		}
		balance := invoice.BalanceDue()
		if amount.GreaterThan(balance) {
			return &billing.ValidationError{Field: "amount", Message: "exceeds the balance due of " + billing.Format(balance)}
		}

		payment = &model.Payment{
			OwnerID:   ownerID,
			InvoiceID: invoice.ID,
			Amount:    amount,
			Method:    method,
			Reference: req.Reference,
			PaidAt:    paidAt,
			Notes:     req.Notes,
		}
		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		invoice.Payments = append(invoice.Payments, *payment)

		if invoice.BalanceDue().IsZero() {
			next, err := billing.Transition(invoice.StoredStatus(), billing.StatusPaid)
			if err != nil {
				return err
			}
			invoice.Status = string(next)
			invoice.PaidAt = &paidAt
			if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
				return fmt.Errorf("failed to mark invoice paid: %w", err)
			}
			settled = true
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionRecordPayment, payment.ID.String(), invoice.Number, map[string]string{
		"amount": billing.Format(amount),
		"method": method,
	})
	if settled {
		s.log.Info().Str("invoice", invoice.Number).Msg("invoice settled by payment")
	}
	return s.afterChange(ctx, ownerID, invoice, EventPaymentRecorded)
}

func (s *paymentService) ListPayments(ctx context.Context, ownerID uuid.UUID, invoiceID string) ([]PaymentResponse, error) {
	id, err := parseID("invoice_id", invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.invoiceRepo.FindByID(ctx, ownerID, id); err != nil {
		return nil, lookupErr("invoice", err)
	}
	payments, err := s.paymentRepo.ListByInvoice(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	res := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		res = append(res, toPaymentResponse(p))
	}
	return res, nil
}

// DeletePayment removes a mistaken payment from an invoice that is still open.
func (s *paymentService) DeletePayment(ctx context.Context, ownerID uuid.UUID, invoiceID, paymentID string) (InvoiceResponse, error) {
	invID, err := parseID("invoice_id", invoiceID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	payID, err := parseID("payment_id", paymentID)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var invoice *model.Invoice
	var payment *model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, ownerID, invID)
		if err != nil {
			return lookupErr("invoice", err)
		}
		if invoice.StoredStatus().IsTerminal() {
			return conflictf("payments on a %s invoice cannot be removed", invoice.Status)
		}
		payment, err = s.paymentRepo.FindByID(txCtx, ownerID, payID)
		if err != nil {
			return lookupErr("payment", err)
		}
		if payment.InvoiceID != invoice.ID {
			return fmt.Errorf("payment %w", ErrNotFound)
		}
		if err := s.paymentRepo.Delete(txCtx, ownerID, payID); err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionDeletePayment, payment.ID.String(), invoice.Number, map[string]string{
		"amount": billing.Format(payment.Amount),
	})
	return s.afterChange(ctx, ownerID, invoice, EventPaymentDeleted)
}

func (s *paymentService) afterChange(ctx context.Context, ownerID uuid.UUID, invoice *model.Invoice, event string) (InvoiceResponse, error) {
	if s.stats != nil {
		if _, err := s.stats.RefreshClient(ctx, ownerID, invoice.ClientID); err != nil {
			s.log.Warn().Err(err).Str("client_id", invoice.ClientID.String()).Msg("failed to refresh client stats")
		}
	}
	reloaded, err := s.invoiceRepo.FindByID(ctx, ownerID, invoice.ID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	resp := toInvoiceResponse(reloaded, s.now())
	s.events.Publish(ownerID, event, resp)
	return resp, nil
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    billing.Format(p.Amount),
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    formatDate(p.PaidAt),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
