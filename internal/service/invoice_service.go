package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/export"
	"invoicehub/internal/logger"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type InvoiceItemRequest struct {
	ProductID   string           `json:"product_id" validate:"omitempty,uuid"`
	Description string           `json:"description" validate:"max=1000"`
	Quantity    int              `json:"quantity" validate:"min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

type CreateInvoiceRequest struct {
	ClientID  string               `json:"client_id" validate:"required,uuid"`
	Number    string               `json:"number" validate:"max=40"`
	IssueDate string               `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate   string               `json:"due_date" validate:"required,datetime=2006-01-02"`
	Currency  string               `json:"currency" validate:"omitempty,len=3"`
	TaxType   string               `json:"tax_type" validate:"max=20"`
	TaxRate   *decimal.Decimal     `json:"tax_rate"`
	Notes     string               `json:"notes"`
	Terms     string               `json:"terms"`
	Items     []InvoiceItemRequest `json:"items" validate:"dive"`
}

type UpdateInvoiceRequest struct {
	ClientID  *string               `json:"client_id" validate:"omitempty,uuid"`
	IssueDate *string               `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	DueDate   *string               `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Currency  *string               `json:"currency" validate:"omitempty,len=3"`
	TaxType   *string               `json:"tax_type" validate:"omitempty,max=20"`
	TaxRate   *decimal.Decimal      `json:"tax_rate"`
	Notes     *string               `json:"notes"`
	Terms     *string               `json:"terms"`
	Items     *[]InvoiceItemRequest `json:"items" validate:"omitempty,dive"` // nil = unchanged, [] = clear all
}

type PreviewTotalsRequest struct {
	ClientID string               `json:"client_id" validate:"omitempty,uuid"`
	Country  string               `json:"country" validate:"omitempty,len=2"`
	TaxType  string               `json:"tax_type" validate:"max=20"`
	TaxRate  *decimal.Decimal     `json:"tax_rate"`
	Items    []InvoiceItemRequest `json:"items" validate:"dive"`
}

type MarkPaidRequest struct {
	PaidAt    string `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
	Method    string `json:"method" validate:"omitempty,oneof=bank_transfer card cash check other"`
	Reference string `json:"reference" validate:"max=100"`
}

type InvoiceFilter struct {
	Status   string // effective status, or empty for all
	ClientID string
	Search   string
	From     string // issue date lower bound, YYYY-MM-DD
	To       string // issue date upper bound, YYYY-MM-DD
	Page     int
	Limit    int
}

type InvoiceItemResponse struct {
	ID          string  `json:"id"`
	Position    int     `json:"position"`
	ProductID   *string `json:"product_id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	TaxRate     *string `json:"tax_rate"`
	Amount      string  `json:"amount"`
}

type InvoiceResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	ClientID     string                `json:"client_id"`
	ClientName   string                `json:"client_name"`
	IssueDate    string                `json:"issue_date"`
	DueDate      string                `json:"due_date"`
	Currency     string                `json:"currency"`
	TaxType      string                `json:"tax_type"`
	TaxRate      string                `json:"tax_rate"`
	TaxMode      string                `json:"tax_mode"`
	Subtotal     string                `json:"subtotal"`
	TaxAmount    string                `json:"tax_amount"`
	Total        string                `json:"total"`
	AmountPaid   string                `json:"amount_paid"`
	BalanceDue   string                `json:"balance_due"`
	Status       string                `json:"status"`
	StoredStatus string                `json:"stored_status"`
	IsOverdue    bool                  `json:"is_overdue"`
	Editable     bool                  `json:"editable"`
	Notes        string                `json:"notes"`
	Terms        string                `json:"terms"`
	SentAt       *string               `json:"sent_at"`
	PaidAt       *string               `json:"paid_at"`
	CancelledAt  *string               `json:"cancelled_at"`
	Items        []InvoiceItemResponse `json:"items"`
	Payments     []PaymentResponse     `json:"payments"`
	CreatedAt    string                `json:"created_at"`
	UpdatedAt    string                `json:"updated_at"`
}

type TotalsPreviewResponse struct {
	TaxType string         `json:"tax_type"`
	TaxRate string         `json:"tax_rate"`
	Totals  billing.Totals `json:"totals"`
	Lines   []string       `json:"line_amounts"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error
	SendInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	MarkPaid(ctx context.Context, ownerID uuid.UUID, id string, req MarkPaidRequest) (InvoiceResponse, error)
	CancelInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	DuplicateInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error)
	PreviewTotals(ctx context.Context, ownerID uuid.UUID, req PreviewTotalsRequest) (TotalsPreviewResponse, error)
	RenderPDF(ctx context.Context, ownerID uuid.UUID, id string, w io.Writer) (string, error)
}

type invoiceService struct {
	invoiceRepo    repository.InvoiceRepository
	clientRepo     repository.ClientRepository
	productRepo    repository.ProductRepository
	paymentRepo    repository.PaymentRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	stats          ClientStatsService
	events         EventPublisher
	defaultCountry string
	now            func() time.Time
	log            zerolog.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	paymentRepo repository.PaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	stats ClientStatsService,
	events EventPublisher,
	defaultCountry string,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		clientRepo:     clientRepo,
		productRepo:    productRepo,
		paymentRepo:    paymentRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		stats:          stats,
		events:         publisherOrNop(events),
		defaultCountry: defaultCountry,
		now:            time.Now,
		log:            logger.WithComponent("invoice-service"),
	}
}

// --- Create / read ---

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (InvoiceResponse, error) {
	if err := validateStruct(req); err != nil {
		return InvoiceResponse{}, err
	}
	clientID, err := parseID("client_id", req.ClientID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	client, err := s.clientRepo.FindByID(ctx, ownerID, clientID)
	if err != nil {
		return InvoiceResponse{}, lookupErr("client", err)
	}
	if client.Status == model.ClientStatusArchived {
		return InvoiceResponse{}, conflictf("client %s is archived", client.Name)
	}

	now := s.now()
	issueDate := today(now)
	if req.IssueDate != "" {
		if issueDate, err = parseDate("issue_date", req.IssueDate); err != nil {
			return InvoiceResponse{}, err
		}
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return InvoiceResponse{}, err
	}
	if dueDate.Before(issueDate) {
		return InvoiceResponse{}, &billing.ValidationError{Field: "due_date", Message: "must not be before issue_date"}
	}

	items, err := s.buildItems(ctx, ownerID, req.Items)
	if err != nil {
		return InvoiceResponse{}, err
	}
	tax, err := s.resolveTax(req.TaxRate, req.TaxType, client.Country)
	if err != nil {
		return InvoiceResponse{}, err
	}

	invoice := &model.Invoice{
		OwnerID:   ownerID,
		Number:    strings.TrimSpace(req.Number),
		ClientID:  client.ID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Currency:  currencyOrDefault(req.Currency),
		TaxType:   string(tax.Type),
		TaxRate:   tax.Rate,
		Status:    string(billing.StatusDraft),
		Notes:     req.Notes,
		Terms:     req.Terms,
		Items:     items,
	}
	invoice.Recompute()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if invoice.Number == "" {
			number, err := s.generateNumber(txCtx, ownerID, now)
			if err != nil {
				return fmt.Errorf("failed to generate invoice number: %w", err)
			}
			invoice.Number = number
		}
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionCreateInvoice, invoice.ID.String(), invoice.Number, map[string]string{
		"client_id": client.ID.String(),
		"total":     billing.Format(invoice.Total),
	})
	return s.afterChange(ctx, ownerID, invoice.ID, invoice.ClientID, EventInvoiceCreated)
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	invoice, err := s.find(ctx, ownerID, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	s.checkTotals(invoice)
	return toInvoiceResponse(invoice, s.now()), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID uuid.UUID, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	now := s.now()
	repoFilter := repository.InvoiceListFilter{
		Search: strings.TrimSpace(filter.Search),
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.Status != "" {
		status, err := billing.ParseStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		applyStatusFilter(&repoFilter, status, today(now))
	}
	if filter.ClientID != "" {
		clientID, err := parseID("client_id", filter.ClientID)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.ClientID = &clientID
	}
	if filter.From != "" {
		from, err := parseDate("from", filter.From)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.IssuedFrom = &from
	}
	if filter.To != "" {
		to, err := parseDate("to", filter.To)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.IssuedTo = &to
	}

	invoices, total, err := s.invoiceRepo.List(ctx, ownerID, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i], now))
	}
	return res, total, nil
}

// applyStatusFilter maps an effective status onto stored status and due date bounds.
func applyStatusFilter(f *repository.InvoiceListFilter, status billing.Status, day time.Time) {
	switch status {
	case billing.StatusOverdue:
		f.StoredStatuses = []string{string(billing.StatusDraft), string(billing.StatusPending)}
		f.DueBefore = &day
	case billing.StatusDraft, billing.StatusPending:
		f.StoredStatuses = []string{string(status)}
		f.DueOnOrAfter = &day
	default:
		f.StoredStatuses = []string{string(status)}
	}
}

// --- Update / delete ---

// changesAmounts reports whether the update touches anything the totals or
// the billed party depend on.
func (r UpdateInvoiceRequest) changesAmounts() bool {
	return r.ClientID != nil || r.Items != nil || r.TaxRate != nil || r.TaxType != nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerID uuid.UUID, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	if err := validateStruct(req); err != nil {
		return InvoiceResponse{}, err
	}
	invoiceID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var invoice *model.Invoice
	previousClient := uuid.Nil
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, ownerID, invoiceID)
		if err != nil {
			return lookupErr("invoice", err)
		}
		if !invoice.StoredStatus().IsEditable() {
			return fmt.Errorf("%w: status is %s", ErrNotEditable, invoice.Status)
		}
		if len(invoice.Payments) > 0 && req.changesAmounts() {
			return conflictf("invoice %s already has payments recorded", invoice.Number)
		}

		if req.ClientID != nil {
			clientID, err := parseID("client_id", *req.ClientID)
			if err != nil {
				return err
			}
			if clientID != invoice.ClientID {
				client, err := s.clientRepo.FindByID(txCtx, ownerID, clientID)
				if err != nil {
					return lookupErr("client", err)
				}
				previousClient = invoice.ClientID
				invoice.ClientID = client.ID
				invoice.Client = client
			}
		}
		if req.IssueDate != nil {
			if invoice.IssueDate, err = parseDate("issue_date", *req.IssueDate); err != nil {
				return err
			}
		}
		if req.DueDate != nil {
			if invoice.DueDate, err = parseDate("due_date", *req.DueDate); err != nil {
				return err
			}
		}
		if invoice.DueDate.Before(invoice.IssueDate) {
			return &billing.ValidationError{Field: "due_date", Message: "must not be before issue_date"}
		}
		if req.Currency != nil {
			invoice.Currency = currencyOrDefault(*req.Currency)
		}
		if req.TaxRate != nil || req.TaxType != nil {
			rate := invoice.TaxRate
			if req.TaxRate != nil {
				rate = *req.TaxRate
			}
			taxType := invoice.TaxType
			if req.TaxType != nil {
				taxType = *req.TaxType
			}
			tax, err := s.resolveTax(&rate, taxType, "")
			if err != nil {
				return err
			}
			invoice.TaxRate = tax.Rate
			invoice.TaxType = string(tax.Type)
		}
		if req.Notes != nil {
			invoice.Notes = *req.Notes
		}
		if req.Terms != nil {
			invoice.Terms = *req.Terms
		}
		if req.Items != nil {
			items, err := s.buildItems(txCtx, ownerID, *req.Items)
			if err != nil {
				return err
			}
			invoice.Items = items
		}

		invoice.Recompute()
		if paid := invoice.AmountPaid(); paid.GreaterThan(invoice.Total) {
			return conflictf("total %s would fall below the %s already paid", billing.Format(invoice.Total), billing.Format(paid))
		}

		if req.Items != nil {
			if err := s.invoiceRepo.ReplaceItems(txCtx, invoice.ID, invoice.Items); err != nil {
				return fmt.Errorf("failed to replace invoice items: %w", err)
			}
		}
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionUpdateInvoice, invoice.ID.String(), invoice.Number, req)
	if previousClient != uuid.Nil {
		s.refreshStats(ctx, ownerID, previousClient)
	}
	return s.afterChange(ctx, ownerID, invoice.ID, invoice.ClientID, EventInvoiceUpdated)
}

// DeleteInvoice removes a draft. Issued invoices must be cancelled instead.
func (s *invoiceService) DeleteInvoice(ctx context.Context, ownerID uuid.UUID, id string) error {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return err
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, ownerID, invoiceID)
		if err != nil {
			return lookupErr("invoice", err)
		}
		if invoice.StoredStatus() != billing.StatusDraft {
			return conflictf("only draft invoices can be deleted, %s is %s", invoice.Number, invoice.Status)
		}
		if err := s.invoiceRepo.Delete(txCtx, ownerID, invoiceID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionDeleteInvoice, invoice.ID.String(), invoice.Number, nil)
	s.refreshStats(ctx, ownerID, invoice.ClientID)
	s.events.Publish(ownerID, EventInvoiceDeleted, map[string]string{"id": invoice.ID.String(), "number": invoice.Number})
	return nil
}

// --- Status transitions ---

func (s *invoiceService) SendInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	return s.transition(ctx, ownerID, id, billing.StatusPending, model.ActionSendInvoice, func(_ context.Context, inv *model.Invoice, now time.Time) error {
		if len(inv.Items) == 0 {
			return &billing.ValidationError{Field: "items", Message: "an invoice needs at least one item before it is sent"}
		}
		inv.SentAt = &now
		return nil
	})
}

func (s *invoiceService) MarkPaid(ctx context.Context, ownerID uuid.UUID, id string, req MarkPaidRequest) (InvoiceResponse, error) {
	if err := validateStruct(req); err != nil {
		return InvoiceResponse{}, err
	}
	return s.transition(ctx, ownerID, id, billing.StatusPaid, model.ActionMarkInvoicePaid, func(txCtx context.Context, inv *model.Invoice, now time.Time) error {
		paidAt := today(now)
		if req.PaidAt != "" {
			var err error
			if paidAt, err = parseDate("paid_at", req.PaidAt); err != nil {
				return err
			}
		}
		inv.PaidAt = &paidAt

		// Settle whatever is still open so payments always add up to the total.
		balance := inv.BalanceDue()
		if !balance.IsPositive() {
			return nil
		}
		method := req.Method
		if method == "" {
			method = model.PaymentMethodOther
		}
		payment := &model.Payment{
			OwnerID:   inv.OwnerID,
			InvoiceID: inv.ID,
			Amount:    balance,
			Method:    method,
			Reference: req.Reference,
			PaidAt:    paidAt,
			Notes:     "settled when marked as paid",
		}
		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to record settling payment: %w", err)
		}
		inv.Payments = append(inv.Payments, *payment)
		return nil
	})
}

func (s *invoiceService) CancelInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	return s.transition(ctx, ownerID, id, billing.StatusCancelled, model.ActionCancelInvoice, func(_ context.Context, inv *model.Invoice, now time.Time) error {
		inv.CancelledAt = &now
		return nil
	})
}

type transitionHook func(txCtx context.Context, inv *model.Invoice, now time.Time) error

func (s *invoiceService) transition(ctx context.Context, ownerID uuid.UUID, id string, to billing.Status, action string, hook transitionHook) (InvoiceResponse, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var invoice *model.Invoice
	var from billing.Status
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, ownerID, invoiceID)
		if err != nil {
			return lookupErr("invoice", err)
		}

		from = invoice.StoredStatus()
		next, err := billing.Transition(from, to)
		if err != nil {
			return err
		}

		now := s.now()
		if hook != nil {
			if err := hook(txCtx, invoice, now); err != nil {
				return err
			}
		}
		invoice.Status = string(next)
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice status: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, action, invoice.ID.String(), invoice.Number, map[string]string{
		"from": string(from),
		"to":   string(to),
	})
	s.log.Info().Str("invoice", invoice.Number).Str("from", string(from)).Str("to", string(to)).Msg("invoice status changed")
	return s.afterChange(ctx, ownerID, invoice.ID, invoice.ClientID, EventInvoiceStatusChanged)
}

// DuplicateInvoice copies items, tax and notes into a new draft dated today.
func (s *invoiceService) DuplicateInvoice(ctx context.Context, ownerID uuid.UUID, id string) (InvoiceResponse, error) {
	source, err := s.find(ctx, ownerID, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	now := s.now()
	issue := today(now)
	term := source.DueDate.Sub(source.IssueDate)
	copyItems := make([]model.InvoiceItem, 0, len(source.Items))
	for i, it := range source.Items {
		copyItems = append(copyItems, model.InvoiceItem{
			Position:    i,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}

	invoice := &model.Invoice{
		OwnerID:   ownerID,
		ClientID:  source.ClientID,
		IssueDate: issue,
		DueDate:   issue.Add(term),
		Currency:  source.Currency,
		TaxType:   source.TaxType,
		TaxRate:   source.TaxRate,
		Status:    string(billing.StatusDraft),
		Notes:     source.Notes,
		Terms:     source.Terms,
		Items:     copyItems,
	}
	invoice.Recompute()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.generateNumber(txCtx, ownerID, now)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}
		invoice.Number = number
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionDuplicateInvoice, invoice.ID.String(), invoice.Number, map[string]string{"source": source.Number})
	return s.afterChange(ctx, ownerID, invoice.ID, invoice.ClientID, EventInvoiceCreated)
}

// --- Preview / export ---

func (s *invoiceService) PreviewTotals(ctx context.Context, ownerID uuid.UUID, req PreviewTotalsRequest) (TotalsPreviewResponse, error) {
	if err := validateStruct(req); err != nil {
		return TotalsPreviewResponse{}, err
	}

	country := req.Country
	if country == "" && req.ClientID != "" {
		clientID, err := parseID("client_id", req.ClientID)
		if err != nil {
			return TotalsPreviewResponse{}, err
		}
		client, err := s.clientRepo.FindByID(ctx, ownerID, clientID)
		if err != nil {
			return TotalsPreviewResponse{}, lookupErr("client", err)
		}
		country = client.Country
	}

	items, err := s.buildItems(ctx, ownerID, req.Items)
	if err != nil {
		return TotalsPreviewResponse{}, err
	}
	tax, err := s.resolveTax(req.TaxRate, req.TaxType, country)
	if err != nil {
		return TotalsPreviewResponse{}, err
	}

	inv := model.Invoice{Items: items, TaxRate: tax.Rate, TaxType: string(tax.Type)}
	totals := inv.Recompute()

	lines := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, billing.Format(it.Amount))
	}
	return TotalsPreviewResponse{
		TaxType: string(tax.Type),
		TaxRate: tax.Rate.String(),
		Totals:  totals,
		Lines:   lines,
	}, nil
}

// RenderPDF writes the invoice PDF to w and returns the suggested file name.
func (s *invoiceService) RenderPDF(ctx context.Context, ownerID uuid.UUID, id string, w io.Writer) (string, error) {
	invoice, err := s.find(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if err := export.RenderInvoicePDF(w, invoice, s.now()); err != nil {
		return "", fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return invoice.Number + ".pdf", nil
}

// --- Helpers ---

func (s *invoiceService) find(ctx context.Context, ownerID uuid.UUID, id string) (*model.Invoice, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, lookupErr("invoice", err)
	}
	return invoice, nil
}

// buildItems validates item requests, prefilling blanks from the product catalog.
func (s *invoiceService) buildItems(ctx context.Context, ownerID uuid.UUID, reqs []InvoiceItemRequest) ([]model.InvoiceItem, error) {
	items := make([]model.InvoiceItem, 0, len(reqs))
	lines := make([]billing.LineItem, 0, len(reqs))

	for i, r := range reqs {
		item := model.InvoiceItem{
			Position:    i,
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			TaxRate:     r.TaxRate,
		}
		if r.UnitPrice != nil {
			item.UnitPrice = *r.UnitPrice
		}

		if r.ProductID != "" {
			productID, err := parseID(fmt.Sprintf("items[%d].product_id", i), r.ProductID)
			if err != nil {
				return nil, err
			}
			product, err := s.productRepo.FindByID(ctx, ownerID, productID)
			if err != nil {
				return nil, lookupErr("product", err)
			}
			if !product.IsActive {
				return nil, conflictf("product %s is inactive", product.Name)
			}
			item.ProductID = &product.ID
			if item.Description == "" {
				item.Description = product.Name
			}
			if r.UnitPrice == nil {
				item.UnitPrice = product.Price
			}
			if r.TaxRate == nil {
				item.TaxRate = product.TaxRate
			}
		} else if r.UnitPrice == nil {
			item.UnitPrice = decimal.Zero
		}

		items = append(items, item)
		lines = append(lines, billing.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		})
	}

	if err := billing.ValidateItems(lines); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *invoiceService) resolveTax(rate *decimal.Decimal, taxType, clientCountry string) (billing.TaxInfo, error) {
	var explicit *billing.TaxInfo
	if rate != nil {
		explicit = &billing.TaxInfo{Rate: *rate, Type: billing.NormalizeTaxType(taxType)}
	}
	country := clientCountry
	if country == "" {
		country = s.defaultCountry
	}
	tax := billing.ResolveTaxInfo(explicit, country)
	if rate == nil && taxType != "" {
		tax.Type = billing.NormalizeTaxType(taxType)
	}
	if err := tax.Validate(); err != nil {
		return billing.TaxInfo{}, err
	}
	return tax, nil
}

func (s *invoiceService) generateNumber(ctx context.Context, ownerID uuid.UUID, now time.Time) (string, error) {
	prefix := "INV-" + now.Format("20060102") + "-"
	count, err := s.invoiceRepo.CountByPrefix(ctx, ownerID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// checkTotals logs stored totals that drifted from a fresh computation.
func (s *invoiceService) checkTotals(inv *model.Invoice) {
	fresh := billing.BuildTotals(inv.LineItems(), inv.TaxInfo())
	if !fresh.Matches(inv.Subtotal, inv.TaxAmount, inv.Total) {
		s.log.Error().
			Str("invoice", inv.Number).
			Str("stored_total", billing.Format(inv.Total)).
			Str("computed_total", billing.Format(fresh.Total())).
			Msg("stored invoice totals do not match line items")
	}
}

// afterChange refreshes the client cache, reloads the invoice and notifies listeners.
func (s *invoiceService) afterChange(ctx context.Context, ownerID, invoiceID, clientID uuid.UUID, event string) (InvoiceResponse, error) {
	s.refreshStats(ctx, ownerID, clientID)

	reloaded, err := s.invoiceRepo.FindByID(ctx, ownerID, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	resp := toInvoiceResponse(reloaded, s.now())
	s.events.Publish(ownerID, event, resp)
	return resp, nil
}

func (s *invoiceService) refreshStats(ctx context.Context, ownerID, clientID uuid.UUID) {
	if s.stats == nil {
		return
	}
	if _, err := s.stats.RefreshClient(ctx, ownerID, clientID); err != nil {
		s.log.Warn().Err(err).Str("client_id", clientID.String()).Msg("failed to refresh client stats")
	}
}

func currencyOrDefault(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD"
	}
	return c
}

// --- Mapping ---

func toInvoiceResponse(inv *model.Invoice, now time.Time) InvoiceResponse {
	effective := inv.EffectiveStatus(now)
	resp := InvoiceResponse{
		ID:           inv.ID.String(),
		Number:       inv.Number,
		ClientID:     inv.ClientID.String(),
		IssueDate:    formatDate(inv.IssueDate),
		DueDate:      formatDate(inv.DueDate),
		Currency:     inv.Currency,
		TaxType:      inv.TaxType,
		TaxRate:      inv.TaxRate.String(),
		TaxMode:      billing.ModeFor(inv.LineItems()).String(),
		Subtotal:     billing.Format(inv.Subtotal),
		TaxAmount:    billing.Format(inv.TaxAmount),
		Total:        billing.Format(inv.Total),
		AmountPaid:   billing.Format(inv.AmountPaid()),
		BalanceDue:   billing.Format(inv.BalanceDue()),
		Status:       string(effective),
		StoredStatus: inv.Status,
		IsOverdue:    effective == billing.StatusOverdue,
		Editable:     inv.StoredStatus().IsEditable(),
		Notes:        inv.Notes,
		Terms:        inv.Terms,
		Items:        make([]InvoiceItemResponse, 0, len(inv.Items)),
		Payments:     make([]PaymentResponse, 0, len(inv.Payments)),
		CreatedAt:    inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    inv.UpdatedAt.Format(time.RFC3339),
	}
	if inv.Client != nil {
		resp.ClientName = inv.Client.Name
	}
	resp.SentAt = formatOptional(inv.SentAt, time.RFC3339)
	resp.PaidAt = formatOptional(inv.PaidAt, dateLayout)
	resp.CancelledAt = formatOptional(inv.CancelledAt, time.RFC3339)

	for _, it := range inv.Items {
		item := InvoiceItemResponse{
			ID:          it.ID.String(),
			Position:    it.Position,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   billing.Format(it.UnitPrice),
			Amount:      billing.Format(it.Amount),
		}
		if it.ProductID != nil {
			pid := it.ProductID.String()
			item.ProductID = &pid
		}
		if it.TaxRate != nil {
			r := it.TaxRate.String()
			item.TaxRate = &r
		}
		resp.Items = append(resp.Items, item)
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

func formatOptional(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}
