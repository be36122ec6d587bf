package model

import (
	"time"

	"invoicehub/internal/billing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is a billing document addressed to a client.
// Status holds the stored status only; overdue is derived on read.
type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_owner_number" json:"owner_id"`
	Number      string          `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoice_owner_number" json:"number"`
	ClientID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Client      *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	IssueDate   time.Time       `gorm:"type:date;not null;index" json:"issue_date"`
	DueDate     time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	TaxType     string          `gorm:"type:varchar(20);not null;default:'vat'" json:"tax_type"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,3);not null;default:0" json:"tax_rate"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
	Status      string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Terms       string          `gorm:"type:text" json:"terms"`
	SentAt      *time.Time      `json:"sent_at"`
	PaidAt      *time.Time      `json:"paid_at"`
	CancelledAt *time.Time      `json:"cancelled_at"`
	Items       []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Payments    []Payment       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceItem is one row of an invoice
type InvoiceItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int              `gorm:"not null;default:0" json:"position"`
	ProductID   *uuid.UUID       `gorm:"type:uuid" json:"product_id"`
	Description string           `gorm:"type:text;not null" json:"description"`
	Quantity    int              `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	TaxRate     *decimal.Decimal `gorm:"type:decimal(7,3)" json:"tax_rate"`
	Amount      decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
}

// LineItems converts the stored rows for the billing engine.
func (inv *Invoice) LineItems() []billing.LineItem {
	items := make([]billing.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, billing.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	return items
}

// TaxInfo returns the invoice-level tax setting.
func (inv *Invoice) TaxInfo() billing.TaxInfo {
	return billing.TaxInfo{Rate: inv.TaxRate, Type: billing.NormalizeTaxType(inv.TaxType)}
}

// ApplyTotals writes computed totals onto the invoice and its rows.
// It is the only place the money columns are assigned.
func (inv *Invoice) ApplyTotals(t billing.Totals) {
	for i, li := range inv.LineItems() {
		inv.Items[i].Amount = li.Amount()
	}
	inv.Subtotal = t.Subtotal()
	inv.TaxAmount = t.TaxAmount()
	inv.Total = t.Total()
}

// Recompute rebuilds totals from the current rows and tax setting.
func (inv *Invoice) Recompute() billing.Totals {
	t := billing.BuildTotals(inv.LineItems(), inv.TaxInfo())
	inv.ApplyTotals(t)
	return t
}

// StoredStatus returns the persisted status as a billing status.
func (inv *Invoice) StoredStatus() billing.Status {
	return billing.Status(inv.Status)
}

// EffectiveStatus resolves the displayed status at now.
func (inv *Invoice) EffectiveStatus(now time.Time) billing.Status {
	return billing.EffectiveStatus(inv.StoredStatus(), inv.DueDate, now)
}

// AmountPaid sums recorded payments. Payments must be preloaded.
func (inv *Invoice) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range inv.Payments {
		paid = billing.Add(paid, p.Amount)
	}
	return paid
}

// BalanceDue is total minus payments, never below zero.
func (inv *Invoice) BalanceDue() decimal.Decimal {
	if inv.StoredStatus() == billing.StatusCancelled {
		return decimal.Zero
	}
	due := billing.Round(inv.Total.Sub(inv.AmountPaid()))
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Record projects the invoice for the reporting reducers.
func (inv *Invoice) Record() billing.Record {
	r := billing.Record{
		InvoiceID: inv.ID.String(),
		Number:    inv.Number,
		ClientID:  inv.ClientID.String(),
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Status:    inv.StoredStatus(),
		Total:     inv.Total,
	}
	if inv.Client != nil {
		r.ClientName = inv.Client.Name
	}
	return r
}
