package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
	PaymentMethodCheck        = "check"
	PaymentMethodOther        = "other"
)

// Payment records money received against an invoice
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null;default:'bank_transfer'" json:"method"`
	Reference string          `gorm:"type:varchar(100)" json:"reference"`
	PaidAt    time.Time       `gorm:"type:date;not null" json:"paid_at"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
}
