package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateClient  = "CREATE_CLIENT"
	ActionUpdateClient  = "UPDATE_CLIENT"
	ActionArchiveClient = "ARCHIVE_CLIENT"
	ActionRestoreClient = "RESTORE_CLIENT"

	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"

	ActionCreateInvoice    = "CREATE_INVOICE"
	ActionUpdateInvoice    = "UPDATE_INVOICE"
	ActionDeleteInvoice    = "DELETE_INVOICE"
	ActionSendInvoice      = "SEND_INVOICE"
	ActionMarkInvoicePaid  = "MARK_INVOICE_PAID"
	ActionCancelInvoice    = "CANCEL_INVOICE"
	ActionDuplicateInvoice = "DUPLICATE_INVOICE"

	ActionRecordPayment = "RECORD_PAYMENT"
	ActionDeletePayment = "DELETE_PAYMENT"

	ActionRebuildClientStats = "REBUILD_CLIENT_STATS"
)

// AuditLog tracks who changed what and when. OwnerID is nil for scheduled jobs.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID    *uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
