package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientStatus enum constants
const (
	ClientStatusActive   = "active"
	ClientStatusArchived = "archived"
)

// Client is a customer that invoices are addressed to.
// TotalInvoices and TotalSpent are a rebuildable cache of the client's invoices.
type Client struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	Email            string          `gorm:"type:varchar(255)" json:"email"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	Address          string          `gorm:"type:text" json:"address"`
	CompanyName      string          `gorm:"type:varchar(255)" json:"company_name"`
	TaxID            string          `gorm:"type:varchar(50)" json:"tax_id"`
	Country          string          `gorm:"type:varchar(2)" json:"country"`
	Status           string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	TotalInvoices    int             `gorm:"not null;default:0" json:"total_invoices"`
	TotalSpent       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_spent"`
	StatsRefreshedAt *time.Time      `json:"stats_refreshed_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
