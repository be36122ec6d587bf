package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType enum constants
const (
	ProductTypeProduct = "product"
	ProductTypeService = "service"
)

// Product is a catalog entry used to prefill invoice line items
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Type        string           `gorm:"type:varchar(20);not null;default:'service'" json:"type"`
	Unit        string           `gorm:"type:varchar(30)" json:"unit"`
	Price       decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"price"`
	TaxRate     *decimal.Decimal `gorm:"type:decimal(7,3)" json:"tax_rate"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}
