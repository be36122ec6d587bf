package repository

import (
	"context"
	"time"

	"invoicehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceListFilter narrows invoice listings. Effective status filtering is
// translated by the service into stored statuses plus due date bounds.
type InvoiceListFilter struct {
	ClientID       *uuid.UUID
	StoredStatuses []string
	DueBefore      *time.Time
	DueOnOrAfter   *time.Time
	IssuedFrom     *time.Time
	IssuedTo       *time.Time
	Search         string
	Page           int
	Limit          int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error)
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]model.Invoice, error)
	ListByClient(ctx context.Context, ownerID, clientID uuid.UUID) ([]model.Invoice, error)
	CountByPrefix(ctx context.Context, ownerID uuid.UUID, prefix string) (int64, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func preloadPayments(db *gorm.DB) *gorm.DB {
	return db.Order("paid_at ASC, created_at ASC")
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("Client", "Payments").Create(invoice).Error
}

// Update saves the invoice columns only; rows are replaced through ReplaceItems.
func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(invoice).Error
}

func (r *invoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].InvoiceID = invoiceID
	}
	return db.Create(&items).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", id).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	res := db.Scopes(ownedBy(ownerID)).Where("id = ?", id).Delete(&model.Invoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).Scopes(ownedBy(ownerID)).
		Preload("Items", preloadItems).
		Preload("Payments", preloadPayments).
		Preload("Client").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(ownedBy(ownerID)).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	db := GetDB(ctx, r.db)
	if err := db.Scopes(preloadItems).Where("invoice_id = ?", id).Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	if err := db.Scopes(preloadPayments).Where("invoice_id = ?", id).Find(&invoice.Payments).Error; err != nil {
		return nil, err
	}
	var client model.Client
	if err := db.First(&client, "id = ?", invoice.ClientID).Error; err == nil {
		invoice.Client = &client
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Invoice{}).Scopes(ownedBy(ownerID))
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if len(filter.StoredStatuses) > 0 {
		query = query.Where("status IN ?", filter.StoredStatuses)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.DueOnOrAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueOnOrAfter)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issue_date >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issue_date <= ?", *filter.IssuedTo)
	}
	if filter.Search != "" {
		query = query.Where("number ILIKE ? OR notes ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Client").Preload("Items", preloadItems).Preload("Payments", preloadPayments).
		Order("issue_date DESC, number DESC").
		Scopes(paginate(filter.Page, filter.Limit)).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).Scopes(ownedBy(ownerID)).Preload("Client").
		Order("issue_date ASC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListByClient(ctx context.Context, ownerID, clientID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := GetDB(ctx, r.db).Scopes(ownedBy(ownerID)).Where("client_id = ?", clientID).
		Order("issue_date DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) CountByPrefix(ctx context.Context, ownerID uuid.UUID, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).Scopes(ownedBy(ownerID)).
		Where("number LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}
