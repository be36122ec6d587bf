package repository

import (
	"context"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientListFilter struct {
	Search string
	Status string
	Page   int
	Limit  int
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	Update(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ClientListFilter) ([]model.Client, int64, error)
	ListIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	UpdateStats(ctx context.Context, id uuid.UUID, stats billing.ClientStats, at time.Time) error
	ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Create(client).Error
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	return GetDB(ctx, r.db).Save(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := GetDB(ctx, r.db).Scopes(ownedBy(ownerID)).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, ownerID uuid.UUID, filter ClientListFilter) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Client{}).Scopes(ownedBy(ownerID))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR company_name ILIKE ? OR email ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("name ASC").Scopes(paginate(filter.Page, filter.Limit)).Find(&clients).Error; err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *clientRepository) ListIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Client{}).Scopes(ownedBy(ownerID)).Pluck("id", &ids).Error
	return ids, err
}

func (r *clientRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats billing.ClientStats, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Client{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_invoices":     stats.TotalInvoices,
		"total_spent":        stats.TotalSpent,
		"stats_refreshed_at": at,
	}).Error
}

func (r *clientRepository) ListOwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Client{}).Distinct("owner_id").Pluck("owner_id", &ids).Error
	return ids, err
}
