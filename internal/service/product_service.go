package service

import (
	"context"
	"fmt"
	"strings"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Type        string           `json:"type" validate:"omitempty,oneof=product service"`
	Unit        string           `json:"unit" validate:"max=30"`
	Price       decimal.Decimal  `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Type        *string          `json:"type" validate:"omitempty,oneof=product service"`
	Unit        *string          `json:"unit" validate:"omitempty,max=30"`
	Price       *decimal.Decimal `json:"price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	ClearTax    bool             `json:"clear_tax_rate"`
	IsActive    *bool            `json:"is_active"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Unit        string  `json:"unit"`
	Price       string  `json:"price"`
	TaxRate     *string `json:"tax_rate"`
	IsActive    bool    `json:"is_active"`
}

type ProductService interface {
	GetProducts(ctx context.Context, ownerID uuid.UUID, search string, activeOnly bool, page, limit int) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, ownerID uuid.UUID, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, ownerID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, ownerID uuid.UUID, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
}

func NewProductService(productRepo repository.ProductRepository, auditRepo repository.AuditRepository) ProductService {
	return &productService{productRepo: productRepo, auditRepo: auditRepo}
}

func (s *productService) GetProducts(ctx context.Context, ownerID uuid.UUID, search string, activeOnly bool, page, limit int) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, ownerID, search, activeOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, ownerID uuid.UUID, id string) (ProductResponse, error) {
	product, err := s.find(ctx, ownerID, id)
	if err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(*product), nil
}

func (s *productService) CreateProduct(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (ProductResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return ProductResponse{}, err
	}
	if err := validatePricing(req.Price, req.TaxRate); err != nil {
		return ProductResponse{}, err
	}

	product := model.Product{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Unit:        req.Unit,
		Price:       billing.Round(req.Price),
		TaxRate:     req.TaxRate,
		IsActive:    true,
	}
	if product.Type == "" {
		product.Type = model.ProductTypeService
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	return toProductResponse(product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, ownerID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error) {
	if err := validateStruct(req); err != nil {
		return ProductResponse{}, err
	}
	product, err := s.find(ctx, ownerID, id)
	if err != nil {
		return ProductResponse{}, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Type != nil {
		product.Type = *req.Type
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.TaxRate != nil {
		product.TaxRate = req.TaxRate
	}
	if req.ClearTax {
		product.TaxRate = nil
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := validatePricing(product.Price, product.TaxRate); err != nil {
		return ProductResponse{}, err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to update product: %w", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	return toProductResponse(*product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, ownerID uuid.UUID, id string) error {
	productID, err := parseID("id", id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, ownerID, productID); err != nil {
		return lookupErr("product", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionDeleteProduct, id, "", nil)
	return nil
}

func (s *productService) find(ctx context.Context, ownerID uuid.UUID, id string) (*model.Product, error) {
	productID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, ownerID, productID)
	if err != nil {
		return nil, lookupErr("product", err)
	}
	return product, nil
}

func validatePricing(price decimal.Decimal, taxRate *decimal.Decimal) error {
	var errs billing.ValidationErrors
	if price.IsNegative() {
		errs = append(errs, &billing.ValidationError{Field: "price", Message: "must not be negative"})
	} else if !billing.FitsScale(price, billing.Precision) {
		errs = append(errs, &billing.ValidationError{Field: "price", Message: "must have at most 2 decimal places"})
	}
	if taxRate != nil {
		if taxRate.IsNegative() {
			errs = append(errs, &billing.ValidationError{Field: "tax_rate", Message: "must not be negative"})
		} else if !billing.FitsScale(*taxRate, billing.RateScale) {
			errs = append(errs, &billing.ValidationError{Field: "tax_rate", Message: "must have at most 3 decimal places"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func toProductResponse(p model.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		Unit:        p.Unit,
		Price:       billing.Format(p.Price),
		IsActive:    p.IsActive,
	}
	if p.TaxRate != nil {
		r := p.TaxRate.String()
		resp.TaxRate = &r
	}
	return resp
}
