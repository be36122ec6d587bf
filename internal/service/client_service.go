package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
)

// --- Client DTOs ---

type CreateClientRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address"`
	CompanyName string `json:"company_name" validate:"max=255"`
	TaxID       string `json:"tax_id" validate:"max=50"`
	Country     string `json:"country" validate:"omitempty,len=2"`
}

type UpdateClientRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=255"`
	TaxID       *string `json:"tax_id" validate:"omitempty,max=50"`
	Country     *string `json:"country"`
}

type ClientResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	CompanyName   string  `json:"company_name"`
	TaxID         string  `json:"tax_id"`
	Country       string  `json:"country"`
	Status        string  `json:"status"`
	TotalInvoices int     `json:"total_invoices"`
	TotalSpent    string  `json:"total_spent"`
	StatsAsOf     *string `json:"stats_as_of"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ClientDetailResponse adds figures computed from the client's invoices at request time.
type ClientDetailResponse struct {
	ClientResponse
	InvoiceCount int    `json:"invoice_count"`
	Invoiced     string `json:"invoiced"`
	Paid         string `json:"paid"`
	Outstanding  string `json:"outstanding"`
	OverdueCount int    `json:"overdue_count"`
}

// --- Interface ---

type ClientService interface {
	CreateClient(ctx context.Context, ownerID uuid.UUID, req CreateClientRequest) (ClientResponse, error)
	GetClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientDetailResponse, error)
	ListClients(ctx context.Context, ownerID uuid.UUID, search, status string, page, limit int) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, ownerID uuid.UUID, id string, req UpdateClientRequest) (ClientResponse, error)
	ArchiveClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error)
	RestoreClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error)
}

// --- Implementation ---

type clientService struct {
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	now         func() time.Time
}

func NewClientService(
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		now:         time.Now,
	}
}

func (s *clientService) CreateClient(ctx context.Context, ownerID uuid.UUID, req CreateClientRequest) (ClientResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return ClientResponse{}, err
	}

	client := &model.Client{
		OwnerID:     ownerID,
		Name:        req.Name,
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Address:     req.Address,
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		Country:     strings.ToUpper(req.Country),
		Status:      model.ClientStatusActive,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return ClientResponse{}, fmt.Errorf("failed to create client: %w", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionCreateClient, client.ID.String(), client.Name, req)
	return toClientResponse(*client), nil
}

func (s *clientService) GetClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientDetailResponse, error) {
	client, err := s.find(ctx, ownerID, id)
	if err != nil {
		return ClientDetailResponse{}, err
	}

	invoices, err := s.invoiceRepo.ListByClient(ctx, ownerID, client.ID)
	if err != nil {
		return ClientDetailResponse{}, fmt.Errorf("failed to fetch client invoices: %w", err)
	}
	summary := billing.Summarize(records(invoices), s.now())

	return ClientDetailResponse{
		ClientResponse: toClientResponse(*client),
		InvoiceCount:   summary.InvoiceCount,
		Invoiced:       billing.Format(summary.Invoiced),
		Paid:           billing.Format(summary.Paid),
		Outstanding:    billing.Format(summary.Outstanding),
		OverdueCount:   summary.OverdueCount,
	}, nil
}

func (s *clientService) ListClients(ctx context.Context, ownerID uuid.UUID, search, status string, page, limit int) ([]ClientResponse, int64, error) {
	if status != "" && status != model.ClientStatusActive && status != model.ClientStatusArchived {
		return nil, 0, &billing.ValidationError{Field: "status", Message: "must be one of: active, archived"}
	}

	clients, total, err := s.clientRepo.List(ctx, ownerID, repository.ClientListFilter{
		Search: search,
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}

	res := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		res = append(res, toClientResponse(c))
	}
	return res, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, ownerID uuid.UUID, id string, req UpdateClientRequest) (ClientResponse, error) {
	if err := validateStruct(req); err != nil {
		return ClientResponse{}, err
	}
	client, err := s.find(ctx, ownerID, id)
	if err != nil {
		return ClientResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ClientResponse{}, &billing.ValidationError{Field: "name", Message: "must not be empty"}
		}
		client.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if err := validate.Var(email, "email"); err != nil {
				return ClientResponse{}, &billing.ValidationError{Field: "email", Message: "must be a valid email address"}
			}
		}
		client.Email = email
	}
	if req.Country != nil {
		country := strings.ToUpper(strings.TrimSpace(*req.Country))
		if country != "" && len(country) != 2 {
			return ClientResponse{}, &billing.ValidationError{Field: "country", Message: "must be exactly 2 characters"}
		}
		client.Country = country
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.CompanyName != nil {
		client.CompanyName = *req.CompanyName
	}
	if req.TaxID != nil {
		client.TaxID = *req.TaxID
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return ClientResponse{}, fmt.Errorf("failed to update client: %w", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionUpdateClient, client.ID.String(), client.Name, req)
	return toClientResponse(*client), nil
}

func (s *clientService) ArchiveClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error) {
	return s.setStatus(ctx, ownerID, id, model.ClientStatusArchived, model.ActionArchiveClient)
}

func (s *clientService) RestoreClient(ctx context.Context, ownerID uuid.UUID, id string) (ClientResponse, error) {
	return s.setStatus(ctx, ownerID, id, model.ClientStatusActive, model.ActionRestoreClient)
}

func (s *clientService) setStatus(ctx context.Context, ownerID uuid.UUID, id, status, action string) (ClientResponse, error) {
	client, err := s.find(ctx, ownerID, id)
	if err != nil {
		return ClientResponse{}, err
	}
	if client.Status == status {
		return toClientResponse(*client), nil
	}

	client.Status = status
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return ClientResponse{}, fmt.Errorf("failed to update client: %w", err)
	}

	writeAudit(ctx, s.auditRepo, ownerID, action, client.ID.String(), client.Name, map[string]string{"status": status})
	return toClientResponse(*client), nil
}

func (s *clientService) find(ctx context.Context, ownerID uuid.UUID, id string) (*model.Client, error) {
	clientID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, ownerID, clientID)
	if err != nil {
		return nil, lookupErr("client", err)
	}
	return client, nil
}

// --- Response mappers ---

func toClientResponse(c model.Client) ClientResponse {
	resp := ClientResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		CompanyName:   c.CompanyName,
		TaxID:         c.TaxID,
		Country:       c.Country,
		Status:        c.Status,
		TotalInvoices: c.TotalInvoices,
		TotalSpent:    billing.Format(c.TotalSpent),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339),
	}
	if c.StatsRefreshedAt != nil {
		s := c.StatsRefreshedAt.Format(time.RFC3339)
		resp.StatsAsOf = &s
	}
	return resp
}
