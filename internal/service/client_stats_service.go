package service

import (
	"context"
	"fmt"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/logger"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
)

// RebuildResult summarizes a client stats rebuild.
type RebuildResult struct {
	Owners  int `json:"owners"`
	Clients int `json:"clients"`
	Failed  int `json:"failed"`
}

// ClientStatsService keeps the denormalized client totals in sync with invoices.
// The cached values are always recomputed from the invoice table, never incremented.
type ClientStatsService interface {
	RefreshClient(ctx context.Context, ownerID, clientID uuid.UUID) (billing.ClientStats, error)
	RebuildOwner(ctx context.Context, ownerID uuid.UUID) (RebuildResult, error)
	RebuildAll(ctx context.Context) (RebuildResult, error)
}

type clientStatsService struct {
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	events      EventPublisher
	now         func() time.Time
}

func NewClientStatsService(
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	events EventPublisher,
) ClientStatsService {
	return &clientStatsService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		events:      publisherOrNop(events),
		now:         time.Now,
	}
}

func (s *clientStatsService) RefreshClient(ctx context.Context, ownerID, clientID uuid.UUID) (billing.ClientStats, error) {
	invoices, err := s.invoiceRepo.ListByClient(ctx, ownerID, clientID)
	if err != nil {
		return billing.ClientStats{}, fmt.Errorf("failed to fetch client invoices: %w", err)
	}

	now := s.now()
	stats := billing.ClientStatsFor(records(invoices), now)[clientID.String()]
	if err := s.clientRepo.UpdateStats(ctx, clientID, stats, now); err != nil {
		return billing.ClientStats{}, fmt.Errorf("failed to store client stats: %w", err)
	}
	return stats, nil
}

func (s *clientStatsService) RebuildOwner(ctx context.Context, ownerID uuid.UUID) (RebuildResult, error) {
	log := logger.WithOwner("client-stats", ownerID.String())

	invoices, err := s.invoiceRepo.ListAll(ctx, ownerID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("failed to fetch invoices: %w", err)
	}
	clientIDs, err := s.clientRepo.ListIDs(ctx, ownerID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("failed to fetch clients: %w", err)
	}

	now := s.now()
	stats := billing.ClientStatsFor(records(invoices), now)
	result := RebuildResult{Owners: 1}
	for _, id := range clientIDs {
		// Clients without invoices get zeroed stats.
		if err := s.clientRepo.UpdateStats(ctx, id, stats[id.String()], now); err != nil {
			log.Error().Err(err).Str("client_id", id.String()).Msg("failed to store client stats")
			result.Failed++
			continue
		}
		result.Clients++
	}

	writeAudit(ctx, s.auditRepo, ownerID, model.ActionRebuildClientStats, ownerID.String(), "client stats", result)
	s.events.Publish(ownerID, EventClientStatsRebuilt, result)
	log.Info().Int("clients", result.Clients).Int("failed", result.Failed).Msg("client stats rebuilt")
	return result, nil
}

func (s *clientStatsService) RebuildAll(ctx context.Context) (RebuildResult, error) {
	owners, err := s.clientRepo.ListOwnerIDs(ctx)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("failed to list owners: %w", err)
	}

	var total RebuildResult
	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := s.RebuildOwner(ctx, ownerID)
		if err != nil {
			log := logger.WithOwner("client-stats", ownerID.String())
			log.Error().Err(err).Msg("client stats rebuild failed")
			total.Failed++
			continue
		}
		total.Owners += res.Owners
		total.Clients += res.Clients
		total.Failed += res.Failed
	}
	return total, nil
}

func records(invoices []model.Invoice) []billing.Record {
	out := make([]billing.Record, 0, len(invoices))
	for i := range invoices {
		out = append(out, invoices[i].Record())
	}
	return out
}
