package service

import "github.com/google/uuid"

const (
	EventInvoiceCreated       = "invoice.created"
	EventInvoiceUpdated       = "invoice.updated"
	EventInvoiceStatusChanged = "invoice.status_changed"
	EventInvoiceDeleted       = "invoice.deleted"
	EventPaymentRecorded      = "payment.recorded"
	EventPaymentDeleted       = "payment.deleted"
	EventClientStatsRebuilt   = "client.stats_rebuilt"
)

// EventPublisher pushes live updates to an owner's connected sessions.
type EventPublisher interface {
	Publish(ownerID uuid.UUID, event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(uuid.UUID, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
