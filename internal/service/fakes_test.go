package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"invoicehub/internal/billing"
	"invoicehub/internal/model"
	"invoicehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- In-memory stores ---

// memStore backs every fake repository so lookups see each other's writes.
type memStore struct {
	mu       sync.Mutex
	clients  map[uuid.UUID]model.Client
	products map[uuid.UUID]model.Product
	invoices map[uuid.UUID]model.Invoice
	payments map[uuid.UUID]model.Payment
	audits   []model.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		clients:  map[uuid.UUID]model.Client{},
		products: map[uuid.UUID]model.Product{},
		invoices: map[uuid.UUID]model.Invoice{},
		payments: map[uuid.UUID]model.Payment{},
	}
}

func (s *memStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

// load returns a detached copy with items, payments and client attached.
func (s *memStore) load(inv model.Invoice) *model.Invoice {
	out := inv
	out.Items = append([]model.InvoiceItem(nil), inv.Items...)
	out.Payments = nil
	for _, p := range s.payments {
		if p.InvoiceID == inv.ID {
			out.Payments = append(out.Payments, p)
		}
	}
	sort.Slice(out.Payments, func(i, j int) bool { return out.Payments[i].PaidAt.Before(out.Payments[j].PaidAt) })
	if c, ok := s.clients[inv.ClientID]; ok {
		out.Client = &c
	}
	return &out
}

type memInvoiceRepo struct{ s *memStore }

func (r memInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		inv.Items[i].ID = uuid.New()
		inv.Items[i].InvoiceID = inv.ID
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	stored := *inv
	stored.Items = append([]model.InvoiceItem(nil), inv.Items...)
	stored.Client, stored.Payments = nil, nil
	r.s.invoices[inv.ID] = stored
	return nil
}

func (r memInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.invoices[inv.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *inv
	stored.Items = existing.Items
	stored.Client, stored.Payments = nil, nil
	stored.UpdatedAt = time.Now()
	r.s.invoices[inv.ID] = stored
	return nil
}

func (r memInvoiceRepo) ReplaceItems(_ context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[invoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].InvoiceID = invoiceID
	}
	inv.Items = append([]model.InvoiceItem(nil), items...)
	r.s.invoices[invoiceID] = inv
	return nil
}

func (r memInvoiceRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.invoices, id)
	return nil
}

func (r memInvoiceRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return r.s.load(inv), nil
}

func (r memInvoiceRepo) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, ownerID, id)
}

func (r memInvoiceRepo) List(_ context.Context, ownerID uuid.UUID, f repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Invoice
	for _, inv := range r.s.invoices {
		if inv.OwnerID != ownerID {
			continue
		}
		if f.ClientID != nil && inv.ClientID != *f.ClientID {
			continue
		}
		if len(f.StoredStatuses) > 0 && !contains(f.StoredStatuses, inv.Status) {
			continue
		}
		if f.DueBefore != nil && !inv.DueDate.Before(*f.DueBefore) {
			continue
		}
		if f.DueOnOrAfter != nil && inv.DueDate.Before(*f.DueOnOrAfter) {
			continue
		}
		if f.IssuedFrom != nil && inv.IssueDate.Before(*f.IssuedFrom) {
			continue
		}
		if f.IssuedTo != nil && inv.IssueDate.After(*f.IssuedTo) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(inv.Number), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *r.s.load(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, int64(len(out)), nil
}

func (r memInvoiceRepo) ListAll(_ context.Context, ownerID uuid.UUID) ([]model.Invoice, error) {
	return r.listWhere(func(inv model.Invoice) bool { return inv.OwnerID == ownerID }), nil
}

func (r memInvoiceRepo) ListByClient(_ context.Context, ownerID, clientID uuid.UUID) ([]model.Invoice, error) {
	return r.listWhere(func(inv model.Invoice) bool { return inv.OwnerID == ownerID && inv.ClientID == clientID }), nil
}

func (r memInvoiceRepo) listWhere(keep func(model.Invoice) bool) []model.Invoice {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Invoice
	for _, inv := range r.s.invoices {
		if keep(inv) {
			out = append(out, *r.s.load(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.Before(out[j].IssueDate) })
	return out
}

func (r memInvoiceRepo) CountByPrefix(_ context.Context, ownerID uuid.UUID, prefix string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, inv := range r.s.invoices {
		if inv.OwnerID == ownerID && strings.HasPrefix(inv.Number, prefix) {
			n++
		}
	}
	return n, nil
}

type memClientRepo struct{ s *memStore }

func (r memClientRepo) Create(_ context.Context, c *model.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClientRepo) Update(_ context.Context, c *model.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r memClientRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok || c.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r memClientRepo) List(_ context.Context, ownerID uuid.UUID, f repository.ClientListFilter) ([]model.Client, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Client
	for _, c := range r.s.clients {
		if c.OwnerID != ownerID || (f.Status != "" && c.Status != f.Status) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r memClientRepo) ListIDs(_ context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uuid.UUID
	for id, c := range r.s.clients {
		if c.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r memClientRepo) UpdateStats(_ context.Context, id uuid.UUID, stats billing.ClientStats, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.TotalInvoices = stats.TotalInvoices
	c.TotalSpent = stats.TotalSpent
	c.StatsRefreshedAt = &at
	r.s.clients[id] = c
	return nil
}

func (r memClientRepo) ListOwnerIDs(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, c := range r.s.clients {
		if !seen[c.OwnerID] {
			seen[c.OwnerID] = true
			ids = append(ids, c.OwnerID)
		}
	}
	return ids, nil
}

type memProductRepo struct{ s *memStore }

func (r memProductRepo) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r memProductRepo) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r memProductRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r memProductRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memProductRepo) List(_ context.Context, ownerID uuid.UUID, search string, activeOnly bool, _, _ int) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.products {
		if p.OwnerID != ownerID || (activeOnly && !p.IsActive) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPaymentRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || p.OwnerID != ownerID {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.payments, id)
	return nil
}

func (r memPaymentRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok || p.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memPaymentRepo) ListByInvoice(_ context.Context, ownerID, invoiceID uuid.UUID) ([]model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Payment
	for _, p := range r.s.payments {
		if p.OwnerID == ownerID && p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memAuditRepo struct{ s *memStore }

func (r memAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

func (r memAuditRepo) List(_ context.Context, ownerID uuid.UUID, action string, _, _ int) ([]model.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.AuditLog
	for _, a := range r.s.audits {
		if a.OwnerID != nil && *a.OwnerID == ownerID && (action == "" || a.Action == action) {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

// passthroughTx runs fn directly; the in-memory stores have no rollback.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type publishedEvent struct {
	Owner uuid.UUID
	Event string
	Data  interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ownerID uuid.UUID, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Owner: ownerID, Event: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// --- Harness ---

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type harness struct {
	store    *memStore
	events   *recordingPublisher
	owner    uuid.UUID
	clients  ClientService
	products ProductService
	invoices InvoiceService
	payments PaymentService
	stats    ClientStatsService
	reports  ReportService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	events := &recordingPublisher{}
	clock := func() time.Time { return testNow }

	invoiceRepo := memInvoiceRepo{store}
	clientRepo := memClientRepo{store}
	productRepo := memProductRepo{store}
	paymentRepo := memPaymentRepo{store}
	auditRepo := memAuditRepo{store}

	stats := NewClientStatsService(clientRepo, invoiceRepo, auditRepo, events).(*clientStatsService)
	stats.now = clock
	clients := NewClientService(clientRepo, invoiceRepo, auditRepo).(*clientService)
	clients.now = clock
	invoices := NewInvoiceService(invoiceRepo, clientRepo, productRepo, paymentRepo, auditRepo, passthroughTx{}, stats, events, "US").(*invoiceService)
	invoices.now = clock
	payments := NewPaymentService(invoiceRepo, paymentRepo, auditRepo, passthroughTx{}, stats, events).(*paymentService)
	payments.now = clock
	reports := NewReportService(invoiceRepo, ReportDefaults{Months: 6, TopClients: 5}).(*reportService)
	reports.now = clock

	return &harness{
		store:    store,
		events:   events,
		owner:    uuid.New(),
		clients:  clients,
		products: NewProductService(productRepo, auditRepo),
		invoices: invoices,
		payments: payments,
		stats:    stats,
		reports:  reports,
	}
}

func (h *harness) client(t *testing.T, name, country string) ClientResponse {
	t.Helper()
	c, err := h.clients.CreateClient(context.Background(), h.owner, CreateClientRequest{Name: name, Country: country})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func (h *harness) clientModel(t *testing.T, id string) model.Client {
	t.Helper()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.clients[uuid.MustParse(id)]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func item(desc string, qty int, price string) InvoiceItemRequest {
	return InvoiceItemRequest{Description: desc, Quantity: qty, UnitPrice: decPtr(price)}
}
