package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

type fakeWarehouses map[uuid.UUID]*catalog.Warehouse

func (f fakeWarehouses) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.Warehouse, error) {
	w, ok := f[id]
	if !ok || w.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Warehouse")
	}
	return w, nil
}

type fakeMedicines map[uuid.UUID]*catalog.Medicine

func (f fakeMedicines) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*catalog.Medicine, error) {
	m, ok := f[id]
	if !ok || m.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Medicine")
	}
	return m, nil
}

func (f fakeMedicines) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Medicine, error) {
	var out []catalog.Medicine
	for _, id := range ids {
		if m, ok := f[id]; ok && m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// memLedger is an in-memory item and movement store
type memLedger struct {
	mu        sync.Mutex
	items     map[uuid.UUID]inventory.InventoryItem
	movements []inventory.StockMovement
}

func newMemLedger() *memLedger {
	return &memLedger{items: make(map[uuid.UUID]inventory.InventoryItem)}
}

func (l *memLedger) get(tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, ok := l.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Inventory item")
	}
	return &item, nil
}

func (l *memLedger) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	return l.get(tenantID, id)
}

func (l *memLedger) FindByIDForUpdate(_ context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	return l.get(tenantID, id)
}

func (l *memLedger) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	var out []inventory.InventoryItem
	for _, id := range ids {
		if item, err := l.get(tenantID, id); err == nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (l *memLedger) FindLowStock(context.Context, uuid.UUID) ([]inventory.InventoryItem, error) {
	return nil, nil
}

func (l *memLedger) Save(_ context.Context, item *inventory.InventoryItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[item.ID] = *item
	return nil
}

func (l *memLedger) SaveQuantity(ctx context.Context, item *inventory.InventoryItem) error {
	return l.Save(ctx, item)
}

func (l *memLedger) Create(_ context.Context, m *inventory.StockMovement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.movements = append(l.movements, *m)
	return nil
}

func (l *memLedger) FindForTenant(context.Context, uuid.UUID, shared.Filter) ([]inventory.StockMovement, error) {
	return l.movements, nil
}

func (l *memLedger) CountForTenant(context.Context, uuid.UUID, shared.Filter) (int64, error) {
	return int64(len(l.movements)), nil
}

func (l *memLedger) FindByItem(context.Context, uuid.UUID, uuid.UUID) ([]inventory.StockMovement, error) {
	return l.movements, nil
}

func (l *memLedger) FindByReference(context.Context, uuid.UUID, string, string) ([]inventory.StockMovement, error) {
	return l.movements, nil
}

type memSales struct {
	mu    sync.Mutex
	sales map[uuid.UUID]trade.Sale
}

func newMemSales() *memSales {
	return &memSales{sales: make(map[uuid.UUID]trade.Sale)}
}

func (r *memSales) Create(_ context.Context, sale *trade.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = *sale
	return nil
}

func (r *memSales) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale, ok := r.sales[id]
	if !ok || sale.TenantID != tenantID {
		return nil, shared.NewNotFoundError("Sale")
	}
	return &sale, nil
}

func (r *memSales) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *memSales) FindForTenant(context.Context, uuid.UUID, shared.Filter) ([]trade.Sale, error) {
	var out []trade.Sale
	for _, s := range r.sales {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSales) CountForTenant(context.Context, uuid.UUID, shared.Filter) (int64, error) {
	return int64(len(r.sales)), nil
}

func (r *memSales) MarkCancelled(_ context.Context, sale *trade.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.sales[sale.ID]
	if stored.Status != trade.SaleStatusCompleted {
		return shared.NewInvalidStateError("Sale is already " + stored.Status.String())
	}
	r.sales[sale.ID] = *sale
	return nil
}

func (r *memSales) Statistics(context.Context, uuid.UUID, trade.StatisticsFilter) (*trade.SalesStatistics, error) {
	return trade.NewSalesStatistics(0, decimal.Zero, nil), nil
}

// scriptedSequence fails with ErrSaleNumberTaken for the first failures calls
type scriptedSequence struct {
	mu       sync.Mutex
	failures int
	calls    int
	next     map[string]int64
}

func (s *scriptedSequence) Next(_ context.Context, tenantID uuid.UUID, dateKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return 0, trade.ErrSaleNumberTaken
	}
	if s.next == nil {
		s.next = make(map[string]int64)
	}
	key := tenantID.String() + dateKey
	s.next[key]++
	return s.next[key], nil
}

// memScope runs fn directly against the in-memory stores
type memScope struct {
	sales    *memSales
	sequence *scriptedSequence
	ledger   *memLedger
	// onBegin runs before fn, standing in for writes committed by another sale
	onBegin func()
}

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	if s.onBegin != nil {
		s.onBegin()
	}
	return fn(s)
}

func (s *memScope) SaleRepo() trade.SaleRepository { return s.sales }

func (s *memScope) SequenceRepo() trade.SaleSequenceRepository { return s.sequence }

func (s *memScope) InventoryRepo() inventory.InventoryItemRepository { return s.ledger }

func (s *memScope) MovementRepo() inventory.StockMovementRepository { return s.ledger }

// memIdempotency is an in-memory shared.IdempotencyStore
type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memIdempotency) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memIdempotency) IsClaimed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memIdempotency) Close() error { return nil }
