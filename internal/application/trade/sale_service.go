package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/catalog"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/inventory"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/trade"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleServiceConfig tunes sale creation
type SaleServiceConfig struct {
	// NumberMaxRetries bounds whole-transaction retries after a sale number collision
	NumberMaxRetries int
	// IdempotencyTTL is how long an Idempotency-Key stays claimed
	IdempotencyTTL time.Duration
}

// DefaultSaleServiceConfig returns the default configuration
func DefaultSaleServiceConfig() SaleServiceConfig {
	return SaleServiceConfig{
		NumberMaxRetries: 5,
		IdempotencyTTL:   24 * time.Hour,
	}
}

// SaleService creates, cancels and reads point-of-sale transactions
type SaleService struct {
	warehouseRepo   catalog.WarehouseRepository
	medicineRepo    catalog.MedicineRepository
	inventoryRepo   inventory.InventoryItemRepository
	saleRepo        trade.SaleRepository
	txScope         TransactionScope
	idempotency     shared.IdempotencyStore
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	receipts        *ReceiptFormatter
	config          SaleServiceConfig
	logger          *zap.Logger
	now             func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	warehouseRepo catalog.WarehouseRepository,
	medicineRepo catalog.MedicineRepository,
	inventoryRepo inventory.InventoryItemRepository,
	saleRepo trade.SaleRepository,
	txScope TransactionScope,
	config SaleServiceConfig,
	logger *zap.Logger,
) *SaleService {
	if config.NumberMaxRetries <= 0 {
		config.NumberMaxRetries = DefaultSaleServiceConfig().NumberMaxRetries
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = DefaultSaleServiceConfig().IdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		warehouseRepo: warehouseRepo,
		medicineRepo:  medicineRepo,
		inventoryRepo: inventoryRepo,
		saleRepo:      saleRepo,
		txScope:       txScope,
		receipts:      DefaultReceiptFormatter(),
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *SaleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetIdempotencyStore enables the Idempotency-Key double-submit guard
func (s *SaleService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetReceiptFormatter sets the money formatter used on receipts
func (s *SaleService) SetReceiptFormatter(f *ReceiptFormatter) {
	s.receipts = f
}

// SetClock overrides the wall clock
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateSale validates the basket, prices it and commits the sale together
// with one stock deduction per line.
func (s *SaleService) CreateSale(ctx context.Context, actor identity.Actor, req CreateSaleRequest) (resp *SaleResponse, err error) {
	if err := actor.Authorize(identity.ActionCreateSale); err != nil {
		return nil, err
	}
	method, err := validateCreateSale(req)
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		key := idempotencyKey(actor.TenantID, req.IdempotencyKey)
		claimed, claimErr := s.idempotency.Claim(ctx, key, s.config.IdempotencyTTL)
		if claimErr != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			return nil, shared.NewConflictError("A sale with this Idempotency-Key was already submitted")
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
				s.logger.Warn("failed to release idempotency key",
					zap.String("idempotency_key", req.IdempotencyKey),
					zap.Error(releaseErr),
				)
			}
		}()
	}

	pending, err := s.prepareSale(ctx, actor, req, method)
	if err != nil {
		return nil, err
	}

	sale, touched, err := s.commitSale(ctx, pending)
	if err != nil {
		s.logger.Warn("sale creation failed",
			zap.String("tenant_id", actor.TenantID.String()),
			zap.String("warehouse_id", req.WarehouseID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("sale completed",
		zap.String("tenant_id", sale.TenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("final_amount", sale.FinalAmount.StringFixed(2)),
		zap.Int("lines", len(sale.Items)),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSaleCompleted(ctx, sale.TenantID, sale.PaymentMethod.String(), sale.FinalAmount)
		for _, item := range sale.Items {
			s.businessMetrics.RecordStockMovement(ctx, sale.TenantID, inventory.MovementTypeOut.String(), item.Quantity)
		}
	}
	s.publishEvents(ctx, sale, touched)

	response := ToSaleResponse(sale)
	return &response, nil
}

func validateCreateSale(req CreateSaleRequest) (trade.PaymentMethod, error) {
	if req.WarehouseID == uuid.Nil {
		return "", shared.NewValidationError("Warehouse ID is required")
	}
	method := trade.PaymentMethod(strings.ToUpper(req.PaymentMethod))
	if !method.IsValid() {
		return "", shared.NewValidationError("Invalid payment method: " + req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return "", shared.NewValidationError("Sale must have at least one item")
	}
	for _, item := range req.Items {
		if item.InventoryItemID == uuid.Nil {
			return "", shared.NewValidationError("Inventory item ID is required")
		}
		if item.Quantity < 1 {
			return "", shared.NewValidationError("Quantity must be at least 1")
		}
		if item.UnitPrice != nil && !item.UnitPrice.IsPositive() {
			return "", shared.NewValidationError("Unit price must be positive")
		}
	}
	return method, nil
}

func idempotencyKey(tenantID uuid.UUID, key string) string {
	return "sale:" + tenantID.String() + ":" + key
}

// prepareSale resolves warehouse, items and prices and returns a priced
// PENDING sale. Availability is checked here only to fail fast; the
// authoritative check happens under row lock in the transaction.
func (s *SaleService) prepareSale(ctx context.Context, actor identity.Actor, req CreateSaleRequest, method trade.PaymentMethod) (*trade.Sale, error) {
	warehouse, err := s.warehouseRepo.FindByIDForTenant(ctx, actor.TenantID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !warehouse.CanSell() {
		return nil, shared.NewNotFoundError("Warehouse")
	}

	itemIDs := make([]uuid.UUID, 0, len(req.Items))
	requested := make(map[uuid.UUID]int64, len(req.Items))
	for _, line := range req.Items {
		if _, seen := requested[line.InventoryItemID]; !seen {
			itemIDs = append(itemIDs, line.InventoryItemID)
		}
		requested[line.InventoryItemID] += line.Quantity
	}

	found, err := s.inventoryRepo.FindByIDs(ctx, actor.TenantID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory items: %w", err)
	}
	items := make(map[uuid.UUID]*inventory.InventoryItem, len(found))
	medicineIDs := make([]uuid.UUID, 0, len(found))
	for i := range found {
		items[found[i].ID] = &found[i]
		medicineIDs = append(medicineIDs, found[i].MedicineID)
	}

	foundMedicines, err := s.medicineRepo.FindByIDs(ctx, actor.TenantID, medicineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load medicines: %w", err)
	}
	medicines := make(map[uuid.UUID]*catalog.Medicine, len(foundMedicines))
	for i := range foundMedicines {
		medicines[foundMedicines[i].ID] = &foundMedicines[i]
	}

	for _, id := range itemIDs {
		item, ok := items[id]
		if !ok || item.WarehouseID != warehouse.ID {
			return nil, shared.NewNotFoundError("Inventory item").WithDetail("inventory_item_id", id.String())
		}
		if item.Available() < requested[id] {
			name := medicines[item.MedicineID].DisplayName()
			if name == "" {
				name = item.ID.String()
			}
			return nil, shared.NewInsufficientStockError(name, item.Available(), requested[id])
		}
	}

	sale, err := trade.NewSale(actor.TenantID, warehouse.ID, actor.UserID, method, s.now())
	if err != nil {
		return nil, err
	}
	sale.Notes = req.Notes

	for _, line := range req.Items {
		item := items[line.InventoryItemID]
		medicine := medicines[item.MedicineID]
		name := medicine.DisplayName()

		unitPrice := resolveUnitPrice(line.UnitPrice, item, medicine)
		if !unitPrice.IsPositive() {
			return nil, shared.NewValidationError("No positive selling price for " + name)
		}

		if _, err := sale.AddItem(item.ID, item.MedicineID, name, trade.LineInput{
			Quantity:        line.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
			TaxPercent:      line.TaxPercent,
		}, line.Notes); err != nil {
			return nil, err
		}
	}

	return sale, nil
}

// resolveUnitPrice picks the override, then the item price, then the catalog default
func resolveUnitPrice(override *decimal.Decimal, item *inventory.InventoryItem, medicine *catalog.Medicine) decimal.Decimal {
	if override != nil {
		return *override
	}
	if item.SellingPrice != nil && item.SellingPrice.IsPositive() {
		return *item.SellingPrice
	}
	if medicine != nil {
		return medicine.DefaultSellingPrice
	}
	return decimal.Zero
}

// commitSale numbers the sale and persists it with its stock deductions.
// A sale number collision retries the whole transaction.
func (s *SaleService) commitSale(ctx context.Context, pending *trade.Sale) (*trade.Sale, []*inventory.InventoryItem, error) {
	dateKey := trade.SaleDateKey(pending.CreatedAt)
	lines := stockLinesInLockOrder(pending.Items)

	for attempt := 1; ; attempt++ {
		// Each attempt works on its own copy so a rolled back Complete leaves no trace
		sale := *pending
		var touched []*inventory.InventoryItem

		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			seq, err := repos.SequenceRepo().Next(ctx, sale.TenantID, dateKey)
			if err != nil {
				return err
			}
			if err := sale.Complete(trade.FormatSaleNumber(dateKey, seq)); err != nil {
				return err
			}
			if err := repos.SaleRepo().Create(ctx, &sale); err != nil {
				return err
			}

			mutator := inventory.NewStockMutator(repos.InventoryRepo(), repos.MovementRepo())
			for _, line := range lines {
				result, err := mutator.Deduct(ctx, inventory.MutationInput{
					TenantID:        sale.TenantID,
					InventoryItemID: line.InventoryItemID,
					Quantity:        line.Quantity,
					Reference:       inventory.NewReference(inventory.ReferenceTypeSale, sale.ID.String()),
					ActorID:         sale.CashierID,
					Label:           line.Label,
				})
				if err != nil {
					return err
				}
				touched = append(touched, result.Item)
			}
			return nil
		})
		if err == nil {
			return &sale, touched, nil
		}

		if !errors.Is(err, trade.ErrSaleNumberTaken) {
			return nil, nil, err
		}
		if attempt >= s.config.NumberMaxRetries {
			s.logger.Error("sale number allocation exhausted retries",
				zap.String("tenant_id", pending.TenantID.String()),
				zap.String("sale_date", dateKey),
				zap.Int("attempts", attempt),
			)
			return nil, nil, shared.NewConflictError("Could not allocate a unique sale number, please retry")
		}
		s.logger.Debug("sale number collision, retrying",
			zap.String("sale_date", dateKey),
			zap.Int("attempt", attempt),
		)
	}
}

// stockLine is the stock change a sale makes on one inventory item
type stockLine struct {
	InventoryItemID uuid.UUID
	Quantity        int64
	Label           string
}

// stockLinesInLockOrder merges duplicate lines per inventory item and sorts
// them by item id so concurrent sales lock rows in the same order. A shortage
// found under lock then reports the full quantity the sale asked for.
func stockLinesInLockOrder(items []trade.SaleItem) []stockLine {
	lines := make([]stockLine, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if i, ok := index[item.InventoryItemID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.InventoryItemID] = len(lines)
		lines = append(lines, stockLine{
			InventoryItemID: item.InventoryItemID,
			Quantity:        item.Quantity,
			Label:           item.MedicineName,
		})
	}
	slices.SortFunc(lines, func(a, b stockLine) int {
		return bytes.Compare(a.InventoryItemID[:], b.InventoryItemID[:])
	})
	return lines
}

// CancelSale cancels a same-day COMPLETED sale and restores its stock
func (s *SaleService) CancelSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	if err := actor.Authorize(identity.ActionCancelSale); err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.FindByIDForTenant(ctx, actor.TenantID, saleID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := sale.CanCancelAt(now); err != nil {
		return nil, err
	}

	var cancelled *trade.Sale
	var touched []*inventory.InventoryItem
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		locked, err := repos.SaleRepo().FindByIDForUpdate(ctx, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if err := locked.Cancel(actor.UserID, now); err != nil {
			return err
		}
		if err := repos.SaleRepo().MarkCancelled(ctx, locked); err != nil {
			return err
		}

		mutator := inventory.NewStockMutator(repos.InventoryRepo(), repos.MovementRepo())
		for _, line := range stockLinesInLockOrder(locked.Items) {
			result, err := mutator.Restore(ctx, inventory.MutationInput{
				TenantID:        locked.TenantID,
				InventoryItemID: line.InventoryItemID,
				Quantity:        line.Quantity,
				Reference:       inventory.NewReference(inventory.ReferenceTypeSaleCancellation, locked.ID.String()),
				ActorID:         actor.UserID,
				Label:           line.Label,
			})
			if err != nil {
				return err
			}
			touched = append(touched, result.Item)
		}
		cancelled = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale cancelled",
		zap.String("tenant_id", cancelled.TenantID.String()),
		zap.String("sale_id", cancelled.ID.String()),
		zap.String("sale_number", cancelled.SaleNumber),
		zap.String("cancelled_by", actor.UserID.String()),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSaleCancelled(ctx, cancelled.TenantID)
		for _, item := range cancelled.Items {
			s.businessMetrics.RecordStockMovement(ctx, cancelled.TenantID, inventory.MovementTypeReturn.String(), item.Quantity)
		}
	}
	s.publishEvents(ctx, cancelled, touched)

	response := ToSaleResponse(cancelled)
	return &response, nil
}

// GetSale returns a sale with its items
func (s *SaleService) GetSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*SaleResponse, error) {
	if err := actor.Authorize(identity.ActionViewSale); err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByIDForTenant(ctx, actor.TenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales returns a page of sales, newest first
func (s *SaleService) ListSales(ctx context.Context, actor identity.Actor, filter SaleListFilter) ([]SaleResponse, int64, error) {
	if err := actor.Authorize(identity.ActionViewSale); err != nil {
		return nil, 0, err
	}

	query := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]any),
	}
	query = query.Normalize()
	if filter.WarehouseID != nil {
		query.Filters["warehouse_id"] = *filter.WarehouseID
	}
	if filter.Status != "" {
		status := trade.SaleStatus(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid sale status: " + filter.Status)
		}
		query.Filters["status"] = status
	}
	if filter.PaymentMethod != "" {
		method := trade.PaymentMethod(strings.ToUpper(filter.PaymentMethod))
		if !method.IsValid() {
			return nil, 0, shared.NewValidationError("Invalid payment method: " + filter.PaymentMethod)
		}
		query.Filters["payment_method"] = method
	}
	if filter.From != nil {
		query.Filters["from"] = startOfDay(*filter.From)
	}
	if filter.To != nil {
		query.Filters["to"] = startOfDay(*filter.To).AddDate(0, 0, 1)
	}

	sales, err := s.saleRepo.FindForTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.CountForTenant(ctx, actor.TenantID, query)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleResponses(sales), total, nil
}

// GetReceipt renders the printable receipt of a sale
func (s *SaleService) GetReceipt(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*ReceiptResponse, error) {
	if err := actor.Authorize(identity.ActionViewSale); err != nil {
		return nil, err
	}
	sale, err := s.saleRepo.FindByIDForTenant(ctx, actor.TenantID, saleID)
	if err != nil {
		return nil, err
	}

	warehouseName := sale.WarehouseID.String()
	if warehouse, err := s.warehouseRepo.FindByIDForTenant(ctx, actor.TenantID, sale.WarehouseID); err == nil {
		warehouseName = warehouse.Name
	}

	lines := make([]ReceiptLine, len(sale.Items))
	for i, item := range sale.Items {
		line := ReceiptLine{
			MedicineName: item.MedicineName,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			Subtotal:     item.Subtotal,
		}
		if item.DiscountAmount.IsPositive() {
			discount := item.DiscountAmount
			line.DiscountAmount = &discount
		}
		if item.TaxAmount.IsPositive() {
			tax := item.TaxAmount
			line.TaxAmount = &tax
		}
		lines[i] = line
	}

	return &ReceiptResponse{
		SaleNumber:     sale.SaleNumber,
		SaleDate:       sale.CreatedAt,
		Warehouse:      warehouseName,
		Cashier:        sale.CashierID.String(),
		Items:          lines,
		TotalAmount:    sale.TotalAmount,
		DiscountAmount: sale.DiscountAmount,
		TaxAmount:      sale.TaxAmount,
		FinalAmount:    sale.FinalAmount,
		PaymentMethod:  sale.PaymentMethod.String(),
		Status:         sale.Status.String(),
		Display: ReceiptTotals{
			TotalAmount:    s.receipts.Format(sale.TotalAmount),
			DiscountAmount: s.receipts.Format(sale.DiscountAmount),
			TaxAmount:      s.receipts.Format(sale.TaxAmount),
			FinalAmount:    s.receipts.Format(sale.FinalAmount),
		},
	}, nil
}

// publishEvents publishes sale and inventory events after commit
func (s *SaleService) publishEvents(ctx context.Context, sale *trade.Sale, items []*inventory.InventoryItem) {
	events := sale.PullDomainEvents()
	for _, item := range items {
		events = append(events, item.PullDomainEvents()...)
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
