package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	tradeapp "github.com/pharmacy/backend/internal/application/trade"
	"github.com/pharmacy/backend/internal/domain/identity"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockInventoryCommands is a testify mock of InventoryCommands
type MockInventoryCommands struct {
	mock.Mock
}

func (m *MockInventoryCommands) GetByID(ctx context.Context, actor identity.Actor, itemID uuid.UUID) (*inventoryapp.InventoryItemResponse, error) {
	args := m.Called(ctx, actor, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.InventoryItemResponse), args.Error(1)
}

func (m *MockInventoryCommands) RecordStockMovement(ctx context.Context, actor identity.Actor, req inventoryapp.RecordMovementRequest) (*inventoryapp.MovementResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.MovementResponse), args.Error(1)
}

func (m *MockInventoryCommands) AdjustStock(ctx context.Context, actor identity.Actor, req inventoryapp.AdjustStockRequest) (*inventoryapp.InventoryItemResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventoryapp.InventoryItemResponse), args.Error(1)
}

// MockLedgerQueries is a testify mock of LedgerQueries
type MockLedgerQueries struct {
	mock.Mock
}

func (m *MockLedgerQueries) ListMovements(ctx context.Context, actor identity.Actor, filter reportapp.MovementFilter) (*shared.Paginated[inventoryapp.MovementResponse], error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[inventoryapp.MovementResponse]), args.Error(1)
}

func (m *MockLedgerQueries) ListLowStock(ctx context.Context, actor identity.Actor) ([]inventoryapp.InventoryItemResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventoryapp.InventoryItemResponse), args.Error(1)
}

func (m *MockLedgerQueries) GetSalesStatistics(ctx context.Context, actor identity.Actor, filter reportapp.StatisticsFilter) (*reportapp.SalesStatisticsResponse, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.SalesStatisticsResponse), args.Error(1)
}

// MockSaleOperations is a testify mock of SaleOperations
type MockSaleOperations struct {
	mock.Mock
}

func (m *MockSaleOperations) CreateSale(ctx context.Context, actor identity.Actor, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleOperations) CancelSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, actor, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleOperations) GetSale(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	args := m.Called(ctx, actor, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleOperations) ListSales(ctx context.Context, actor identity.Actor, filter tradeapp.SaleListFilter) ([]tradeapp.SaleResponse, int64, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]tradeapp.SaleResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleOperations) GetReceipt(ctx context.Context, actor identity.Actor, saleID uuid.UUID) (*tradeapp.ReceiptResponse, error) {
	args := m.Called(ctx, actor, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReceiptResponse), args.Error(1)
}

// stubPinger reports a fixed ping result
type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

var errBoom = errors.New("boom")

func testActor(role identity.Role) identity.Actor {
	return identity.Actor{TenantID: uuid.New(), UserID: uuid.New(), Role: role}
}

// newTestRouter mounts routes behind RequestID and, when actor is set,
// a stand-in for the JWT middleware
func newTestRouter(actor *identity.Actor, mount func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if actor != nil {
		r.Use(func(c *gin.Context) { c.Set(middleware.ActorKey, *actor) })
	}
	mount(r)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the envelope, decoding data into out when given
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}
