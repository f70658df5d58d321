package trade

import (
	"fmt"
	"time"

	"github.com/pharmacy/backend/internal/domain/shared"
)

// SaleNumberPrefix starts every sale number
const SaleNumberPrefix = "SALE"

// ErrSaleNumberTaken reports a lost race on the per-day counter or on the
// sale number itself. Repositories return it for unique-key violations.
var ErrSaleNumberTaken = shared.NewConflictError("Sale number already allocated")

// SaleDateKey is the per-day counter key for a sale created at t (server-local date)
func SaleDateKey(t time.Time) string {
	return t.In(time.Local).Format("20060102")
}

// FormatSaleNumber renders SALE-YYYYMMDD-XXXX. Sequences above 9999 widen.
func FormatSaleNumber(dateKey string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", SaleNumberPrefix, dateKey, seq)
}
