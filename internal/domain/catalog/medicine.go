package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Medicine is the read model of a catalog entry
type Medicine struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	TradeName           string
	GenericName         string
	DefaultSellingPrice decimal.Decimal
}

// DisplayName returns the name printed on receipts and error messages
func (m *Medicine) DisplayName() string {
	if m == nil {
		return ""
	}
	if m.TradeName != "" {
		return m.TradeName
	}
	return m.GenericName
}
