package trade

import (
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is the priced request for one sale line
type LineInput struct {
	Quantity        int64
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	// DiscountAmount, when positive, takes precedence over DiscountPercent
	DiscountAmount decimal.Decimal
	TaxPercent     decimal.Decimal
}

// LineAmounts are the monetary outputs of one sale line.
// Discount, Tax and Subtotal are rounded to 2 places; Base is rounded for totals.
type LineAmounts struct {
	Base     decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Subtotal decimal.Decimal
}

// Validate checks the line input bounds
func (in LineInput) Validate() error {
	if in.Quantity < 1 {
		return shared.NewValidationError("Quantity must be at least 1")
	}
	if !in.UnitPrice.IsPositive() {
		return shared.NewValidationError("Unit price must be positive")
	}
	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return shared.NewValidationError("Discount percent must be between 0 and 100")
	}
	if in.DiscountAmount.IsNegative() {
		return shared.NewValidationError("Discount amount cannot be negative")
	}
	if in.TaxPercent.IsNegative() {
		return shared.NewValidationError("Tax percent cannot be negative")
	}
	return nil
}

// CalculateLine computes base, discount, tax and subtotal for one line:
//
//	base          = quantity * unitPrice
//	discount      = discountAmount if > 0, else base * discountPercent / 100 if > 0, else 0
//	afterDiscount = base - discount
//	tax           = afterDiscount * taxPercent / 100 if > 0, else 0
//	subtotal      = afterDiscount + tax
//
// Rounding to 2 places (half away from zero) happens once, on the outputs.
func CalculateLine(in LineInput) (LineAmounts, error) {
	if err := in.Validate(); err != nil {
		return LineAmounts{}, err
	}

	base := in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity))

	discount := decimal.Zero
	switch {
	case in.DiscountAmount.IsPositive():
		discount = in.DiscountAmount
	case in.DiscountPercent.IsPositive():
		discount = valueobject.PercentOf(base, in.DiscountPercent)
	}
	if discount.GreaterThan(base) {
		return LineAmounts{}, shared.NewValidationError("Discount cannot exceed the line amount")
	}

	afterDiscount := base.Sub(discount)

	tax := decimal.Zero
	if in.TaxPercent.IsPositive() {
		tax = valueobject.PercentOf(afterDiscount, in.TaxPercent)
	}

	return LineAmounts{
		Base:     valueobject.Round2(base),
		Discount: valueobject.Round2(discount),
		Tax:      valueobject.Round2(tax),
		Subtotal: valueobject.Round2(afterDiscount.Add(tax)),
	}, nil
}
