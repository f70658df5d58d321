package trade

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ReceiptFormatter renders money for printed receipts in the store's locale
type ReceiptFormatter struct {
	printer    *message.Printer
	unit       currency.Unit
	decimalSep string
}

func newReceiptFormatter(tag language.Tag, unit currency.Unit) *ReceiptFormatter {
	printer := message.NewPrinter(tag)
	// The locale's decimal mark sits between the digits of 1.5
	sample := []rune(printer.Sprint(number.Decimal(1.5, number.Scale(1))))
	sep := "."
	if len(sample) == 3 {
		sep = string(sample[1])
	}
	return &ReceiptFormatter{printer: printer, unit: unit, decimalSep: sep}
}

// NewReceiptFormatter creates a formatter for a BCP 47 locale and ISO 4217 currency
func NewReceiptFormatter(locale, currencyCode string) (*ReceiptFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt currency %q: %w", currencyCode, err)
	}
	return newReceiptFormatter(tag, unit), nil
}

// DefaultReceiptFormatter formats Indonesian Rupiah
func DefaultReceiptFormatter() *ReceiptFormatter {
	return newReceiptFormatter(language.Indonesian, currency.IDR)
}

// Format renders amount with the currency symbol and locale grouping.
// Digits are taken from the fixed-point string, never from a float.
func (f *ReceiptFormatter) Format(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(f.unit)
	whole, frac, _ := strings.Cut(amount.Abs().StringFixed(int32(scale)), ".")

	digits := whole
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		digits = f.printer.Sprint(number.Decimal(n))
	}
	if frac != "" {
		digits += f.decimalSep + frac
	}
	if amount.Round(int32(scale)).IsNegative() {
		digits = "-" + digits
	}
	return f.printer.Sprint(currency.Symbol(f.unit)) + " " + digits
}
