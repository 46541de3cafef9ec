package orders

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/judyrop/tienda-backend/models"
)

// TaxRate is the flat sales tax applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.18")

const CodePrefix = "PED-"

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums quantity*unit price over lines. Tax is rounded to cents
// and Total is always Subtotal+Tax.
func ComputeTotals(lines []models.OrderLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// NewOrderCode returns the human readable order code for t.
func NewOrderCode(t time.Time) string {
	return CodePrefix + strconv.FormatInt(t.UnixMilli(), 10)
}
