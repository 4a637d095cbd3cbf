package resources

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// OrderBehavior derives the order total on create.
func OrderBehavior() engine.Behavior {
	return engine.Behavior{
		Derive: func(_ *engine.Tx, rec ir.IRObject) error {
			items, _ := rec["lineItems"].(ir.IRArray)
			rec["total"] = ir.NewIRNumber(OrderTotal(items))
			return nil
		},
	}
}

// OrderTotal sums unitPrice × quantity over the line items, rounded half
// away from zero to two places.
//
// Prices and quantities may be numbers or numeric strings. A line item
// without a usable unitPrice is priced by its "price" key, else at zero.
// A missing or zero quantity counts as one. Non-object items are skipped.
func OrderTotal(items ir.IRArray) decimal.Decimal {
	one := decimal.NewFromInt(1)
	total := decimal.Zero

	for _, raw := range items {
		item, ok := raw.(ir.IRObject)
		if !ok {
			continue
		}

		price, ok := ir.ParseDecimal(item["unitPrice"])
		if !ok {
			price, _ = ir.ParseDecimal(item["price"])
		}

		qty, ok := ir.ParseDecimal(item["quantity"])
		if !ok || qty.IsZero() {
			qty = one
		}

		total = total.Add(price.Mul(qty))
	}

	return total.Round(2)
}
