package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// bestDiscount returns the highest-threshold discount of the given scope
// whose minimum quantity is reached. optionID is ignored for question scope.
func bestDiscount(discounts []catalog.QuantityDiscount, scope catalog.DiscountScope, optionID string, quantity int) *catalog.QuantityDiscount {
	var best *catalog.QuantityDiscount
	for i := range discounts {
		d := &discounts[i]
		if d.Scope != scope || d.MinQuantity > quantity {
			continue
		}
		if scope == catalog.ScopeOption && d.OptionID != optionID {
			continue
		}
		if scope == catalog.ScopeQuestion && d.OptionID != "" {
			continue
		}
		if best == nil || d.MinQuantity > best.MinQuantity {
			best = d
		}
	}
	return best
}

// discountAmount is the amount a discount removes from basis.
func discountAmount(d *catalog.QuantityDiscount, basis decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	switch d.Kind {
	case catalog.DiscountPercent:
		return basis.Mul(d.Value).Div(hundred)
	case catalog.DiscountFixed:
		return d.Value
	}
	return decimal.Zero
}

// quantityAdjustment prices a quantity answer for one package, applying
// option-level discounts first and then the whole-question discount.
// The whole-question percentage is taken from the total before any discount.
func quantityAdjustment(sc *catalog.ServiceCatalog, questionID string, a QuantityAnswer, packageID string, sizePrice decimal.Decimal, withDiscounts bool) Adjustment {
	discounts := sc.DiscountsFor(questionID)

	total := Adjustment{Amount: decimal.Zero}
	preDiscount := decimal.Zero
	for _, opt := range a.Options {
		rule, ok := sc.OptionRule(opt.OptionID, packageID)
		if !ok || rule.Ignored() {
			continue
		}
		adj := EvaluateRule(rule, sizePrice, opt.Quantity, true)
		preDiscount = preDiscount.Add(adj.Amount)
		if withDiscounts {
			d := bestDiscount(discounts, catalog.ScopeOption, opt.OptionID, opt.Quantity)
			adj.Amount = adj.Amount.Sub(discountAmount(d, adj.Amount))
		}
		total = total.Add(adj)
	}

	if withDiscounts {
		d := bestDiscount(discounts, catalog.ScopeQuestion, "", a.TotalQuantity())
		total.Amount = total.Amount.Sub(discountAmount(d, preDiscount))
	}
	return total
}
