package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// Adjustment is a signed price change for one package.
type Adjustment struct {
	Amount      decimal.Decimal
	RequiresBid bool // a fixed_price rule deferred pricing to a manual bid
}

// Add combines two adjustments.
func (a Adjustment) Add(b Adjustment) Adjustment {
	return Adjustment{
		Amount:      a.Amount.Add(b.Amount),
		RequiresBid: a.RequiresBid || b.RequiresBid,
	}
}

// EvaluateRule computes the adjustment of one rule.
//
// quantity is the selected quantity of the target; perQuantityKinds says
// whether percentage kinds also scale with quantity, which is the case for
// quantity questions only.
func EvaluateRule(rule catalog.PricingRule, sizePrice decimal.Decimal, quantity int, perQuantityKinds bool) Adjustment {
	switch rule.Kind {
	case catalog.PricingFixedPrice:
		return Adjustment{Amount: decimal.Zero, RequiresBid: true}
	case catalog.PricingUpchargePercent, catalog.PricingDiscountPercent, catalog.PricingPerQuantity:
	default:
		return Adjustment{Amount: decimal.Zero}
	}

	amount := baseAmount(rule, sizePrice)

	switch rule.Kind {
	case catalog.PricingPerQuantity:
		amount = amount.Mul(decimal.NewFromInt(int64(quantity)))
	case catalog.PricingUpchargePercent, catalog.PricingDiscountPercent:
		if perQuantityKinds && quantity > 1 {
			amount = amount.Mul(decimal.NewFromInt(int64(quantity)))
		}
	}

	if rule.Kind == catalog.PricingDiscountPercent {
		amount = amount.Neg()
	}
	return Adjustment{Amount: amount}
}

// baseAmount resolves the rule value against the size-based price.
func baseAmount(rule catalog.PricingRule, sizePrice decimal.Decimal) decimal.Decimal {
	if rule.ValueKind == catalog.ValuePercent {
		if sizePrice.IsZero() {
			return decimal.Zero
		}
		return sizePrice.Mul(rule.Value).Div(hundred)
	}
	return rule.Value
}
