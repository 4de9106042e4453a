package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// DisplayAdjustment is the per-response price shown next to an answer: the
// response's adjustment averaged over the active packages of the service.
// Quantity discounts are not applied, so it does not reconcile with the
// per-package amounts used in quote totals and is never summed into them.
func DisplayAdjustment(sc *catalog.ServiceCatalog, r Response, sizeRangeID string) decimal.Decimal {
	packages := sc.ActivePackages()
	if len(packages) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, pkg := range packages {
		adj := evaluate(sc, r, pkg.ID, sc.SizePrice(sizeRangeID, pkg.ID), false)
		sum = sum.Add(adj.Amount)
	}
	return round(sum.Div(decimal.NewFromInt(int64(len(packages)))))
}
