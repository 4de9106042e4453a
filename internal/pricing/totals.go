package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// AddOnLine is an add-on attached to a submission.
type AddOnLine struct {
	AddOnID   string
	BasePrice decimal.Decimal
	Quantity  int
}

// TotalsRequest is the input of Aggregate.
type TotalsRequest struct {
	Selected     []Quote // the selected quote of every selection that has one
	AddOns       []AddOnLine
	Coupon       *catalog.Coupon // nil when no coupon is attached
	SubmissionID string
	Now          time.Time
}

// Totals is the aggregated price of a submission.
type Totals struct {
	TotalBasePrice   decimal.Decimal `json:"total_base_price"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`
	TotalSurcharges  decimal.Decimal `json:"total_surcharges"`
	TotalAddOnsPrice decimal.Decimal `json:"total_addons_price"`
	PreDiscountTotal decimal.Decimal `json:"pre_discount_total"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	FinalTotal       decimal.Decimal `json:"final_total"`
	IsCouponApplied  bool            `json:"is_coupon_applied"`
}

// Aggregate sums the selected quotes and add-ons and applies at most one
// coupon. Surcharges are already part of every quote total and are only
// reported, never added again. The result depends only on the request.
func Aggregate(req TotalsRequest) Totals {
	t := Totals{
		TotalBasePrice:   decimal.Zero,
		TotalAdjustments: decimal.Zero,
		TotalSurcharges:  decimal.Zero,
		TotalAddOnsPrice: decimal.Zero,
		DiscountedAmount: decimal.Zero,
	}

	quotesTotal := decimal.Zero
	for _, q := range req.Selected {
		t.TotalBasePrice = t.TotalBasePrice.Add(q.BasePrice)
		t.TotalAdjustments = t.TotalAdjustments.Add(q.QuestionAdjustments)
		t.TotalSurcharges = t.TotalSurcharges.Add(q.SurchargeAmount)
		quotesTotal = quotesTotal.Add(q.TotalPrice)
	}
	for _, a := range req.AddOns {
		t.TotalAddOnsPrice = t.TotalAddOnsPrice.Add(a.BasePrice.Mul(decimal.NewFromInt(int64(a.Quantity))))
	}

	pre := quotesTotal.Add(t.TotalAddOnsPrice)
	t.PreDiscountTotal = pre
	t.FinalTotal = pre

	if req.Coupon.ValidAt(req.Now, req.SubmissionID) {
		discount := pre.Mul(req.Coupon.Percentage).Div(hundred).Add(req.Coupon.FixedAmount)
		discount = decimal.Min(discount, pre)
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		t.DiscountedAmount = discount
		t.FinalTotal = decimal.Max(pre.Sub(discount), decimal.Zero)
		t.IsCouponApplied = true
	}

	t.TotalBasePrice = round(t.TotalBasePrice)
	t.TotalAdjustments = round(t.TotalAdjustments)
	t.TotalSurcharges = round(t.TotalSurcharges)
	t.TotalAddOnsPrice = round(t.TotalAddOnsPrice)
	t.PreDiscountTotal = round(t.PreDiscountTotal)
	t.DiscountedAmount = round(t.DiscountedAmount)
	t.FinalTotal = round(t.FinalTotal)
	return t
}
