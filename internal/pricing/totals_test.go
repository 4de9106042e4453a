package pricing

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/catalog"
)

func selected(base, adj, surcharge, total string) Quote {
	return Quote{
		BasePrice:           dec(base),
		QuestionAdjustments: dec(adj),
		SurchargeAmount:     dec(surcharge),
		TotalPrice:          dec(total),
		IsSelected:          true,
	}
}

func TestAggregateWithoutCoupon(t *testing.T) {
	totals := Aggregate(TotalsRequest{
		Selected: []Quote{
			selected("100", "20", "10", "130"),
			selected("75", "15", "10", "75"),
		},
		AddOns: []AddOnLine{{AddOnID: "a", BasePrice: dec("15"), Quantity: 2}},
	})

	assert.True(t, totals.TotalBasePrice.Equal(dec("175")))
	assert.True(t, totals.TotalAdjustments.Equal(dec("35")))
	assert.True(t, totals.TotalSurcharges.Equal(dec("20")))
	assert.True(t, totals.TotalAddOnsPrice.Equal(dec("30")))
	// surcharges are already inside the quote totals
	assert.True(t, totals.FinalTotal.Equal(dec("235")))
	assert.False(t, totals.IsCouponApplied)
	assert.True(t, totals.DiscountedAmount.IsZero())
}

func TestAggregateCoupon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	tests := []struct {
		name         string
		coupon       *catalog.Coupon
		wantFinal    string
		wantDiscount string
		wantApplied  bool
	}{
		{"percentage", &catalog.Coupon{Percentage: dec("10"), Active: true}, "180", "20", true},
		{"fixed", &catalog.Coupon{FixedAmount: dec("25"), Active: true}, "175", "25", true},
		{"both", &catalog.Coupon{Percentage: dec("10"), FixedAmount: dec("5"), Active: true}, "175", "25", true},
		{"capped at total", &catalog.Coupon{FixedAmount: dec("500"), Active: true}, "0", "200", true},
		{"inactive", &catalog.Coupon{Percentage: dec("10")}, "200", "0", false},
		{"expired", &catalog.Coupon{Percentage: dec("10"), Active: true, ValidUntil: &past}, "200", "0", false},
		{"other submission", &catalog.Coupon{Percentage: dec("10"), Active: true, SubmissionID: "other"}, "200", "0", false},
		{"own submission", &catalog.Coupon{Percentage: dec("10"), Active: true, SubmissionID: "sub-1"}, "180", "20", true},
		{"none", nil, "200", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := Aggregate(TotalsRequest{
				Selected:     []Quote{selected("100", "0", "0", "200")},
				Coupon:       tt.coupon,
				SubmissionID: "sub-1",
				Now:          now,
			})
			assert.True(t, totals.FinalTotal.Equal(dec(tt.wantFinal)), "final %s", totals.FinalTotal)
			assert.True(t, totals.DiscountedAmount.Equal(dec(tt.wantDiscount)), "discount %s", totals.DiscountedAmount)
			assert.Equal(t, tt.wantApplied, totals.IsCouponApplied)
		})
	}
}

// TestAggregateCouponBounds checks that a coupon never drives the total below
// zero and never discounts more than the pre-discount total.
func TestAggregateCouponBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		coupon := &catalog.Coupon{
			Percentage:  decFromInt(rng.Intn(150)),
			FixedAmount: decFromInt(rng.Intn(400)),
			Active:      true,
		}
		total := decFromInt(rng.Intn(500))
		totals := Aggregate(TotalsRequest{
			Selected: []Quote{{TotalPrice: total, BasePrice: total, QuestionAdjustments: dec("0"), SurchargeAmount: dec("0")}},
			Coupon:   coupon,
			Now:      time.Now(),
		})
		assert.False(t, totals.FinalTotal.IsNegative())
		assert.True(t, totals.DiscountedAmount.LessThanOrEqual(totals.PreDiscountTotal))
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	req := TotalsRequest{
		Selected: []Quote{selected("99.99", "0.335", "3.10", "103.435")},
		AddOns:   []AddOnLine{{BasePrice: dec("1.005"), Quantity: 3}},
		Coupon:   &catalog.Coupon{Percentage: dec("12.5"), Active: true},
		Now:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := json.Marshal(Aggregate(req))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(req))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	again := Aggregate(req)
	assert.Equal(t, again.FinalTotal.String(), Aggregate(req).FinalTotal.String())
	assert.True(t, again.FinalTotal.Equal(again.FinalTotal.Round(2)), "rounded to cents")
}
