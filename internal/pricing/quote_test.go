package pricing

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/catalog"
)

func TestGenerateQuotesFloorWithPercentOfZeroSize(t *testing.T) {
	sc := testCatalog("100")
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValuePercent, "20")

	responses, err := Validate(sc, []ResponseInput{yes("q-yes")})
	require.NoError(t, err)

	set := GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses})
	require.Len(t, set.Quotes, 1)
	q := set.Quotes[0]

	// percent of a zero size price is zero; the base price floor applies
	assert.True(t, q.QuestionAdjustments.IsZero())
	assert.True(t, q.TotalPrice.Equal(dec("100")))
}

func TestGenerateQuotesFloorWithAmountRule(t *testing.T) {
	sc := testCatalog("100")
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "20")

	responses, err := Validate(sc, []ResponseInput{yes("q-yes")})
	require.NoError(t, err)

	q := GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses}).Quotes[0]
	assert.True(t, q.QuestionAdjustments.Equal(dec("20")))
	assert.True(t, q.TotalPrice.Equal(dec("100")), "quoted $20 is below the $100 floor")
}

func TestGenerateQuotesSurchargeAndPerQuantity(t *testing.T) {
	sc := testCatalog("75")
	sc.Service.Settings.ApplyTripSurcharge = true
	sc.SizePrices["sr"] = map[string]decimal.Decimal{"p1": dec("40")}
	sc.OptionRules[catalog.RuleKey{TargetID: "o-x", PackageID: "p1"}] = rule(catalog.PricingPerQuantity, catalog.ValueAmount, "5")

	responses, err := Validate(sc, []ResponseInput{{
		QuestionID:      "q-qty",
		SelectedOptions: []OptionSelection{{OptionID: "o-x", Quantity: intPtr(3)}},
	}})
	require.NoError(t, err)

	loc := &catalog.Location{ID: "loc", TripSurcharge: dec("10")}
	q := GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses, SizeRangeID: "sr", Location: loc}).Quotes[0]

	assert.True(t, q.SizePrice.Equal(dec("40")))
	assert.True(t, q.QuestionAdjustments.Equal(dec("15")))
	assert.True(t, q.SurchargeAmount.Equal(dec("10")))
	// 40 + 15 + 10 = 65 < 75
	assert.True(t, q.TotalPrice.Equal(dec("75")))
}

func TestGenerateQuotesAboveFloorIsNotBumped(t *testing.T) {
	sc := testCatalog("50")
	sc.SizePrices["sr"] = map[string]decimal.Decimal{"p1": dec("80")}

	q := GenerateQuotes(QuoteRequest{Catalog: sc, SizeRangeID: "sr"}).Quotes[0]
	assert.True(t, q.TotalPrice.Equal(dec("80")), "base price is a floor, not an addition")
}

func TestGenerateQuotesMultiplePackages(t *testing.T) {
	m, err := catalog.LoadFile("../catalog/testdata/catalog.yaml")
	require.NoError(t, err)
	sc, err := m.Service(context.Background(), "svc-clean")
	require.NoError(t, err)
	loc, err := m.Location(context.Background(), "loc-north")
	require.NoError(t, err)

	responses, err := Validate(sc, []ResponseInput{
		yes("q-pets"),
		{QuestionID: "q-pet-kind", SelectedOptions: []OptionSelection{{OptionID: "o-dog"}}},
		{QuestionID: "q-extras", SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-roof", Answer: true}}},
	})
	require.NoError(t, err)

	set := GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses, SizeRangeID: "sr-large", Location: loc})
	require.Len(t, set.Quotes, 2, "inactive packages are not quoted")
	assert.Equal(t, "pkg-basic", set.Quotes[0].PackageID)
	assert.Equal(t, "pkg-premium", set.Quotes[1].PackageID)

	basic := set.Find("pkg-basic")
	// 20% of 150 + 7 for the dog; roof wash is fixed price
	assert.True(t, basic.QuestionAdjustments.Equal(dec("37")))
	assert.True(t, basic.TotalPrice.Equal(dec("197")))
	assert.True(t, basic.RequiresBid)
	assert.Equal(t, []string{"f-gutters"}, basic.IncludedFeatures)
	assert.Equal(t, []string{"f-windows"}, basic.ExcludedFeatures)

	premium := set.Find("pkg-premium")
	assert.True(t, premium.QuestionAdjustments.Equal(dec("5")))
	assert.False(t, premium.RequiresBid)
	assert.True(t, set.RequiresBid)

	for _, q := range set.Quotes {
		assert.True(t, q.SurchargeAmount.Equal(set.Surcharge), "surcharge is identical across packages")
		assert.False(t, q.IsSelected)
	}

	// feature lists are copies
	basic.IncludedFeatures[0] = "mutated"
	again := GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses, SizeRangeID: "sr-large", Location: loc})
	assert.Equal(t, "f-gutters", again.Find("pkg-basic").IncludedFeatures[0])
}

func TestSurchargeRequiresSettingAndLocation(t *testing.T) {
	loc := &catalog.Location{TripSurcharge: dec("12")}
	on := catalog.Service{Settings: catalog.ServiceSettings{ApplyTripSurcharge: true}}

	assert.True(t, Surcharge(on, loc).Equal(dec("12")))
	assert.True(t, Surcharge(on, nil).IsZero())
	assert.True(t, Surcharge(catalog.Service{}, loc).IsZero())
}

// TestFloorInvariant checks total_price >= base_price over random rule sets.
func TestFloorInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kinds := []catalog.PricingKind{
		catalog.PricingIgnore, catalog.PricingUpchargePercent, catalog.PricingDiscountPercent,
		catalog.PricingFixedPrice, catalog.PricingPerQuantity,
	}
	valueKinds := []catalog.ValueKind{catalog.ValueAmount, catalog.ValuePercent}
	pick := func() catalog.PricingRule {
		return catalog.PricingRule{
			Kind:      kinds[rng.Intn(len(kinds))],
			ValueKind: valueKinds[rng.Intn(len(valueKinds))],
			Value:     decFromInt(rng.Intn(200)),
		}
	}

	for i := 0; i < 200; i++ {
		base := decFromInt(rng.Intn(300))
		sc := testCatalog(base.String())
		sc.SizePrices["sr"] = map[string]decimal.Decimal{"p1": decFromInt(rng.Intn(250))}
		sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p1"}] = pick()
		sc.OptionRules[catalog.RuleKey{TargetID: "o-x", PackageID: "p1"}] = pick()
		sc.OptionRules[catalog.RuleKey{TargetID: "o-y", PackageID: "p1"}] = pick()
		sc.SubQuestionRules[catalog.RuleKey{TargetID: "s-1", PackageID: "p1"}] = pick()

		responses, err := Validate(sc, []ResponseInput{
			yes("q-yes"),
			{QuestionID: "q-qty", SelectedOptions: []OptionSelection{
				{OptionID: "o-x", Quantity: intPtr(rng.Intn(10))},
				{OptionID: "o-y", Quantity: intPtr(rng.Intn(10))},
			}},
			{QuestionID: "q-multi", SubQuestionAnswers: []SubAnswer{{SubQuestionID: "s-1", Answer: rng.Intn(2) == 0}}},
		})
		require.NoError(t, err)

		for _, q := range GenerateQuotes(QuoteRequest{Catalog: sc, Responses: responses, SizeRangeID: "sr"}).Quotes {
			assert.True(t, q.TotalPrice.GreaterThanOrEqual(q.BasePrice), "iteration %d: %s < %s", i, q.TotalPrice, q.BasePrice)
		}
	}
}

func TestDisplayAdjustmentAveragesPackages(t *testing.T) {
	sc := testCatalog("0")
	sc.Packages = append(sc.Packages, catalog.Package{ID: "p2", Name: "Plus", Active: true, Order: 2})
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "10")
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p2"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "25")

	r := Response{QuestionID: "q-yes", Answer: YesNoAnswer{Yes: true}}
	assert.True(t, DisplayAdjustment(sc, r, "").Equal(dec("17.5")))
}

func TestDisplayAdjustmentIgnoresQuantityDiscounts(t *testing.T) {
	sc := testCatalog("0")
	sc.OptionRules[catalog.RuleKey{TargetID: "o-x", PackageID: "p1"}] = rule(catalog.PricingPerQuantity, catalog.ValueAmount, "10")
	sc.Discounts = []catalog.QuantityDiscount{
		{ID: "d", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("10"), MinQuantity: 1},
	}
	r := Response{QuestionID: "q-qty", Answer: QuantityAnswer{Options: []SelectedOption{{"o-x", 5}}}}

	assert.True(t, DisplayAdjustment(sc, r, "").Equal(dec("50")))
	assert.True(t, PackageAdjustment(sc, r, "p1", dec("0")).Amount.Equal(dec("45")))
}
