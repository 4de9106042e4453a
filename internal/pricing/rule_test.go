package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kosarica/quote-service/internal/catalog"
)

func TestEvaluateRule(t *testing.T) {
	tests := []struct {
		name        string
		rule        catalog.PricingRule
		sizePrice   string
		quantity    int
		perQuantity bool
		want        string
		wantBid     bool
	}{
		{"ignore", rule(catalog.PricingIgnore, catalog.ValueAmount, "10"), "100", 1, false, "0", false},
		{"fixed price flags bid", rule(catalog.PricingFixedPrice, catalog.ValueAmount, "10"), "100", 3, true, "0", true},
		{"upcharge amount", rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "12.50"), "100", 1, false, "12.50", false},
		{"upcharge percent of size", rule(catalog.PricingUpchargePercent, catalog.ValuePercent, "20"), "150", 1, false, "30", false},
		{"percent of zero size is zero", rule(catalog.PricingUpchargePercent, catalog.ValuePercent, "20"), "0", 1, false, "0", false},
		{"discount negates", rule(catalog.PricingDiscountPercent, catalog.ValuePercent, "10"), "200", 1, false, "-20", false},
		{"per quantity multiplies", rule(catalog.PricingPerQuantity, catalog.ValueAmount, "5"), "0", 3, false, "15", false},
		{"upcharge scales on quantity questions", rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "4"), "0", 3, true, "12", false},
		{"upcharge does not scale elsewhere", rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "4"), "0", 3, false, "4", false},
		{"discount scales on quantity questions", rule(catalog.PricingDiscountPercent, catalog.ValueAmount, "2"), "0", 4, true, "-8", false},
		{"unknown kind is no impact", rule("mystery", catalog.ValueAmount, "9"), "0", 1, false, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateRule(tt.rule, dec(tt.sizePrice), tt.quantity, tt.perQuantity)
			assert.True(t, got.Amount.Equal(dec(tt.want)), "got %s want %s", got.Amount, tt.want)
			assert.Equal(t, tt.wantBid, got.RequiresBid)
		})
	}
}

func TestPackageAdjustmentDispatch(t *testing.T) {
	sc := testCatalog("0")
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-yes", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "10")
	sc.QuestionRules[catalog.RuleKey{TargetID: "q-child", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "3")
	sc.OptionRules[catalog.RuleKey{TargetID: "o-a", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "6")
	sc.SubQuestionRules[catalog.RuleKey{TargetID: "s-1", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "8")
	sc.SubQuestionRules[catalog.RuleKey{TargetID: "s-2", PackageID: "p1"}] = rule(catalog.PricingUpchargePercent, catalog.ValueAmount, "100")

	tests := []struct {
		name   string
		answer Answer
		id     string
		want   string
	}{
		{"yes applies", YesNoAnswer{Yes: true}, "q-yes", "10"},
		{"no does not apply", YesNoAnswer{Yes: false}, "q-yes", "0"},
		{"conditional yes", ConditionalAnswer{Yes: true}, "q-child", "3"},
		{"describe sums options", DescribeAnswer{Options: []SelectedOption{{"o-a", 1}, {"o-b", 1}}}, "q-kind", "6"},
		{"multi sums true subs", MultipleYesNoAnswer{Subs: []SubAnswer{{"s-1", true}, {"s-2", false}}}, "q-multi", "8"},
		{"measurement has no price", MeasurementAnswer{Value: "100"}, "q-size", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PackageAdjustment(sc, Response{QuestionID: tt.id, Answer: tt.answer}, "p1", decimal.Zero)
			assert.True(t, got.Amount.Equal(dec(tt.want)), "got %s", got.Amount)
		})
	}
}

func TestQuantityDiscounts(t *testing.T) {
	tests := []struct {
		name      string
		discounts []catalog.QuantityDiscount
		options   []SelectedOption
		want      string
	}{
		{
			name: "whole question percent",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("10"), MinQuantity: 5},
			},
			// 5 x $10 on o-x plus one unpriced o-y: total quantity 6, pre-discount $50
			options: []SelectedOption{{"o-x", 5}, {"o-y", 1}},
			want:    "45",
		},
		{
			name: "below threshold",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("10"), MinQuantity: 7},
			},
			options: []SelectedOption{{"o-x", 5}, {"o-y", 1}},
			want:    "50",
		},
		{
			name: "highest reached threshold wins",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("10"), MinQuantity: 2},
				{ID: "d2", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("20"), MinQuantity: 5},
				{ID: "d3", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("50"), MinQuantity: 50},
			},
			options: []SelectedOption{{"o-x", 5}},
			want:    "40",
		},
		{
			name: "option then question stack",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", OptionID: "o-x", Scope: catalog.ScopeOption, Kind: catalog.DiscountPercent, Value: dec("20"), MinQuantity: 3},
				{ID: "d2", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountPercent, Value: dec("10"), MinQuantity: 5},
			},
			// option: 50 - 10 = 40; question: 10% of pre-discount 50 = 5
			options: []SelectedOption{{"o-x", 5}},
			want:    "35",
		},
		{
			name: "fixed discounts subtract",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", OptionID: "o-x", Scope: catalog.ScopeOption, Kind: catalog.DiscountFixed, Value: dec("3"), MinQuantity: 1},
				{ID: "d2", QuestionID: "q-qty", Scope: catalog.ScopeQuestion, Kind: catalog.DiscountFixed, Value: dec("2"), MinQuantity: 1},
			},
			options: []SelectedOption{{"o-x", 5}},
			want:    "45",
		},
		{
			name: "option discount on other option ignored",
			discounts: []catalog.QuantityDiscount{
				{ID: "d1", QuestionID: "q-qty", OptionID: "o-y", Scope: catalog.ScopeOption, Kind: catalog.DiscountPercent, Value: dec("50"), MinQuantity: 1},
			},
			options: []SelectedOption{{"o-x", 5}},
			want:    "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := testCatalog("0")
			sc.OptionRules[catalog.RuleKey{TargetID: "o-x", PackageID: "p1"}] = rule(catalog.PricingPerQuantity, catalog.ValueAmount, "10")
			sc.Discounts = tt.discounts

			r := Response{QuestionID: "q-qty", Answer: QuantityAnswer{Options: tt.options}}
			got := PackageAdjustment(sc, r, "p1", decimal.Zero)
			assert.True(t, got.Amount.Equal(dec(tt.want)), "got %s want %s", got.Amount, tt.want)
		})
	}
}
