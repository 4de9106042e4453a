package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func rule(kind catalog.PricingKind, vk catalog.ValueKind, value string) catalog.PricingRule {
	return catalog.PricingRule{Kind: kind, ValueKind: vk, Value: dec(value)}
}

// testCatalog builds a service with one package "p1" and the question tree
//
//	q-yes (yes_no)
//	  q-child (conditional, answer yes)
//	  q-kind (describe, answer no) options o-a, o-b
//	q-qty (quantity) options o-x, o-y
//	q-multi (multiple_yes_no) subs s-1, s-2
//	  q-after-multi (yes_no)
//	q-size (measurement)
func testCatalog(basePrice string) *catalog.ServiceCatalog {
	svc := catalog.Service{ID: "svc", Name: "Service", Active: true}
	packages := []catalog.Package{
		{ID: "p1", ServiceID: "svc", Name: "Standard", BasePrice: dec(basePrice), Active: true, Order: 1},
	}
	questions := []catalog.Question{
		{ID: "q-yes", Type: catalog.QuestionYesNo, Order: 1, Active: true},
		{ID: "q-child", Type: catalog.QuestionConditional, Order: 2, Active: true, ParentID: "q-yes", Condition: &catalog.Condition{Answer: "yes"}},
		{ID: "q-kind", Type: catalog.QuestionDescribe, Order: 3, Active: true, ParentID: "q-yes", Condition: &catalog.Condition{Answer: "no"},
			Options: []catalog.Option{{ID: "o-a"}, {ID: "o-b"}}},
		{ID: "q-qty", Type: catalog.QuestionQuantity, Order: 4, Active: true,
			Options: []catalog.Option{{ID: "o-x"}, {ID: "o-y"}}},
		{ID: "q-multi", Type: catalog.QuestionMultipleYesNo, Order: 5, Active: true,
			SubQuestions: []catalog.SubQuestion{{ID: "s-1"}, {ID: "s-2"}}},
		{ID: "q-after-multi", Type: catalog.QuestionYesNo, Order: 6, Active: true, ParentID: "q-multi"},
		{ID: "q-size", Type: catalog.QuestionMeasurement, Order: 7, Active: true},
		{ID: "q-old", Type: catalog.QuestionYesNo, Order: 8, Active: false},
	}
	for i := range questions {
		questions[i].ServiceID = "svc"
	}
	return catalog.NewServiceCatalog(svc, packages, questions)
}

func yes(questionID string) ResponseInput {
	b := true
	return ResponseInput{QuestionID: questionID, YesNoAnswer: &b}
}

func no(questionID string) ResponseInput {
	b := false
	return ResponseInput{QuestionID: questionID, YesNoAnswer: &b}
}

func decFromInt(i int) decimal.Decimal {
	return decimal.NewFromInt(int64(i))
}
