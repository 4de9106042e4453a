package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// PackageAdjustment is the adjustment a response contributes to one
// package's quote, including quantity discounts.
func PackageAdjustment(sc *catalog.ServiceCatalog, r Response, packageID string, sizePrice decimal.Decimal) Adjustment {
	return evaluate(sc, r, packageID, sizePrice, true)
}

func evaluate(sc *catalog.ServiceCatalog, r Response, packageID string, sizePrice decimal.Decimal, withDiscounts bool) Adjustment {
	zero := Adjustment{Amount: decimal.Zero}

	switch a := r.Answer.(type) {
	case YesNoAnswer:
		if !a.Yes {
			return zero
		}
		return questionRule(sc, r.QuestionID, packageID, sizePrice)

	case ConditionalAnswer:
		if !a.Yes {
			return zero
		}
		return questionRule(sc, r.QuestionID, packageID, sizePrice)

	case DescribeAnswer:
		total := zero
		for _, opt := range a.Options {
			rule, ok := sc.OptionRule(opt.OptionID, packageID)
			if !ok {
				continue
			}
			total = total.Add(EvaluateRule(rule, sizePrice, opt.Quantity, false))
		}
		return total

	case QuantityAnswer:
		return quantityAdjustment(sc, r.QuestionID, a, packageID, sizePrice, withDiscounts)

	case MultipleYesNoAnswer:
		total := zero
		for _, sub := range a.Subs {
			if !sub.Answer {
				continue
			}
			rule, ok := sc.SubQuestionRule(sub.SubQuestionID, packageID)
			if !ok {
				continue
			}
			total = total.Add(EvaluateRule(rule, sizePrice, 1, false))
		}
		return total

	case MeasurementAnswer:
		return zero
	}
	return zero
}

func questionRule(sc *catalog.ServiceCatalog, questionID, packageID string, sizePrice decimal.Decimal) Adjustment {
	rule, ok := sc.QuestionRule(questionID, packageID)
	if !ok {
		return Adjustment{Amount: decimal.Zero}
	}
	return EvaluateRule(rule, sizePrice, 1, false)
}
