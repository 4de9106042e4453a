package catalog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// QuestionType identifies which answer shape a question accepts.
type QuestionType string

const (
	QuestionYesNo         QuestionType = "yes_no"
	QuestionDescribe      QuestionType = "describe"
	QuestionQuantity      QuestionType = "quantity"
	QuestionMultipleYesNo QuestionType = "multiple_yes_no"
	QuestionConditional   QuestionType = "conditional"
	QuestionMeasurement   QuestionType = "measurement"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionYesNo, QuestionDescribe, QuestionQuantity,
		QuestionMultipleYesNo, QuestionConditional, QuestionMeasurement:
		return true
	}
	return false
}

// PricingKind is how a rule changes the price of a package.
type PricingKind string

const (
	PricingIgnore          PricingKind = "ignore"
	PricingUpchargePercent PricingKind = "upcharge_percent"
	PricingDiscountPercent PricingKind = "discount_percent"
	PricingFixedPrice      PricingKind = "fixed_price"
	PricingPerQuantity     PricingKind = "per_quantity"
)

// ValueKind says whether a rule value is an absolute amount or a percentage
// of the size-based price.
type ValueKind string

const (
	ValueAmount  ValueKind = "amount"
	ValuePercent ValueKind = "percent"
)

// DiscountScope selects whether a quantity discount applies to one option or
// to the whole question.
type DiscountScope string

const (
	ScopeQuestion DiscountScope = "question"
	ScopeOption   DiscountScope = "option"
)

// DiscountKind is the unit of a quantity discount value.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// Service is a quotable service with its settings.
type Service struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Active   bool            `json:"active" yaml:"active"`
	Settings ServiceSettings `json:"settings" yaml:"settings"`
}

// ServiceSettings holds per-service switches read during pricing.
type ServiceSettings struct {
	// ApplyTripSurcharge adds the location trip surcharge to every package quote.
	ApplyTripSurcharge bool `json:"apply_trip_surcharge" yaml:"apply_trip_surcharge"`
}

// Feature is a named capability a package may include.
type Feature struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// PackageFeature associates a feature with a package.
type PackageFeature struct {
	FeatureID string `json:"feature_id" yaml:"feature_id"`
	Included  bool   `json:"included" yaml:"included"`
}

// Package is a purchasable tier of a service.
type Package struct {
	ID        string           `json:"id" yaml:"id"`
	ServiceID string           `json:"service_id" yaml:"service_id"`
	Name      string           `json:"name" yaml:"name"`
	BasePrice decimal.Decimal  `json:"base_price" yaml:"base_price"`
	Active    bool             `json:"active" yaml:"active"`
	Order     int              `json:"order" yaml:"order"`
	Features  []PackageFeature `json:"features" yaml:"features"`
}

// Condition gates a conditional question on its parent's answer.
// Exactly one of Answer or OptionID is normally set; a parent of type
// multiple_yes_no ignores both and requires any true sub answer.
type Condition struct {
	Answer   string `json:"answer,omitempty" yaml:"answer,omitempty"`
	OptionID string `json:"option_id,omitempty" yaml:"option_id,omitempty"`
}

// Option is a selectable answer of a describe or quantity question.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Order int    `json:"order" yaml:"order"`
}

// SubQuestion is one yes/no item of a multiple_yes_no question.
type SubQuestion struct {
	ID    string `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Order int    `json:"order" yaml:"order"`
}

// Question is a node of a service's question tree.
type Question struct {
	ID           string        `json:"id" yaml:"id"`
	ServiceID    string        `json:"service_id" yaml:"service_id"`
	Text         string        `json:"text" yaml:"text"`
	Type         QuestionType  `json:"type" yaml:"type"`
	Order        int           `json:"order" yaml:"order"`
	Active       bool          `json:"active" yaml:"active"`
	ParentID     string        `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Condition    *Condition    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Options      []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	SubQuestions []SubQuestion `json:"sub_questions,omitempty" yaml:"sub_questions,omitempty"`
}

// IsRoot reports whether the question has no parent.
func (q *Question) IsRoot() bool {
	return q.ParentID == ""
}

// HasOption reports whether optionID belongs to the question.
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// HasSubQuestion reports whether subID belongs to the question.
func (q *Question) HasSubQuestion(subID string) bool {
	for _, s := range q.SubQuestions {
		if s.ID == subID {
			return true
		}
	}
	return false
}

// PricingRule is one package-specific rule for a question, option or
// sub-question.
type PricingRule struct {
	Kind      PricingKind     `json:"kind" yaml:"kind"`
	ValueKind ValueKind       `json:"value_kind" yaml:"value_kind"`
	Value     decimal.Decimal `json:"value" yaml:"value"`
}

// Ignored reports whether the rule has no price impact.
func (r PricingRule) Ignored() bool {
	return r.Kind == PricingIgnore || r.Kind == ""
}

// RuleKey identifies a rule by its target (question, option or sub-question id)
// and package.
type RuleKey struct {
	TargetID  string
	PackageID string
}

// QuantityDiscount is a tiered reduction for quantity questions.
type QuantityDiscount struct {
	ID          string          `json:"id" yaml:"id"`
	QuestionID  string          `json:"question_id" yaml:"question_id"`
	OptionID    string          `json:"option_id,omitempty" yaml:"option_id,omitempty"`
	Scope       DiscountScope   `json:"scope" yaml:"scope"`
	Kind        DiscountKind    `json:"kind" yaml:"kind"`
	Value       decimal.Decimal `json:"value" yaml:"value"`
	MinQuantity int             `json:"min_quantity" yaml:"min_quantity"`
}

// Location is a service area with its trip surcharge.
type Location struct {
	ID            string          `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	TripSurcharge decimal.Decimal `json:"trip_surcharge" yaml:"trip_surcharge"`
}

// SizeRange is a property size bracket.
type SizeRange struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Min   int    `json:"min" yaml:"min"`
	Max   int    `json:"max" yaml:"max"`
}

// AddOn is an extra sold alongside the packages of a submission.
type AddOn struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	BasePrice decimal.Decimal `json:"base_price" yaml:"base_price"`
	Active    bool            `json:"active" yaml:"active"`
}

// Coupon is a global or per-submission discount definition.
type Coupon struct {
	ID           string          `json:"id" yaml:"id"`
	Code         string          `json:"code" yaml:"code"`
	SubmissionID string          `json:"submission_id,omitempty" yaml:"submission_id,omitempty"`
	Percentage   decimal.Decimal `json:"percentage" yaml:"percentage"`
	FixedAmount  decimal.Decimal `json:"fixed_amount" yaml:"fixed_amount"`
	ValidFrom    *time.Time      `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty" yaml:"valid_until,omitempty"`
	Active       bool            `json:"active" yaml:"active"`
}

// ValidAt reports whether the coupon can be applied at now for submissionID.
func (c *Coupon) ValidAt(now time.Time, submissionID string) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.SubmissionID != "" && c.SubmissionID != submissionID {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// ServiceCatalog is an immutable snapshot of everything needed to price one
// service. Build it with NewServiceCatalog; lookups never mutate it.
type ServiceCatalog struct {
	Service   Service
	Packages  []Package
	Questions []Question
	Features  map[string]Feature

	QuestionRules    map[RuleKey]PricingRule
	OptionRules      map[RuleKey]PricingRule
	SubQuestionRules map[RuleKey]PricingRule

	Discounts []QuantityDiscount

	// SizePrices maps size range id -> package id -> price.
	SizePrices map[string]map[string]decimal.Decimal

	questionsByID map[string]*Question
}

// NewServiceCatalog indexes the given parts. Packages are ordered by display
// order then id so quote generation is deterministic.
func NewServiceCatalog(svc Service, packages []Package, questions []Question) *ServiceCatalog {
	sc := &ServiceCatalog{
		Service:          svc,
		Packages:         append([]Package(nil), packages...),
		Questions:        append([]Question(nil), questions...),
		Features:         make(map[string]Feature),
		QuestionRules:    make(map[RuleKey]PricingRule),
		OptionRules:      make(map[RuleKey]PricingRule),
		SubQuestionRules: make(map[RuleKey]PricingRule),
		SizePrices:       make(map[string]map[string]decimal.Decimal),
	}
	sort.SliceStable(sc.Packages, func(i, j int) bool {
		if sc.Packages[i].Order != sc.Packages[j].Order {
			return sc.Packages[i].Order < sc.Packages[j].Order
		}
		return sc.Packages[i].ID < sc.Packages[j].ID
	})
	sort.SliceStable(sc.Questions, func(i, j int) bool {
		if sc.Questions[i].Order != sc.Questions[j].Order {
			return sc.Questions[i].Order < sc.Questions[j].Order
		}
		return sc.Questions[i].ID < sc.Questions[j].ID
	})
	sc.reindex()
	return sc
}

func (sc *ServiceCatalog) reindex() {
	sc.questionsByID = make(map[string]*Question, len(sc.Questions))
	for i := range sc.Questions {
		sc.questionsByID[sc.Questions[i].ID] = &sc.Questions[i]
	}
}

// Question returns the question with id, or nil.
func (sc *ServiceCatalog) Question(id string) *Question {
	if sc.questionsByID == nil {
		sc.reindex()
	}
	return sc.questionsByID[id]
}

// ActivePackages returns the active packages in quote order.
func (sc *ServiceCatalog) ActivePackages() []Package {
	out := make([]Package, 0, len(sc.Packages))
	for _, p := range sc.Packages {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Package returns the package with id, or nil.
func (sc *ServiceCatalog) Package(id string) *Package {
	for i := range sc.Packages {
		if sc.Packages[i].ID == id {
			return &sc.Packages[i]
		}
	}
	return nil
}

// QuestionRule returns the rule for a question and package.
func (sc *ServiceCatalog) QuestionRule(questionID, packageID string) (PricingRule, bool) {
	r, ok := sc.QuestionRules[RuleKey{TargetID: questionID, PackageID: packageID}]
	return r, ok
}

// OptionRule returns the rule for an option and package.
func (sc *ServiceCatalog) OptionRule(optionID, packageID string) (PricingRule, bool) {
	r, ok := sc.OptionRules[RuleKey{TargetID: optionID, PackageID: packageID}]
	return r, ok
}

// SubQuestionRule returns the rule for a sub-question and package.
func (sc *ServiceCatalog) SubQuestionRule(subID, packageID string) (PricingRule, bool) {
	r, ok := sc.SubQuestionRules[RuleKey{TargetID: subID, PackageID: packageID}]
	return r, ok
}

// SizePrice returns the size-based price for a package. A missing mapping
// prices at zero.
func (sc *ServiceCatalog) SizePrice(sizeRangeID, packageID string) decimal.Decimal {
	if sizeRangeID == "" {
		return decimal.Zero
	}
	byPkg, ok := sc.SizePrices[sizeRangeID]
	if !ok {
		return decimal.Zero
	}
	price, ok := byPkg[packageID]
	if !ok {
		return decimal.Zero
	}
	return price
}

// DiscountsFor returns the quantity discounts of a question.
func (sc *ServiceCatalog) DiscountsFor(questionID string) []QuantityDiscount {
	var out []QuantityDiscount
	for _, d := range sc.Discounts {
		if d.QuestionID == questionID {
			out = append(out, d)
		}
	}
	return out
}

// FeatureLists returns the included and excluded feature ids of a package,
// as fresh copies.
func (sc *ServiceCatalog) FeatureLists(pkg Package) (included, excluded []string) {
	included = []string{}
	excluded = []string{}
	for _, pf := range pkg.Features {
		if pf.Included {
			included = append(included, pf.FeatureID)
		} else {
			excluded = append(excluded, pf.FeatureID)
		}
	}
	return included, excluded
}

// FeatureNames maps feature ids to display names. Unknown or unnamed
// features keep their id.
func (sc *ServiceCatalog) FeatureNames(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id
		if f, ok := sc.Features[id]; ok && f.Name != "" {
			names[i] = f.Name
		}
	}
	return names
}
