package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML layout of a catalog.
type File struct {
	Features   []Feature     `yaml:"features"`
	Locations  []Location    `yaml:"locations"`
	SizeRanges []SizeRange   `yaml:"size_ranges"`
	AddOns     []AddOn       `yaml:"add_ons"`
	Coupons    []Coupon      `yaml:"coupons"`
	Services   []FileService `yaml:"services"`
}

// FileService is one service block of a catalog file.
type FileService struct {
	Service    `yaml:",inline"`
	Packages   []Package          `yaml:"packages"`
	Questions  []Question         `yaml:"questions"`
	Pricing    FilePricing        `yaml:"pricing"`
	Discounts  []QuantityDiscount `yaml:"discounts"`
	SizePrices []FileSizePrice    `yaml:"size_prices"`
}

// FilePricing groups the three rule variants.
type FilePricing struct {
	Questions    []FileRule `yaml:"questions"`
	Options      []FileRule `yaml:"options"`
	SubQuestions []FileRule `yaml:"sub_questions"`
}

// FileRule is a pricing rule row keyed by target and package.
type FileRule struct {
	TargetID    string `yaml:"target_id"`
	PackageID   string `yaml:"package_id"`
	PricingRule `yaml:",inline"`
}

// FileSizePrice maps a size range and package to a price.
type FileSizePrice struct {
	SizeRangeID string          `yaml:"size_range_id"`
	PackageID   string          `yaml:"package_id"`
	Price       decimal.Decimal `yaml:"price"`
}

// LoadFile reads a YAML catalog into memory.
func LoadFile(path string) (*Memory, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Build(), nil
}

// ReadFile reads and validates a YAML catalog without building it.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Decode(data)
}

// Parse decodes a YAML catalog and validates its references.
func Parse(data []byte) (*Memory, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Build(), nil
}

// Decode decodes and validates a YAML catalog.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Build turns a decoded file into an in-memory catalog.
func (f *File) Build() *Memory {
	m := NewMemory()
	features := make(map[string]Feature, len(f.Features))
	for _, ft := range f.Features {
		features[ft.ID] = ft
	}
	for _, loc := range f.Locations {
		m.PutLocation(loc)
	}
	for _, a := range f.AddOns {
		m.PutAddOn(a)
	}
	for _, c := range f.Coupons {
		m.PutCoupon(c)
	}
	for _, fs := range f.Services {
		for i := range fs.Packages {
			fs.Packages[i].ServiceID = fs.ID
		}
		for i := range fs.Questions {
			fs.Questions[i].ServiceID = fs.ID
		}
		sc := NewServiceCatalog(fs.Service, fs.Packages, fs.Questions)
		sc.Features = features
		for _, r := range fs.Pricing.Questions {
			sc.QuestionRules[RuleKey{TargetID: r.TargetID, PackageID: r.PackageID}] = r.PricingRule
		}
		for _, r := range fs.Pricing.Options {
			sc.OptionRules[RuleKey{TargetID: r.TargetID, PackageID: r.PackageID}] = r.PricingRule
		}
		for _, r := range fs.Pricing.SubQuestions {
			sc.SubQuestionRules[RuleKey{TargetID: r.TargetID, PackageID: r.PackageID}] = r.PricingRule
		}
		sc.Discounts = append(sc.Discounts, fs.Discounts...)
		for _, sp := range fs.SizePrices {
			if sc.SizePrices[sp.SizeRangeID] == nil {
				sc.SizePrices[sp.SizeRangeID] = make(map[string]decimal.Decimal)
			}
			sc.SizePrices[sp.SizeRangeID][sp.PackageID] = sp.Price
		}
		m.PutService(sc)
	}
	return m
}

// Validate checks that every reference in the file resolves.
func (f *File) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	features := make(map[string]bool)
	for _, ft := range f.Features {
		features[ft.ID] = true
	}
	sizeRanges := make(map[string]bool)
	for _, sr := range f.SizeRanges {
		sizeRanges[sr.ID] = true
	}

	seenServices := make(map[string]bool)
	for _, s := range f.Services {
		if s.ID == "" {
			add("service with empty id")
			continue
		}
		if seenServices[s.ID] {
			add("duplicate service %s", s.ID)
		}
		seenServices[s.ID] = true

		packages := make(map[string]bool)
		for _, p := range s.Packages {
			packages[p.ID] = true
			if p.BasePrice.IsNegative() {
				add("package %s: negative base price", p.ID)
			}
			for _, pf := range p.Features {
				if !features[pf.FeatureID] {
					add("package %s: unknown feature %s", p.ID, pf.FeatureID)
				}
			}
		}

		questions := make(map[string]*Question)
		options := make(map[string]string)
		subs := make(map[string]string)
		for i := range s.Questions {
			q := &s.Questions[i]
			if !q.Type.Valid() {
				add("question %s: unknown type %q", q.ID, q.Type)
			}
			questions[q.ID] = q
			for _, o := range q.Options {
				options[o.ID] = q.ID
			}
			for _, sq := range q.SubQuestions {
				subs[sq.ID] = q.ID
			}
		}
		for _, q := range questions {
			if q.ParentID == "" {
				continue
			}
			parent, ok := questions[q.ParentID]
			if !ok {
				add("question %s: unknown parent %s", q.ID, q.ParentID)
				continue
			}
			if q.Condition != nil && q.Condition.OptionID != "" && !parent.HasOption(q.Condition.OptionID) {
				add("question %s: condition option %s not on parent %s", q.ID, q.Condition.OptionID, parent.ID)
			}
			if q.Condition != nil && q.Condition.Answer != "" && q.Condition.Answer != "yes" && q.Condition.Answer != "no" {
				add("question %s: condition answer must be yes or no", q.ID)
			}
		}

		checkRule := func(kind string, r FileRule, exists bool) {
			if !exists {
				add("%s rule: unknown target %s", kind, r.TargetID)
			}
			if !packages[r.PackageID] {
				add("%s rule %s: unknown package %s", kind, r.TargetID, r.PackageID)
			}
			if err := validateRule(r.PricingRule); err != nil {
				add("%s rule %s/%s: %v", kind, r.TargetID, r.PackageID, err)
			}
		}
		for _, r := range s.Pricing.Questions {
			_, ok := questions[r.TargetID]
			checkRule("question", r, ok)
		}
		for _, r := range s.Pricing.Options {
			_, ok := options[r.TargetID]
			checkRule("option", r, ok)
		}
		for _, r := range s.Pricing.SubQuestions {
			_, ok := subs[r.TargetID]
			checkRule("sub-question", r, ok)
		}

		for _, d := range s.Discounts {
			q, ok := questions[d.QuestionID]
			if !ok {
				add("discount %s: unknown question %s", d.ID, d.QuestionID)
				continue
			}
			if d.Scope == ScopeOption && !q.HasOption(d.OptionID) {
				add("discount %s: option %s not on question %s", d.ID, d.OptionID, q.ID)
			}
			if d.Scope != ScopeOption && d.Scope != ScopeQuestion {
				add("discount %s: unknown scope %q", d.ID, d.Scope)
			}
			if d.Kind != DiscountPercent && d.Kind != DiscountFixed {
				add("discount %s: unknown kind %q", d.ID, d.Kind)
			}
		}

		for _, sp := range s.SizePrices {
			if len(sizeRanges) > 0 && !sizeRanges[sp.SizeRangeID] {
				add("size price: unknown size range %s", sp.SizeRangeID)
			}
			if !packages[sp.PackageID] {
				add("size price: unknown package %s", sp.PackageID)
			}
		}
	}

	if len(problems) > 0 {
		return &InvalidCatalogError{Problems: problems}
	}
	return nil
}

func validateRule(r PricingRule) error {
	switch r.Kind {
	case PricingIgnore, PricingUpchargePercent, PricingDiscountPercent, PricingFixedPrice, PricingPerQuantity:
	default:
		return fmt.Errorf("unknown pricing kind %q", r.Kind)
	}
	switch r.ValueKind {
	case ValueAmount, ValuePercent:
	default:
		return fmt.Errorf("unknown value kind %q", r.ValueKind)
	}
	return nil
}

// InvalidCatalogError lists every broken reference of a catalog file.
type InvalidCatalogError struct {
	Problems []string
}

func (e *InvalidCatalogError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid catalog: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid catalog: %d problems, first: %s", len(e.Problems), e.Problems[0])
}
