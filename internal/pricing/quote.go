package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// QuoteRequest holds everything needed to quote one service selection.
type QuoteRequest struct {
	Catalog     *catalog.ServiceCatalog
	Responses   []Response
	SizeRangeID string            // empty when the submission has no size range
	Location    *catalog.Location // nil when the submission has no location
}

// Quote is the price breakdown of one package.
type Quote struct {
	PackageID           string          `json:"package_id"`
	PackageName         string          `json:"package_name"`
	BasePrice           decimal.Decimal `json:"base_price"`
	SizePrice           decimal.Decimal `json:"size_price"`
	QuestionAdjustments decimal.Decimal `json:"question_adjustments"`
	SurchargeAmount     decimal.Decimal `json:"surcharge_amount"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	RequiresBid         bool            `json:"requires_bid"`
	IncludedFeatures    []string        `json:"included_features"` // feature ids
	ExcludedFeatures    []string        `json:"excluded_features"` // feature ids
	IsSelected          bool            `json:"is_selected"`
}

// QuoteSet is the full set of quotes for one service selection.
type QuoteSet struct {
	Quotes      []Quote
	Surcharge   decimal.Decimal // identical for every package of the service
	RequiresBid bool            // any package hit a fixed_price rule
}

// Find returns the quote for packageID, or nil.
func (s *QuoteSet) Find(packageID string) *Quote {
	for i := range s.Quotes {
		if s.Quotes[i].PackageID == packageID {
			return &s.Quotes[i]
		}
	}
	return nil
}

// Surcharge returns the trip surcharge for a service: the location's trip
// surcharge when the service applies it and a location is known, else zero.
func Surcharge(svc catalog.Service, loc *catalog.Location) decimal.Decimal {
	if !svc.Settings.ApplyTripSurcharge || loc == nil {
		return decimal.Zero
	}
	return loc.TripSurcharge
}

// GenerateQuotes prices every active package of the service. Quotes are
// ordered like the catalog packages and none is selected.
//
// The package base price is a floor: total = max(size + adjustments +
// surcharge, base).
func GenerateQuotes(req QuoteRequest) QuoteSet {
	sc := req.Catalog
	surcharge := Surcharge(sc.Service, req.Location)

	packages := sc.ActivePackages()
	set := QuoteSet{
		Quotes:    make([]Quote, 0, len(packages)),
		Surcharge: round(surcharge),
	}

	for _, pkg := range packages {
		sizePrice := sc.SizePrice(req.SizeRangeID, pkg.ID)

		adj := Adjustment{Amount: decimal.Zero}
		for _, r := range req.Responses {
			adj = adj.Add(PackageAdjustment(sc, r, pkg.ID, sizePrice))
		}

		quoted := sizePrice.Add(adj.Amount).Add(surcharge)
		total := decimal.Max(quoted, pkg.BasePrice)

		included, excluded := sc.FeatureLists(pkg)
		set.Quotes = append(set.Quotes, Quote{
			PackageID:           pkg.ID,
			PackageName:         pkg.Name,
			BasePrice:           round(pkg.BasePrice),
			SizePrice:           round(sizePrice),
			QuestionAdjustments: round(adj.Amount),
			SurchargeAmount:     round(surcharge),
			TotalPrice:          round(total),
			RequiresBid:         adj.RequiresBid,
			IncludedFeatures:    included,
			ExcludedFeatures:    excluded,
		})
		set.RequiresBid = set.RequiresBid || adj.RequiresBid
	}
	return set
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
