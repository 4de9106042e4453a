package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
)

// CatalogRepository loads catalog snapshots from Postgres. It implements
// catalog.Loader and is normally wrapped by a catalog.Cache.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a repository on p.
func NewCatalogRepository(p *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: p}
}

// ServiceIDs returns the ids of all active services.
func (r *CatalogRepository) ServiceIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM services WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// LoadService reads everything needed to price one service from a single
// snapshot, so a concurrent import is never seen half applied.
func (r *CatalogRepository) LoadService(ctx context.Context, serviceID string) (*catalog.ServiceCatalog, error) {
	var sc *catalog.ServiceCatalog
	err := readTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		sc, err = r.loadService(ctx, tx, serviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (r *CatalogRepository) loadService(ctx context.Context, db querier, serviceID string) (*catalog.ServiceCatalog, error) {
	var svc catalog.Service
	err := db.QueryRow(ctx, `
		SELECT id, name, active, apply_trip_surcharge
		FROM services
		WHERE id = $1
	`, serviceID).Scan(&svc.ID, &svc.Name, &svc.Active, &svc.Settings.ApplyTripSurcharge)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", serviceID, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	packages, err := r.packages(ctx, db, serviceID)
	if err != nil {
		return nil, err
	}
	questions, err := r.questions(ctx, db, serviceID)
	if err != nil {
		return nil, err
	}

	sc := catalog.NewServiceCatalog(svc, packages, questions)
	if sc.Features, err = r.features(ctx, db); err != nil {
		return nil, err
	}
	if err := r.rules(ctx, db, sc); err != nil {
		return nil, err
	}
	if sc.Discounts, err = r.discounts(ctx, db, serviceID); err != nil {
		return nil, err
	}
	if err := r.sizePrices(ctx, db, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (r *CatalogRepository) packages(ctx context.Context, db querier, serviceID string) ([]catalog.Package, error) {
	rows, err := db.Query(ctx, `
		SELECT id, service_id, name, base_price, active, sort_order
		FROM packages
		WHERE service_id = $1
		ORDER BY sort_order, id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	defer rows.Close()

	var packages []catalog.Package
	index := make(map[string]int)
	for rows.Next() {
		var p catalog.Package
		if err := rows.Scan(&p.ID, &p.ServiceID, &p.Name, &p.BasePrice, &p.Active, &p.Order); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		index[p.ID] = len(packages)
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read packages: %w", err)
	}

	frows, err := db.Query(ctx, `
		SELECT pf.package_id, pf.feature_id, pf.included
		FROM package_features pf
		JOIN packages p ON p.id = pf.package_id
		WHERE p.service_id = $1
		ORDER BY pf.package_id, pf.feature_id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load package features: %w", err)
	}
	defer frows.Close()

	for frows.Next() {
		var pkgID string
		var pf catalog.PackageFeature
		if err := frows.Scan(&pkgID, &pf.FeatureID, &pf.Included); err != nil {
			return nil, fmt.Errorf("failed to scan package feature: %w", err)
		}
		if i, ok := index[pkgID]; ok {
			packages[i].Features = append(packages[i].Features, pf)
		}
	}
	return packages, frows.Err()
}

func (r *CatalogRepository) features(ctx context.Context, db querier) (map[string]catalog.Feature, error) {
	rows, err := db.Query(ctx, `SELECT id, name FROM features`)
	if err != nil {
		return nil, fmt.Errorf("failed to load features: %w", err)
	}
	defer rows.Close()

	out := make(map[string]catalog.Feature)
	for rows.Next() {
		var f catalog.Feature
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

func (r *CatalogRepository) questions(ctx context.Context, db querier, serviceID string) ([]catalog.Question, error) {
	rows, err := db.Query(ctx, `
		SELECT id, service_id, text, type, sort_order, active,
		       parent_id, condition_answer, condition_option_id
		FROM questions
		WHERE service_id = $1
		ORDER BY sort_order, id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	var questions []catalog.Question
	index := make(map[string]int)
	for rows.Next() {
		var q catalog.Question
		var parentID, condAnswer, condOption *string
		if err := rows.Scan(&q.ID, &q.ServiceID, &q.Text, &q.Type, &q.Order, &q.Active,
			&parentID, &condAnswer, &condOption); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if parentID != nil {
			q.ParentID = *parentID
		}
		if condAnswer != nil || condOption != nil {
			q.Condition = &catalog.Condition{}
			if condAnswer != nil {
				q.Condition.Answer = *condAnswer
			}
			if condOption != nil {
				q.Condition.OptionID = *condOption
			}
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	orows, err := db.Query(ctx, `
		SELECT o.question_id, o.id, o.label, o.sort_order
		FROM question_options o
		JOIN questions q ON q.id = o.question_id
		WHERE q.service_id = $1
		ORDER BY o.question_id, o.sort_order, o.id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}
	defer orows.Close()
	for orows.Next() {
		var qid string
		var o catalog.Option
		if err := orows.Scan(&qid, &o.ID, &o.Label, &o.Order); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		if i, ok := index[qid]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	if err := orows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	srows, err := db.Query(ctx, `
		SELECT s.question_id, s.id, s.text, s.sort_order
		FROM sub_questions s
		JOIN questions q ON q.id = s.question_id
		WHERE q.service_id = $1
		ORDER BY s.question_id, s.sort_order, s.id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-questions: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var qid string
		var s catalog.SubQuestion
		if err := srows.Scan(&qid, &s.ID, &s.Text, &s.Order); err != nil {
			return nil, fmt.Errorf("failed to scan sub-question: %w", err)
		}
		if i, ok := index[qid]; ok {
			questions[i].SubQuestions = append(questions[i].SubQuestions, s)
		}
	}
	return questions, srows.Err()
}

func (r *CatalogRepository) rules(ctx context.Context, db querier, sc *catalog.ServiceCatalog) error {
	rows, err := db.Query(ctx, `
		SELECT target_type, target_id, package_id, kind, value_kind, value
		FROM pricing_rules
		WHERE service_id = $1
	`, sc.Service.ID)
	if err != nil {
		return fmt.Errorf("failed to load pricing rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var targetType string
		var key catalog.RuleKey
		var rule catalog.PricingRule
		if err := rows.Scan(&targetType, &key.TargetID, &key.PackageID, &rule.Kind, &rule.ValueKind, &rule.Value); err != nil {
			return fmt.Errorf("failed to scan pricing rule: %w", err)
		}
		switch targetType {
		case "question":
			sc.QuestionRules[key] = rule
		case "option":
			sc.OptionRules[key] = rule
		case "sub_question":
			sc.SubQuestionRules[key] = rule
		}
	}
	return rows.Err()
}

func (r *CatalogRepository) discounts(ctx context.Context, db querier, serviceID string) ([]catalog.QuantityDiscount, error) {
	rows, err := db.Query(ctx, `
		SELECT id, question_id, COALESCE(option_id, ''), scope, kind, value, min_quantity
		FROM quantity_discounts
		WHERE service_id = $1
		ORDER BY id
	`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discounts: %w", err)
	}
	defer rows.Close()

	var out []catalog.QuantityDiscount
	for rows.Next() {
		var d catalog.QuantityDiscount
		if err := rows.Scan(&d.ID, &d.QuestionID, &d.OptionID, &d.Scope, &d.Kind, &d.Value, &d.MinQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) sizePrices(ctx context.Context, db querier, sc *catalog.ServiceCatalog) error {
	rows, err := db.Query(ctx, `
		SELECT size_range_id, package_id, price
		FROM size_prices
		WHERE service_id = $1
	`, sc.Service.ID)
	if err != nil {
		return fmt.Errorf("failed to load size prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sizeRangeID, pkgID string
		var price decimal.Decimal
		if err := rows.Scan(&sizeRangeID, &pkgID, &price); err != nil {
			return fmt.Errorf("failed to scan size price: %w", err)
		}
		if sc.SizePrices[sizeRangeID] == nil {
			sc.SizePrices[sizeRangeID] = make(map[string]decimal.Decimal)
		}
		sc.SizePrices[sizeRangeID][pkgID] = price
	}
	return rows.Err()
}

// LoadLocation reads one location.
func (r *CatalogRepository) LoadLocation(ctx context.Context, locationID string) (*catalog.Location, error) {
	var loc catalog.Location
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, trip_surcharge FROM locations WHERE id = $1
	`, locationID).Scan(&loc.ID, &loc.Name, &loc.TripSurcharge)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("location %s: %w", locationID, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	return &loc, nil
}

// LoadAddOn reads one add-on.
func (r *CatalogRepository) LoadAddOn(ctx context.Context, addOnID string) (*catalog.AddOn, error) {
	var a catalog.AddOn
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, base_price, active FROM add_ons WHERE id = $1
	`, addOnID).Scan(&a.ID, &a.Name, &a.BasePrice, &a.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("add-on %s: %w", addOnID, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load add-on: %w", err)
	}
	return &a, nil
}

// findCoupon looks a coupon up by case-insensitive code.
func findCoupon(ctx context.Context, q querier, code string) (*catalog.Coupon, error) {
	var c catalog.Coupon
	var submissionID *string
	err := q.QueryRow(ctx, `
		SELECT id, code, submission_id, percentage, fixed_amount, valid_from, valid_until, active
		FROM coupons
		WHERE lower(code) = lower($1)
	`, code).Scan(&c.ID, &c.Code, &submissionID, &c.Percentage, &c.FixedAmount, &c.ValidFrom, &c.ValidUntil, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("coupon %s: %w", code, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if submissionID != nil {
		c.SubmissionID = *submissionID
	}
	return &c, nil
}

// Import upserts a whole catalog file in one transaction.
func (r *CatalogRepository) Import(ctx context.Context, f *catalog.File) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, ft := range f.Features {
			b.Queue(`INSERT INTO features (id, name) VALUES ($1, $2)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, ft.ID, ft.Name)
		}
		for _, sr := range f.SizeRanges {
			b.Queue(`INSERT INTO size_ranges (id, label, min_value, max_value) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, min_value = EXCLUDED.min_value, max_value = EXCLUDED.max_value`,
				sr.ID, sr.Label, sr.Min, sr.Max)
		}
		for _, loc := range f.Locations {
			b.Queue(`INSERT INTO locations (id, name, trip_surcharge) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, trip_surcharge = EXCLUDED.trip_surcharge`,
				loc.ID, loc.Name, loc.TripSurcharge)
		}
		for _, a := range f.AddOns {
			b.Queue(`INSERT INTO add_ons (id, name, base_price, active) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, base_price = EXCLUDED.base_price, active = EXCLUDED.active`,
				a.ID, a.Name, a.BasePrice, a.Active)
		}
		for _, c := range f.Coupons {
			b.Queue(`INSERT INTO coupons (id, code, submission_id, percentage, fixed_amount, valid_from, valid_until, active)
				VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, submission_id = EXCLUDED.submission_id,
					percentage = EXCLUDED.percentage, fixed_amount = EXCLUDED.fixed_amount,
					valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until, active = EXCLUDED.active`,
				c.ID, c.Code, c.SubmissionID, c.Percentage, c.FixedAmount, c.ValidFrom, c.ValidUntil, c.Active)
		}
		if err := sendBatch(ctx, tx, b, "catalog row"); err != nil {
			return err
		}

		for _, s := range f.Services {
			if err := importService(ctx, tx, s); err != nil {
				return fmt.Errorf("service %s: %w", s.ID, err)
			}
		}
		return notifyCatalogChanged(ctx, tx, f)
	})
}

// notifyCatalogChanged queues one notification per imported service, and a
// wildcard when shared rows changed. Postgres delivers them on commit.
func notifyCatalogChanged(ctx context.Context, tx pgx.Tx, f *catalog.File) error {
	b := &pgx.Batch{}
	for _, s := range f.Services {
		b.Queue(`SELECT pg_notify($1, $2)`, CatalogChannel, s.ID)
	}
	if len(f.Features)+len(f.Locations)+len(f.AddOns) > 0 {
		b.Queue(`SELECT pg_notify($1, $2)`, CatalogChannel, CatalogChangedAll)
	}
	return sendBatch(ctx, tx, b, "catalog notification")
}

// importService replaces a service and all rows that belong to it.
func importService(ctx context.Context, tx pgx.Tx, s catalog.FileService) error {
	if _, err := tx.Exec(ctx, `DELETE FROM services WHERE id = $1`, s.ID); err != nil {
		return fmt.Errorf("failed to clear service: %w", err)
	}

	b := &pgx.Batch{}
	b.Queue(`INSERT INTO services (id, name, active, apply_trip_surcharge) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Active, s.Settings.ApplyTripSurcharge)
	for _, p := range s.Packages {
		b.Queue(`INSERT INTO packages (id, service_id, name, base_price, active, sort_order) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, s.ID, p.Name, p.BasePrice, p.Active, p.Order)
		for _, pf := range p.Features {
			b.Queue(`INSERT INTO package_features (package_id, feature_id, included) VALUES ($1, $2, $3)`,
				p.ID, pf.FeatureID, pf.Included)
		}
	}
	// parents first so the self reference resolves
	for _, q := range orderedQuestions(s.Questions) {
		var parentID, condAnswer, condOption *string
		if q.ParentID != "" {
			parentID = &q.ParentID
		}
		if q.Condition != nil {
			if q.Condition.Answer != "" {
				condAnswer = &q.Condition.Answer
			}
			if q.Condition.OptionID != "" {
				condOption = &q.Condition.OptionID
			}
		}
		b.Queue(`INSERT INTO questions (id, service_id, text, type, sort_order, active, parent_id, condition_answer, condition_option_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			q.ID, s.ID, q.Text, string(q.Type), q.Order, q.Active, parentID, condAnswer, condOption)
		for _, o := range q.Options {
			b.Queue(`INSERT INTO question_options (id, question_id, label, sort_order) VALUES ($1, $2, $3, $4)`,
				o.ID, q.ID, o.Label, o.Order)
		}
		for _, sq := range q.SubQuestions {
			b.Queue(`INSERT INTO sub_questions (id, question_id, text, sort_order) VALUES ($1, $2, $3, $4)`,
				sq.ID, q.ID, sq.Text, sq.Order)
		}
	}
	queueRules := func(targetType string, rules []catalog.FileRule) {
		for _, r := range rules {
			b.Queue(`INSERT INTO pricing_rules (service_id, target_type, target_id, package_id, kind, value_kind, value)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				s.ID, targetType, r.TargetID, r.PackageID, string(r.Kind), string(r.ValueKind), r.Value)
		}
	}
	queueRules("question", s.Pricing.Questions)
	queueRules("option", s.Pricing.Options)
	queueRules("sub_question", s.Pricing.SubQuestions)
	for _, d := range s.Discounts {
		var optionID *string
		if d.OptionID != "" {
			optionID = &d.OptionID
		}
		b.Queue(`INSERT INTO quantity_discounts (id, service_id, question_id, option_id, scope, kind, value, min_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.ID, s.ID, d.QuestionID, optionID, string(d.Scope), string(d.Kind), d.Value, d.MinQuantity)
	}
	for _, sp := range s.SizePrices {
		b.Queue(`INSERT INTO size_prices (service_id, size_range_id, package_id, price) VALUES ($1, $2, $3, $4)`,
			s.ID, sp.SizeRangeID, sp.PackageID, sp.Price)
	}
	return sendBatch(ctx, tx, b, "service row")
}

func orderedQuestions(qs []catalog.Question) []catalog.Question {
	out := make([]catalog.Question, 0, len(qs))
	placed := make(map[string]bool, len(qs))
	for len(out) < len(qs) {
		progress := false
		for _, q := range qs {
			if placed[q.ID] || (q.ParentID != "" && !placed[q.ParentID]) {
				continue
			}
			out = append(out, q)
			placed[q.ID] = true
			progress = true
		}
		if !progress {
			// unresolved parents; the foreign key reports them
			for _, q := range qs {
				if !placed[q.ID] {
					out = append(out, q)
				}
			}
			break
		}
	}
	return out
}
