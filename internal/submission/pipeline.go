package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
)

// Config holds pipeline settings.
type Config struct {
	// SubmissionTTL is how long a new submission stays open before it expires.
	SubmissionTTL time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{SubmissionTTL: 30 * 24 * time.Hour}
}

// Pipeline runs every submission operation. Each operation is one store
// transaction; notifications are sent after commit.
type Pipeline struct {
	catalog  catalog.Source
	store    Store
	notifier Notifier
	config   Config
	metrics  *MetricsRecorder
	tracer   trace.Tracer
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewPipeline creates a pipeline. notifier may be nil.
func NewPipeline(src catalog.Source, store Store, notifier Notifier, cfg Config) *Pipeline {
	if cfg.SubmissionTTL <= 0 {
		cfg.SubmissionTTL = DefaultConfig().SubmissionTTL
	}
	return &Pipeline{
		catalog:  src,
		store:    store,
		notifier: notifier,
		config:   cfg,
		metrics:  NewMetricsRecorder(),
		tracer:   otel.Tracer("github.com/kosarica/quote-service/internal/submission"),
		logger:   log.With().Str("component", "quote_pipeline").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ErrInvalidRequest is returned when a request field is invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

// CreateRequest opens a new submission.
type CreateRequest struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	PostalCode    string            `json:"postal_code,omitempty"`
	SizeRangeID   string            `json:"size_range_id,omitempty"`
	LocationID    string            `json:"location_id,omitempty"`
	ServiceIDs    []string          `json:"service_ids"`
	AddOns        []SubmissionAddOn `json:"add_ons,omitempty"`
}

// SubmitRequest is the final submission payload.
type SubmitRequest struct {
	SubmissionID string            `json:"-"`
	Packages     []PackageChoice   `json:"packages,omitempty"`
	CouponCode   string            `json:"coupon_code,omitempty"`
	AddOns       []SubmissionAddOn `json:"add_ons,omitempty"` // nil keeps the current add-ons
}

// PackageChoice selects a package for a service selection.
type PackageChoice struct {
	ServiceSelectionID string `json:"service_selection_id"`
	PackageID          string `json:"package_id"`
}

// EditRequest edits a submitted service. A nil Responses makes it a
// package-only edit; an empty PackageID keeps the previously chosen package.
type EditRequest struct {
	SubmissionID string                  `json:"-"`
	SelectionID  string                  `json:"-"`
	Responses    []pricing.ResponseInput `json:"responses,omitempty"`
	PackageID    string                  `json:"package_id,omitempty"`
}

// EditResult is the outcome of an edit.
type EditResult struct {
	Submission *Submission      `json:"submission"`
	Entry      EditHistoryEntry `json:"entry"`
}

// CreateSubmission validates and stores a new draft submission with one
// selection per requested service.
func (p *Pipeline) CreateSubmission(ctx context.Context, req CreateRequest) (*Submission, error) {
	ctx, span := p.tracer.Start(ctx, "submission.create")
	defer span.End()
	start := p.now()

	sub, err := p.buildSubmission(ctx, req)
	if err == nil {
		err = p.store.Create(ctx, sub)
	}
	p.metrics.RecordOperation("create", p.now().Sub(start), err)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("submission.id", sub.ID))
	p.logger.Info().Str("submission_id", sub.ID).Int("services", len(sub.Selections)).Msg("Created submission")
	return sub, nil
}

func (p *Pipeline) buildSubmission(ctx context.Context, req CreateRequest) (*Submission, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, ErrInvalidRequest{Field: "customer_name", Reason: "cannot be empty"}
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return nil, ErrInvalidRequest{Field: "customer_email", Reason: "must be an email address"}
	}

	now := p.now()
	expires := now.Add(p.config.SubmissionTTL)
	sub := &Submission{
		ID:                  p.newID(),
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerEmail:       strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:       req.CustomerPhone,
		Address:             req.Address,
		PostalCode:          req.PostalCode,
		SizeRangeID:         req.SizeRangeID,
		LocationID:          req.LocationID,
		Status:              StatusDraft,
		Totals:              pricing.Aggregate(pricing.TotalsRequest{}),
		SurchargeApplicable: req.LocationID != "",
		ExpiresAt:           &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
		Selections:          []ServiceSelection{},
		AddOns:              []SubmissionAddOn{},
	}

	loc, err := p.location(ctx, sub)
	if err != nil {
		return nil, err
	}

	for _, serviceID := range req.ServiceIDs {
		if sub.SelectionForService(serviceID) != nil {
			return nil, fmt.Errorf("service %s: %w", serviceID, ErrDuplicateService)
		}
		sel, err := p.newSelection(ctx, sub, serviceID, loc)
		if err != nil {
			return nil, err
		}
		sub.Selections = append(sub.Selections, *sel)
	}

	addOns, err := p.checkAddOns(ctx, req.AddOns)
	if err != nil {
		return nil, err
	}
	sub.AddOns = addOns
	sub.RequiresBid = anyRequiresBid(sub)
	return sub, nil
}

// newSelection creates a selection with quotes for an empty response set, so
// every active package is quoted from the start.
func (p *Pipeline) newSelection(ctx context.Context, sub *Submission, serviceID string, loc *catalog.Location) (*ServiceSelection, error) {
	sc, err := p.service(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	set := pricing.GenerateQuotes(pricing.QuoteRequest{Catalog: sc, SizeRangeID: sub.SizeRangeID, Location: loc})
	p.metrics.RecordQuotes(len(set.Quotes))

	sel := &ServiceSelection{
		ID:           p.newID(),
		SubmissionID: sub.ID,
		ServiceID:    serviceID,
		RequiresBid:  set.RequiresBid,
		Responses:    []QuestionResponse{},
		CreatedAt:    p.now(),
	}
	clearSelection(sel, set.Quotes, set.Surcharge)
	return sel, nil
}

// AddService adds a service to an open submission.
func (p *Pipeline) AddService(ctx context.Context, submissionID, serviceID string) (*ServiceSelection, error) {
	var out ServiceSelection
	err := p.run(ctx, "add_service", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if !sub.Status.Open() {
			return &InvalidTransitionError{From: sub.Status, Op: "add_service"}
		}
		if sub.SelectionForService(serviceID) != nil {
			return fmt.Errorf("service %s: %w", serviceID, ErrDuplicateService)
		}
		loc, err := p.location(ctx, sub)
		if err != nil {
			return err
		}
		sel, err := p.newSelection(ctx, sub, serviceID, loc)
		if err != nil {
			return err
		}
		if err := tx.InsertSelection(ctx, sel); err != nil {
			return err
		}
		if err := tx.ReplaceQuotes(ctx, sel.ID, sel.Quotes); err != nil {
			return err
		}
		sub.RequiresBid = anyRequiresBid(sub)
		if err := p.advance(ctx, sub); err != nil {
			return err
		}
		sub.UpdatedAt = p.now()
		out = sel.clone()
		return tx.SaveSubmission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveService deletes a selection with its responses and quotes.
func (p *Pipeline) RemoveService(ctx context.Context, submissionID, selectionID string) error {
	return p.run(ctx, "remove_service", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if !sub.Status.Open() {
			return &InvalidTransitionError{From: sub.Status, Op: "remove_service"}
		}
		if sub.Selection(selectionID) == nil {
			return fmt.Errorf("selection %s: %w", selectionID, ErrNotFound)
		}
		if err := tx.DeleteSelection(ctx, selectionID); err != nil {
			return err
		}
		sub.RequiresBid = anyRequiresBid(sub)
		if err := p.advance(ctx, sub); err != nil {
			return err
		}
		sub.UpdatedAt = p.now()
		return tx.SaveSubmission(ctx, sub)
	})
}

// Apply replaces the responses of a selection, regenerates its quotes and
// keeps the previously selected package selected when it is still quoted.
func (p *Pipeline) Apply(ctx context.Context, submissionID, selectionID string, inputs []pricing.ResponseInput) (*ServiceSelection, error) {
	var out ServiceSelection
	var snapshot *Submission
	err := p.run(ctx, "apply_responses", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if !sub.Status.Open() {
			return &InvalidTransitionError{From: sub.Status, Op: "apply_responses"}
		}
		sel := sub.Selection(selectionID)
		if sel == nil {
			return fmt.Errorf("selection %s: %w", selectionID, ErrNotFound)
		}

		previous := sel.SelectedPackageID
		set, err := p.requote(ctx, tx, sub, sel, inputs)
		if err != nil {
			return err
		}
		if previous != "" {
			if err := selectQuote(sel, set.Quotes, previous); err != nil {
				p.logger.Warn().
					Str("submission_id", sub.ID).
					Str("selection_id", sel.ID).
					Str("package_id", previous).
					Msg("Previously selected package has no quote, selection cleared")
			}
		} else {
			clearSelection(sel, set.Quotes, set.Surcharge)
		}

		if err := p.saveSelection(ctx, tx, sel); err != nil {
			return err
		}
		sub.RequiresBid = anyRequiresBid(sub)
		if err := p.advance(ctx, sub); err != nil {
			return err
		}
		sub.UpdatedAt = p.now()
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		out = sel.clone()
		snapshot = sub.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, EventResponsesSubmitted, snapshot)
	return &out, nil
}

// SelectPackage marks the quote of packageID as selected.
func (p *Pipeline) SelectPackage(ctx context.Context, submissionID, selectionID, packageID string) (*ServiceSelection, error) {
	var out ServiceSelection
	err := p.run(ctx, "select_package", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if !sub.Status.Open() {
			return &InvalidTransitionError{From: sub.Status, Op: "select_package"}
		}
		sel := sub.Selection(selectionID)
		if sel == nil {
			return fmt.Errorf("selection %s: %w", selectionID, ErrNotFound)
		}
		if err := p.choosePackage(ctx, tx, sel, packageID); err != nil {
			return err
		}
		if err := p.advance(ctx, sub); err != nil {
			return err
		}
		sub.UpdatedAt = p.now()
		out = sel.clone()
		return tx.SaveSubmission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// choosePackage selects packageID on sel. An error aborts the transaction,
// so sel is not restored on failure.
func (p *Pipeline) choosePackage(ctx context.Context, tx Tx, sel *ServiceSelection, packageID string) error {
	if err := selectQuote(sel, sel.Quotes, packageID); err != nil {
		return err
	}
	return p.saveSelection(ctx, tx, sel)
}

// Submit finalizes a submission: applies package choices, the coupon and
// add-ons, computes totals and moves it to submitted. Submission is allowed
// from draft, so services without a selected package are left out of the
// totals; at least one selected package is required.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	var snapshot *Submission
	err := p.run(ctx, "submit", req.SubmissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if !CanTransition(sub.Status, StatusSubmitted) {
			return &InvalidTransitionError{From: sub.Status, To: StatusSubmitted}
		}

		for _, choice := range req.Packages {
			sel := sub.Selection(choice.ServiceSelectionID)
			if sel == nil {
				return fmt.Errorf("selection %s: %w", choice.ServiceSelectionID, ErrNotFound)
			}
			if err := p.choosePackage(ctx, tx, sel, choice.PackageID); err != nil {
				return err
			}
		}
		if !anyPackageSelected(sub) {
			return ErrPackageNotSelected
		}
		if !allPackagesSelected(sub) {
			p.logger.Info().Str("submission_id", sub.ID).Msg("Submitting with services that have no selected package")
		}

		if req.CouponCode != "" {
			coupon, err := tx.FindCoupon(ctx, req.CouponCode)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("coupon %s: %w", req.CouponCode, ErrCouponInvalid)
			}
			if err != nil {
				return err
			}
			if !coupon.ValidAt(p.now(), sub.ID) {
				return fmt.Errorf("coupon %s: %w", req.CouponCode, ErrCouponInvalid)
			}
			sub.CouponCode = coupon.Code
		}

		if req.AddOns != nil {
			addOns, err := p.checkAddOns(ctx, req.AddOns)
			if err != nil {
				return err
			}
			if err := tx.ReplaceAddOns(ctx, addOns); err != nil {
				return err
			}
			sub.AddOns = addOns
		}

		totals, err := p.totals(ctx, tx, sub)
		if err != nil {
			return err
		}
		sub.Totals = totals

		if err := Transition(sub, StatusSubmitted); err != nil {
			return err
		}
		p.metrics.RecordTransition(StatusSubmitted)
		now := p.now()
		sub.SubmittedAt = &now
		sub.UpdatedAt = now
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		snapshot = sub.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Str("submission_id", snapshot.ID).
		Str("final_total", snapshot.Totals.FinalTotal.StringFixed(2)).
		Bool("coupon_applied", snapshot.Totals.IsCouponApplied).
		Msg("Submission submitted")
	p.notify(ctx, EventSubmitted, snapshot)
	return snapshot, nil
}

// Decline moves a submission that is not terminal to declined.
func (p *Pipeline) Decline(ctx context.Context, submissionID, reason string) (*Submission, error) {
	var snapshot *Submission
	err := p.run(ctx, "decline", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if err := Transition(sub, StatusDeclined); err != nil {
			return err
		}
		p.metrics.RecordTransition(StatusDeclined)
		sub.DeclineReason = reason
		sub.UpdatedAt = p.now()
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		snapshot = sub.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, EventDeclined, snapshot)
	return snapshot, nil
}

// Edit re-prices a service of a submitted submission and appends one edit
// history entry. The status does not change.
func (p *Pipeline) Edit(ctx context.Context, req EditRequest) (*EditResult, error) {
	var result EditResult
	err := p.run(ctx, "edit", req.SubmissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if sub.Status != StatusSubmitted {
			return fmt.Errorf("status %s: %w", sub.Status, ErrEditNotAllowed)
		}
		sel := sub.Selection(req.SelectionID)
		if sel == nil {
			return fmt.Errorf("selection %s: %w", req.SelectionID, ErrNotFound)
		}

		before := sel.clone()
		oldTotal := sub.Totals.FinalTotal
		packageOnly := req.Responses == nil

		var quotes []pricing.Quote
		if packageOnly {
			if req.PackageID == "" {
				return ErrInvalidRequest{Field: "package_id", Reason: "required for a package-only edit"}
			}
			quotes = append([]pricing.Quote(nil), sel.Quotes...)
		} else {
			set, err := p.requote(ctx, tx, sub, sel, req.Responses)
			if err != nil {
				return err
			}
			quotes = set.Quotes
		}

		var warnings []string
		target := req.PackageID
		if target == "" {
			target = before.SelectedPackageID
		}
		switch {
		case target == "":
			clearSelection(sel, quotes, sel.SurchargeAmount)
		case req.PackageID != "":
			if err := selectQuote(sel, quotes, target); err != nil {
				return err
			}
		default:
			if err := selectQuote(sel, quotes, target); err != nil {
				warnings = append(warnings, fmt.Sprintf("previously selected package %s has no quote; selection cleared", target))
				p.logger.Warn().
					Str("submission_id", sub.ID).
					Str("selection_id", sel.ID).
					Str("package_id", target).
					Msg("Could not restore package selection after edit")
			}
		}

		if err := p.saveSelection(ctx, tx, sel); err != nil {
			return err
		}
		sub.RequiresBid = anyRequiresBid(sub)

		totals, err := p.totals(ctx, tx, sub)
		if err != nil {
			return err
		}
		sub.Totals = totals

		patch, err := responsePatch(before.Responses, sel.Responses)
		if err != nil {
			return err
		}
		diff := diffResponses(before.Responses, sel.Responses)
		now := p.now()
		entry := &EditHistoryEntry{
			ID:             p.newID(),
			SubmissionID:   sub.ID,
			EditedAt:       now,
			SelectionID:    sel.ID,
			ServiceID:      sel.ServiceID,
			OldFinalTotal:  oldTotal,
			NewFinalTotal:  totals.FinalTotal,
			OldAdjustments: before.QuestionAdjustments,
			NewAdjustments: sel.QuestionAdjustments,
			OldPackageID:   before.SelectedPackageID,
			NewPackageID:   sel.SelectedPackageID,
			Changed:        diff.Changed,
			Added:          diff.Added,
			Removed:        diff.Removed,
			ResponsePatch:  patch,
			Warnings:       warnings,
		}
		if err := tx.AppendEditHistory(ctx, entry); err != nil {
			return err
		}
		p.metrics.RecordEdit()

		sub.EditCount++
		sub.LastEditedAt = &now
		if sub.OriginalTotal == nil {
			original := oldTotal
			sub.OriginalTotal = &original
		}
		sub.UpdatedAt = now
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}

		result = EditResult{Submission: sub.Clone(), Entry: *entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req.Responses != nil {
		p.notify(ctx, EventResponsesSubmitted, result.Submission)
	}
	return &result, nil
}

// Recalculate recomputes the totals of a submission from scratch.
func (p *Pipeline) Recalculate(ctx context.Context, submissionID string) (*Submission, error) {
	var snapshot *Submission
	err := p.run(ctx, "recalculate", submissionID, func(ctx context.Context, tx Tx, sub *Submission) error {
		if sub.Status.Terminal() {
			return &InvalidTransitionError{From: sub.Status, Op: "recalculate"}
		}
		totals, err := p.totals(ctx, tx, sub)
		if err != nil {
			return err
		}
		sub.Totals = totals
		sub.UpdatedAt = p.now()
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		snapshot = sub.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Get returns a submission, expiring it first when its expiry has passed.
func (p *Pipeline) Get(ctx context.Context, submissionID string) (*Submission, error) {
	sub, err := p.store.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.ExpiredAt(p.now()) {
		return sub, nil
	}

	err = p.store.WithinTx(ctx, submissionID, func(tx Tx) error {
		locked := tx.Submission()
		now := p.now()
		if !locked.ExpiredAt(now) {
			return nil
		}
		locked.Status = StatusExpired
		locked.UpdatedAt = now
		p.metrics.RecordTransition(StatusExpired)
		return tx.SaveSubmission(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return p.store.Get(ctx, submissionID)
}

// Quotes returns the quotes of one selection.
func (p *Pipeline) Quotes(ctx context.Context, submissionID, selectionID string) ([]pricing.Quote, error) {
	sub, err := p.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	sel := sub.Selection(selectionID)
	if sel == nil {
		return nil, fmt.Errorf("selection %s: %w", selectionID, ErrNotFound)
	}
	return sel.Quotes, nil
}

// History returns the edit history of a submission.
func (p *Pipeline) History(ctx context.Context, submissionID string) ([]EditHistoryEntry, error) {
	return p.store.History(ctx, submissionID)
}

// ExpireDue expires every non-terminal submission past its expiry.
func (p *Pipeline) ExpireDue(ctx context.Context) (int, error) {
	ids, err := p.store.ExpireDue(ctx, p.now())
	for range ids {
		p.metrics.RecordTransition(StatusExpired)
	}
	if err != nil {
		return len(ids), fmt.Errorf("failed to expire submissions: %w", err)
	}
	if len(ids) > 0 {
		p.logger.Info().Int("count", len(ids)).Msg("Expired submissions")
	}
	return len(ids), nil
}

// run executes fn in a transaction on the locked submission. A submission
// found past its expiry is expired and committed instead, and the operation
// is rejected.
func (p *Pipeline) run(ctx context.Context, op, submissionID string, fn func(ctx context.Context, tx Tx, sub *Submission) error) error {
	ctx, span := p.tracer.Start(ctx, "submission."+op, trace.WithAttributes(attribute.String("submission.id", submissionID)))
	defer span.End()
	start := p.now()

	expired := false
	err := p.store.WithinTx(ctx, submissionID, func(tx Tx) error {
		sub := tx.Submission()
		if sub.ExpiredAt(p.now()) {
			sub.Status = StatusExpired
			sub.UpdatedAt = p.now()
			expired = true
			return tx.SaveSubmission(ctx, sub)
		}
		return fn(ctx, tx, sub)
	})
	if err == nil && expired {
		p.metrics.RecordTransition(StatusExpired)
		err = &InvalidTransitionError{From: StatusExpired, Op: op}
	}

	p.metrics.RecordOperation(op, p.now().Sub(start), err)
	if err != nil {
		recordSpanError(span, err)
		p.logger.Debug().Err(err).Str("operation", op).Str("submission_id", submissionID).Msg("Pipeline operation failed")
	}
	return err
}

// requote validates inputs, replaces the responses of sel and regenerates its
// quotes. The returned quotes have no selection yet.
func (p *Pipeline) requote(ctx context.Context, tx Tx, sub *Submission, sel *ServiceSelection, inputs []pricing.ResponseInput) (pricing.QuoteSet, error) {
	sc, err := p.service(ctx, sel.ServiceID)
	if err != nil {
		return pricing.QuoteSet{}, err
	}
	loc, err := p.location(ctx, sub)
	if err != nil {
		return pricing.QuoteSet{}, err
	}

	responses, err := pricing.Validate(sc, inputs)
	if err != nil {
		return pricing.QuoteSet{}, err
	}

	stored := make([]QuestionResponse, 0, len(responses))
	for _, r := range responses {
		stored = append(stored, fromResponse(r, pricing.DisplayAdjustment(sc, r, sub.SizeRangeID)))
	}
	if err := tx.ReplaceResponses(ctx, sel.ID, stored); err != nil {
		return pricing.QuoteSet{}, err
	}
	sel.Responses = stored

	set := pricing.GenerateQuotes(pricing.QuoteRequest{
		Catalog:     sc,
		Responses:   responses,
		SizeRangeID: sub.SizeRangeID,
		Location:    loc,
	})
	p.metrics.RecordQuotes(len(set.Quotes))
	sel.RequiresBid = set.RequiresBid
	sel.SurchargeAmount = set.Surcharge
	return set, nil
}

func (p *Pipeline) saveSelection(ctx context.Context, tx Tx, sel *ServiceSelection) error {
	if err := tx.ReplaceQuotes(ctx, sel.ID, sel.Quotes); err != nil {
		return err
	}
	return tx.SaveSelection(ctx, sel)
}

// totals aggregates the selected quotes, add-ons and coupon of sub.
func (p *Pipeline) totals(ctx context.Context, tx Tx, sub *Submission) (pricing.Totals, error) {
	req := pricing.TotalsRequest{SubmissionID: sub.ID, Now: p.now()}
	for i := range sub.Selections {
		if q := sub.Selections[i].SelectedQuote(); q != nil {
			req.Selected = append(req.Selected, *q)
		}
	}
	for _, a := range sub.AddOns {
		addOn, err := p.catalog.AddOn(ctx, a.AddOnID)
		if err != nil {
			return pricing.Totals{}, fmt.Errorf("failed to load add-on %s: %w", a.AddOnID, err)
		}
		req.AddOns = append(req.AddOns, pricing.AddOnLine{AddOnID: a.AddOnID, BasePrice: addOn.BasePrice, Quantity: a.Quantity})
	}
	if sub.CouponCode != "" {
		coupon, err := tx.FindCoupon(ctx, sub.CouponCode)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			p.logger.Warn().Str("submission_id", sub.ID).Str("coupon", sub.CouponCode).Msg("Attached coupon no longer exists")
		case err != nil:
			return pricing.Totals{}, fmt.Errorf("failed to load coupon: %w", err)
		default:
			req.Coupon = coupon
		}
	}
	return pricing.Aggregate(req), nil
}

// advance applies the automatic forward transitions.
func (p *Pipeline) advance(ctx context.Context, sub *Submission) error {
	if sub.Status == StatusDraft {
		complete, err := p.responsesComplete(ctx, sub)
		if err != nil {
			return err
		}
		if complete {
			if err := Transition(sub, StatusResponsesCompleted); err != nil {
				return err
			}
			p.metrics.RecordTransition(StatusResponsesCompleted)
		}
	}
	if sub.Status == StatusResponsesCompleted && allPackagesSelected(sub) {
		if err := Transition(sub, StatusPackagesSelected); err != nil {
			return err
		}
		p.metrics.RecordTransition(StatusPackagesSelected)
	}
	// status never moves back
	if sub.Status == StatusPackagesSelected && !allPackagesSelected(sub) {
		p.logger.Warn().
			Str("submission_id", sub.ID).
			Msg("Submission is packages_selected but a service has no selected package")
	}
	return nil
}

// responsesComplete reports whether every selection answers every active
// root question and every question whose condition is met by the recorded
// parent answer.
func (p *Pipeline) responsesComplete(ctx context.Context, sub *Submission) (bool, error) {
	if len(sub.Selections) == 0 {
		return false, nil
	}
	for i := range sub.Selections {
		sel := &sub.Selections[i]
		sc, err := p.service(ctx, sel.ServiceID)
		if err != nil {
			return false, err
		}
		inputs := make([]pricing.ResponseInput, 0, len(sel.Responses))
		for _, r := range sel.Responses {
			inputs = append(inputs, r.Input())
		}
		responses, err := pricing.Validate(sc, inputs)
		if err != nil {
			return false, nil
		}
		answered := make(map[string]pricing.Response, len(responses))
		for _, r := range responses {
			answered[r.QuestionID] = r
		}
		for _, q := range sc.Questions {
			if !q.Active {
				continue
			}
			required := q.IsRoot()
			if !required {
				parent, ok := answered[q.ParentID]
				required = ok && parent.Satisfies(q.Condition)
			}
			if _, ok := answered[q.ID]; required && !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func (p *Pipeline) service(ctx context.Context, serviceID string) (*catalog.ServiceCatalog, error) {
	sc, err := p.catalog.Service(ctx, serviceID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrInvalidRequest{Field: "service_id", Reason: "unknown service " + serviceID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service %s: %w", serviceID, err)
	}
	if !sc.Service.Active {
		return nil, ErrInvalidRequest{Field: "service_id", Reason: "service " + serviceID + " is not active"}
	}
	return sc, nil
}

func (p *Pipeline) location(ctx context.Context, sub *Submission) (*catalog.Location, error) {
	if sub.LocationID == "" {
		return nil, nil
	}
	loc, err := p.catalog.Location(ctx, sub.LocationID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrInvalidRequest{Field: "location_id", Reason: "unknown location " + sub.LocationID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load location %s: %w", sub.LocationID, err)
	}
	return loc, nil
}

func (p *Pipeline) checkAddOns(ctx context.Context, in []SubmissionAddOn) ([]SubmissionAddOn, error) {
	out := make([]SubmissionAddOn, 0, len(in))
	for _, a := range in {
		if a.Quantity < 1 {
			return nil, ErrInvalidRequest{Field: "add_ons", Reason: "quantity must be at least 1 for " + a.AddOnID}
		}
		addOn, err := p.catalog.AddOn(ctx, a.AddOnID)
		if errors.Is(err, catalog.ErrNotFound) || (err == nil && !addOn.Active) {
			return nil, ErrInvalidRequest{Field: "add_ons", Reason: "unknown add-on " + a.AddOnID}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load add-on %s: %w", a.AddOnID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (p *Pipeline) notify(ctx context.Context, typ EventType, snapshot *Submission) {
	if p.notifier == nil || snapshot == nil {
		return
	}
	event := Event{Type: typ, OccurredAt: p.now(), Submission: snapshot}
	if err := p.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		p.metrics.RecordNotificationFailure(typ)
		p.logger.Warn().
			Err(err).
			Str("submission_id", snapshot.ID).
			Str("event", string(typ)).
			Msg("CRM notification failed")
	}
}

// selectQuote marks the quote of packageID as the only selected quote and
// copies its prices onto the selection. When no quote matches, the selection
// is cleared and ErrUnknownPackage is returned.
func selectQuote(sel *ServiceSelection, quotes []pricing.Quote, packageID string) error {
	idx := -1
	for i := range quotes {
		quotes[i].IsSelected = false
		if quotes[i].PackageID == packageID {
			idx = i
		}
	}
	if idx < 0 {
		clearSelection(sel, quotes, sel.SurchargeAmount)
		return fmt.Errorf("package %s: %w", packageID, ErrUnknownPackage)
	}
	quotes[idx].IsSelected = true
	q := quotes[idx]
	sel.Quotes = quotes
	sel.SelectedPackageID = q.PackageID
	sel.SelectedTotal = q.TotalPrice
	sel.QuestionAdjustments = q.QuestionAdjustments
	sel.SurchargeAmount = q.SurchargeAmount
	return nil
}

func clearSelection(sel *ServiceSelection, quotes []pricing.Quote, surcharge decimal.Decimal) {
	for i := range quotes {
		quotes[i].IsSelected = false
	}
	sel.Quotes = quotes
	sel.SelectedPackageID = ""
	sel.SelectedTotal = decimal.Zero
	sel.QuestionAdjustments = decimal.Zero
	sel.SurchargeAmount = surcharge
}

func anyRequiresBid(sub *Submission) bool {
	for i := range sub.Selections {
		if sub.Selections[i].RequiresBid {
			return true
		}
	}
	return false
}

func anyPackageSelected(sub *Submission) bool {
	for i := range sub.Selections {
		if sub.Selections[i].SelectedQuote() != nil {
			return true
		}
	}
	return false
}

func allPackagesSelected(sub *Submission) bool {
	if len(sub.Selections) == 0 {
		return false
	}
	for i := range sub.Selections {
		if sub.Selections[i].SelectedQuote() == nil {
			return false
		}
	}
	return true
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func errorKind(err error) string {
	var verr *pricing.ValidationError
	var terr *InvalidTransitionError
	var rerr ErrInvalidRequest
	switch {
	case errors.As(err, &verr), errors.As(err, &rerr):
		return "validation"
	case errors.As(err, &terr), errors.Is(err, ErrEditNotAllowed):
		return "transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCouponInvalid):
		return "coupon"
	case errors.Is(err, ErrDuplicateService), errors.Is(err, ErrUnknownPackage), errors.Is(err, ErrPackageNotSelected):
		return "conflict"
	default:
		return "internal"
	}
}
