package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
	"github.com/kosarica/quote-service/internal/submission"
)

const uniqueViolation = "23505"

// SubmissionStore persists submissions in Postgres. WithinTx locks the
// submission row with SELECT ... FOR UPDATE for the whole transaction.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

// NewSubmissionStore creates a store on p.
func NewSubmissionStore(p *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: p}
}

const submissionColumns = `
	id, customer_name, customer_email, customer_phone, address, postal_code,
	size_range_id, location_id, status,
	total_base_price, total_adjustments, total_surcharges, total_addons_price,
	pre_discount_total, discounted_amount, final_total, is_coupon_applied,
	requires_bid, surcharge_applicable, coupon_code, decline_reason,
	expires_at, submitted_at, edit_count, last_edited_at, original_total,
	created_at, updated_at`

func (s *SubmissionStore) Create(ctx context.Context, sub *submission.Submission) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO submissions (`+submissionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		`, submissionArgs(sub)...)
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		for i := range sub.Selections {
			sel := &sub.Selections[i]
			if err := insertSelection(ctx, tx, sel); err != nil {
				return err
			}
			if err := replaceResponses(ctx, tx, sel.ID, sel.Responses); err != nil {
				return err
			}
			if err := replaceQuotes(ctx, tx, sel.ID, sel.Quotes); err != nil {
				return err
			}
		}
		return replaceAddOns(ctx, tx, sub.ID, sub.AddOns)
	})
}

func submissionArgs(sub *submission.Submission) []any {
	var original *decimal.Decimal
	if sub.OriginalTotal != nil {
		v := *sub.OriginalTotal
		original = &v
	}
	t := sub.Totals
	return []any{
		sub.ID, sub.CustomerName, sub.CustomerEmail, sub.CustomerPhone, sub.Address, sub.PostalCode,
		sub.SizeRangeID, sub.LocationID, string(sub.Status),
		t.TotalBasePrice, t.TotalAdjustments, t.TotalSurcharges, t.TotalAddOnsPrice,
		t.PreDiscountTotal, t.DiscountedAmount, t.FinalTotal, t.IsCouponApplied,
		sub.RequiresBid, sub.SurchargeApplicable, sub.CouponCode, sub.DeclineReason,
		sub.ExpiresAt, sub.SubmittedAt, sub.EditCount, sub.LastEditedAt, original,
		sub.CreatedAt, sub.UpdatedAt,
	}
}

// Get reads a submission with its selections, quotes and add-ons from one
// snapshot, so totals always match the quotes returned with them.
func (s *SubmissionStore) Get(ctx context.Context, id string) (*submission.Submission, error) {
	var sub *submission.Submission
	err := readTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		sub, err = loadSubmission(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionStore) History(ctx context.Context, id string) ([]submission.EditHistoryEntry, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("submission %s: %w", id, submission.ErrNotFound)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, submission_id, sequence, edited_at, selection_id, service_id,
		       old_final_total, new_final_total, old_adjustments, new_adjustments,
		       old_package_id, new_package_id, changed, added, removed,
		       response_patch, warnings
		FROM edit_history
		WHERE submission_id = $1
		ORDER BY sequence
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load edit history: %w", err)
	}
	defer rows.Close()

	out := make([]submission.EditHistoryEntry, 0)
	for rows.Next() {
		var e submission.EditHistoryEntry
		var patch []byte
		if err := rows.Scan(&e.ID, &e.SubmissionID, &e.Sequence, &e.EditedAt, &e.SelectionID, &e.ServiceID,
			&e.OldFinalTotal, &e.NewFinalTotal, &e.OldAdjustments, &e.NewAdjustments,
			&e.OldPackageID, &e.NewPackageID, &e.Changed, &e.Added, &e.Removed,
			&patch, &e.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan edit history: %w", err)
		}
		e.ResponsePatch = patch
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SubmissionStore) WithinTx(ctx context.Context, id string, fn func(tx submission.Tx) error) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		sub, err := loadSubmission(ctx, tx, id, true)
		if err != nil {
			return err
		}
		return fn(&pgTx{tx: tx, sub: sub})
	})
}

func (s *SubmissionStore) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE submissions
		SET status = 'expired', updated_at = $1
		WHERE status NOT IN ('declined', 'expired')
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire submissions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read expired submissions: %w", err)
	}
	return ids, nil
}

func loadSubmission(ctx context.Context, q querier, id string, forUpdate bool) (*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var sub submission.Submission
	var status string
	var original decimal.NullDecimal
	t := &sub.Totals
	err := q.QueryRow(ctx, query, id).Scan(
		&sub.ID, &sub.CustomerName, &sub.CustomerEmail, &sub.CustomerPhone, &sub.Address, &sub.PostalCode,
		&sub.SizeRangeID, &sub.LocationID, &status,
		&t.TotalBasePrice, &t.TotalAdjustments, &t.TotalSurcharges, &t.TotalAddOnsPrice,
		&t.PreDiscountTotal, &t.DiscountedAmount, &t.FinalTotal, &t.IsCouponApplied,
		&sub.RequiresBid, &sub.SurchargeApplicable, &sub.CouponCode, &sub.DeclineReason,
		&sub.ExpiresAt, &sub.SubmittedAt, &sub.EditCount, &sub.LastEditedAt, &original,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, submission.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	sub.Status = submission.Status(status)
	if original.Valid {
		v := original.Decimal
		sub.OriginalTotal = &v
	}

	if sub.Selections, err = loadSelections(ctx, q, id); err != nil {
		return nil, err
	}
	if sub.AddOns, err = loadAddOns(ctx, q, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

func loadSelections(ctx context.Context, q querier, submissionID string) ([]submission.ServiceSelection, error) {
	rows, err := q.Query(ctx, `
		SELECT id, submission_id, service_id, question_adjustments, surcharge_amount,
		       requires_bid, selected_package_id, selected_total, created_at
		FROM service_selections
		WHERE submission_id = $1
		ORDER BY created_at, id
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load selections: %w", err)
	}
	defer rows.Close()

	selections := make([]submission.ServiceSelection, 0)
	index := make(map[string]int)
	for rows.Next() {
		var sel submission.ServiceSelection
		if err := rows.Scan(&sel.ID, &sel.SubmissionID, &sel.ServiceID, &sel.QuestionAdjustments, &sel.SurchargeAmount,
			&sel.RequiresBid, &sel.SelectedPackageID, &sel.SelectedTotal, &sel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		sel.Responses = []submission.QuestionResponse{}
		sel.Quotes = []pricing.Quote{}
		index[sel.ID] = len(selections)
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read selections: %w", err)
	}
	rows.Close()

	rrows, err := q.Query(ctx, `
		SELECT r.selection_id, r.question_id, r.parent_question_id, r.yes_no_answer, r.text_answer,
		       r.options, r.sub_answers, r.price_adjustment
		FROM question_responses r
		JOIN service_selections s ON s.id = r.selection_id
		WHERE s.submission_id = $1
		ORDER BY r.selection_id, r.position
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	defer rrows.Close()
	for rrows.Next() {
		var selID string
		var r submission.QuestionResponse
		if err := rrows.Scan(&selID, &r.QuestionID, &r.ParentQuestionID, &r.YesNoAnswer, &r.TextAnswer,
			&r.Options, &r.SubAnswers, &r.PriceAdjustment); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if i, ok := index[selID]; ok {
			selections[i].Responses = append(selections[i].Responses, r)
		}
	}
	if err := rrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	rrows.Close()

	qrows, err := q.Query(ctx, `
		SELECT p.selection_id, p.package_id, p.package_name, p.base_price, p.size_price,
		       p.question_adjustments, p.surcharge_amount, p.total_price, p.requires_bid,
		       p.included_features, p.excluded_features, p.is_selected
		FROM package_quotes p
		JOIN service_selections s ON s.id = p.selection_id
		WHERE s.submission_id = $1
		ORDER BY p.selection_id, p.position
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}
	defer qrows.Close()
	for qrows.Next() {
		var selID string
		var pq pricing.Quote
		if err := qrows.Scan(&selID, &pq.PackageID, &pq.PackageName, &pq.BasePrice, &pq.SizePrice,
			&pq.QuestionAdjustments, &pq.SurchargeAmount, &pq.TotalPrice, &pq.RequiresBid,
			&pq.IncludedFeatures, &pq.ExcludedFeatures, &pq.IsSelected); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		if i, ok := index[selID]; ok {
			selections[i].Quotes = append(selections[i].Quotes, pq)
		}
	}
	return selections, qrows.Err()
}

func loadAddOns(ctx context.Context, q querier, submissionID string) ([]submission.SubmissionAddOn, error) {
	rows, err := q.Query(ctx, `
		SELECT add_on_id, quantity FROM submission_add_ons WHERE submission_id = $1 ORDER BY add_on_id
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load add-ons: %w", err)
	}
	defer rows.Close()

	out := make([]submission.SubmissionAddOn, 0)
	for rows.Next() {
		var a submission.SubmissionAddOn
		if err := rows.Scan(&a.AddOnID, &a.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan add-on: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func insertSelection(ctx context.Context, q querier, sel *submission.ServiceSelection) error {
	_, err := q.Exec(ctx, `
		INSERT INTO service_selections (
			id, submission_id, service_id, question_adjustments, surcharge_amount,
			requires_bid, selected_package_id, selected_total, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sel.ID, sel.SubmissionID, sel.ServiceID, sel.QuestionAdjustments, sel.SurchargeAmount,
		sel.RequiresBid, sel.SelectedPackageID, sel.SelectedTotal, sel.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("service %s: %w", sel.ServiceID, submission.ErrDuplicateService)
	}
	if err != nil {
		return fmt.Errorf("failed to insert selection: %w", err)
	}
	return nil
}

func replaceResponses(ctx context.Context, q querier, selectionID string, rs []submission.QuestionResponse) error {
	if _, err := q.Exec(ctx, `DELETE FROM question_responses WHERE selection_id = $1`, selectionID); err != nil {
		return fmt.Errorf("failed to clear responses: %w", err)
	}
	b := &pgx.Batch{}
	for i, r := range rs {
		options := r.Options
		if options == nil {
			options = []submission.OptionResponse{}
		}
		subs := r.SubAnswers
		if subs == nil {
			subs = []submission.SubQuestionResponse{}
		}
		b.Queue(`
			INSERT INTO question_responses (
				selection_id, position, question_id, parent_question_id, yes_no_answer,
				text_answer, options, sub_answers, price_adjustment
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, selectionID, i, r.QuestionID, r.ParentQuestionID, r.YesNoAnswer, r.TextAnswer, options, subs, r.PriceAdjustment)
	}
	return sendBatch(ctx, q, b, "response")
}

func replaceQuotes(ctx context.Context, q querier, selectionID string, qs []pricing.Quote) error {
	if _, err := q.Exec(ctx, `DELETE FROM package_quotes WHERE selection_id = $1`, selectionID); err != nil {
		return fmt.Errorf("failed to clear quotes: %w", err)
	}
	b := &pgx.Batch{}
	for i, pq := range qs {
		b.Queue(`
			INSERT INTO package_quotes (
				selection_id, position, package_id, package_name, base_price, size_price,
				question_adjustments, surcharge_amount, total_price, requires_bid,
				included_features, excluded_features, is_selected
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, selectionID, i, pq.PackageID, pq.PackageName, pq.BasePrice, pq.SizePrice,
			pq.QuestionAdjustments, pq.SurchargeAmount, pq.TotalPrice, pq.RequiresBid,
			nonNil(pq.IncludedFeatures), nonNil(pq.ExcludedFeatures), pq.IsSelected)
	}
	return sendBatch(ctx, q, b, "quote")
}

func replaceAddOns(ctx context.Context, q querier, submissionID string, as []submission.SubmissionAddOn) error {
	if _, err := q.Exec(ctx, `DELETE FROM submission_add_ons WHERE submission_id = $1`, submissionID); err != nil {
		return fmt.Errorf("failed to clear add-ons: %w", err)
	}
	b := &pgx.Batch{}
	for _, a := range as {
		b.Queue(`INSERT INTO submission_add_ons (submission_id, add_on_id, quantity) VALUES ($1, $2, $3)`,
			submissionID, a.AddOnID, a.Quantity)
	}
	return sendBatch(ctx, q, b, "add-on")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// pgTx is one locked submission transaction. Writes go to Postgres and are
// mirrored on sub so Submission() always reflects them.
type pgTx struct {
	tx  pgx.Tx
	sub *submission.Submission
}

func (t *pgTx) Submission() *submission.Submission { return t.sub }

func (t *pgTx) SaveSubmission(ctx context.Context, sub *submission.Submission) error {
	args := submissionArgs(sub)
	_, err := t.tx.Exec(ctx, `
		UPDATE submissions SET
			customer_name = $2, customer_email = $3, customer_phone = $4, address = $5, postal_code = $6,
			size_range_id = $7, location_id = $8, status = $9,
			total_base_price = $10, total_adjustments = $11, total_surcharges = $12, total_addons_price = $13,
			pre_discount_total = $14, discounted_amount = $15, final_total = $16, is_coupon_applied = $17,
			requires_bid = $18, surcharge_applicable = $19, coupon_code = $20, decline_reason = $21,
			expires_at = $22, submitted_at = $23, edit_count = $24, last_edited_at = $25, original_total = $26,
			created_at = $27, updated_at = $28
		WHERE id = $1
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if sub != t.sub {
		selections, addOns := t.sub.Selections, t.sub.AddOns
		*t.sub = *sub
		t.sub.Selections, t.sub.AddOns = selections, addOns
	}
	return nil
}

func (t *pgTx) InsertSelection(ctx context.Context, sel *submission.ServiceSelection) error {
	if err := insertSelection(ctx, t.tx, sel); err != nil {
		return err
	}
	if err := replaceResponses(ctx, t.tx, sel.ID, sel.Responses); err != nil {
		return err
	}
	if err := replaceQuotes(ctx, t.tx, sel.ID, sel.Quotes); err != nil {
		return err
	}
	cp := *sel
	cp.Responses = append([]submission.QuestionResponse(nil), sel.Responses...)
	cp.Quotes = append([]pricing.Quote(nil), sel.Quotes...)
	t.sub.Selections = append(t.sub.Selections, cp)
	return nil
}

func (t *pgTx) DeleteSelection(ctx context.Context, selectionID string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM service_selections WHERE id = $1 AND submission_id = $2`, selectionID, t.sub.ID)
	if err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("selection %s: %w", selectionID, submission.ErrNotFound)
	}
	for i := range t.sub.Selections {
		if t.sub.Selections[i].ID == selectionID {
			t.sub.Selections = append(t.sub.Selections[:i], t.sub.Selections[i+1:]...)
			break
		}
	}
	return nil
}

func (t *pgTx) selection(id string) (*submission.ServiceSelection, error) {
	sel := t.sub.Selection(id)
	if sel == nil {
		return nil, fmt.Errorf("selection %s: %w", id, submission.ErrNotFound)
	}
	return sel, nil
}

func (t *pgTx) SaveSelection(ctx context.Context, sel *submission.ServiceSelection) error {
	target, err := t.selection(sel.ID)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		UPDATE service_selections SET
			question_adjustments = $2, surcharge_amount = $3, requires_bid = $4,
			selected_package_id = $5, selected_total = $6
		WHERE id = $1
	`, sel.ID, sel.QuestionAdjustments, sel.SurchargeAmount, sel.RequiresBid, sel.SelectedPackageID, sel.SelectedTotal)
	if err != nil {
		return fmt.Errorf("failed to update selection: %w", err)
	}
	if target != sel {
		responses, quotes := target.Responses, target.Quotes
		*target = *sel
		target.Responses, target.Quotes = responses, quotes
	}
	return nil
}

func (t *pgTx) ReplaceResponses(ctx context.Context, selectionID string, rs []submission.QuestionResponse) error {
	sel, err := t.selection(selectionID)
	if err != nil {
		return err
	}
	if err := replaceResponses(ctx, t.tx, selectionID, rs); err != nil {
		return err
	}
	sel.Responses = append([]submission.QuestionResponse(nil), rs...)
	return nil
}

func (t *pgTx) ReplaceQuotes(ctx context.Context, selectionID string, qs []pricing.Quote) error {
	sel, err := t.selection(selectionID)
	if err != nil {
		return err
	}
	if err := replaceQuotes(ctx, t.tx, selectionID, qs); err != nil {
		return err
	}
	sel.Quotes = append([]pricing.Quote(nil), qs...)
	return nil
}

func (t *pgTx) ReplaceAddOns(ctx context.Context, as []submission.SubmissionAddOn) error {
	if err := replaceAddOns(ctx, t.tx, t.sub.ID, as); err != nil {
		return err
	}
	t.sub.AddOns = append([]submission.SubmissionAddOn(nil), as...)
	return nil
}

func (t *pgTx) AppendEditHistory(ctx context.Context, e *submission.EditHistoryEntry) error {
	var seq int
	if err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1 FROM edit_history WHERE submission_id = $1
	`, t.sub.ID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to allocate edit sequence: %w", err)
	}
	e.Sequence = seq
	e.SubmissionID = t.sub.ID

	var patch any
	if len(e.ResponsePatch) > 0 {
		patch = string(e.ResponsePatch)
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO edit_history (
			id, submission_id, sequence, edited_at, selection_id, service_id,
			old_final_total, new_final_total, old_adjustments, new_adjustments,
			old_package_id, new_package_id, changed, added, removed, response_patch, warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17)
	`, e.ID, e.SubmissionID, e.Sequence, e.EditedAt, e.SelectionID, e.ServiceID,
		e.OldFinalTotal, e.NewFinalTotal, e.OldAdjustments, e.NewAdjustments,
		e.OldPackageID, e.NewPackageID, nonNil(e.Changed), nonNil(e.Added), nonNil(e.Removed), patch, nonNil(e.Warnings))
	if err != nil {
		return fmt.Errorf("failed to insert edit history: %w", err)
	}
	return nil
}

func (t *pgTx) FindCoupon(ctx context.Context, code string) (*catalog.Coupon, error) {
	return findCoupon(ctx, t.tx, code)
}
