package submission

import (
	"context"
	"time"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
)

// Store persists submissions. Implementations must make WithinTx atomic and
// serialize concurrent runs for the same submission.
type Store interface {
	// Create inserts a new submission with its selections and add-ons.
	Create(ctx context.Context, sub *Submission) error

	// Get returns a committed snapshot of a submission.
	Get(ctx context.Context, id string) (*Submission, error)

	// History returns the edit history of a submission ordered by sequence.
	History(ctx context.Context, id string) ([]EditHistoryEntry, error)

	// WithinTx runs fn in one transaction holding the submission's lock.
	// Nothing fn writes is visible to others unless fn returns nil.
	WithinTx(ctx context.Context, id string, fn func(tx Tx) error) error

	// ExpireDue moves every open submission whose expiry has passed to
	// expired and returns their ids.
	ExpireDue(ctx context.Context, now time.Time) ([]string, error)
}

// Tx is the write side of one pipeline run.
type Tx interface {
	// Submission returns the locked submission with all nested data.
	Submission() *Submission

	// SaveSubmission writes the scalar fields, totals and status.
	SaveSubmission(ctx context.Context, sub *Submission) error

	// InsertSelection adds a service selection.
	InsertSelection(ctx context.Context, sel *ServiceSelection) error

	// DeleteSelection removes a selection with its responses and quotes.
	DeleteSelection(ctx context.Context, selectionID string) error

	// SaveSelection writes the scalar fields of a selection.
	SaveSelection(ctx context.Context, sel *ServiceSelection) error

	// ReplaceResponses clears the responses of a selection and inserts rs.
	ReplaceResponses(ctx context.Context, selectionID string, rs []QuestionResponse) error

	// ReplaceQuotes clears the quotes of a selection and inserts qs.
	ReplaceQuotes(ctx context.Context, selectionID string, qs []pricing.Quote) error

	// ReplaceAddOns clears the add-ons of the submission and inserts as.
	ReplaceAddOns(ctx context.Context, as []SubmissionAddOn) error

	// AppendEditHistory appends an entry; the store assigns its sequence.
	AppendEditHistory(ctx context.Context, entry *EditHistoryEntry) error

	// FindCoupon looks up a coupon by code. It returns catalog.ErrNotFound
	// when no coupon has the code.
	FindCoupon(ctx context.Context, code string) (*catalog.Coupon, error)
}
