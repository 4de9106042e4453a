package submission

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
)

// MemoryStore is an in-process Store. Each transaction works on a deep copy
// of the submission and publishes it on commit.
type MemoryStore struct {
	mu          sync.Mutex
	submissions map[string]*Submission
	history     map[string][]EditHistoryEntry
	locks       map[string]*sync.Mutex
	coupons     []catalog.Coupon
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(coupons ...catalog.Coupon) *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]*Submission),
		history:     make(map[string][]EditHistoryEntry),
		locks:       make(map[string]*sync.Mutex),
		coupons:     coupons,
	}
}

// PutCoupon registers a coupon.
func (s *MemoryStore) PutCoupon(c catalog.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = append(s.coupons, c)
}

func (s *MemoryStore) Create(_ context.Context, sub *Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.ID]; exists {
		return fmt.Errorf("submission %s already exists", sub.ID)
	}
	s.submissions[sub.ID] = sub.Clone()
	s.locks[sub.ID] = &sync.Mutex{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return sub.Clone(), nil
}

func (s *MemoryStore) History(_ context.Context, id string) ([]EditHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[id]; !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return append([]EditHistoryEntry(nil), s.history[id]...), nil
}

func (s *MemoryStore) WithinTx(ctx context.Context, id string, fn func(tx Tx) error) error {
	s.mu.Lock()
	lock, ok := s.locks[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	tx := &memTx{
		store:   s,
		sub:     s.submissions[id].Clone(),
		nextSeq: len(s.history[id]) + 1,
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[id] = tx.sub
	s.history[id] = append(s.history[id], tx.pending...)
	return nil
}

func (s *MemoryStore) ExpireDue(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	ids := make([]string, 0)
	for id, sub := range s.submissions {
		if sub.ExpiredAt(now) {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	expired := make([]string, 0, len(ids))
	for _, id := range ids {
		err := s.WithinTx(context.Background(), id, func(tx Tx) error {
			sub := tx.Submission()
			if !sub.ExpiredAt(now) {
				return nil
			}
			sub.Status = StatusExpired
			sub.UpdatedAt = now
			expired = append(expired, id)
			return nil
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

type memTx struct {
	store   *MemoryStore
	sub     *Submission
	pending []EditHistoryEntry
	nextSeq int
}

func (t *memTx) Submission() *Submission { return t.sub }

func (t *memTx) SaveSubmission(_ context.Context, sub *Submission) error {
	if sub != t.sub {
		return fmt.Errorf("submission %s is not the locked submission", sub.ID)
	}
	return nil
}

func (t *memTx) InsertSelection(_ context.Context, sel *ServiceSelection) error {
	if t.sub.SelectionForService(sel.ServiceID) != nil {
		return fmt.Errorf("service %s: %w", sel.ServiceID, ErrDuplicateService)
	}
	t.sub.Selections = append(t.sub.Selections, sel.clone())
	return nil
}

func (t *memTx) DeleteSelection(_ context.Context, selectionID string) error {
	for i := range t.sub.Selections {
		if t.sub.Selections[i].ID == selectionID {
			t.sub.Selections = append(t.sub.Selections[:i], t.sub.Selections[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("selection %s: %w", selectionID, ErrNotFound)
}

func (t *memTx) selection(id string) (*ServiceSelection, error) {
	sel := t.sub.Selection(id)
	if sel == nil {
		return nil, fmt.Errorf("selection %s: %w", id, ErrNotFound)
	}
	return sel, nil
}

func (t *memTx) SaveSelection(_ context.Context, sel *ServiceSelection) error {
	target, err := t.selection(sel.ID)
	if err != nil {
		return err
	}
	if target != sel {
		responses, quotes := target.Responses, target.Quotes
		*target = *sel
		target.Responses, target.Quotes = responses, quotes
	}
	return nil
}

func (t *memTx) ReplaceResponses(_ context.Context, selectionID string, rs []QuestionResponse) error {
	sel, err := t.selection(selectionID)
	if err != nil {
		return err
	}
	sel.Responses = make([]QuestionResponse, len(rs))
	for i, r := range rs {
		sel.Responses[i] = r.clone()
	}
	return nil
}

func (t *memTx) ReplaceQuotes(_ context.Context, selectionID string, qs []pricing.Quote) error {
	sel, err := t.selection(selectionID)
	if err != nil {
		return err
	}
	selected := 0
	for _, q := range qs {
		if q.IsSelected {
			selected++
		}
	}
	if selected > 1 {
		return fmt.Errorf("selection %s: %d quotes selected", selectionID, selected)
	}
	sel.Quotes = ServiceSelection{Quotes: qs}.clone().Quotes
	return nil
}

func (t *memTx) ReplaceAddOns(_ context.Context, as []SubmissionAddOn) error {
	t.sub.AddOns = append([]SubmissionAddOn(nil), as...)
	return nil
}

func (t *memTx) AppendEditHistory(_ context.Context, entry *EditHistoryEntry) error {
	entry.Sequence = t.nextSeq + len(t.pending)
	entry.SubmissionID = t.sub.ID
	t.pending = append(t.pending, *entry)
	return nil
}

func (t *memTx) FindCoupon(_ context.Context, code string) (*catalog.Coupon, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := range t.store.coupons {
		if strings.EqualFold(t.store.coupons[i].Code, code) {
			c := t.store.coupons[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("coupon %s: %w", code, catalog.ErrNotFound)
}
