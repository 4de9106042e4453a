package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/quote-service/internal/catalog"
	"github.com/kosarica/quote-service/internal/pricing"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	pipeline *Pipeline
	catalog  *catalog.Memory
	store    *MemoryStore
	clock    *fakeClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem, err := catalog.LoadFile("../catalog/testdata/catalog.yaml")
	require.NoError(t, err)

	store := NewMemoryStore(mem.Coupons()...)
	notifier := &recordingNotifier{}
	clock := &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}

	p := NewPipeline(mem, store, notifier, Config{SubmissionTTL: 48 * time.Hour})
	p.now = clock.Now
	return &fixture{pipeline: p, catalog: mem, store: store, clock: clock, notifier: notifier}
}

func (f *fixture) create(t *testing.T) *Submission {
	t.Helper()
	sub, err := f.pipeline.CreateSubmission(context.Background(), CreateRequest{
		CustomerName:  "Ana Horvat",
		CustomerEmail: "ana@example.com",
		SizeRangeID:   "sr-large",
		LocationID:    "loc-north",
		ServiceIDs:    []string{"svc-clean"},
	})
	require.NoError(t, err)
	require.Len(t, sub.Selections, 1)
	return sub
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func yesNo(qid string, v bool) pricing.ResponseInput {
	return pricing.ResponseInput{QuestionID: qid, YesNoAnswer: &v}
}

func intPtr(v int) *int { return &v }

// fullResponses answers every root question of svc-clean with pets "no".
func fullResponses(pets bool) []pricing.ResponseInput {
	return []pricing.ResponseInput{
		yesNo("q-pets", pets),
		{QuestionID: "q-windows", SelectedOptions: []pricing.OptionSelection{{OptionID: "o-window", Quantity: intPtr(2)}}},
		{QuestionID: "q-extras", SubQuestionAnswers: []pricing.SubAnswer{
			{SubQuestionID: "s-moss", Answer: false},
			{SubQuestionID: "s-roof", Answer: false},
		}},
		{QuestionID: "q-sqft", TextAnswer: strPtr("1800")},
	}
}

func strPtr(s string) *string { return &s }

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, got.Equal(dec(want)), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// addWindowService registers svc-windows: no questions, one 40.00 package.
func (f *fixture) addWindowService() {
	f.catalog.PutService(catalog.NewServiceCatalog(
		catalog.Service{ID: "svc-windows", Name: "Windows", Active: true},
		[]catalog.Package{{ID: "pkg-win", ServiceID: "svc-windows", Name: "Standard", BasePrice: dec("40"), Active: true, Order: 1}},
		nil,
	))
}

// deactivatePackage replaces the svc-clean snapshot with one where packageID
// is inactive.
func (f *fixture) deactivatePackage(t *testing.T, packageID string) {
	t.Helper()
	orig, err := f.catalog.Service(context.Background(), "svc-clean")
	require.NoError(t, err)
	cp := *orig
	cp.Packages = append([]catalog.Package(nil), orig.Packages...)
	found := false
	for i := range cp.Packages {
		if cp.Packages[i].ID == packageID {
			cp.Packages[i].Active = false
			found = true
		}
	}
	require.True(t, found, packageID)
	f.catalog.PutService(&cp)
}
