package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	m, err := LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	sc, err := m.Service(ctx, "svc-clean")
	require.NoError(t, err)

	assert.Equal(t, "Exterior cleaning", sc.Service.Name)
	assert.True(t, sc.Service.Settings.ApplyTripSurcharge)
	require.Len(t, sc.Packages, 3)
	assert.Equal(t, "pkg-basic", sc.Packages[0].ID)
	assert.Len(t, sc.ActivePackages(), 2)
	assert.True(t, sc.Packages[0].BasePrice.Equal(decimal.NewFromInt(100)))

	q := sc.Question("q-pet-kind")
	require.NotNil(t, q)
	assert.Equal(t, "svc-clean", q.ServiceID)
	assert.Equal(t, "q-pets", q.ParentID)
	require.NotNil(t, q.Condition)
	assert.Equal(t, "yes", q.Condition.Answer)

	rule, ok := sc.QuestionRule("q-pets", "pkg-basic")
	require.True(t, ok)
	assert.Equal(t, PricingUpchargePercent, rule.Kind)
	assert.Equal(t, ValuePercent, rule.ValueKind)
	assert.True(t, rule.Value.Equal(decimal.NewFromInt(20)))

	_, ok = sc.OptionRule("o-dog", "pkg-premium")
	assert.False(t, ok, "missing rule is not an error")

	assert.True(t, sc.SizePrice("sr-small", "pkg-premium").Equal(decimal.NewFromInt(40)))
	assert.True(t, sc.SizePrice("sr-unknown", "pkg-premium").IsZero())
	assert.True(t, sc.SizePrice("", "pkg-premium").IsZero())

	assert.Len(t, sc.DiscountsFor("q-windows"), 1)

	included, excluded := sc.FeatureLists(sc.Packages[0])
	assert.Equal(t, []string{"f-gutters"}, included)
	assert.Equal(t, []string{"f-windows"}, excluded)
	assert.Equal(t, []string{"Gutter cleaning", "f-unknown"}, sc.FeatureNames([]string{"f-gutters", "f-unknown"}))

	loc, err := m.Location(ctx, "loc-north")
	require.NoError(t, err)
	assert.True(t, loc.TripSurcharge.Equal(decimal.NewFromInt(10)))

	_, err = m.AddOn(ctx, "ao-screens")
	require.NoError(t, err)
	assert.Len(t, m.Coupons(), 1)
}

func TestParseRejectsBrokenReferences(t *testing.T) {
	doc := []byte(`
services:
  - id: svc
    packages:
      - id: p1
        base_price: 10
        active: true
    questions:
      - id: q1
        type: yes_no
      - id: q2
        type: describe
        parent_id: q-missing
      - id: q3
        type: bogus
    pricing:
      questions:
        - target_id: q1
          package_id: p-missing
          kind: upcharge_percent
          value_kind: amount
          value: 1
      options:
        - target_id: o-missing
          package_id: p1
          kind: teleport
          value_kind: amount
          value: 1
`)
	_, err := Parse(doc)
	require.Error(t, err)

	var invalid *InvalidCatalogError
	require.True(t, errors.As(err, &invalid))
	assert.Len(t, invalid.Problems, 5)
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Service(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Location(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.AddOn(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
