package catalog

import (
	"context"
	"fmt"
)

// Memory is a fixed in-process catalog. It implements both Source and Loader,
// so it can back a Cache or be used directly by tests and the CLI.
type Memory struct {
	services  map[string]*ServiceCatalog
	locations map[string]*Location
	addOns    map[string]*AddOn
	coupons   []Coupon
}

// NewMemory creates an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		services:  make(map[string]*ServiceCatalog),
		locations: make(map[string]*Location),
		addOns:    make(map[string]*AddOn),
	}
}

// PutService registers a service snapshot.
func (m *Memory) PutService(sc *ServiceCatalog) {
	m.services[sc.Service.ID] = sc
}

// PutLocation registers a location.
func (m *Memory) PutLocation(loc Location) {
	m.locations[loc.ID] = &loc
}

// PutAddOn registers an add-on.
func (m *Memory) PutAddOn(a AddOn) {
	m.addOns[a.ID] = &a
}

// PutCoupon registers a coupon definition.
func (m *Memory) PutCoupon(c Coupon) {
	m.coupons = append(m.coupons, c)
}

// Coupons returns the registered coupons.
func (m *Memory) Coupons() []Coupon {
	return append([]Coupon(nil), m.coupons...)
}

// ServiceIDs returns the ids of all registered services.
func (m *Memory) ServiceIDs() []string {
	ids := make([]string, 0, len(m.services))
	for id := range m.services {
		ids = append(ids, id)
	}
	return ids
}

func (m *Memory) Service(_ context.Context, serviceID string) (*ServiceCatalog, error) {
	sc, ok := m.services[serviceID]
	if !ok {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}
	return sc, nil
}

func (m *Memory) Location(_ context.Context, locationID string) (*Location, error) {
	loc, ok := m.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", locationID, ErrNotFound)
	}
	return loc, nil
}

func (m *Memory) AddOn(_ context.Context, addOnID string) (*AddOn, error) {
	a, ok := m.addOns[addOnID]
	if !ok {
		return nil, fmt.Errorf("add-on %s: %w", addOnID, ErrNotFound)
	}
	return a, nil
}

func (m *Memory) LoadService(ctx context.Context, serviceID string) (*ServiceCatalog, error) {
	return m.Service(ctx, serviceID)
}

func (m *Memory) LoadLocation(ctx context.Context, locationID string) (*Location, error) {
	return m.Location(ctx, locationID)
}

func (m *Memory) LoadAddOn(ctx context.Context, addOnID string) (*AddOn, error) {
	return m.AddOn(ctx, addOnID)
}
