package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a catalog entity does not exist.
var ErrNotFound = errors.New("catalog entity not found")

// Source is the read-only view of the catalog the quotation engine needs.
// Implementations must return immutable values; callers never modify them.
type Source interface {
	// Service returns the pricing snapshot for a service.
	Service(ctx context.Context, serviceID string) (*ServiceCatalog, error)

	// Location returns a location by id.
	Location(ctx context.Context, locationID string) (*Location, error)

	// AddOn returns an add-on by id.
	AddOn(ctx context.Context, addOnID string) (*AddOn, error)
}

// Loader loads fresh catalog data. The cache calls it on misses and after
// invalidation.
type Loader interface {
	LoadService(ctx context.Context, serviceID string) (*ServiceCatalog, error)
	LoadLocation(ctx context.Context, locationID string) (*Location, error)
	LoadAddOn(ctx context.Context, addOnID string) (*AddOn, error)
}

// Invalidator drops cached catalog data after an administrative edit.
type Invalidator interface {
	// InvalidateService drops one service snapshot.
	InvalidateService(serviceID string)

	// InvalidateAll drops every cached entry.
	InvalidateAll()
}

// CacheFreshness reports the freshness of one cached service snapshot.
type CacheFreshness struct {
	LoadedAt int64 // Unix timestamp of last load
	IsStale  bool  // Whether the snapshot is past its TTL
}
