// Package geocode resolves free-text addresses to coordinates. Resolution
// is strictly best-effort: callers always receive either coordinates or
// nil, never an error. Provider failures are logged at the boundary so the
// reconciliation pass can degrade gracefully instead of aborting.
package geocode

import (
	"context"

	"github.com/stockistmap/stockistmap/pkg/locations"
)

// Resolver resolves a free-text address to coordinates. A nil result means
// the address could not be resolved; implementations must not surface
// provider errors to the caller.
type Resolver interface {
	Resolve(ctx context.Context, address string) *locations.Coordinates
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, address string) *locations.Coordinates

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, address string) *locations.Coordinates {
	return f(ctx, address)
}
