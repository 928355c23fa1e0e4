package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/logging"
	"github.com/stockistmap/stockistmap/pkg/orders"
)

// Input carries everything one reconciliation pass reads. The pass itself
// mutates none of it; the merged catalog comes back in the Result.
type Input struct {
	// Catalog is the previously published snapshot.
	Catalog locations.Catalog

	// Activity is the order-derived customer summary for the window.
	Activity orders.Activity

	// Approved and Rejected are the manual locations just converted from
	// decided submissions.
	Approved []locations.Location
	Rejected []locations.Location

	// Resolver geocodes default addresses for new customers.
	Resolver geocode.Resolver

	// Customers fetches detail records for customers new to the catalog.
	Customers orders.CustomerLookup
}

// Result is the outcome of a pass: the merged catalog ready to publish and
// the classification of every change.
type Result struct {
	Catalog locations.Catalog
	Changes Changeset
}

// Reconciler runs the merge. It is stateless; every pass is a pure
// function of its Input apart from the resolver and customer lookups.
type Reconciler struct {
	logger *zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger overrides the reconciler's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{logger: logging.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile merges catalog, manual locations, and order activity in a
// single deterministic pass:
//
//  1. Derived locations for customers no longer active are pruned unless a
//     manual location references their id.
//  2. Each active customer id is reconciled in order: a manual location
//     sharing the id wins outright; an existing derived entry gets its SKU
//     set reassigned to this pass's set; otherwise a new location is
//     synthesized from the customer's geocoded default address, or the
//     customer lands in the problem bucket.
//  3. Rejected manual locations are filtered out, the export is merged
//     manual-first by id, and the SKU universe is recomputed as a union
//     with the prior pass.
//
// A failure on one customer is recorded as a problem and never aborts the
// pass.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) *Result {
	changes := Changeset{
		NewManual:      in.Approved,
		RejectedManual: in.Rejected,
	}

	// All manual locations known this pass: previously published plus the
	// just-converted, rejected ones included so pruning keeps any derived
	// entry they reference.
	manual := make([]locations.Location, 0, len(in.Catalog.ManualLocations)+len(in.Approved)+len(in.Rejected))
	manual = append(manual, in.Catalog.ManualLocations...)
	manual = append(manual, in.Approved...)
	manual = append(manual, in.Rejected...)

	manualByID := make(map[string]*locations.Location, len(manual))
	for i := range manual {
		if _, ok := manualByID[manual[i].ID]; ok {
			// Minted ids collide only if the store is corrupt. First wins.
			r.logger.Warn().Str("id", manual[i].ID).Msg("Duplicate manual location id, keeping first")
			continue
		}
		manualByID[manual[i].ID] = &manual[i]
	}

	activeIDs := make(map[string]struct{}, len(in.Activity.ActiveCustomerIDs))
	for _, id := range in.Activity.ActiveCustomerIDs {
		activeIDs[id] = struct{}{}
	}

	// Step 1: prune derived locations with no activity and no manual
	// counterpart.
	derived := make([]locations.Location, 0, len(in.Catalog.StoreLocations))
	for _, loc := range in.Catalog.StoreLocations {
		_, active := activeIDs[loc.ID]
		_, referenced := manualByID[loc.ID]
		if active || referenced {
			derived = append(derived, loc)
			continue
		}
		r.logger.Debug().Str("id", loc.ID).Str("name", loc.Name).Msg("Removing inactive location")
		changes.Removed = append(changes.Removed, loc)
	}

	// Index by position, not pointer: the loop below appends to derived,
	// and a reallocation would leave pointers at the old backing array.
	derivedIdx := make(map[string]int, len(derived))
	for i := range derived {
		derivedIdx[derived[i].ID] = i
	}

	// Step 2: reconcile each active customer, strictly in fetch order.
	for _, customerID := range in.Activity.ActiveCustomerIDs {
		if _, ok := manualByID[customerID]; ok {
			// Manual always wins; the merge below exports the manual entry.
			continue
		}

		if i, ok := derivedIdx[customerID]; ok {
			// Reassign, not union: the new set is the whole truth for this
			// window, so dropped SKUs must drop from the export too.
			derived[i].SKUs = append([]string(nil), in.Activity.SKUs(customerID)...)
			changes.Updated = append(changes.Updated, derived[i])
			continue
		}

		loc, problem := r.synthesize(ctx, in, customerID)
		if problem != nil {
			changes.Problems = append(changes.Problems, *problem)
			continue
		}
		derived = append(derived, *loc)
		changes.New = append(changes.New, *loc)
	}

	// Step 3: only non-rejected manual locations are exported.
	var eligible []locations.Location
	eligibleIDs := make(map[string]struct{})
	for _, loc := range manual {
		if loc.Status == locations.StatusRejected {
			continue
		}
		if _, ok := eligibleIDs[loc.ID]; ok {
			continue
		}
		eligibleIDs[loc.ID] = struct{}{}
		eligible = append(eligible, loc)
	}

	// Step 4: merge manual-first by id.
	merged := make([]locations.Location, 0, len(eligible)+len(derived))
	merged = append(merged, eligible...)
	for _, loc := range derived {
		if _, ok := eligibleIDs[loc.ID]; ok {
			continue
		}
		merged = append(merged, loc)
	}

	// Step 5: the SKU universe only ever grows within a pass.
	skuSets := make([][]string, 0, len(merged)+1)
	skuSets = append(skuSets, in.Catalog.SKUs)
	for _, loc := range merged {
		skuSets = append(skuSets, loc.SKUs)
	}

	summary := changes.Summary()
	r.logger.Info().
		Int("new", summary.New).
		Int("updated", summary.Updated).
		Int("removed", summary.Removed).
		Int("problems", summary.Problems).
		Int("exported", len(merged)).
		Msg("Reconciliation pass complete")

	return &Result{
		Catalog: locations.Catalog{
			StoreLocations:  merged,
			ManualLocations: eligible,
			SKUs:            locations.UniqueSKUs(skuSets...),
		},
		Changes: changes,
	}
}

// synthesize builds a new derived location for a customer with no catalog
// entry. Every failure path returns a Problem instead of an error so one
// bad customer cannot abort the pass.
func (r *Reconciler) synthesize(ctx context.Context, in Input, customerID string) (*locations.Location, *Problem) {
	customer, err := in.Customers.GetCustomer(ctx, customerID)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_id", customerID).Msg("Error processing customer")
		return nil, &Problem{ID: customerID, Reason: fmt.Sprintf("Error: %s", err.Error())}
	}

	if customer.DefaultAddress == nil {
		return nil, &Problem{
			ID:     customerID,
			Name:   customer.DisplayName(),
			Reason: ReasonNoAddress,
		}
	}

	address := customer.DefaultAddress.String()
	coords := in.Resolver.Resolve(ctx, address)
	if coords == nil {
		return nil, &Problem{
			ID:      customerID,
			Name:    customer.DisplayName(),
			Address: address,
			Reason:  ReasonGeocodeFailed,
		}
	}

	return &locations.Location{
		ID:           customerID,
		Name:         customer.DisplayName(),
		Address:      address,
		Coordinates:  coords,
		SKUs:         append([]string(nil), in.Activity.SKUs(customerID)...),
		SalesChannel: in.Activity.Channel(customerID),
		Status:       locations.StatusActive,
		Source:       locations.SourceDerived,
	}, nil
}
