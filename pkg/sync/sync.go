// Package sync runs one full reconciliation pass: read the published
// snapshot, convert decided submissions, aggregate order activity, merge,
// publish, and report. One invocation, one pass, run to completion.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/internal/notify"
	"github.com/stockistmap/stockistmap/pkg/assets"
	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/logging"
	"github.com/stockistmap/stockistmap/pkg/orders"
	"github.com/stockistmap/stockistmap/pkg/reconcile"
	"github.com/stockistmap/stockistmap/pkg/submissions"
)

// Syncer wires the collaborators for a reconciliation pass.
type Syncer struct {
	assets      assets.Store
	submissions *submissions.Store
	aggregator  *orders.Aggregator
	customers   orders.CustomerLookup
	resolver    geocode.Resolver
	reconciler  *reconcile.Reconciler
	notifier    notify.Notifier
	logger      *zerolog.Logger

	channels       []string
	lookbackMonths int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithNotifier sets the change-report notifier. Without one the report is
// only logged.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Syncer) {
		s.notifier = n
	}
}

// WithChannels sets the sales channels to aggregate.
func WithChannels(channels ...string) Option {
	return func(s *Syncer) {
		s.channels = channels
	}
}

// WithLookbackMonths sets the order lookback window.
func WithLookbackMonths(months int) Option {
	return func(s *Syncer) {
		s.lookbackMonths = months
	}
}

// WithLogger overrides the syncer's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// New creates a Syncer. The store, submission store, order source, and
// resolver are required; everything else has defaults.
func New(
	assetStore assets.Store,
	submissionStore *submissions.Store,
	source orders.Source,
	resolver geocode.Resolver,
	opts ...Option,
) *Syncer {
	s := &Syncer{
		assets:         assetStore,
		submissions:    submissionStore,
		aggregator:     orders.NewAggregator(source),
		customers:      source,
		resolver:       resolver,
		reconciler:     reconcile.New(),
		logger:         logging.Default(),
		lookbackMonths: orders.DefaultLookbackMonths,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes one pass.
type Result struct {
	Changes          reconcile.Changeset
	Published        bool
	RemainingPending int
	Duration         time.Duration
}

// Run executes one reconciliation pass.
//
// Ordering is deliberate: the catalog is published before submission
// consumption commits. A crash between the two leaves the decided
// submissions pending, and the next pass converts and publishes them
// again; since the publish is a whole-document overwrite, the replay is
// invisible in the export. The reverse ordering could consume submissions
// whose locations never reach the catalog.
func (s *Syncer) Run(ctx context.Context, dryRun bool) (*Result, error) {
	start := time.Now()

	catalog, err := s.assets.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading locations snapshot: %w", err)
	}
	s.logger.Info().
		Int("store_locations", len(catalog.StoreLocations)).
		Int("manual_locations", len(catalog.ManualLocations)).
		Int("skus", len(catalog.SKUs)).
		Msg("Loaded existing location data")

	conv, err := s.submissions.ProcessApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("processing submissions: %w", err)
	}
	if conv.RemainingPending > 0 {
		s.logger.Info().Int("count", conv.RemainingPending).Msg("Submissions still pending approval")
	}

	activity, err := s.aggregator.FetchActivity(ctx, s.channels, s.lookbackMonths)
	if err != nil {
		return nil, fmt.Errorf("fetching order activity: %w", err)
	}

	result := s.reconciler.Reconcile(ctx, reconcile.Input{
		Catalog:   catalog,
		Activity:  activity,
		Approved:  conv.Approved,
		Rejected:  conv.Rejected,
		Resolver:  s.resolver,
		Customers: s.customers,
	})

	out := &Result{
		Changes:          result.Changes,
		RemainingPending: conv.RemainingPending,
		Duration:         time.Since(start),
	}

	if dryRun {
		s.logger.Info().Str("changes", result.Changes.String()).Msg("Dry run, not publishing")
		return out, nil
	}

	if err := s.assets.Write(ctx, result.Catalog); err != nil {
		return nil, fmt.Errorf("publishing locations snapshot: %w", err)
	}
	out.Published = true

	// Consumption commits only after a successful publish.
	if err := conv.Consumption.Commit(ctx); err != nil {
		// The catalog is already live; the submissions will replay safely
		// on the next pass.
		s.logger.Error().Err(err).Msg("Failed to consume submissions after publish")
	}

	s.report(ctx, &result.Changes)

	out.Duration = time.Since(start)
	return out, nil
}

// PublishSubmissions converts decided submissions and publishes them into
// the catalog without an order pass: approved locations join the manual
// list and the export, rejected ones go to the archive, and the SKU
// universe grows by the carried products. Like Run, consumption commits
// only after the catalog write succeeds, so a failed publish leaves the
// submissions pending for the next attempt.
func (s *Syncer) PublishSubmissions(ctx context.Context) (*Result, error) {
	start := time.Now()

	catalog, err := s.assets.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading locations snapshot: %w", err)
	}

	conv, err := s.submissions.ProcessApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("processing submissions: %w", err)
	}

	out := &Result{
		Changes: reconcile.Changeset{
			NewManual:      conv.Approved,
			RejectedManual: conv.Rejected,
		},
		RemainingPending: conv.RemainingPending,
	}

	if len(conv.Approved) == 0 && len(conv.Rejected) == 0 {
		s.logger.Info().Msg("No decided submissions to publish")
		out.Duration = time.Since(start)
		return out, nil
	}

	skuSets := [][]string{catalog.SKUs}
	for _, loc := range conv.Approved {
		catalog.ManualLocations = append(catalog.ManualLocations, loc)
		catalog.StoreLocations = append(catalog.StoreLocations, loc)
		skuSets = append(skuSets, loc.SKUs)
	}
	catalog.SKUs = locations.UniqueSKUs(skuSets...)

	if err := s.assets.Write(ctx, catalog); err != nil {
		return nil, fmt.Errorf("publishing locations snapshot: %w", err)
	}
	out.Published = true

	if err := conv.Consumption.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to consume submissions after publish")
	}

	s.logger.Info().
		Int("approved", len(conv.Approved)).
		Int("rejected", len(conv.Rejected)).
		Msg("Published decided submissions")

	out.Duration = time.Since(start)
	return out, nil
}

// report renders and posts the change report. Delivery failure is logged
// and swallowed; the pass has already succeeded.
func (s *Syncer) report(ctx context.Context, changes *reconcile.Changeset) {
	message := notify.Render(changes)
	if message == "" {
		s.logger.Info().Msg("No changes to notify about")
		return
	}
	if s.notifier == nil {
		s.logger.Info().Str("report", message).Msg("No notifier configured")
		return
	}
	if err := s.notifier.Post(ctx, message); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send change report")
	}
}
