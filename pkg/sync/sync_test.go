package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockistmap/stockistmap/internal/notify"
	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/orders"
	"github.com/stockistmap/stockistmap/pkg/submissions"
)

// memStore is an in-memory assets.Store for exercising the pass.
type memStore struct {
	catalog  locations.Catalog
	readErr  error
	writeErr error
	writes   int
	written  locations.Catalog
}

func (m *memStore) Read(context.Context) (locations.Catalog, error) {
	return m.catalog, m.readErr
}

func (m *memStore) Write(_ context.Context, catalog locations.Catalog) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.written = catalog
	return nil
}

// stubSource serves one page of orders per channel and canned customers.
type stubSource struct {
	orders    map[string][]orders.Order
	customers map[string]orders.Customer
}

func (s *stubSource) ListOrders(_ context.Context, channel string, _ time.Time, _ string) (orders.Page, error) {
	return orders.Page{Orders: s.orders[channel]}, nil
}

func (s *stubSource) GetCustomer(_ context.Context, id string) (orders.Customer, error) {
	customer, ok := s.customers[id]
	if !ok {
		return orders.Customer{}, errors.NewNotFoundError("customer", id)
	}
	return customer, nil
}

func resolveAll(context.Context, string) *locations.Coordinates {
	return &locations.Coordinates{Lat: 45.5, Lng: -122.6}
}

func newSubmissionStore(t *testing.T) *submissions.Store {
	t.Helper()
	dir := t.TempDir()
	return submissions.New(
		filepath.Join(dir, "pending-locations.json"),
		filepath.Join(dir, "rejected-locations.json"),
	)
}

func approveSubmission(t *testing.T, store *submissions.Store, name string) {
	t.Helper()
	sub, err := store.Submit(context.Background(), submissions.Request{
		BusinessName: name,
		Street:       "1 Main St",
		City:         "Springfield",
		State:        "IL",
		PostalCode:   "62701",
		Country:      "US",
	})
	require.NoError(t, err)
	_, err = store.Approve(context.Background(), sub.ID)
	require.NoError(t, err)
}

func TestRunPublishesAndThenConsumesSubmissions(t *testing.T) {
	assetStore := &memStore{}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll))

	result, err := syncer.Run(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, result.Published)
	assert.Equal(t, 1, assetStore.writes)
	require.Len(t, assetStore.written.ManualLocations, 1)
	assert.Equal(t, "Cafe X", assetStore.written.ManualLocations[0].Name)
	require.Len(t, assetStore.written.StoreLocations, 1)
	assert.Len(t, result.Changes.NewManual, 1)
	assert.Zero(t, result.RemainingPending)

	// The submission was consumed after publishing: a second conversion
	// finds nothing.
	conv, err := subStore.ProcessApproved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conv.Approved)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	assetStore := &memStore{}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	posted := 0
	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll),
		WithNotifier(notify.NotifierFunc(func(context.Context, string) error {
			posted++
			return nil
		})))

	result, err := syncer.Run(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, result.Published)
	assert.Zero(t, assetStore.writes)
	assert.Zero(t, posted)
	assert.Len(t, result.Changes.NewManual, 1, "the dry run still reports what it would do")

	// The submission stays convertible for the real pass.
	conv, err := subStore.ProcessApproved(context.Background())
	require.NoError(t, err)
	assert.Len(t, conv.Approved, 1)
}

func TestRunPublishFailureLeavesSubmissionsPending(t *testing.T) {
	assetStore := &memStore{writeErr: errors.NewAPIError("assets", 500, "boom")}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll))

	_, err := syncer.Run(context.Background(), false)
	require.Error(t, err)

	// Nothing was consumed; the next pass replays the conversion.
	conv, err := subStore.ProcessApproved(context.Background())
	require.NoError(t, err)
	assert.Len(t, conv.Approved, 1)
}

func TestRunReadFailureIsFatal(t *testing.T) {
	assetStore := &memStore{readErr: errors.NewAPIError("assets", 500, "boom")}
	subStore := newSubmissionStore(t)

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll))

	_, err := syncer.Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsExternalService(err))
	assert.Zero(t, assetStore.writes)
}

func TestRunDerivesLocationsFromOrderActivity(t *testing.T) {
	assetStore := &memStore{}
	source := &stubSource{
		orders: map[string][]orders.Order{
			"Faire": {{
				ID:         "o1",
				Customer:   &orders.OrderCustomer{ID: "c1"},
				SourceName: "Faire",
				LineItems:  []orders.LineItem{{SKU: "BEAN-01", ProductExists: true}},
			}},
		},
		customers: map[string]orders.Customer{
			"c1": {
				ID: "c1",
				DefaultAddress: &orders.Address{
					Company:  "Wholesale Buyer",
					Address1: "9 Dock Rd",
					City:     "Seattle",
					Province: "WA",
					Zip:      "98101",
					Country:  "US",
				},
			},
		},
	}

	var report string
	syncer := New(assetStore, newSubmissionStore(t), source, geocode.ResolverFunc(resolveAll),
		WithChannels("Faire"),
		WithNotifier(notify.NotifierFunc(func(_ context.Context, message string) error {
			report = message
			return nil
		})))

	result, err := syncer.Run(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, result.Changes.New, 1)
	assert.Equal(t, "Wholesale Buyer", result.Changes.New[0].Name)
	require.Len(t, assetStore.written.StoreLocations, 1)
	assert.Equal(t, []string{"BEAN-01"}, assetStore.written.SKUs)
	assert.Contains(t, report, "New locations added: 1")
}

func TestRunNotifierFailureDoesNotFailThePass(t *testing.T) {
	assetStore := &memStore{}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll),
		WithNotifier(notify.NotifierFunc(func(context.Context, string) error {
			return errors.NewAPIError("slack", 500, "down")
		})))

	result, err := syncer.Run(context.Background(), false)
	require.NoError(t, err, "a lost report never fails a published pass")
	assert.True(t, result.Published)
}

func TestPublishSubmissionsWritesCatalogBeforeConsuming(t *testing.T) {
	assetStore := &memStore{catalog: locations.Catalog{SKUs: []string{"OLD"}}}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll))

	result, err := syncer.PublishSubmissions(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Published)
	assert.Equal(t, 1, assetStore.writes)
	require.Len(t, assetStore.written.ManualLocations, 1)
	assert.Equal(t, "Cafe X", assetStore.written.ManualLocations[0].Name)
	require.Len(t, assetStore.written.StoreLocations, 1)
	assert.Contains(t, assetStore.written.SKUs, "OLD")
	require.Len(t, result.Changes.NewManual, 1)

	// The approved location now lives in the published catalog; only then
	// was the submission consumed.
	conv, err := subStore.ProcessApproved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conv.Approved)
}

func TestPublishSubmissionsFailureLeavesSubmissionsPending(t *testing.T) {
	assetStore := &memStore{writeErr: errors.NewAPIError("assets", 500, "boom")}
	subStore := newSubmissionStore(t)
	approveSubmission(t, subStore, "Cafe X")

	syncer := New(assetStore, subStore, &stubSource{}, geocode.ResolverFunc(resolveAll))

	_, err := syncer.PublishSubmissions(context.Background())
	require.Error(t, err)

	// Nothing consumed: the approved location is not lost.
	conv, err := subStore.ProcessApproved(context.Background())
	require.NoError(t, err)
	assert.Len(t, conv.Approved, 1)
}

func TestPublishSubmissionsWithNothingDecidedWritesNothing(t *testing.T) {
	assetStore := &memStore{}
	syncer := New(assetStore, newSubmissionStore(t), &stubSource{}, geocode.ResolverFunc(resolveAll))

	result, err := syncer.PublishSubmissions(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Published)
	assert.Zero(t, assetStore.writes)
}

func TestRunWithoutChangesPostsNothing(t *testing.T) {
	posted := 0
	syncer := New(&memStore{}, newSubmissionStore(t), &stubSource{}, geocode.ResolverFunc(resolveAll),
		WithNotifier(notify.NotifierFunc(func(context.Context, string) error {
			posted++
			return nil
		})))

	result, err := syncer.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.Zero(t, posted)
	assert.False(t, result.Changes.HasChanges())
}
