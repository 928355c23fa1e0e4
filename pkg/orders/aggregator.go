package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/pkg/logging"
)

const (
	// DefaultLookbackMonths bounds the order window for activity.
	DefaultLookbackMonths = 12

	// DefaultPageDelay is the fixed wait between order-page fetches, to
	// stay inside the platform's rate limits.
	DefaultPageDelay = 500 * time.Millisecond
)

// Activity summarizes fetched order history per customer.
type Activity struct {
	// ActiveCustomerIDs holds the distinct customer ids seen across all
	// channels, in fetch order. Ordering drives the reconciliation pass and
	// keeps reruns deterministic for identical remote state.
	ActiveCustomerIDs []string

	// SKUsByCustomer maps customer id to the distinct non-empty SKUs drawn
	// from line items whose product still exists.
	SKUsByCustomer map[string][]string

	// ChannelByCustomer maps customer id to the first non-empty order
	// source seen for that customer.
	ChannelByCustomer map[string]string
}

// SKUs returns the computed SKU set for a customer.
func (a *Activity) SKUs(customerID string) []string {
	return a.SKUsByCustomer[customerID]
}

// Channel returns the inferred sales channel for a customer.
func (a *Activity) Channel(customerID string) string {
	return a.ChannelByCustomer[customerID]
}

// Aggregator fetches order history and folds it into Activity.
type Aggregator struct {
	source    Source
	pageDelay time.Duration
	logger    *zerolog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithPageDelay overrides the inter-page delay. Tests set it to zero.
func WithPageDelay(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.pageDelay = d
	}
}

// WithAggregatorLogger overrides the aggregator's logger.
func WithAggregatorLogger(logger *zerolog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator over the given order source.
func NewAggregator(source Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		source:    source,
		pageDelay: DefaultPageDelay,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchActivity pulls every order in the lookback window for each channel
// and summarizes per-customer activity. Channels are fetched sequentially,
// each paginated until the source returns no further cursor, with a fixed
// delay between pages. Any fetch error aborts the whole call.
func (a *Aggregator) FetchActivity(ctx context.Context, channels []string, lookbackMonths int) (Activity, error) {
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultLookbackMonths
	}
	since := time.Now().AddDate(0, -lookbackMonths, 0)

	activity := Activity{
		SKUsByCustomer:    make(map[string][]string),
		ChannelByCustomer: make(map[string]string),
	}
	seen := make(map[string]struct{})
	skuSeen := make(map[string]map[string]struct{})
	total := 0

	for _, channel := range channels {
		cursor := ""
		for {
			page, err := a.source.ListOrders(ctx, channel, since, cursor)
			if err != nil {
				return Activity{}, fmt.Errorf("fetching %s orders: %w", channel, err)
			}
			total += len(page.Orders)

			for i := range page.Orders {
				a.fold(&activity, seen, skuSeen, &page.Orders[i])
			}

			if page.NextCursor == "" {
				break
			}
			cursor = page.NextCursor
			if err := sleepCtx(ctx, a.pageDelay); err != nil {
				return Activity{}, err
			}
		}
	}

	a.logger.Info().
		Int("orders", total).
		Int("active_customers", len(activity.ActiveCustomerIDs)).
		Int("lookback_months", lookbackMonths).
		Msg("Aggregated order activity")

	return activity, nil
}

// fold merges one order into the running activity.
func (a *Aggregator) fold(activity *Activity, seen map[string]struct{}, skuSeen map[string]map[string]struct{}, order *Order) {
	if order.Customer == nil || order.Customer.ID == "" {
		return
	}
	id := order.Customer.ID

	if _, ok := seen[id]; !ok {
		seen[id] = struct{}{}
		activity.ActiveCustomerIDs = append(activity.ActiveCustomerIDs, id)
		skuSeen[id] = make(map[string]struct{})
	}

	if _, ok := activity.ChannelByCustomer[id]; !ok && order.SourceName != "" {
		activity.ChannelByCustomer[id] = order.SourceName
	}

	for _, item := range order.LineItems {
		if !item.ProductExists || item.SKU == "" {
			continue
		}
		if _, ok := skuSeen[id][item.SKU]; ok {
			continue
		}
		skuSeen[id][item.SKU] = struct{}{}
		activity.SKUsByCustomer[id] = append(activity.SKUsByCustomer[id], item.SKU)
	}
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
