package submissions

import (
	"context"

	"github.com/stockistmap/stockistmap/pkg/locations"
)

// Conversion is the outcome of partitioning the pending store: the decided
// submissions converted into Location records plus a staged Consumption.
type Conversion struct {
	// Approved holds the active manual locations converted from approved
	// submissions, in submission order.
	Approved []locations.Location

	// Rejected holds the rejected conversions destined for the archive.
	Rejected []locations.Location

	// RemainingPending counts the submissions still awaiting review.
	RemainingPending int

	// Consumption commits the conversion; see Consumption.Commit.
	Consumption *Consumption
}

// Consumption is the deferred half of ProcessApproved. Converting decided
// submissions and removing them from the pending store are split so the
// caller can publish the catalog first: if publication fails, nothing has
// been consumed and the next pass simply converts again.
type Consumption struct {
	store     *Store
	pending   []locations.Submission
	rejected  []locations.Location
	committed bool
}

// Commit removes the converted submissions from the pending store and
// appends the rejected conversions to the archive. It is a no-op when
// called twice.
func (c *Consumption) Commit(_ context.Context) error {
	if c == nil || c.committed {
		return nil
	}

	// Archive first. If the pending rewrite below fails, the next pass
	// re-converts and re-archives under fresh ids; the archive is an audit
	// trail, so duplicates are preferable to losing a rejection record.
	if len(c.rejected) > 0 {
		existing, err := c.store.loadRejected()
		if err != nil {
			return err
		}
		if err := saveJSON(c.store.rejectedPath, append(existing, c.rejected...)); err != nil {
			return err
		}
	}

	if err := c.store.savePending(c.pending); err != nil {
		return err
	}

	c.committed = true
	return nil
}

// ProcessApproved partitions the pending store into approved, rejected, and
// still-pending submissions, and converts every decided entry into a
// Location record under a freshly minted manual id. The pending store is
// not modified until the returned Consumption is committed; after Commit,
// re-invoking with no new decisions converts nothing.
func (s *Store) ProcessApproved(_ context.Context) (Conversion, error) {
	subs, err := s.loadPending()
	if err != nil {
		return Conversion{}, err
	}

	conv := Conversion{}
	var stillPending []locations.Submission

	for _, sub := range subs {
		switch sub.Status {
		case locations.SubmissionApproved:
			conv.Approved = append(conv.Approved, sub.Location(locations.NewManualID()))
		case locations.SubmissionRejected:
			conv.Rejected = append(conv.Rejected, sub.Location(locations.NewManualID()))
		default:
			stillPending = append(stillPending, sub)
		}
	}

	conv.RemainingPending = len(stillPending)
	conv.Consumption = &Consumption{
		store:    s,
		pending:  stillPending,
		rejected: conv.Rejected,
	}

	s.logger.Info().
		Int("approved", len(conv.Approved)).
		Int("rejected", len(conv.Rejected)).
		Int("remaining_pending", conv.RemainingPending).
		Msg("Processed decided submissions")

	return conv, nil
}
