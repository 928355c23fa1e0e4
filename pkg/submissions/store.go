// Package submissions manages operator-curated location submissions through
// their lifecycle: pending, approved or rejected, and finally consumed into
// exported locations. Submissions live in a durable pending store; rejected
// conversions are retained permanently in an append-only archive.
package submissions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/locations"
	"github.com/stockistmap/stockistmap/pkg/logging"
)

// Default store file names, matching the published layout.
const (
	DefaultPendingFile  = "pending-locations.json"
	DefaultRejectedFile = "rejected-locations.json"
)

// Store manages the pending submission file and the rejected archive.
type Store struct {
	pendingPath  string
	rejectedPath string
	resolver     geocode.Resolver
	logger       *zerolog.Logger
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithResolver sets the address resolver used at intake. Without one,
// submissions are stored without coordinates.
func WithResolver(resolver geocode.Resolver) Option {
	return func(s *Store) {
		s.resolver = resolver
	}
}

// WithLogger overrides the store's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store over the given pending and rejected-archive files.
func New(pendingPath, rejectedPath string, opts ...Option) *Store {
	s := &Store{
		pendingPath:  pendingPath,
		rejectedPath: rejectedPath,
		logger:       logging.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request carries the fields of a new submission.
type Request struct {
	BusinessName    string   `json:"business_name"`
	Street          string   `json:"street"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	PostalCode      string   `json:"postal_code"`
	Country         string   `json:"country"`
	CarriedProducts []string `json:"carried_products"`
	Contact         string   `json:"contact"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Channel         string   `json:"channel"`
}

// Submit validates the request, attempts best-effort geocoding, and
// persists a new pending submission. Geocoding failure never blocks intake;
// the submission is stored with nil coordinates.
func (s *Store) Submit(ctx context.Context, req Request) (locations.Submission, error) {
	required := []struct {
		field string
		value string
	}{
		{"business_name", req.BusinessName},
		{"street", req.Street},
		{"city", req.City},
		{"state", req.State},
		{"postal_code", req.PostalCode},
		{"country", req.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return locations.Submission{}, errors.NewValidationError(r.field, r.value, "missing required field")
		}
	}

	fullAddress := fmt.Sprintf("%s, %s, %s %s, %s",
		req.Street, req.City, req.State, req.PostalCode, req.Country)

	var coords *locations.Coordinates
	if s.resolver != nil {
		coords = s.resolver.Resolve(ctx, fullAddress)
		if coords == nil {
			// Coordinates can be filled in manually later.
			s.logger.Warn().Str("address", fullAddress).
				Msg("Geocoding failed, storing submission without coordinates")
		}
	}

	sub := locations.Submission{
		ID:              locations.NewSubmissionID(),
		BusinessName:    req.BusinessName,
		Street:          req.Street,
		City:            req.City,
		State:           req.State,
		PostalCode:      req.PostalCode,
		Country:         req.Country,
		FullAddress:     fullAddress,
		Coordinates:     coords,
		CarriedProducts: append([]string(nil), req.CarriedProducts...),
		Contact:         req.Contact,
		Email:           req.Email,
		Phone:           req.Phone,
		Channel:         req.Channel,
		Status:          locations.SubmissionPending,
		SubmittedAt:     s.now().UTC(),
	}

	subs, err := s.loadPending()
	if err != nil {
		return locations.Submission{}, err
	}
	subs = append(subs, sub)
	if err := s.savePending(subs); err != nil {
		return locations.Submission{}, err
	}

	s.logger.Info().Str("id", sub.ID).Str("name", sub.BusinessName).Msg("Submission stored")
	return sub, nil
}

// Approve marks a pending submission approved. Approving a submission that
// already reached a terminal state returns ErrAlreadyDecided rather than
// silently overwriting the earlier decision.
func (s *Store) Approve(_ context.Context, id string) (locations.Submission, error) {
	return s.decide(id, func(sub *locations.Submission) {
		now := s.now().UTC()
		sub.Status = locations.SubmissionApproved
		sub.ApprovedAt = &now
	})
}

// Reject marks a pending submission rejected with the given reason. Like
// Approve, deciding twice returns ErrAlreadyDecided.
func (s *Store) Reject(_ context.Context, id, reason string) (locations.Submission, error) {
	return s.decide(id, func(sub *locations.Submission) {
		now := s.now().UTC()
		sub.Status = locations.SubmissionRejected
		sub.RejectedAt = &now
		sub.RejectionReason = reason
	})
}

func (s *Store) decide(id string, apply func(*locations.Submission)) (locations.Submission, error) {
	subs, err := s.loadPending()
	if err != nil {
		return locations.Submission{}, err
	}

	for i := range subs {
		if subs[i].ID != id {
			continue
		}
		if !subs[i].IsPending() {
			return locations.Submission{}, fmt.Errorf("submission %s is already %s: %w",
				id, subs[i].Status, errors.ErrAlreadyDecided)
		}
		apply(&subs[i])
		if err := s.savePending(subs); err != nil {
			return locations.Submission{}, err
		}
		return subs[i], nil
	}

	return locations.Submission{}, errors.NewNotFoundError("submission", id)
}

// Pending returns the submissions still awaiting review.
func (s *Store) Pending(_ context.Context) ([]locations.Submission, error) {
	subs, err := s.loadPending()
	if err != nil {
		return nil, err
	}
	var pending []locations.Submission
	for _, sub := range subs {
		if sub.IsPending() {
			pending = append(pending, sub)
		}
	}
	return pending, nil
}

// Rejected returns the full rejected-location archive.
func (s *Store) Rejected(_ context.Context) ([]locations.Location, error) {
	return s.loadRejected()
}

func (s *Store) loadPending() ([]locations.Submission, error) {
	var subs []locations.Submission
	if err := loadJSON(s.pendingPath, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Store) savePending(subs []locations.Submission) error {
	if subs == nil {
		subs = []locations.Submission{}
	}
	return saveJSON(s.pendingPath, subs)
}

func (s *Store) loadRejected() ([]locations.Location, error) {
	var locs []locations.Location
	if err := loadJSON(s.rejectedPath, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

// loadJSON reads a JSON array file into out. A missing file is an empty
// store, not an error.
func loadJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIO("read", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapParse("json", path, err)
	}
	return nil
}

func saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
