// Package reconcile merges the published catalog, operator-curated manual
// locations, and order-derived customer activity into one exported dataset,
// classifying every change along the way.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/stockistmap/stockistmap/pkg/locations"
)

// Problem records a customer that could not be reconciled into the catalog.
type Problem struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Reason  string `json:"reason"`
}

// Label returns the best identifier for reporting: name, falling back to id.
func (p Problem) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Problem reason strings.
const (
	ReasonGeocodeFailed = "Failed to geocode address"
	ReasonNoAddress     = "No address data available"
)

// Changeset classifies everything one reconciliation pass did: locations
// added, updated, removed, and customers that could not be placed.
type Changeset struct {
	New      []locations.Location
	Updated  []locations.Location
	Removed  []locations.Location
	Problems []Problem

	// NewManual holds the approved manual locations merged in this pass,
	// reported separately from order-derived additions.
	NewManual []locations.Location

	// RejectedManual holds the rejected conversions archived this pass.
	// They never reach the export but the report mentions them.
	RejectedManual []locations.Location
}

// Summary provides counts for logging and reporting.
type Summary struct {
	New            int
	Updated        int
	Removed        int
	Problems       int
	NewManual      int
	RejectedManual int
	Total          int
}

// Summary computes the changeset's counts.
func (c *Changeset) Summary() Summary {
	s := Summary{
		New:            len(c.New),
		Updated:        len(c.Updated),
		Removed:        len(c.Removed),
		Problems:       len(c.Problems),
		NewManual:      len(c.NewManual),
		RejectedManual: len(c.RejectedManual),
	}
	s.Total = s.New + s.Updated + s.Removed + s.Problems + s.NewManual + s.RejectedManual
	return s
}

// HasChanges returns true if the changeset contains anything worth
// reporting.
func (c *Changeset) HasChanges() bool {
	return c.Summary().Total > 0
}

// String returns a one-line human-readable summary.
func (c *Changeset) String() string {
	s := c.Summary()
	if s.Total == 0 {
		return "No changes detected"
	}

	var parts []string
	if s.New > 0 {
		parts = append(parts, fmt.Sprintf("%d new", s.New))
	}
	if s.NewManual > 0 {
		parts = append(parts, fmt.Sprintf("%d new manual", s.NewManual))
	}
	if s.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", s.Updated))
	}
	if s.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", s.Removed))
	}
	if s.RejectedManual > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", s.RejectedManual))
	}
	if s.Problems > 0 {
		parts = append(parts, fmt.Sprintf("%d problems", s.Problems))
	}

	return fmt.Sprintf("Changeset: %s (total: %d)", strings.Join(parts, ", "), s.Total)
}
