// Package locations defines the domain types shared across the stockistmap
// system: exported locations, operator submissions, and the published
// catalog snapshot.
package locations

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a location.
type Status string

// Location statuses.
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusRejected Status = "rejected"
)

// Source identifies where a location came from.
type Source string

// Location sources.
const (
	SourceManual  Source = "manual"  // operator-curated submission
	SourceDerived Source = "derived" // synthesized from order history
)

// Coordinates is a geographic point resolved from a free-text address.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// String returns "lat,lng" for logging and reports.
func (c Coordinates) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// Location is a single entry in the exported catalog. Derived locations use
// the originating customer id as their id; manual locations carry a minted
// manual id.
type Location struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Address      string       `json:"address" yaml:"address"`
	Coordinates  *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	SKUs         []string     `json:"skus" yaml:"skus"`
	SalesChannel string       `json:"sales_channel,omitempty" yaml:"sales_channel,omitempty"`
	Status       Status       `json:"status" yaml:"status"`
	Source       Source       `json:"source" yaml:"source"`

	// Contact details carried over from manual submissions.
	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" yaml:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
}

// IsManual reports whether the location came from an operator submission.
func (l *Location) IsManual() bool {
	return l.Source == SourceManual
}

// ManualIDPrefix marks ids minted for locations converted from submissions.
const ManualIDPrefix = "manual_"

// NewManualID mints a unique id for a manual location.
func NewManualID() string {
	return ManualIDPrefix + uuid.NewString()
}

// NewSubmissionID mints a unique id for a pending submission.
func NewSubmissionID() string {
	return uuid.NewString()
}
