package locations

import "time"

// SubmissionStatus represents the review state of an operator submission.
type SubmissionStatus string

// Submission statuses.
const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is an operator-curated location awaiting review. It lives in
// the pending store until ProcessApproved converts it into a Location.
type Submission struct {
	ID           string `json:"id" yaml:"id"`
	BusinessName string `json:"business_name" yaml:"business_name"`
	Street       string `json:"street" yaml:"street"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	PostalCode   string `json:"postal_code" yaml:"postal_code"`
	Country      string `json:"country" yaml:"country"`

	// FullAddress is the single-line rendering used for geocoding and export.
	FullAddress string `json:"full_address" yaml:"full_address"`

	// Coordinates is nil when geocoding failed at intake.
	Coordinates *Coordinates `json:"coordinates" yaml:"coordinates"`

	CarriedProducts []string `json:"carried_products" yaml:"carried_products"`

	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`

	Status          SubmissionStatus `json:"status" yaml:"status"`
	SubmittedAt     time.Time        `json:"submitted_at" yaml:"submitted_at"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty" yaml:"approved_at,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty" yaml:"rejected_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
}

// IsPending reports whether the submission is still awaiting a decision.
func (s *Submission) IsPending() bool {
	return s.Status == SubmissionPending
}

// Location converts a decided submission into its exported Location form
// under the given minted id. Approved submissions become active manual
// locations; rejected ones keep their rejection metadata for the archive.
func (s *Submission) Location(id string) Location {
	loc := Location{
		ID:          id,
		Name:        s.BusinessName,
		Address:     s.FullAddress,
		Coordinates: s.Coordinates,
		SKUs:        append([]string(nil), s.CarriedProducts...),
		Source:      SourceManual,
		Contact:     s.Contact,
		Email:       s.Email,
		Phone:       s.Phone,
		SubmittedAt: timePtr(s.SubmittedAt),
	}
	if s.Channel != "" {
		loc.SalesChannel = s.Channel
	}
	switch s.Status {
	case SubmissionRejected:
		loc.Status = StatusRejected
		loc.RejectedAt = s.RejectedAt
		loc.RejectionReason = s.RejectionReason
	default:
		loc.Status = StatusActive
		loc.ApprovedAt = s.ApprovedAt
	}
	return loc
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
