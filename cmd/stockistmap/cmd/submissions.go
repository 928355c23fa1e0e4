package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stockistmap/stockistmap/internal/config"
	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/submissions"
)

var submissionsCmd = &cobra.Command{
	Use:     "submissions",
	Aliases: []string{"sub"},
	Short:   "Review and manage manual location submissions",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submissions awaiting review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := buildSubmissionStore(config.Load(), false)
		pending, err := store.Pending(cmd.Context())
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No pending submissions")
			return nil
		}
		for _, sub := range pending {
			fmt.Printf("%s  %s\n    %s\n", sub.ID, sub.BusinessName, sub.FullAddress)
		}
		return nil
	},
}

var submitFlags struct {
	businessName string
	street       string
	city         string
	state        string
	zip          string
	country      string
	products     []string
	contact      string
	email        string
	phone        string
	channel      string
}

var submissionsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new manual location for review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := buildSubmissionStore(config.Load(), true)
		sub, err := store.Submit(cmd.Context(), submissions.Request{
			BusinessName:    submitFlags.businessName,
			Street:          submitFlags.street,
			City:            submitFlags.city,
			State:           submitFlags.state,
			PostalCode:      submitFlags.zip,
			Country:         submitFlags.country,
			CarriedProducts: submitFlags.products,
			Contact:         submitFlags.contact,
			Email:           submitFlags.email,
			Phone:           submitFlags.phone,
			Channel:         submitFlags.channel,
		})
		if err != nil {
			return err
		}
		coords := "no coordinates"
		if sub.Coordinates != nil {
			coords = sub.Coordinates.String()
		}
		fmt.Printf("Submitted %s (%s, %s)\n", sub.ID, sub.BusinessName, coords)
		return nil
	},
}

var submissionsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildSubmissionStore(config.Load(), false)
		sub, err := store.Approve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Approved %s (%s)\n", sub.ID, sub.BusinessName)
		return nil
	},
}

var rejectReason string

var submissionsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := buildSubmissionStore(config.Load(), false)
		sub, err := store.Reject(cmd.Context(), args[0], rejectReason)
		if err != nil {
			return err
		}
		fmt.Printf("Rejected %s (%s): %s\n", sub.ID, sub.BusinessName, sub.RejectionReason)
		return nil
	},
}

var submissionsProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Publish decided submissions into the catalog immediately",
	Long: `Process converts approved and rejected submissions into location
records and publishes the approved ones into the catalog without waiting
for the next sync pass. The pending store is consumed only after the
catalog write succeeds.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncer := buildSyncer(config.Load())
		result, err := syncer.PublishSubmissions(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Published %d approved and archived %d rejected submissions; %d still pending\n",
			len(result.Changes.NewManual), len(result.Changes.RejectedManual), result.RemainingPending)
		for _, loc := range result.Changes.NewManual {
			fmt.Printf("- %s, %s\n", loc.Name, loc.Address)
		}
		for _, loc := range result.Changes.RejectedManual {
			fmt.Printf("- %s, %s (rejected: %s)\n", loc.Name, loc.Address, loc.RejectionReason)
		}
		return nil
	},
}

func init() {
	f := submissionsSubmitCmd.Flags()
	f.StringVar(&submitFlags.businessName, "name", "", "business name (required)")
	f.StringVar(&submitFlags.street, "street", "", "street address (required)")
	f.StringVar(&submitFlags.city, "city", "", "city (required)")
	f.StringVar(&submitFlags.state, "state", "", "state or province (required)")
	f.StringVar(&submitFlags.zip, "zip", "", "postal code (required)")
	f.StringVar(&submitFlags.country, "country", "", "country (required)")
	f.StringSliceVar(&submitFlags.products, "products", nil, "carried product SKUs")
	f.StringVar(&submitFlags.contact, "contact", "", "contact name")
	f.StringVar(&submitFlags.email, "email", "", "contact email")
	f.StringVar(&submitFlags.phone, "phone", "", "contact phone")
	f.StringVar(&submitFlags.channel, "channel", "", "sales channel")

	submissionsRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "rejection reason")

	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsSubmitCmd)
	submissionsCmd.AddCommand(submissionsApproveCmd)
	submissionsCmd.AddCommand(submissionsRejectCmd)
	submissionsCmd.AddCommand(submissionsProcessCmd)
	rootCmd.AddCommand(submissionsCmd)
}

// buildSubmissionStore wires the pending and rejected stores, attaching the
// geocoder only where intake needs it.
func buildSubmissionStore(cfg *config.Config, withGeocoder bool) *submissions.Store {
	opts := []submissions.Option{}
	if withGeocoder && cfg.GeocodeAPIKey != "" {
		opts = append(opts, submissions.WithResolver(geocode.NewGoogleResolver(cfg.GeocodeAPIKey)))
	}
	return submissions.New(cfg.PendingFile, cfg.RejectedFile, opts...)
}
