package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stockistmap/stockistmap/internal/config"
	"github.com/stockistmap/stockistmap/internal/notify"
	"github.com/stockistmap/stockistmap/pkg/assets"
	"github.com/stockistmap/stockistmap/pkg/geocode"
	"github.com/stockistmap/stockistmap/pkg/logging"
	"github.com/stockistmap/stockistmap/pkg/orders"
	"github.com/stockistmap/stockistmap/pkg/submissions"
	"github.com/stockistmap/stockistmap/pkg/sync"
)

var dryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass and publish the catalog",
	Long: `Sync reads the published location snapshot, converts decided manual
submissions, aggregates order activity over the lookback window, merges
everything with manual-first precedence, publishes the updated snapshot,
and posts a change report.

With --dry-run the pass reconciles and reports but publishes nothing and
consumes no submissions.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "reconcile and report without publishing")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	syncer := buildSyncer(cfg)

	result, err := syncer.Run(ctx, dryRun)
	if err != nil {
		fatalAlert(ctx, cfg, err)
		// Cobra already prints the error; exit non-zero through Execute.
		return err
	}

	fmt.Println(result.Changes.String())
	if result.RemainingPending > 0 {
		fmt.Printf("%d submissions still pending approval\n", result.RemainingPending)
	}
	return nil
}

// buildSyncer wires the collaborators from configuration.
func buildSyncer(cfg *config.Config) *sync.Syncer {
	resolver := geocode.NewGoogleResolver(cfg.GeocodeAPIKey)
	source := orders.NewClient(cfg.Shop, cfg.APIKey, cfg.APIPassword)
	submissionStore := submissions.New(cfg.PendingFile, cfg.RejectedFile,
		submissions.WithResolver(resolver))

	var assetStore assets.Store
	if cfg.SnapshotFile != "" {
		assetStore = assets.NewFileStore(cfg.SnapshotFile)
	} else {
		assetStore = assets.NewThemeStore(cfg.Shop, cfg.APIKey, cfg.APIPassword)
	}

	opts := []sync.Option{
		sync.WithChannels(cfg.Channels...),
		sync.WithLookbackMonths(cfg.LookbackMonths),
	}
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		opts = append(opts, sync.WithNotifier(notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel)))
	}

	return sync.New(assetStore, submissionStore, source, resolver, opts...)
}

// fatalAlert emails the operator about a failed pass. Alert delivery
// problems are logged; the original failure still decides the exit code.
func fatalAlert(ctx context.Context, cfg *config.Config, runErr error) {
	logging.Error().Err(runErr).Msg("Reconciliation pass failed")

	if cfg.Email.Host == "" || cfg.Email.To == "" {
		return
	}
	alerter := notify.NewEmailAlerter(cfg.Email)
	body := fmt.Sprintf("An error occurred while updating the map data:\n\n%s\n\nPlease check the server logs for more details.", runErr)
	if err := alerter.Alert(ctx, "stockistmap sync failed", body); err != nil {
		fmt.Fprintln(os.Stderr, "failed to send alert email:", err)
	}
}
