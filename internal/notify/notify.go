// Package notify renders reconciliation change reports and dispatches them.
// The change report goes to Slack on a best-effort basis; a separate email
// path alerts operators when a pass fails outright.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockistmap/stockistmap/pkg/reconcile"
)

// Notifier posts a change report message. Fire-and-forget from the pass's
// perspective: callers log delivery errors and move on.
type Notifier interface {
	Post(ctx context.Context, message string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string) error

// Post implements Notifier.
func (f NotifierFunc) Post(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Alerter delivers operator-facing alerts for fatal errors, on a channel
// distinct from the normal change report.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Render builds the human-readable change report. Empty sections are
// omitted; an empty changeset renders as an empty string, meaning there is
// nothing to post.
func Render(changes *reconcile.Changeset) string {
	var b strings.Builder

	if len(changes.New) > 0 {
		fmt.Fprintf(&b, "New locations added: %d\n\n", len(changes.New))
		for _, loc := range changes.New {
			fmt.Fprintf(&b, "%s\n%s\n\n", loc.Name, loc.Address)
		}
		b.WriteString("\n")
	}

	if len(changes.NewManual) > 0 {
		fmt.Fprintf(&b, "New approved manual locations added: %d\n\n", len(changes.NewManual))
		for _, loc := range changes.NewManual {
			fmt.Fprintf(&b, "%s\n%s\n\n", loc.Name, loc.Address)
		}
		b.WriteString("\n")
	}

	if len(changes.Removed) > 0 {
		fmt.Fprintf(&b, "Inactive locations removed: %d\n\n", len(changes.Removed))
		for _, loc := range changes.Removed {
			fmt.Fprintf(&b, "%s\n%s\n\n", loc.Name, loc.Address)
		}
		b.WriteString("\n")
	}

	if len(changes.Problems) > 0 {
		fmt.Fprintf(&b, "Problems encountered: %d\n", len(changes.Problems))
		for _, p := range changes.Problems {
			fmt.Fprintf(&b, "- %s: %s\n", p.Label(), p.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}
