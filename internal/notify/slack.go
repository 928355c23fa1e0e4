package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/stockistmap/stockistmap/pkg/errors"
	"github.com/stockistmap/stockistmap/pkg/logging"
)

// slackAPI is the subset of the Slack client we use, extracted for tests.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts change reports to a Slack channel.
type SlackNotifier struct {
	api     slackAPI
	channel string
	logger  *zerolog.Logger
}

// NewSlackNotifier creates a notifier posting to the given channel id with
// the given bot token.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token),
		channel: channel,
		logger:  logging.Default(),
	}
}

// Post sends the message via chat.postMessage.
func (n *SlackNotifier) Post(ctx context.Context, message string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(message, false))
	if err != nil {
		return errors.WrapAPI("slack", 0, err)
	}
	n.logger.Info().Str("channel", n.channel).Msg("Slack notification sent")
	return nil
}
