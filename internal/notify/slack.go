// Package notify posts review notifications for entries that need a human
// decision. Failures are logged and swallowed so a broken webhook never
// stalls a sync cycle.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/clearhours/trackd/internal/entry"
)

// PostMessageAPI abstracts the Slack API client for testing.
type PostMessageAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts a message to a channel when a pending entry is created.
type SlackNotifier struct {
	api     PostMessageAPI
	channel string
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier posting to the given channel.
func NewSlackNotifier(botToken, channel string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(botToken),
		channel: channel,
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// PendingCreated posts a review prompt for the new pending entry.
func (n *SlackNotifier) PendingCreated(ctx context.Context, p entry.Pending) {
	blocks := buildPendingBlocks(p)

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(pendingSummary(p), false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		n.logger.Warn().
			Err(err).
			Str("pending_id", p.ID).
			Str("channel", n.channel).
			Msg("failed to post pending entry notification")
		return
	}

	n.logger.Debug().
		Str("pending_id", p.ID).
		Str("channel", n.channel).
		Msg("pending entry notification posted")
}

// pendingSummary returns the fallback one-line text for the notification.
// The description already carries the duration and confidence.
func pendingSummary(p entry.Pending) string {
	return "Time entry needs review: " + p.Description
}

func buildPendingBlocks(p entry.Pending) []slack.Block {
	detail := fmt.Sprintf("*%s*\nProject: %s · Client: %s\nEstimated *%d min* at %.0f%% confidence",
		p.Description,
		p.Classification.Project,
		p.Classification.Client,
		p.Estimate.Minutes,
		p.Estimate.Confidence*100,
	)

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn", detail, false, false),
			nil, nil,
		),
		slack.NewContextBlock(
			"pending_context",
			slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("Pending ID: `%s` · approve or reject via the trackd API", p.ID),
				false, false),
		),
	}
}
