package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Notifier delivers inactivity notices for actions as Block Kit messages
type Notifier struct {
	svc Service
}

var _ interfaces.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier backed by the given Slack service
func NewNotifier(svc Service) *Notifier {
	return &Notifier{svc: svc}
}

// NotifyInactivityWarning posts a warning that the action will be marked
// inactive if no result is recorded
func (n *Notifier) NotifyInactivityWarning(ctx context.Context, channelID types.ChannelID, action *model.Action, hours float64) error {
	text := fmt.Sprintf("Action %q has been open for %.0f hours without a result", action.Name, hours)

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf(":warning: *%s* has been open for %.0f hours without a recorded result.", action.Name, hours),
				false, false),
			nil, nil,
		),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				"Record a result or the action will be marked inactive automatically.",
				false, false),
		),
	}

	if _, err := n.svc.PostMessage(ctx, string(channelID), blocks, text); err != nil {
		return goerr.Wrap(err, "failed to post inactivity warning",
			goerr.V("action_id", action.ID), goerr.V("channel_id", channelID))
	}
	return nil
}

// NotifyMarkedInactive posts a notice that the action was marked inactive
func (n *Notifier) NotifyMarkedInactive(ctx context.Context, channelID types.ChannelID, action *model.Action, hours float64) error {
	text := fmt.Sprintf("Action %q was marked inactive after %.0f hours", action.Name, hours)

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf(":no_entry_sign: *%s* was marked inactive after %.0f hours without a result.", action.Name, hours),
				false, false),
			nil, nil,
		),
	}

	if _, err := n.svc.PostMessage(ctx, string(channelID), blocks, text); err != nil {
		return goerr.Wrap(err, "failed to post inactive notice",
			goerr.V("action_id", action.ID), goerr.V("channel_id", channelID))
	}
	return nil
}
