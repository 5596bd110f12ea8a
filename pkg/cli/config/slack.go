package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	slacksvc "github.com/secmon-lab/gyges/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for Slack notification configuration
type Slack struct {
	botToken string
}

// Flags returns CLI flags for Slack configuration
func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for lifecycle notices)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("GYGES_SLACK_BOT_TOKEN"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
	)
}

// IsConfigured reports whether a bot token was provided
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure builds the Notifier, or returns nil when Slack is not
// configured. Notification is best-effort throughout, so a nil notifier
// is a valid result, not an error.
func (x *Slack) Configure() (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		return nil, nil
	}

	svc, err := slacksvc.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return slacksvc.NewNotifier(svc), nil
}
