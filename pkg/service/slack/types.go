package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service provides the messaging surface of the Slack API used by the
// action lifecycle: posting and updating Block Kit messages and looking
// up users for display names.
type Service interface {
	// PostMessage posts a Block Kit message to a channel and returns the
	// message timestamp. The text parameter is used as a fallback for
	// notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)

	// UpdateMessage updates an existing Block Kit message identified by
	// channel and timestamp.
	UpdateMessage(ctx context.Context, channelID string, timestamp string, blocks []slack.Block, text string) error

	// GetUserInfo retrieves user information for the given user ID
	GetUserInfo(ctx context.Context, userID string) (*User, error)
}

// User represents a Slack user
type User struct {
	ID       string
	Name     string
	RealName string
}
