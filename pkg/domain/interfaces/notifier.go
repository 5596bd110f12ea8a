package interfaces

import (
	"context"

	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Notifier delivers user-facing notices about action lifecycle events.
// Delivery is best-effort; the core never fails an operation because a
// notice could not be sent.
type Notifier interface {
	// NotifyInactivityWarning warns that an action passed the warning
	// threshold without a recorded result.
	NotifyInactivityWarning(ctx context.Context, channelID types.ChannelID, action *model.Action, hours float64) error

	// NotifyMarkedInactive announces that an action was marked inactive
	// after the inactivity threshold.
	NotifyMarkedInactive(ctx context.Context, channelID types.ChannelID, action *model.Action, hours float64) error
}
