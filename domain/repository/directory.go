package repository

import (
	"context"

	"tubedigest/domain/model"
)

// IChannelDirectory lists the channels a credential can see upstream.
// Implementations call the external subscriptions API with a decrypted
// token; credential lookup and fallback substitution live in the usecase.
type IChannelDirectory interface {
	ListSubscriptions(ctx context.Context, cred *model.DecryptedCredential, maxResults int64) ([]model.ChannelSummary, error)
}

// ISelectionEvents publishes selection-changed notifications for downstream
// digest assembly. Implementations must be nil-safe no-ops when the broker
// is not configured.
type ISelectionEvents interface {
	SelectionChanged(ctx context.Context, userID string, channelIDs []string) error
}
