package repository

import (
	"context"

	"tubedigest/domain/model"
)

// ISelection is the authoritative selected-channels set per user, capped at
// model.SelectionCap entries. Both mutation paths enforce the cap at the
// store so concurrent writers (two tabs, toggle vs. replace) cannot jointly
// exceed it.
type ISelection interface {
	// Replace discards the whole previous set and inserts the new one as a
	// single transaction. Empty ids are filtered, duplicates collapsed.
	// Returns model.ErrLimitExceeded for more than SelectionCap ids; the
	// stored set is untouched in that case.
	Replace(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error
	// SetMembership adds or removes one channel. Idempotent: adding a
	// selected channel or removing an absent one is a no-op. An add that
	// would exceed SelectionCap returns model.ErrLimitExceeded.
	SetMembership(ctx context.Context, userID, channelID, title string, selected bool) error
	List(ctx context.Context, userID string) ([]model.SelectionEntry, error)
	Count(ctx context.Context, userID string) (int, error)
}
