package usecase

import (
	"context"
	"errors"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/cache"
	"tubedigest/infrastructure/logger"
)

const directoryPageLimit = 200

// fallbackChannels is served when a user has no usable credential yet, so
// the selection page renders something to pick from before OAuth completes.
var fallbackChannels = []model.ChannelSummary{
	{ChannelID: "UCXuqSBlHAE6Xw-yeJA0Tunw", Title: "Linus Tech Tips"},
	{ChannelID: "UCBJycsmduvYEL83R_U4JriQ", Title: "MKBHD"},
	{ChannelID: "UCsXVk37bltHxD1rDPwtNM8Q", Title: "Kurzgesagt"},
	{ChannelID: "UC6107grRI4m0o2-emgoDnAA", Title: "SmarterEveryDay"},
	{ChannelID: "UCYO_jab_esuFRV4b17AJtAw", Title: "3Blue1Brown"},
	{ChannelID: "UCsooa4yRKGN_zEE8iknghZA", Title: "TED-Ed"},
	{ChannelID: "UCZYTClx2T1of7BRZ86-8fow", Title: "SciShow"},
	{ChannelID: "UCHnyfMqiRRG1u-2MsSQLbXA", Title: "Veritasium"},
}

type IChannelUsecase interface {
	// ListDirectory returns the channels the user can pick from. Without a
	// usable credential it serves a fixed fallback list; with one, an
	// upstream outage is reported as model.ErrUpstreamUnavailable rather
	// than silently degraded.
	ListDirectory(ctx context.Context, userID string) ([]model.ChannelSummary, error)
	ListSelected(ctx context.Context, userID string) ([]model.SelectionEntry, error)
	ReplaceSelection(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error
	ToggleChannel(ctx context.Context, userID, channelID, title string, selected bool) error
}

type channelUsecase struct {
	directory      repository.IChannelDirectory
	credentials    repository.ICredential
	selections     repository.ISelection
	events         repository.ISelectionEvents
	directoryCache *cache.DirectoryCache
}

func NewChannelUsecase(
	directory repository.IChannelDirectory,
	credentials repository.ICredential,
	selections repository.ISelection,
	events repository.ISelectionEvents,
	directoryCache *cache.DirectoryCache,
) IChannelUsecase {
	return &channelUsecase{
		directory:      directory,
		credentials:    credentials,
		selections:     selections,
		events:         events,
		directoryCache: directoryCache,
	}
}

func (u *channelUsecase) ListDirectory(ctx context.Context, userID string) ([]model.ChannelSummary, error) {
	if cached, ok := u.directoryCache.Get(ctx, userID); ok {
		return cached, nil
	}

	cred, err := u.credentials.Get(ctx, userID, "google")
	if err != nil {
		if errors.Is(err, model.ErrNoCredential) || errors.Is(err, model.ErrDecryptionFailed) {
			logger.GetLogger().
				WithField("user_id", userID).
				WithField("reason", err).
				Info("serving fallback channel directory")
			return fallbackChannels, nil
		}
		return nil, err
	}

	channels, err := u.directory.ListSubscriptions(ctx, cred, directoryPageLimit)
	if err != nil {
		// A credential exists but upstream failed: never mask the outage
		// with the fallback list, let the caller show an error state.
		return nil, err
	}

	u.directoryCache.Set(ctx, userID, channels)
	return channels, nil
}

func (u *channelUsecase) ListSelected(ctx context.Context, userID string) ([]model.SelectionEntry, error) {
	return u.selections.List(ctx, userID)
}

func (u *channelUsecase) ReplaceSelection(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error {
	if err := u.selections.Replace(ctx, userID, channelIDs, titles); err != nil {
		return err
	}
	u.afterMutation(ctx, userID)
	return nil
}

func (u *channelUsecase) ToggleChannel(ctx context.Context, userID, channelID, title string, selected bool) error {
	if err := u.selections.SetMembership(ctx, userID, channelID, title, selected); err != nil {
		return err
	}
	u.afterMutation(ctx, userID)
	return nil
}

// afterMutation publishes the new selection set and drops the cached
// directory. Both are best effort; the write already committed.
func (u *channelUsecase) afterMutation(ctx context.Context, userID string) {
	u.directoryCache.Invalidate(ctx, userID)

	list, err := u.selections.List(ctx, userID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("post-mutation selection read failed; skipping event")
		return
	}
	ids := make([]string, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ChannelID)
	}
	if u.events != nil {
		if err := u.events.SelectionChanged(ctx, userID, ids); err != nil {
			logger.GetLogger().WithField("error", err).Warn("selection.changed publish failed")
		}
	}
}
