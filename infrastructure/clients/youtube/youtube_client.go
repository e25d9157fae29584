package youtube

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubedigest/domain/model"
	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
)

const maxPageSize = 50

// Client lists the subscriptions a stored OAuth credential can see. It
// implements repository.IChannelDirectory against the YouTube Data API.
type Client struct {
	oauthConfig *oauth2.Config
}

// Config carries the OAuth application credentials, not a user token;
// per-user tokens arrive with each ListSubscriptions call.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewYouTubeClient(config *Config) repository.IChannelDirectory {
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// ListSubscriptions pages through subscriptions.list(mine=true) for the
// given credential. Upstream failures surface as ErrUpstreamUnavailable so
// callers can distinguish "API down" from "no credential"; a 401 means the
// token no longer works and maps to ErrAuthenticationRequired.
func (c *Client) ListSubscriptions(ctx context.Context, cred *model.DecryptedCredential, maxResults int64) ([]model.ChannelSummary, error) {
	if cred == nil || cred.AccessToken == "" {
		return nil, model.ErrNoCredential
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
	}
	if cred.ExpiresAt != nil {
		token.Expiry = *cred.ExpiresAt
	}
	httpClient := c.oauthConfig.Client(ctx, token)
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	var channels []model.ChannelSummary
	pageToken := ""
	for {
		pageSize := int64(maxPageSize)
		if remaining := maxResults - int64(len(channels)); remaining < pageSize {
			pageSize = remaining
		}
		if pageSize <= 0 {
			break
		}

		call := service.Subscriptions.List([]string{"snippet"}).
			Mine(true).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, classifyAPIError(err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil {
				continue
			}
			channelID := item.Snippet.ResourceId.ChannelId
			if channelID == "" {
				continue
			}
			summary := model.ChannelSummary{
				ChannelID: channelID,
				Title:     item.Snippet.Title,
			}
			if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
				summary.Thumbnail = item.Snippet.Thumbnails.Default.Url
			}
			channels = append(channels, summary)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	logger.GetLogger().WithField("count", len(channels)).Info("subscriptions listed")
	return channels, nil
}

func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 401 {
		return fmt.Errorf("%w: %v", model.ErrAuthenticationRequired, err)
	}
	return fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
}
