package model

import "time"

// ChannelSummary is a channel the user could pick for digests. Sourced from
// the YouTube subscriptions API (or the fallback directory); never persisted
// beyond transient caching.
type ChannelSummary struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// SelectionEntry is one selected channel for one user. Title is a snapshot
// taken at selection time and is not re-synced against the live directory.
type SelectionEntry struct {
	UserID    string    `json:"-"`
	ChannelID string    `json:"channelId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"-"`
}

// SelectionCap is the hard limit of channels a user may select for digests.
const SelectionCap = 10

// DecryptedCredential is an OAuth token pair after decryption. Only the
// channel directory adapter ever sees one; it must not outlive the call
// that needed it.
type DecryptedCredential struct {
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}
