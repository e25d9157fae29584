package dto

// Res is the generic error envelope used by middleware and handlers.
type Res struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
}

// SelectChannelsRequest is the body of POST /channels/select.
type SelectChannelsRequest struct {
	ChannelIDs []string          `json:"channelIds"`
	Titles     map[string]string `json:"titles"`
}

// ToggleChannelRequest is the body of PUT /channels/:channelId.
type ToggleChannelRequest struct {
	Selected bool   `json:"selected"`
	Title    string `json:"title,omitempty"`
}

// SelectChannelsResponse acknowledges a full-set save.
type SelectChannelsResponse struct {
	OK bool `json:"ok"`
}

// ToggleChannelResponse acknowledges a single toggle.
type ToggleChannelResponse struct {
	OK       bool `json:"ok"`
	Selected bool `json:"selected"`
}

// SelectedChannel is one row of GET /channels/selected.
type SelectedChannel struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"title"`
}

// MeResponse is the body of GET /me.
type MeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	Timezone  string `json:"tz"`
}
