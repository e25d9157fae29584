// Package api is the Go client for the dashboard HTTP API. It carries the
// session cookie across calls and maps response codes back onto the shared
// error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"tubedigest/domain/dto"
	"tubedigest/domain/model"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL      string
	httpClient   *http.Client
	sessionToken string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetSessionToken installs a bearer token for clients that do not use the
// cookie flow.
func (c *Client) SetSessionToken(token string) {
	c.sessionToken = token
}

// DirectoryQuery are the optional knobs of GET /api/channels.
type DirectoryQuery struct {
	MaxResults int `url:"maxResults,omitempty"`
}

// Me fetches the authenticated identity. A 401 maps to
// model.ErrAuthenticationRequired, which callers use to tell "session
// expired" apart from "server broken".
func (c *Client) Me(ctx context.Context) (dto.MeResponse, error) {
	var res dto.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &res); err != nil {
		return dto.MeResponse{}, err
	}
	return res, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) ListChannels(ctx context.Context, q DirectoryQuery) ([]model.ChannelSummary, error) {
	values, err := query.Values(q)
	if err != nil {
		return nil, err
	}
	path := "/api/channels"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var channels []model.ChannelSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (c *Client) ListSelected(ctx context.Context) ([]dto.SelectedChannel, error) {
	var selected []dto.SelectedChannel
	if err := c.do(ctx, http.MethodGet, "/api/channels/selected", nil, &selected); err != nil {
		return nil, err
	}
	return selected, nil
}

func (c *Client) SelectChannels(ctx context.Context, channelIDs []string, titles map[string]string) error {
	req := dto.SelectChannelsRequest{ChannelIDs: channelIDs, Titles: titles}
	return c.do(ctx, http.MethodPost, "/api/channels/select", req, nil)
}

func (c *Client) ToggleChannel(ctx context.Context, channelID, title string, selected bool) error {
	req := dto.ToggleChannelRequest{Selected: selected, Title: title}
	return c.do(ctx, http.MethodPut, "/api/channels/"+channelID, req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func classifyStatus(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return model.ErrAuthenticationRequired
	case http.StatusServiceUnavailable:
		return model.ErrUpstreamUnavailable
	case http.StatusBadRequest:
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Error == "limit_exceeded" {
			return model.ErrLimitExceeded
		}
		return fmt.Errorf("bad request: %s", strings.TrimSpace(string(raw)))
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
}
