package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/domain/model"
)

func TestMe_MapsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/me", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "u-1", "email": "a@b.test", "tz": "UTC"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", me.ID)
	assert.Equal(t, "UTC", me.Timezone)
}

func TestDo_401MapsToAuthenticationRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, model.ErrAuthenticationRequired)
}

func TestDo_503MapsToUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.ListChannels(context.Background(), DirectoryQuery{})
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

func TestDo_LimitExceededBodyMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "limit_exceeded", "limit": 10})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	err = c.SelectChannels(context.Background(), []string{"UCa"}, nil)
	assert.ErrorIs(t, err, model.ErrLimitExceeded)
}

func TestDo_ConnectionRefusedMapsToNetworkError(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestListChannels_EncodesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]model.ChannelSummary{{ChannelID: "UCa", Title: "A"}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	channels, err := c.ListChannels(context.Background(), DirectoryQuery{MaxResults: 25})
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "maxResults=25", gotQuery)
}

func TestSetSessionToken_SendsBearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"id": "u-1"})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.SetSessionToken("tok123")

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}
