package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tubedigest/domain/model"
	"tubedigest/usecase"
)

// Mock implementations
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ListSubscriptions(ctx context.Context, cred *model.DecryptedCredential, maxResults int64) ([]model.ChannelSummary, error) {
	args := m.Called(ctx, cred, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChannelSummary), args.Error(1)
}

type MockCredential struct {
	mock.Mock
}

func (m *MockCredential) Upsert(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt *time.Time) error {
	args := m.Called(ctx, userID, provider, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *MockCredential) Get(ctx context.Context, userID, provider string) (*model.DecryptedCredential, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DecryptedCredential), args.Error(1)
}

func (m *MockCredential) Delete(ctx context.Context, userID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

type MockSelection struct {
	mock.Mock
}

func (m *MockSelection) Replace(ctx context.Context, userID string, channelIDs []string, titles map[string]string) error {
	args := m.Called(ctx, userID, channelIDs, titles)
	return args.Error(0)
}

func (m *MockSelection) SetMembership(ctx context.Context, userID, channelID, title string, selected bool) error {
	args := m.Called(ctx, userID, channelID, title, selected)
	return args.Error(0)
}

func (m *MockSelection) List(ctx context.Context, userID string) ([]model.SelectionEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SelectionEntry), args.Error(1)
}

func (m *MockSelection) Count(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockSelectionEvents struct {
	mock.Mock
}

func (m *MockSelectionEvents) SelectionChanged(ctx context.Context, userID string, channelIDs []string) error {
	args := m.Called(ctx, userID, channelIDs)
	return args.Error(0)
}

func TestListDirectory_NoCredentialServesFallback(t *testing.T) {
	directory := new(MockDirectory)
	credentials := new(MockCredential)
	credentials.On("Get", mock.Anything, "user-1", "google").Return(nil, model.ErrNoCredential)

	u := usecase.NewChannelUsecase(directory, credentials, new(MockSelection), new(MockSelectionEvents), nil)
	channels, err := u.ListDirectory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, channels)
	directory.AssertNotCalled(t, "ListSubscriptions")
}

func TestListDirectory_DecryptFailureServesFallback(t *testing.T) {
	directory := new(MockDirectory)
	credentials := new(MockCredential)
	credentials.On("Get", mock.Anything, "user-1", "google").Return(nil, model.ErrDecryptionFailed)

	u := usecase.NewChannelUsecase(directory, credentials, new(MockSelection), new(MockSelectionEvents), nil)
	channels, err := u.ListDirectory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, channels)
	directory.AssertNotCalled(t, "ListSubscriptions")
}

func TestListDirectory_UpstreamFailureIsNotMasked(t *testing.T) {
	cred := &model.DecryptedCredential{UserID: "user-1", Provider: "google", AccessToken: "tok"}
	directory := new(MockDirectory)
	directory.On("ListSubscriptions", mock.Anything, cred, mock.Anything).
		Return(nil, model.ErrUpstreamUnavailable)
	credentials := new(MockCredential)
	credentials.On("Get", mock.Anything, "user-1", "google").Return(cred, nil)

	u := usecase.NewChannelUsecase(directory, credentials, new(MockSelection), new(MockSelectionEvents), nil)
	channels, err := u.ListDirectory(context.Background(), "user-1")
	assert.Nil(t, channels)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

func TestListDirectory_ValidCredentialListsUpstream(t *testing.T) {
	cred := &model.DecryptedCredential{UserID: "user-1", Provider: "google", AccessToken: "tok"}
	upstream := []model.ChannelSummary{{ChannelID: "UCa", Title: "A"}}
	directory := new(MockDirectory)
	directory.On("ListSubscriptions", mock.Anything, cred, mock.Anything).Return(upstream, nil)
	credentials := new(MockCredential)
	credentials.On("Get", mock.Anything, "user-1", "google").Return(cred, nil)

	u := usecase.NewChannelUsecase(directory, credentials, new(MockSelection), new(MockSelectionEvents), nil)
	channels, err := u.ListDirectory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, upstream, channels)
}

func TestReplaceSelection_LimitErrorPropagatesWithoutEvent(t *testing.T) {
	selections := new(MockSelection)
	selections.On("Replace", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Return(model.ErrLimitExceeded)
	events := new(MockSelectionEvents)

	u := usecase.NewChannelUsecase(new(MockDirectory), new(MockCredential), selections, events, nil)
	err := u.ReplaceSelection(context.Background(), "user-1", []string{"UCa"}, nil)
	assert.ErrorIs(t, err, model.ErrLimitExceeded)
	events.AssertNotCalled(t, "SelectionChanged")
}

func TestReplaceSelection_PublishesChangedSet(t *testing.T) {
	selections := new(MockSelection)
	selections.On("Replace", mock.Anything, "user-1", []string{"UCa", "UCb"}, mock.Anything).Return(nil)
	selections.On("List", mock.Anything, "user-1").Return([]model.SelectionEntry{
		{UserID: "user-1", ChannelID: "UCa"},
		{UserID: "user-1", ChannelID: "UCb"},
	}, nil)
	events := new(MockSelectionEvents)
	events.On("SelectionChanged", mock.Anything, "user-1", []string{"UCa", "UCb"}).Return(nil)

	u := usecase.NewChannelUsecase(new(MockDirectory), new(MockCredential), selections, events, nil)
	err := u.ReplaceSelection(context.Background(), "user-1", []string{"UCa", "UCb"}, nil)
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestToggleChannel_PublishFailureDoesNotFailMutation(t *testing.T) {
	selections := new(MockSelection)
	selections.On("SetMembership", mock.Anything, "user-1", "UCa", "A", true).Return(nil)
	selections.On("List", mock.Anything, "user-1").Return([]model.SelectionEntry{
		{UserID: "user-1", ChannelID: "UCa"},
	}, nil)
	events := new(MockSelectionEvents)
	events.On("SelectionChanged", mock.Anything, "user-1", []string{"UCa"}).
		Return(errors.New("broker down"))

	u := usecase.NewChannelUsecase(new(MockDirectory), new(MockCredential), selections, events, nil)
	err := u.ToggleChannel(context.Background(), "user-1", "UCa", "A", true)
	assert.NoError(t, err)
}
