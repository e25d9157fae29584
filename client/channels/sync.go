// Package channels keeps the user's channel selection in step with the
// server: local edits accumulate while offline or mid-flight, then flush
// with bounded retries.
package channels

import (
	"context"
	"errors"
	"sync"
	"time"

	"tubedigest/client/api"
	"tubedigest/client/retry"
	"tubedigest/domain/dto"
	"tubedigest/domain/model"
	"tubedigest/infrastructure/logger"
)

// DirectoryTTL bounds how long a cached directory listing is served before
// the next Directory call goes back to the server.
const DirectoryTTL = 5 * time.Minute

// SyncAPI is the slice of the dashboard API the manager needs.
type SyncAPI interface {
	ListChannels(ctx context.Context, q api.DirectoryQuery) ([]model.ChannelSummary, error)
	ListSelected(ctx context.Context) ([]dto.SelectedChannel, error)
	SelectChannels(ctx context.Context, channelIDs []string, titles map[string]string) error
	ToggleChannel(ctx context.Context, channelID, title string, selected bool) error
}

// AnnotatedChannel pairs a directory entry with its local selection state.
type AnnotatedChannel struct {
	model.ChannelSummary
	Selected bool `json:"selected"`
}

type edit struct {
	channelID string
	title     string
	selected  bool
}

// Manager mirrors the selected-channel set locally and reconciles edits
// against the server. Construct one per signed-in user.
type Manager struct {
	api      SyncAPI
	retryCfg retry.Config
	now      func() time.Time
	onSaved  func()

	mu          sync.Mutex
	selected    map[string]string // channelID -> title snapshot
	order       []string
	pending     map[string]edit // squashed by channel: only the last intent matters
	directory   []model.ChannelSummary
	directoryAt time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithRetryConfig overrides the flush retry policy, mainly for tests.
func WithRetryConfig(cfg retry.Config) ManagerOption {
	return func(m *Manager) { m.retryCfg = cfg }
}

// WithClock substitutes the time source, mainly for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithSavedHook registers a callback invoked once after each flush or
// replace that changed the server. Toggles alone never fire it.
func WithSavedHook(fn func()) ManagerOption {
	return func(m *Manager) { m.onSaved = fn }
}

func NewManager(api SyncAPI, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:      api,
		retryCfg: retry.DefaultConfig(),
		now:      time.Now,
		selected: make(map[string]string),
		pending:  make(map[string]edit),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the local view with the server's. Pending edits survive a
// reload; they represent intent the server has not seen yet.
func (m *Manager) Load(ctx context.Context) error {
	var fetched []dto.SelectedChannel
	err := retry.Do(ctx, m.retryCfg, nil, func(ctx context.Context) error {
		var err error
		fetched, err = m.api.ListSelected(ctx)
		return err
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[string]string, len(fetched))
	m.order = m.order[:0]
	for _, ch := range fetched {
		m.selected[ch.ChannelID] = ch.Title
		m.order = append(m.order, ch.ChannelID)
	}
	// Re-apply local intent on top of the server view.
	for id, e := range m.pending {
		if e.selected {
			m.addLocked(id, e.title)
		} else {
			m.removeLocked(id)
		}
	}
	return nil
}

// Directory lists every channel the user could pick. Listings are served
// from an in-memory cache for DirectoryTTL; the selected set is always the
// live local view.
func (m *Manager) Directory(ctx context.Context) ([]model.ChannelSummary, error) {
	m.mu.Lock()
	if m.directory != nil && m.now().Sub(m.directoryAt) < DirectoryTTL {
		cached := m.directory
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	var fetched []model.ChannelSummary
	err := retry.Do(ctx, m.retryCfg, nil, func(ctx context.Context) error {
		var err error
		fetched, err = m.api.ListChannels(ctx, api.DirectoryQuery{})
		return err
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.directory = fetched
	m.directoryAt = m.now()
	m.mu.Unlock()
	return fetched, nil
}

// Annotated joins the directory with the local selection state.
func (m *Manager) Annotated(ctx context.Context) ([]AnnotatedChannel, error) {
	dir, err := m.Directory(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AnnotatedChannel, 0, len(dir))
	for _, ch := range dir {
		_, sel := m.selected[ch.ChannelID]
		out = append(out, AnnotatedChannel{ChannelSummary: ch, Selected: sel})
	}
	return out, nil
}

// Selected returns the local view in selection order.
func (m *Manager) Selected() []dto.SelectedChannel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dto.SelectedChannel, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, dto.SelectedChannel{ChannelID: id, Title: m.selected[id]})
	}
	return out
}

// PendingCount reports how many edits await a flush.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Toggle records one add/remove. An add past the cap is rejected here,
// before any network traffic, mirroring the server-side check. The edit is
// applied to the local view immediately and queued for Flush.
func (m *Manager) Toggle(channelID, title string, selected bool) error {
	if channelID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if selected {
		if _, already := m.selected[channelID]; !already && len(m.selected) >= model.SelectionCap {
			return model.ErrLimitExceeded
		}
		m.addLocked(channelID, title)
	} else {
		m.removeLocked(channelID)
	}
	m.pending[channelID] = edit{channelID: channelID, title: title, selected: selected}
	return nil
}

// Replace swaps the whole selection. Over-cap sets are rejected locally;
// the server enforces the same rule again.
func (m *Manager) Replace(ctx context.Context, channelIDs []string, titles map[string]string) error {
	unique := make(map[string]struct{}, len(channelIDs))
	for _, id := range channelIDs {
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	if len(unique) > model.SelectionCap {
		return model.ErrLimitExceeded
	}

	err := retry.Do(ctx, m.retryCfg, nil, func(ctx context.Context) error {
		return m.api.SelectChannels(ctx, channelIDs, titles)
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.selected = make(map[string]string, len(unique))
	m.order = m.order[:0]
	for _, id := range channelIDs {
		if id == "" {
			continue
		}
		if _, seen := m.selected[id]; seen {
			continue
		}
		m.selected[id] = titles[id]
		m.order = append(m.order, id)
	}
	// A full replace supersedes any queued single edits.
	m.pending = make(map[string]edit)
	m.directory = nil
	m.mu.Unlock()

	m.notifySaved()
	return nil
}

// Flush pushes queued edits to the server. Transient failures leave the
// edit queued for the next flush; permanent ones (auth, cap) drop it and
// roll the local view back, and an auth failure aborts the whole flush.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := make([]edit, 0, len(m.pending))
	for _, e := range m.pending {
		batch = append(batch, e)
	}
	m.mu.Unlock()

	applied := 0
	defer func() {
		if applied > 0 {
			m.mu.Lock()
			m.directory = nil
			m.mu.Unlock()
			m.notifySaved()
		}
	}()

	for _, e := range batch {
		e := e
		err := retry.Do(ctx, m.retryCfg, nil, func(ctx context.Context) error {
			return m.api.ToggleChannel(ctx, e.channelID, e.title, e.selected)
		})
		if err == nil {
			m.clearPending(e)
			applied++
			continue
		}
		if retry.IsRetryable(err) {
			// Still transient after retries: keep it queued.
			logger.GetLogger().WithField("channel_id", e.channelID).WithField("error", err).Warn("edit flush deferred")
			continue
		}
		m.clearPending(e)
		m.rollback(e)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, model.ErrAuthenticationRequired) {
			return err
		}
		logger.GetLogger().WithField("channel_id", e.channelID).WithField("error", err).Warn("edit rejected by server")
	}
	return nil
}

func (m *Manager) notifySaved() {
	if m.onSaved != nil {
		m.onSaved()
	}
}

func (m *Manager) clearPending(e edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.pending[e.channelID]; ok && cur == e {
		delete(m.pending, e.channelID)
	}
}

func (m *Manager) rollback(e edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.selected {
		m.removeLocked(e.channelID)
	} else {
		m.addLocked(e.channelID, e.title)
	}
}

func (m *Manager) addLocked(channelID, title string) {
	if _, ok := m.selected[channelID]; ok {
		m.selected[channelID] = title
		return
	}
	m.selected[channelID] = title
	m.order = append(m.order, channelID)
}

func (m *Manager) removeLocked(channelID string) {
	if _, ok := m.selected[channelID]; !ok {
		return
	}
	delete(m.selected, channelID)
	for i, id := range m.order {
		if id == channelID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
