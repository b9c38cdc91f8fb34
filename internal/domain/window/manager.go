package window

import (
	"sync"

	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/shared/id"
	"github.com/agencyrpg/backend/internal/shared/types"
)

// Snapshot store keys owned by this package.
const (
	keyWindows    = "windows"
	keySizeMemory = "size_memory"
)

// Initial z-index for the first window of a playthrough.
const baseZIndex = 100

// Catalog resolves an app type to its display defaults.
type Catalog interface {
	Tier(appID string) types.SizeTier
	Title(appID string) string
}

// Publisher fans desktop events out to connected clients.
type Publisher interface {
	Publish(event types.Event)
}

// Manager is the window registry and lifecycle controller. Every
// command is a no-op on unknown ids: stale references from UI races
// (double-clicked close buttons, callbacks firing after removal) must
// never crash the desktop.
type Manager struct {
	mu         sync.Mutex
	windows    map[string]*types.Window // Protected by mu
	activeID   string                   // Protected by mu; "" = none
	nextZ      int                      // Protected by mu
	sizeMemory map[string]types.Size    // Protected by mu

	viewport types.Viewport

	catalog Catalog
	store   persist.Store
	events  Publisher
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// windowsSnapshot is the persisted form of the registry.
type windowsSnapshot struct {
	Windows  []*types.Window `json:"windows"`
	ActiveID string          `json:"active_id"`
	NextZ    int             `json:"next_z"`
}

// NewManager creates a window manager, restoring any persisted layout.
func NewManager(catalog Catalog, store persist.Store, events Publisher, logger *logging.Logger) *Manager {
	m := &Manager{
		windows:    make(map[string]*types.Window),
		nextZ:      baseZIndex,
		sizeMemory: make(map[string]types.Size),
		viewport:   types.Viewport{Width: 1440, Height: 900},
		catalog:    catalog,
		store:      store,
		events:     events,
		logger:     logger,
	}
	m.restoreLocked()
	return m
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// SetViewport records the client's usable screen area, consulted by
// placement for every subsequent open.
func (m *Manager) SetViewport(vp types.Viewport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vp.Width > 0 && vp.Height > 0 {
		m.viewport = vp
	}
}

// Open always creates a new window, even if appID already has one.
func (m *Manager) Open(appID, title string) *types.Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.openLocked(appID, title)
	m.commitLocked("open")
	return copyWindow(win)
}

// FocusOrOpen is the idempotent open: it creates a window when the app
// has none, raises and un-minimizes the existing one otherwise, and
// does nothing at all when that window is already active and visible.
// The no-op case matters: an unchanged state means no broadcast and no
// spurious client re-render.
func (m *Manager) FocusOrOpen(appID, title string) *types.Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.findByAppLocked(appID)
	if existing == nil {
		win := m.openLocked(appID, title)
		m.commitLocked("focus_or_open")
		return copyWindow(win)
	}

	if m.activeID == existing.ID && !existing.Minimized {
		return copyWindow(existing)
	}

	existing.Minimized = false
	m.raiseLocked(existing)
	m.activeID = existing.ID
	m.commitLocked("focus_or_open")
	return copyWindow(existing)
}

// Close removes a window. Accepts a window id, or an appId as a
// convenience lookup for callers that track apps rather than windows.
func (m *Manager) Close(idOrAppID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win := m.windows[idOrAppID]
	if win == nil {
		win = m.findByAppLocked(idOrAppID)
	}
	if win == nil {
		return false
	}

	delete(m.windows, win.ID)
	if m.activeID == win.ID {
		m.activeID = m.topVisibleLocked("")
	}

	m.commitLocked("close")
	return true
}

// Minimize hides a window into the taskbar.
func (m *Manager) Minimize(winID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok || win.Minimized {
		return ok
	}

	win.Minimized = true
	if m.activeID == win.ID {
		m.activeID = m.topVisibleLocked(win.ID)
	}

	m.commitLocked("minimize")
	return true
}

// Maximize toggles between maximized and the saved pre-maximize bounds.
// Minimized windows cannot be maximized directly; callers restore
// first, keeping the active id pointed at a visible window.
func (m *Manager) Maximize(winID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok || win.Minimized {
		return false
	}

	if !win.Maximized {
		win.Previous = &types.Bounds{Position: win.Position, Size: win.Size}
		win.Position = types.Position{X: 0, Y: 0}
		win.Maximized = true
	} else {
		if win.Previous != nil {
			win.Position = win.Previous.Position
			win.Size = win.Previous.Size
		}
		win.Previous = nil
		win.Maximized = false
	}

	m.raiseLocked(win)
	m.activeID = win.ID
	m.commitLocked("maximize")
	return true
}

// Restore un-minimizes a window and brings it to the front. Distinct
// from the maximize toggle's restore: this one is about the taskbar.
func (m *Manager) Restore(winID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok {
		return false
	}

	win.Minimized = false
	m.raiseLocked(win)
	m.activeID = win.ID
	m.commitLocked("restore")
	return true
}

// Focus brings a visible window to the front. Minimized windows cannot
// be focused directly; callers restore first.
func (m *Manager) Focus(winID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok || win.Minimized {
		return false
	}
	if m.activeID == win.ID {
		return true
	}

	m.raiseLocked(win)
	m.activeID = win.ID
	m.commitLocked("focus")
	return true
}

// UpdatePosition moves a window. No validation beyond existence; the
// client is free to drag windows partially off-screen.
func (m *Manager) UpdatePosition(winID string, pos types.Position) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok {
		return false
	}

	win.Position = pos
	m.commitLocked("move")
	return true
}

// UpdateSize resizes a window and remembers the chosen size for the
// app type, so future windows of that type default to it.
func (m *Manager) UpdateSize(winID string, size types.Size) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok {
		return false
	}

	win.Size = size
	m.sizeMemory[win.AppID] = size
	m.store.Put(keySizeMemory, m.sizeMemory)

	m.commitLocked("resize")
	return true
}

// Get returns a copy of one window.
func (m *Manager) Get(winID string) (*types.Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[winID]
	if !ok {
		return nil, false
	}
	return copyWindow(win), true
}

// List returns copies of all windows and the active window id.
func (m *Manager) List() ([]*types.Window, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wins := make([]*types.Window, 0, len(m.windows))
	for _, win := range m.windows {
		wins = append(wins, copyWindow(win))
	}
	return wins, m.activeID
}

// Reset drops all windows and size memory. Backs the "new game" action.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows = make(map[string]*types.Window)
	m.activeID = ""
	m.nextZ = baseZIndex
	m.sizeMemory = make(map[string]types.Size)
	m.store.Delete(keyWindows)
	m.store.Delete(keySizeMemory)
	m.publishLocked()
}

// openLocked creates and registers a new window. Caller holds mu.
func (m *Manager) openLocked(appID, title string) *types.Window {
	if title == "" {
		title = m.catalog.Title(appID)
	}
	tier := m.catalog.Tier(appID)

	var remembered *types.Size
	if saved, ok := m.sizeMemory[appID]; ok {
		remembered = &saved
	}
	size := DefaultSize(tier, m.viewport, remembered)

	win := &types.Window{
		ID:       id.NewWindowID().String(),
		AppID:    appID,
		Title:    title,
		Position: CascadePosition(size, m.viewport, len(m.windows)),
		Size:     size,
		MinSize:  MinSize(tier),
		ZIndex:   m.nextZ,
	}
	m.nextZ++

	m.windows[win.ID] = win
	m.activeID = win.ID

	if m.metrics != nil {
		m.metrics.WindowsOpened.Inc()
	}
	m.logger.Debug("window opened",
		zap.String("window_id", win.ID),
		zap.String("app_id", appID),
		zap.Int("z_index", win.ZIndex),
	)
	return win
}

// raiseLocked assigns the next z-index. Caller holds mu.
func (m *Manager) raiseLocked(win *types.Window) {
	win.ZIndex = m.nextZ
	m.nextZ++
}

// topVisibleLocked finds the highest-z non-minimized window, skipping
// exclude. Caller holds mu.
func (m *Manager) topVisibleLocked(exclude string) string {
	best := ""
	bestZ := -1
	for _, win := range m.windows {
		if win.ID == exclude || win.Minimized {
			continue
		}
		if win.ZIndex > bestZ {
			best = win.ID
			bestZ = win.ZIndex
		}
	}
	return best
}

// findByAppLocked returns the topmost window of an app type, or nil.
// Caller holds mu.
func (m *Manager) findByAppLocked(appID string) *types.Window {
	var found *types.Window
	for _, win := range m.windows {
		if win.AppID == appID && (found == nil || win.ZIndex > found.ZIndex) {
			found = win
		}
	}
	return found
}

// commitLocked persists and broadcasts after a mutation. Caller holds mu.
func (m *Manager) commitLocked(command string) {
	if m.metrics != nil {
		m.metrics.WindowCommands.WithLabelValues(command).Inc()
		m.metrics.WindowsOpen.Set(float64(len(m.windows)))
	}
	m.persistLocked()
	m.publishLocked()
}

func (m *Manager) persistLocked() {
	snap := windowsSnapshot{
		Windows:  make([]*types.Window, 0, len(m.windows)),
		ActiveID: m.activeID,
		NextZ:    m.nextZ,
	}
	for _, win := range m.windows {
		snap.Windows = append(snap.Windows, copyWindow(win))
	}
	m.store.Put(keyWindows, snap)
}

func (m *Manager) publishLocked() {
	if m.events == nil {
		return
	}
	wins := make([]*types.Window, 0, len(m.windows))
	for _, win := range m.windows {
		wins = append(wins, copyWindow(win))
	}
	m.events.Publish(types.Event{
		Type: types.EventWindows,
		Payload: map[string]interface{}{
			"windows":   wins,
			"active_id": m.activeID,
		},
	})
}

func (m *Manager) restoreLocked() {
	var snap windowsSnapshot
	if m.store.Load(keyWindows, &snap) {
		for _, win := range snap.Windows {
			m.windows[win.ID] = win
			if win.ZIndex >= m.nextZ {
				m.nextZ = win.ZIndex + 1
			}
		}
		// The active id must reference a present, visible window.
		if win, ok := m.windows[snap.ActiveID]; ok && !win.Minimized {
			m.activeID = snap.ActiveID
		} else {
			m.activeID = m.topVisibleLocked("")
		}
		if snap.NextZ > m.nextZ {
			m.nextZ = snap.NextZ
		}
	}
	m.store.Load(keySizeMemory, &m.sizeMemory)
}

func copyWindow(win *types.Window) *types.Window {
	out := *win
	if win.Previous != nil {
		prev := *win.Previous
		out.Previous = &prev
	}
	return &out
}
