package window

import (
	"reflect"
	"testing"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/persist"
	"github.com/agencyrpg/backend/internal/shared/types"
)

type stubCatalog struct{}

func (stubCatalog) Tier(appID string) types.SizeTier {
	switch appID {
	case "chat":
		return types.TierSmall
	case "browser":
		return types.TierLarge
	}
	return types.TierMedium
}

func (stubCatalog) Title(appID string) string { return appID }

func newTestManager() *Manager {
	return NewManager(stubCatalog{}, persist.NewMemoryStore(), nil, logging.NewNop())
}

func TestOpenFirstWindow(t *testing.T) {
	m := newTestManager()

	win := m.Open("chat", "Chat")

	wins, active := m.List()
	if len(wins) != 1 {
		t.Fatalf("expected 1 window, got %d", len(wins))
	}
	if win.AppID != "chat" || win.Title != "Chat" {
		t.Errorf("unexpected identity: %s %q", win.AppID, win.Title)
	}
	if win.Minimized {
		t.Error("new window should not be minimized")
	}
	if active != win.ID {
		t.Error("new window should be active")
	}
	if win.ZIndex != baseZIndex {
		t.Errorf("expected initial z-index %d, got %d", baseZIndex, win.ZIndex)
	}
}

func TestZOrderTotalOrdering(t *testing.T) {
	m := newTestManager()

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	c := m.Open("browser", "Browser")
	m.Focus(a.ID)
	m.Minimize(b.ID)
	m.Restore(b.ID)
	m.Focus(c.ID)

	wins, active := m.List()
	seen := make(map[int]string)
	top := wins[0]
	for _, w := range wins {
		if other, dup := seen[w.ZIndex]; dup {
			t.Fatalf("z-index %d shared by %s and %s", w.ZIndex, other, w.ID)
		}
		seen[w.ZIndex] = w.ID
		if w.ZIndex > top.ZIndex {
			top = w
		}
	}
	if top.ID != c.ID {
		t.Error("most recently raised window should have the highest z-index")
	}
	if active != c.ID {
		t.Error("most recently raised window should be active")
	}
}

func TestMinimizeHandsFocusToNextVisible(t *testing.T) {
	m := newTestManager()

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")

	if !m.Minimize(b.ID) {
		t.Fatal("minimize failed")
	}

	got, _ := m.Get(b.ID)
	if !got.Minimized {
		t.Error("window should be minimized")
	}
	if _, active := m.List(); active != a.ID {
		t.Errorf("expected %s active, got %s", a.ID, active)
	}
}

func TestActiveAlwaysVisibleOrNone(t *testing.T) {
	m := newTestManager()

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	m.Minimize(a.ID)
	m.Minimize(b.ID)

	if _, active := m.List(); active != "" {
		t.Errorf("all windows minimized, expected no active window, got %s", active)
	}

	m.Restore(a.ID)
	if _, active := m.List(); active != a.ID {
		t.Error("restored window should become active")
	}
}

func TestMaximizeMinimizedIsNoOp(t *testing.T) {
	m := newTestManager()

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	m.Minimize(a.ID)

	if m.Maximize(a.ID) {
		t.Error("maximizing a minimized window should refuse")
	}
	got, _ := m.Get(a.ID)
	if got.Maximized || !got.Minimized {
		t.Errorf("window state disturbed: minimized=%v maximized=%v", got.Minimized, got.Maximized)
	}
	if _, active := m.List(); active != b.ID {
		t.Error("active window must stay on the visible window")
	}
}

func TestFocusOrOpenIdempotent(t *testing.T) {
	m := newTestManager()

	first := m.FocusOrOpen("chat", "Chat")
	second := m.FocusOrOpen("chat", "Chat")

	if first.ID != second.ID {
		t.Fatal("focusOrOpen should not create a second window")
	}
	wins, _ := m.List()
	if len(wins) != 1 {
		t.Fatalf("expected 1 window, got %d", len(wins))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("second focusOrOpen on the active window must not change state")
	}
}

func TestFocusOrOpenRaisesMinimized(t *testing.T) {
	m := newTestManager()

	win := m.Open("chat", "Chat")
	m.Open("inbox", "Inbox")
	m.Minimize(win.ID)

	raised := m.FocusOrOpen("chat", "Chat")
	if raised.ID != win.ID {
		t.Fatal("expected the existing window back")
	}
	if raised.Minimized {
		t.Error("focusOrOpen should un-minimize")
	}
	if _, active := m.List(); active != win.ID {
		t.Error("focusOrOpen should make the window active")
	}
}

func TestMaximizeRoundTrip(t *testing.T) {
	m := newTestManager()

	win := m.Open("inbox", "Inbox")
	m.UpdatePosition(win.ID, types.Position{X: 120, Y: 80})
	m.UpdateSize(win.ID, types.Size{Width: 500, Height: 400})

	m.Maximize(win.ID)
	maxed, _ := m.Get(win.ID)
	if !maxed.Maximized {
		t.Fatal("window should be maximized")
	}
	if maxed.Position != (types.Position{X: 0, Y: 0}) {
		t.Error("maximized window should sit at viewport origin")
	}
	if maxed.Previous == nil {
		t.Fatal("maximize should save previous bounds")
	}

	m.Maximize(win.ID)
	restored, _ := m.Get(win.ID)
	if restored.Maximized {
		t.Error("second maximize should toggle back")
	}
	if restored.Position != (types.Position{X: 120, Y: 80}) {
		t.Errorf("position not restored: %+v", restored.Position)
	}
	if restored.Size != (types.Size{Width: 500, Height: 400}) {
		t.Errorf("size not restored: %+v", restored.Size)
	}
	if restored.Previous != nil {
		t.Error("previous bounds should clear on restore")
	}
}

func TestFocusMinimizedIsNoOp(t *testing.T) {
	m := newTestManager()

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	m.Minimize(a.ID)

	if m.Focus(a.ID) {
		t.Error("focusing a minimized window should refuse")
	}
	if _, active := m.List(); active != b.ID {
		t.Error("active window should be unchanged")
	}
}

func TestCloseByAppID(t *testing.T) {
	m := newTestManager()

	m.Open("chat", "Chat")
	if !m.Close("chat") {
		t.Fatal("close by appId failed")
	}
	if wins, _ := m.List(); len(wins) != 0 {
		t.Error("window should be removed")
	}
}

func TestCloseActivePromotesTopmost(t *testing.T) {
	m := newTestManager()

	m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	c := m.Open("browser", "Browser")

	m.Close(c.ID)
	if _, active := m.List(); active != b.ID {
		t.Errorf("expected %s active after close, got %s", b.ID, active)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	m := newTestManager()
	m.Open("chat", "Chat")

	if m.Close("win_nope") || m.Minimize("win_nope") || m.Maximize("win_nope") ||
		m.Restore("win_nope") || m.Focus("win_nope") ||
		m.UpdatePosition("win_nope", types.Position{}) ||
		m.UpdateSize("win_nope", types.Size{Width: 1, Height: 1}) {
		t.Error("operations on unknown ids must report false")
	}
	if wins, _ := m.List(); len(wins) != 1 {
		t.Error("registry should be untouched")
	}
}

func TestSizeMemoryAppliesToNextOpen(t *testing.T) {
	m := newTestManager()

	win := m.Open("inbox", "Inbox")
	m.UpdateSize(win.ID, types.Size{Width: 700, Height: 500})
	m.Close(win.ID)

	next := m.Open("inbox", "Inbox")
	if next.Size != (types.Size{Width: 700, Height: 500}) {
		t.Errorf("expected remembered size, got %+v", next.Size)
	}
}

func TestSizeMemoryStillClamped(t *testing.T) {
	m := newTestManager()

	win := m.Open("chat", "Chat") // small tier, max 520x420
	m.UpdateSize(win.ID, types.Size{Width: 4000, Height: 3000})
	m.Close(win.ID)

	next := m.Open("chat", "Chat")
	if next.Size.Width > 520 || next.Size.Height > 420 {
		t.Errorf("remembered size must clamp to tier bounds, got %+v", next.Size)
	}
}

func TestRestartRestoresLayout(t *testing.T) {
	store := persist.NewMemoryStore()
	m := NewManager(stubCatalog{}, store, nil, logging.NewNop())

	a := m.Open("chat", "Chat")
	b := m.Open("inbox", "Inbox")
	m.Minimize(a.ID)

	m2 := NewManager(stubCatalog{}, store, nil, logging.NewNop())
	wins, active := m2.List()
	if len(wins) != 2 {
		t.Fatalf("expected 2 restored windows, got %d", len(wins))
	}
	if active != b.ID {
		t.Errorf("expected %s active after restore, got %s", b.ID, active)
	}

	// Allocator must resume above restored indexes.
	c := m2.Open("browser", "Browser")
	if c.ZIndex <= b.ZIndex {
		t.Error("restored allocator must stay monotonic")
	}
}
