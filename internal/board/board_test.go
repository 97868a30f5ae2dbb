package board

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobpulse/internal/feed"
	"github.com/amishk599/jobpulse/internal/model"
)

// fakeFeed serves a fixed snapshot and counts refreshes.
type fakeFeed struct {
	snap      feed.Snapshot
	refreshed int
	after     feed.Snapshot
}

func (f *fakeFeed) Snapshot() feed.Snapshot { return f.snap }

func (f *fakeFeed) Subscribe() (<-chan feed.Snapshot, func()) {
	ch := make(chan feed.Snapshot)
	return ch, func() { close(ch) }
}

func (f *fakeFeed) Refresh(_ context.Context) feed.Snapshot {
	f.refreshed++
	return f.after
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testPostings() []model.Posting {
	return []model.Posting{
		{ID: "1", Title: "Backend Engineer", Company: "Acme", Location: "Remote, India", Description: "Go services", PostedAt: testNow.Add(-time.Hour), ApplyURL: "#"},
		{ID: "2", Title: "Product Designer", Company: "Pixel", Location: "Pune, India", Description: "Figma", PostedAt: testNow.Add(-3 * time.Hour), ApplyURL: "https://example.com/apply/2"},
		{ID: "3", Title: "Data Engineer", Company: "Quant", Location: "Bangalore, India", Description: "Pipelines", PostedAt: testNow.Add(-5 * time.Hour), ApplyURL: "#"},
	}
}

func newTestModel(f *fakeFeed) boardModel {
	m := newModel(context.Background(), f, nil)
	m.now = func() time.Time { return testNow }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(boardModel)
}

func press(t *testing.T, m boardModel, keys ...string) boardModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(boardModel)
	}
	return m
}

func TestBoard_ShowsAllPostingsInitially(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings(), LastUpdated: testNow.Add(-2 * time.Minute)}})

	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}
	view := m.View()
	for _, want := range []string{"Backend Engineer", "Product Designer", "3 shown of 3", "updated 2 minutes ago"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestBoard_SearchAndLocationFilter(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings()}})

	m = press(t, m, "/", "engineer")
	if m.focus != focusSearch {
		t.Fatalf("focus = %v, want search", m.focus)
	}
	if len(m.visible) != 2 {
		t.Fatalf("after search visible = %d, want 2", len(m.visible))
	}

	m = press(t, m, "tab", "remote", "enter")
	if m.focus != focusList {
		t.Errorf("focus = %v, want list after enter", m.focus)
	}
	if len(m.visible) != 1 || m.visible[0].ID != "1" {
		t.Fatalf("visible = %+v, want only posting 1", m.visible)
	}

	m = press(t, m, "c")
	if len(m.visible) != 3 {
		t.Errorf("after clear visible = %d, want 3", len(m.visible))
	}
}

func TestBoard_NoMatchesShowsEmptyState(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings()}})
	m = press(t, m, "/", "astronaut", "esc")

	if len(m.visible) != 0 {
		t.Fatalf("visible = %d, want 0", len(m.visible))
	}
	if !strings.Contains(m.View(), "No jobs match your filters") {
		t.Error("expected empty-state message")
	}
}

func TestBoard_RefreshKey(t *testing.T) {
	after := feed.Snapshot{Postings: testPostings()[:1], LastUpdated: testNow}
	f := &fakeFeed{snap: feed.Snapshot{Postings: testPostings()}, after: after}
	m := newTestModel(f)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(boardModel)
	if cmd == nil {
		t.Fatal("expected a refresh command")
	}
	if !m.snap.Loading {
		t.Error("expected loading state while refreshing")
	}
	if !strings.Contains(m.View(), "refreshing...") {
		t.Error("expected refresh indicator in view")
	}

	// A second press while loading is ignored.
	if _, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); again != nil {
		t.Error("expected no command while a refresh is in flight")
	}

	msg := cmd()
	if f.refreshed != 1 {
		t.Fatalf("Refresh called %d times, want 1", f.refreshed)
	}
	next, _ = m.Update(msg)
	m = next.(boardModel)
	if m.snap.Loading {
		t.Error("loading should clear after refresh")
	}
	if len(m.visible) != 1 {
		t.Errorf("visible = %d, want 1 after refresh", len(m.visible))
	}
}

func TestBoard_ErrorBanner(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings()}})

	next, _ := m.Update(snapshotMsg(feed.Snapshot{Postings: testPostings(), LastError: feed.DegradedMessage, Degraded: true}))
	m = next.(boardModel)

	if !strings.Contains(m.View(), feed.DegradedMessage) {
		t.Error("expected degraded banner in view")
	}
}

func TestBoard_CursorClampsWhenListShrinks(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings()}})
	m = press(t, m, "down", "down", "down")
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}

	next, _ := m.Update(snapshotMsg(feed.Snapshot{Postings: testPostings()[:1]}))
	m = next.(boardModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after list shrank", m.cursor)
	}
}

func TestBoard_DetailView(t *testing.T) {
	m := newTestModel(&fakeFeed{snap: feed.Snapshot{Postings: testPostings()}})
	m = press(t, m, "down", "enter")

	if m.view != viewDetail || m.detail.ID != "2" {
		t.Fatalf("view = %v detail = %s, want detail of posting 2", m.view, m.detail.ID)
	}
	content := m.renderDetail()
	for _, want := range []string{"Product Designer", "Pixel", "https://example.com/apply/2", "3 hours ago"} {
		if !strings.Contains(content, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	m = press(t, m, "esc")
	if m.view != viewList {
		t.Errorf("view = %v, want list after esc", m.view)
	}
}

func TestBoard_WaitForSnapshot(t *testing.T) {
	ch := make(chan feed.Snapshot, 1)
	ch <- feed.Snapshot{AvailableCount: 7}

	if msg, ok := waitForSnapshot(ch)().(snapshotMsg); !ok || msg.AvailableCount != 7 {
		t.Errorf("unexpected message: %#v", msg)
	}

	close(ch)
	if _, ok := waitForSnapshot(ch)().(updatesClosedMsg); !ok {
		t.Error("expected updatesClosedMsg after close")
	}
	if waitForSnapshot(nil) != nil {
		t.Error("expected nil command without a subscription")
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("wordWrap = %q", got)
	}
}
