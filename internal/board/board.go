// Package board is the interactive terminal view of the job feed: a
// scrollable list with search and location filters, a manual refresh key and
// a loading indicator driven by feed updates.
package board

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobpulse/internal/feed"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/model"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

// Feed is the part of *feed.Feed the board reads from.
type Feed interface {
	Snapshot() feed.Snapshot
	Subscribe() (<-chan feed.Snapshot, func())
	Refresh(ctx context.Context) feed.Snapshot
}

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

type focus int

const (
	focusList focus = iota
	focusSearch
	focusLocation
)

// snapshotMsg carries a state change published by the feed.
type snapshotMsg feed.Snapshot

// refreshDoneMsg is sent when a refresh started with the r key returns.
type refreshDoneMsg feed.Snapshot

// updatesClosedMsg is sent once the feed subscription has been cancelled.
type updatesClosedMsg struct{}

type boardModel struct {
	ctx     context.Context
	feed    Feed
	updates <-chan feed.Snapshot
	now     func() time.Time

	snap    feed.Snapshot
	visible []model.Posting

	search   textinput.Model
	location textinput.Model
	focus    focus
	spinner  spinner.Model

	listViewport   viewport.Model
	detailViewport viewport.Model
	view           viewState
	detail         model.Posting
	cursor         int

	width  int
	height int
	ready  bool
}

func newModel(ctx context.Context, f Feed, updates <-chan feed.Snapshot) boardModel {
	search := textinput.New()
	search.Placeholder = "title, company or description"
	search.Prompt = ""
	search.CharLimit = 80

	location := textinput.New()
	location.Placeholder = "any location"
	location.Prompt = ""
	location.CharLimit = 60

	m := boardModel{
		ctx:      ctx,
		feed:     f,
		updates:  updates,
		now:      time.Now,
		snap:     f.Snapshot(),
		search:   search,
		location: location,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.applyFilter()
	return m
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), m.spinner.Tick)
}

func waitForSnapshot(updates <-chan feed.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m boardModel) refreshCmd() tea.Cmd {
	f, ctx := m.feed, m.ctx
	return func() tea.Msg {
		return refreshDoneMsg(f.Refresh(ctx))
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case snapshotMsg:
		m.setSnapshot(feed.Snapshot(msg))
		return m, waitForSnapshot(m.updates)

	case refreshDoneMsg:
		m.setSnapshot(feed.Snapshot(msg))
		return m, nil

	case updatesClosedMsg:
		m.updates = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		if m.focus != focusList {
			return m.updateInput(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m boardModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		return m, m.focusInput(focusSearch)
	case "L":
		return m, m.focusInput(focusLocation)
	case "c":
		m.search.SetValue("")
		m.location.SetValue("")
		m.applyFilter()
		return m, nil
	case "r":
		if m.snap.Loading {
			return m, nil
		}
		m.snap.Loading = true
		return m, m.refreshCmd()
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		return m.openDetailView()
	case "o":
		if len(m.visible) > 0 {
			openURL(postingLink(m.visible[m.cursor]))
		}
		return m, nil
	}

	// Forward other keys (pgup/pgdn/home/end) to the list viewport.
	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m boardModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.blurInputs()
		return m, nil
	case "tab":
		next := focusLocation
		if m.focus == focusLocation {
			next = focusSearch
		}
		return m, m.focusInput(next)
	}

	var cmd tea.Cmd
	if m.focus == focusSearch {
		m.search, cmd = m.search.Update(msg)
	} else {
		m.location, cmd = m.location.Update(msg)
	}
	m.applyFilter()
	return m, cmd
}

func (m boardModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(postingLink(m.detail))
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *boardModel) focusInput(f focus) tea.Cmd {
	m.blurInputs()
	m.focus = f
	if f == focusSearch {
		return m.search.Focus()
	}
	return m.location.Focus()
}

func (m *boardModel) blurInputs() {
	m.search.Blur()
	m.location.Blur()
	m.focus = focusList
}

func (m *boardModel) setSnapshot(s feed.Snapshot) {
	m.snap = s
	m.applyFilter()
}

// applyFilter recomputes the visible postings and keeps the cursor in range.
func (m *boardModel) applyFilter() {
	m.visible = filter.Apply(m.snap.Postings, m.search.Value(), m.location.Value())
	m.cursor = clamp(m.cursor, 0, max(len(m.visible)-1, 0))
	if m.ready {
		m.recalcContent()
	}
}

func (m *boardModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.visible)-1, 0))
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *boardModel) ensureCursorVisible() {
	vp := &m.listViewport
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m boardModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.visible) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detail = m.visible[m.cursor]
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *boardModel) recalcLayout() {
	// Header, banner, inputs, list border (2) and status bar.
	width := max(m.width-2, 20)
	height := max(m.height-6, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	m.search.Width = max(m.width/3, 10)
	m.location.Width = max(m.width/5, 10)

	m.recalcContent()
}

func (m *boardModel) recalcContent() {
	m.listViewport.SetContent(renderPostings(m.visible, m.cursor, m.now()))
}

func (m boardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m boardModel) viewList() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	if m.snap.LastError != "" {
		b.WriteString(bannerStyle.Width(m.width).Render("⚠ " + m.snap.LastError))
		b.WriteByte('\n')
	}

	b.WriteString(m.renderInputs())
	b.WriteByte('\n')

	b.WriteString(listBorderStyle.Width(m.listViewport.Width).Render(m.listViewport.View()))
	b.WriteByte('\n')

	statusText := " ↑/↓ move  Enter detail  o open  / search  L location  c clear  r refresh  q quit"
	if m.focus != focusList {
		statusText = " type to filter  Tab switch field  Enter/Esc done"
	}
	b.WriteString(statusBarStyle.Width(m.width).Render(statusText))

	return b.String()
}

func (m boardModel) renderHeader() string {
	title := headerStyle.Render("JobPulse")

	meta := fmt.Sprintf("%d shown of %d", len(m.visible), len(m.snap.Postings))
	if m.snap.AvailableCount > 0 {
		meta += fmt.Sprintf(" · ~%s available", humanize.Comma(int64(m.snap.AvailableCount)))
	}
	if !m.snap.LastUpdated.IsZero() {
		meta += " · updated " + humanize.RelTime(m.snap.LastUpdated, m.now(), "ago", "from now")
	}

	status := ""
	if m.snap.Loading {
		status = " " + m.spinner.View() + " refreshing..."
	}
	return title + headerMetaStyle.Render(meta) + status
}

func (m boardModel) renderInputs() string {
	searchLabel, locationLabel := inputLabelStyle, inputLabelStyle
	switch m.focus {
	case focusSearch:
		searchLabel = activeInputLabelStyle
	case focusLocation:
		locationLabel = activeInputLabelStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		" ", searchLabel.Render("Search: "), m.search.View(),
		"   ", locationLabel.Render("Location: "), m.location.View(),
	)
}

func (m boardModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := listBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open apply link  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m boardModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	if !p.PostedAt.IsZero() {
		addField("Posted", p.PostedAt.Format("2006-01-02 15:04")+" ("+humanize.RelTime(p.PostedAt, m.now(), "ago", "from now")+")")
	}
	addField("Source", p.Source)
	addField("Job ID", p.ID)

	b.WriteByte('\n')
	if p.ApplyURL != model.DefaultApplyURL {
		addField("Apply URL", p.ApplyURL)
	}
	if p.SourceURL != p.ApplyURL {
		addField("Listing", p.SourceURL)
	}

	wrapWidth := max(m.width-8, 20)
	label := "── Description "
	b.WriteByte('\n')
	b.WriteString(descDividerStyle.Render(label+strings.Repeat("─", max(wrapWidth-len(label), 3))) + "\n\n")
	b.WriteString(descBodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")

	return b.String()
}

func renderPostings(postings []model.Posting, cursor int, now time.Time) string {
	if len(postings) == 0 {
		return emptyStyle.Render("  No jobs match your filters. Press c to clear them.")
	}

	var b strings.Builder
	for i, p := range postings {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		posted := "n/a"
		if !p.PostedAt.IsZero() {
			posted = humanize.RelTime(p.PostedAt, now, "ago", "from now")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", p.Company, p.Location, posted)))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// postingLink prefers the apply link over the listing page.
func postingLink(p model.Posting) string {
	if p.ApplyURL != "" && p.ApplyURL != model.DefaultApplyURL {
		return p.ApplyURL
	}
	return p.SourceURL
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run shows the board until the user quits or ctx is cancelled. The feed
// keeps refreshing in the background; every published snapshot redraws the list.
func Run(ctx context.Context, f Feed) error {
	updates, unsubscribe := f.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(newModel(ctx, f, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
