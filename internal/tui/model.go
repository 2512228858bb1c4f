package tui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	rendernote "github.com/gfranca/ripple/internal/render/note"
	"github.com/gfranca/ripple/internal/session"
	"github.com/gfranca/ripple/internal/stream"
	"github.com/gfranca/ripple/internal/tui/platform"
	"github.com/gfranca/ripple/internal/tui/state"
	tuitheme "github.com/gfranca/ripple/internal/tui/theme"
	"github.com/gfranca/ripple/internal/tui/view"
	"github.com/gfranca/ripple/internal/viewport"
)

const (
	defaultPerPage = 50

	statusClearDelay = 3 * time.Second
	// restorationSettleDelay bounds how long deferred visibility batches
	// wait after an abrupt cursor jump.
	restorationSettleDelay = 150 * time.Millisecond

	imageFetchTimeout  = 8 * time.Second
	imageFetchMaxBytes = 5 * 1024 * 1024
)

// Service is the slice of application behavior the model needs.
type Service interface {
	Refresh(ctx context.Context, page, perPage int) ([]stream.Note, error)
	LoadMore(ctx context.Context, page, perPage, limit int) ([]stream.Note, int, error)
	GetAuthor(ctx context.Context, key string) (stream.Author, error)
	ListThread(ctx context.Context, rootID int64) ([]stream.Note, error)
}

// WindowUpdate carries a recomputed materialized window from the feed
// window manager into the update loop.
type WindowUpdate struct {
	Notes  []stream.Note
	Cursor int
}

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
	modeThread
	modeHelp
)

type refreshSuccessMsg struct {
	notes []stream.Note
}

type refreshErrorMsg struct {
	err error
}

type loadMoreSuccessMsg struct {
	notes   []stream.Note
	fetched int
}

type loadMoreErrorMsg struct {
	err error
}

type windowAppliedMsg struct {
	update WindowUpdate
}

type restorationClearMsg struct{}

type clearStatusMsg struct {
	id int
}

type authorLoadedMsg struct {
	author stream.Author
}

type authorErrorMsg struct {
	key string
	err error
}

type threadLoadedMsg struct {
	rootID int64
	notes  []stream.Note
}

type threadErrorMsg struct {
	rootID int64
	err    error
}

type imagePrefetchedMsg struct {
	target string
	url    string
	bytes  int64
}

type imagePrefetchErrorMsg struct {
	url string
	err error
}

type Model struct {
	service Service
	manager *viewport.Manager
	tracker *viewport.Tracker
	rows    *viewport.RowSource
	ledger  *viewport.Ledger
	store   *session.Store
	applied <-chan WindowUpdate
	theme   tuitheme.Theme

	width  int
	height int

	// logical is the full fetched sequence; notes is what the list
	// renders, either the same slice or a truncated window of it.
	logical     []stream.Note
	notes       []stream.Note
	windowStart int
	cursor      int
	mode        viewMode
	prevMode    viewMode

	page        int
	hasNextPage bool
	loading     bool
	loadingMore bool

	authors      map[string]stream.Author
	threads      map[int64][]stream.Note
	imageSizes   map[string]int64
	observed     map[string]struct{}
	detailViewed stream.Note

	status   string
	statusID int

	cacheCount int
	cacheLoad  time.Duration
}

// NewModel assembles the feed UI. The applied channel delivers window
// manager recomputations; it may be nil when windowing is disabled.
func NewModel(svc Service, mgr *viewport.Manager, tracker *viewport.Tracker, rows *viewport.RowSource, ledger *viewport.Ledger, store *session.Store, applied <-chan WindowUpdate) Model {
	if ledger == nil {
		ledger = viewport.NewLedger()
	}
	return Model{
		service:    svc,
		manager:    mgr,
		tracker:    tracker,
		rows:       rows,
		ledger:     ledger,
		store:      store,
		applied:    applied,
		theme:      tuitheme.Default(),
		page:       1,
		loading:    true,
		authors:    make(map[string]stream.Author),
		threads:    make(map[int64][]stream.Note),
		imageSizes: make(map[string]int64),
		observed:   make(map[string]struct{}),
	}
}

func (m Model) WithStartupCacheStats(count int, load time.Duration) Model {
	m.cacheCount = count
	m.cacheLoad = load
	return m
}

func (m Model) WithCachedNotes(notes []stream.Note) Model {
	m.logical = notes
	m.notes = notes
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshCmd(m.service)}
	if m.applied != nil {
		cmds = append(cmds, waitForWindowCmd(m.applied))
	}
	return tea.Batch(cmds...)
}

func refreshCmd(svc Service) tea.Cmd {
	return func() tea.Msg {
		notes, err := svc.Refresh(context.Background(), 1, defaultPerPage)
		if err != nil {
			return refreshErrorMsg{err: err}
		}
		return refreshSuccessMsg{notes: notes}
	}
}

func loadMoreCmd(svc Service, page, limit int) tea.Cmd {
	return func() tea.Msg {
		notes, fetched, err := svc.LoadMore(context.Background(), page, defaultPerPage, limit)
		if err != nil {
			return loadMoreErrorMsg{err: err}
		}
		return loadMoreSuccessMsg{notes: notes, fetched: fetched}
	}
}

// loadMoreCmd asks for the cached sequence grown by one page so the
// service returns everything fetched so far, not a truncated head.
func (m Model) loadMoreCmd() tea.Cmd {
	return loadMoreCmd(m.service, m.page+1, len(m.logical)+defaultPerPage)
}

func fetchAuthorCmd(svc Service, key string) tea.Cmd {
	return func() tea.Msg {
		author, err := svc.GetAuthor(context.Background(), key)
		if err != nil {
			return authorErrorMsg{key: key, err: err}
		}
		return authorLoadedMsg{author: author}
	}
}

func fetchThreadCmd(svc Service, rootID int64) tea.Cmd {
	return func() tea.Msg {
		notes, err := svc.ListThread(context.Background(), rootID)
		if err != nil {
			return threadErrorMsg{rootID: rootID, err: err}
		}
		return threadLoadedMsg{rootID: rootID, notes: notes}
	}
}

func prefetchImageCmd(target, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), imageFetchTimeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return imagePrefetchErrorMsg{url: url, err: err}
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return imagePrefetchErrorMsg{url: url, err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return imagePrefetchErrorMsg{url: url, err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, imageFetchMaxBytes))
		if err != nil {
			return imagePrefetchErrorMsg{url: url, err: err}
		}
		return imagePrefetchedMsg{target: target, url: url, bytes: n}
	}
}

func waitForWindowCmd(applied <-chan WindowUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-applied
		if !ok {
			return nil
		}
		return windowAppliedMsg{update: update}
	}
}

func clearStatusCmd(id int) tea.Cmd {
	return tea.Tick(statusClearDelay, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func restorationClearCmd() tea.Cmd {
	return tea.Tick(restorationSettleDelay, func(time.Time) tea.Msg {
		return restorationClearMsg{}
	})
}

func noteTarget(id int64) string {
	return fmt.Sprintf("note:%d", id)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncVisibility()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshSuccessMsg:
		m.loading = false
		m.logical = msg.notes
		m.notes = msg.notes
		m.windowStart = 0
		m.cursor = state.ClampCursor(m.cursor, len(m.notes))
		m.hasNextPage = len(msg.notes) == defaultPerPage
		m.page = 1
		m.syncVisibility()
		m.scheduleWindow()
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("loaded %d notes", len(msg.notes)))
		return m, cmd

	case refreshErrorMsg:
		m.loading = false
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("refresh failed: %v", msg.err))
		return m, cmd

	case loadMoreSuccessMsg:
		m.loadingMore = false
		// The service returns the whole grown cached sequence; replace
		// rather than append so ids stay unique and ordered, then
		// re-anchor the cursor on the note it was pointing at.
		var anchorID int64
		if n, ok := m.selectedNote(); ok {
			anchorID = n.ID
		}
		m.logical = msg.notes
		m.notes = msg.notes
		m.windowStart = 0
		if idx := state.NoteIndexByID(m.notes, anchorID); idx >= 0 {
			m.cursor = idx
		} else {
			m.cursor = state.ClampCursor(m.cursor, len(m.notes))
		}
		m.hasNextPage = msg.fetched == defaultPerPage
		if msg.fetched > 0 {
			m.page++
		}
		m.syncVisibility()
		m.scheduleWindow()
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("fetched %d more notes", msg.fetched))
		return m, cmd

	case loadMoreErrorMsg:
		m.loadingMore = false
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("load more failed: %v", msg.err))
		return m, cmd

	case windowAppliedMsg:
		m.notes = msg.update.Notes
		m.cursor = state.ClampCursor(msg.update.Cursor, len(m.notes))
		m.windowStart = 0
		if len(m.notes) > 0 {
			if idx := state.NoteIndexByID(m.logical, m.notes[0].ID); idx >= 0 {
				m.windowStart = idx
			}
		}
		if m.store != nil {
			m.store.SetRestoring(true)
		}
		m.syncVisibility()
		cmds := []tea.Cmd{restorationClearCmd()}
		if m.applied != nil {
			cmds = append(cmds, waitForWindowCmd(m.applied))
		}
		return m, tea.Batch(cmds...)

	case restorationClearMsg:
		if m.store != nil {
			m.store.SetRestoring(false)
		}
		return m, nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case authorLoadedMsg:
		m.authors[msg.author.Key] = msg.author
		for i := range m.notes {
			if m.notes[i].AuthorKey == msg.author.Key && m.notes[i].AuthorName == "" {
				m.notes[i].AuthorName = msg.author.Name
			}
		}
		return m, nil

	case authorErrorMsg:
		// A failed attempt stays recorded; the list falls back to the key.
		return m, nil

	case threadLoadedMsg:
		m.threads[msg.rootID] = msg.notes
		return m, nil

	case threadErrorMsg:
		return m, nil

	case imagePrefetchedMsg:
		m.imageSizes[msg.url] = msg.bytes
		if m.tracker != nil {
			m.tracker.MarkLoaded(msg.target)
		}
		return m, nil

	case imagePrefetchErrorMsg:
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		if m.mode == modeHelp {
			m.mode = m.prevMode
			return m, nil
		}
		if m.mode != modeList {
			return m.returnToList()
		}
		return m, tea.Quit
	case "?":
		if m.mode == modeHelp {
			m.mode = m.prevMode
		} else {
			m.prevMode = m.mode
			m.mode = modeHelp
		}
		return m, nil
	}

	switch m.mode {
	case modeHelp:
		m.mode = m.prevMode
		return m, nil
	case modeDetail, modeThread:
		return m.handleDetailKey(key)
	default:
		return m.handleListKey(key)
	}
}

func (m Model) handleListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "pgdown":
		return m.moveCursor(state.PageStep(m.listHeight(), m.status != ""))
	case "pgup":
		return m.moveCursor(-state.PageStep(m.listHeight(), m.status != ""))
	case "g":
		return m.moveCursorTo(0)
	case "G":
		return m.moveCursorTo(len(m.notes) - 1)
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		var cmd tea.Cmd
		m, cmd = m.setStatus("refreshing...")
		return m, tea.Batch(cmd, refreshCmd(m.service))
	case "n":
		return m.startLoadMore()
	case "enter":
		return m.openDetail()
	case "t":
		return m.openThread()
	case "o":
		return m.openSelectedURL()
	case "y":
		return m.copySelectedURL()
	}
	return m, nil
}

func (m Model) handleDetailKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		return m.returnToList()
	case "o":
		return m.openSelectedURL()
	case "y":
		return m.copySelectedURL()
	case "t":
		if m.mode == modeDetail {
			return m.openThread()
		}
	}
	return m, nil
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	return m.moveCursorTo(m.cursor + delta)
}

func (m Model) moveCursorTo(target int) (tea.Model, tea.Cmd) {
	if len(m.notes) == 0 {
		return m, nil
	}
	prev := m.cursor
	next := state.ClampCursor(target, len(m.notes))
	atEnd := next == len(m.notes)-1 && prev == next && target > prev
	m.cursor = next
	m.syncVisibility()
	m.scheduleWindow()

	cmds := m.prefetchSelected()
	if atEnd && m.hasNextPage && !m.loadingMore {
		m.loadingMore = true
		var cmd tea.Cmd
		m, cmd = m.setStatus("fetching more notes...")
		cmds = append(cmds, cmd, m.loadMoreCmd())
	}
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) startLoadMore() (tea.Model, tea.Cmd) {
	if m.loadingMore || !m.hasNextPage {
		return m, nil
	}
	m.loadingMore = true
	var cmd tea.Cmd
	m, cmd = m.setStatus("fetching more notes...")
	return m, tea.Batch(cmd, m.loadMoreCmd())
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	n, ok := m.selectedNote()
	if !ok {
		return m, nil
	}
	m.prevMode = modeList
	m.mode = modeDetail
	m.detailViewed = n
	return m, tea.Batch(m.prefetchSelected()...)
}

func (m Model) openThread() (tea.Model, tea.Cmd) {
	n, ok := m.selectedNote()
	if !ok || n.ThreadRoot == 0 {
		var cmd tea.Cmd
		m, cmd = m.setStatus("note is not part of a thread")
		return m, cmd
	}
	m.prevMode = m.mode
	m.mode = modeThread
	m.detailViewed = n
	cmds := m.prefetchSelected()
	return m, tea.Batch(cmds...)
}

func (m Model) returnToList() (tea.Model, tea.Cmd) {
	m.mode = modeList
	if m.store != nil {
		m.store.SetRestoring(true)
	}
	m.scheduleWindow()
	return m, restorationClearCmd()
}

func (m Model) openSelectedURL() (tea.Model, tea.Cmd) {
	n, ok := m.selectedNote()
	if !ok {
		return m, nil
	}
	url, err := platform.ValidateNoteURL(n.URL)
	if err != nil {
		var cmd tea.Cmd
		m, cmd = m.setStatus(err.Error())
		return m, cmd
	}
	if err := platform.OpenURLInBrowser(url); err != nil {
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("failed to open browser: %v", err))
		return m, cmd
	}
	var cmd tea.Cmd
	m, cmd = m.setStatus("opened in browser")
	return m, cmd
}

func (m Model) copySelectedURL() (tea.Model, tea.Cmd) {
	n, ok := m.selectedNote()
	if !ok {
		return m, nil
	}
	url, err := platform.ValidateNoteURL(n.URL)
	if err != nil {
		var cmd tea.Cmd
		m, cmd = m.setStatus(err.Error())
		return m, cmd
	}
	if err := platform.CopyURLToClipboard(url); err != nil {
		var cmd tea.Cmd
		m, cmd = m.setStatus(fmt.Sprintf("copy failed: %v", err))
		return m, cmd
	}
	var cmd tea.Cmd
	m, cmd = m.setStatus("URL copied")
	return m, cmd
}

func (m Model) selectedNote() (stream.Note, bool) {
	if m.cursor < 0 || m.cursor >= len(m.notes) {
		return stream.Note{}, false
	}
	return m.notes[m.cursor], true
}

// prefetchSelected records and launches the speculative fetches for the
// note under the cursor. Recording happens at initiation so a target is
// attempted at most once per session.
func (m Model) prefetchSelected() []tea.Cmd {
	n, ok := m.selectedNote()
	if !ok {
		return nil
	}
	var cmds []tea.Cmd

	if key := strings.TrimSpace(n.AuthorKey); key != "" && !m.ledger.IsAuthorPrefetched(key) {
		m.ledger.AddPrefetchedAuthor(key)
		cmds = append(cmds, fetchAuthorCmd(m.service, key))
	}
	if n.ThreadRoot != 0 && !m.ledger.IsThreadPrefetched(n.ThreadRoot) {
		m.ledger.AddPrefetchedThread(n.ThreadRoot)
		cmds = append(cmds, fetchThreadCmd(m.service, n.ThreadRoot))
	}

	target := noteTarget(n.ID)
	if m.tracker == nil || !m.tracker.CanLoad(target) {
		return cmds
	}
	urls := rendernote.ImageURLs(n.Content)
	if len(urls) == 0 {
		return cmds
	}
	if url := urls[0]; !m.ledger.IsImagePrefetched(url) {
		m.ledger.AddPrefetchedImage(url)
		cmds = append(cmds, prefetchImageCmd(target, url))
	}
	return cmds
}

// scheduleWindow hands the current logical sequence and cursor to the
// window manager. The manager debounces and applies asynchronously.
func (m Model) scheduleWindow() {
	if m.manager == nil {
		return
	}
	m.manager.Schedule(viewport.Snapshot{
		Notes:  m.logical,
		Cursor: m.windowStart + m.cursor,
		Pager: viewport.PagerState{
			HasNextPage:        m.hasNextPage,
			IsFetching:         m.loading,
			IsFetchingNextPage: m.loadingMore,
		},
	})
}

// syncVisibility reconciles tracked targets and row positions with the
// materialized list, then republishes the viewport range.
func (m Model) syncVisibility() {
	if m.tracker == nil || m.rows == nil {
		return
	}
	seen := make(map[string]struct{}, len(m.notes))
	for i, n := range m.notes {
		target := noteTarget(n.ID)
		seen[target] = struct{}{}
		if _, ok := m.observed[target]; !ok {
			m.tracker.Observe(target)
			m.observed[target] = struct{}{}
		}
		m.rows.SetPosition(target, i)
	}
	for target := range m.observed {
		if _, ok := seen[target]; !ok {
			m.tracker.Unobserve(target)
			delete(m.observed, target)
		}
	}
	top, _ := state.CenteredWindow(len(m.notes), m.cursor, m.listHeight())
	m.rows.SetViewport(top, m.listHeight())
}

func (m Model) listHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.status = text
	m.statusID++
	return m, clearStatusCmd(m.statusID)
}

func (m Model) View() string {
	switch m.mode {
	case modeHelp:
		return m.helpView()
	case modeDetail:
		return m.detailView()
	case modeThread:
		return m.threadView()
	default:
		return m.listView()
	}
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.headerView("notes"))
	b.WriteString("\n")

	if len(m.notes) == 0 {
		if m.loading {
			b.WriteString("\n  loading notes...\n")
		} else {
			b.WriteString("\n  no notes yet. press r to refresh.\n")
		}
		b.WriteString(m.footerView())
		return b.String()
	}

	start, end := state.CenteredWindow(len(m.notes), m.cursor, m.listHeight())
	now := time.Now()
	for i := start; i < end; i++ {
		n := m.notes[i]
		replies := -1
		if n.ThreadRoot != 0 {
			if thread, ok := m.threads[n.ThreadRoot]; ok {
				replies = len(thread) - 1
			}
		}
		line := view.RenderNoteLine(view.NoteLineParams{
			Note:          m.withAuthorName(n),
			Now:           now,
			Active:        i == m.cursor,
			Width:         m.contentWidth(),
			ThreadReplies: replies,
		}, m.theme)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) detailView() string {
	n := m.withAuthorName(m.detailViewed)
	var b strings.Builder
	b.WriteString(m.headerView("note"))
	b.WriteString("\n")

	b.WriteString("  " + m.theme.Author.Render(view.AuthorLabel(n)))
	if author, ok := m.authors[n.AuthorKey]; ok && author.About != "" {
		b.WriteString("  " + m.theme.MetaValue.Render(author.About))
	}
	b.WriteString("\n")
	b.WriteString("  " + m.theme.Timestamp.Render(view.RelativeTimeLabel(time.Now(), n.PublishedAt)))
	b.WriteString("\n\n")

	for _, line := range rendernote.ContentLines(n, m.contentWidth()-4) {
		b.WriteString("  " + line + "\n")
	}

	if urls := rendernote.ImageURLs(n.Content); len(urls) > 0 {
		b.WriteString("\n")
		for _, url := range urls {
			label := url
			if size, ok := m.imageSizes[url]; ok {
				label = fmt.Sprintf("%s (%d KB cached)", url, size/1024)
			}
			b.WriteString("  " + m.theme.MetaLabel.Render("image: ") + m.theme.MetaValue.Render(label) + "\n")
		}
	}

	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) threadView() string {
	n := m.detailViewed
	var b strings.Builder
	b.WriteString(m.headerView("thread"))
	b.WriteString("\n")

	thread, ok := m.threads[n.ThreadRoot]
	if !ok {
		b.WriteString("\n  loading thread...\n")
		b.WriteString(m.footerView())
		return b.String()
	}

	now := time.Now()
	for _, reply := range thread {
		reply = m.withAuthorName(reply)
		marker := "   "
		if reply.ID == n.ID {
			marker = " > "
		}
		header := marker + m.theme.Author.Render(view.AuthorLabel(reply)) + " " +
			m.theme.Timestamp.Render(view.RelativeTimeLabel(now, reply.PublishedAt))
		b.WriteString(header)
		b.WriteString("\n")
		for _, line := range rendernote.ContentLines(reply, m.contentWidth()-6) {
			b.WriteString("     " + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(m.headerView("help"))
	b.WriteString("\n")
	rows := []struct{ key, desc string }{
		{"j/k, up/down", "move cursor"},
		{"g/G", "jump to top/bottom"},
		{"pgup/pgdown", "page up/down"},
		{"enter", "open note"},
		{"t", "open thread"},
		{"esc", "back to list"},
		{"r", "refresh"},
		{"n", "fetch next page"},
		{"o", "open note URL in browser"},
		{"y", "copy note URL"},
		{"?", "toggle help"},
		{"q, ctrl+c", "quit"},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			m.theme.MetaLabel.Render(fmt.Sprintf("%-14s", r.key)),
			m.theme.MetaValue.Render(r.desc)))
	}
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView(mode string) string {
	title := m.theme.Title.Render("ripple")
	pill := m.theme.ModePill.Render(" " + mode + " ")
	pos := ""
	if len(m.notes) > 0 {
		pos = m.theme.MetaValue.Render(fmt.Sprintf(" %d/%d", m.windowStart+m.cursor+1, m.totalKnown()))
	}
	return title + " " + pill + pos + "\n"
}

func (m Model) footerView() string {
	var parts []string
	switch {
	case m.loading:
		parts = append(parts, m.theme.StateLoad.Render("refreshing"))
	case m.loadingMore:
		parts = append(parts, m.theme.StateLoad.Render("fetching more"))
	default:
		parts = append(parts, m.theme.StateIdle.Render("idle"))
	}
	if len(m.notes) < len(m.logical) {
		parts = append(parts, m.theme.MetaValue.Render(
			fmt.Sprintf("window %d-%d of %d", m.windowStart+1, m.windowStart+len(m.notes), len(m.logical))))
	}
	if m.cacheCount > 0 {
		parts = append(parts, m.theme.MetaValue.Render(
			fmt.Sprintf("cache %d notes in %s", m.cacheCount, m.cacheLoad.Round(time.Millisecond))))
	}
	if m.status != "" {
		parts = append(parts, m.theme.StateWarn.Render(m.status))
	}
	return "\n " + strings.Join(parts, m.theme.MetaLabel.Render(" | ")) + "\n"
}

func (m Model) withAuthorName(n stream.Note) stream.Note {
	if n.AuthorName == "" {
		if author, ok := m.authors[n.AuthorKey]; ok {
			n.AuthorName = author.Name
		}
	}
	return n
}

func (m Model) totalKnown() int {
	if len(m.logical) > len(m.notes) {
		return len(m.logical)
	}
	return len(m.notes)
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}
