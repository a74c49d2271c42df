package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/discover"
	"github.com/desertthunder/flickx/internal/dom"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// inputMode is the input that currently has keyboard focus.
type inputMode int

const (
	noInput inputMode = iota
	searchInput
	moodInput
	authInput
)

// movieItem wraps a rendered card to implement [list.Item].
type movieItem struct {
	movie models.MovieDetail
}

var _ list.Item = movieItem{}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.movie.Year == "" {
		return i.movie.Title
	}
	return fmt.Sprintf("%s (%s)", i.movie.Title, i.movie.Year)
}
func (i movieItem) Description() string {
	var parts []string
	if i.movie.Rating != "" {
		parts = append(parts, "⭐ "+i.movie.Rating)
	}
	if i.movie.Genre != "" {
		parts = append(parts, i.movie.Genre)
	}
	if i.movie.Runtime != "" {
		parts = append(parts, i.movie.Runtime)
	}
	if i.movie.Plot != "" {
		parts = append(parts, shared.Truncate(i.movie.Plot, 60))
	}
	return strings.Join(parts, " • ")
}

type pageChangedMsg struct{}

type stateMsg discover.StateUpdate

type startedMsg struct{ err error }

// Model projects a [discover.App] onto the terminal.
type Model struct {
	ctx     context.Context
	app     *discover.App
	logger  *log.Logger
	genres  []string
	updates <-chan discover.StateUpdate
	unsub   func()

	width  int
	height int

	snap     snapshot
	list     list.Model
	input    textinput.Model
	mode     inputMode
	field    int
	genreIdx int
	progress discover.StateUpdate
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model over app. genres is the list cycled by the genre key.
func NewModel(ctx context.Context, app *discover.App, genres []string, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	ti := textinput.New()
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	updates, unsub := app.Dispatcher.Subscribe()

	return &Model{
		ctx:     ctx,
		app:     app,
		logger:  shared.WithLogger(logger, "component", "tui"),
		genres:  genres,
		updates: updates,
		unsub:   unsub,
		list:    l,
		input:   ti,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the app and begins listening for page changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.waitForChange(), m.waitForState(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, max(msg.Height-12, 4))
		m.help.Width = msg.Width
		return m, nil

	case pageChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case stateMsg:
		m.progress = discover.StateUpdate(msg)
		return m, m.waitForState()

	case startedMsg:
		if msg.err != nil {
			m.logger.Warn("initial load failed", "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.mode != noInput {
			cmd = m.handleInputKeys(msg)
		} else {
			cmd = m.handleKeys(msg)
		}
		m.refresh()
		return m, cmd
	}

	return m, nil
}

// Close detaches from the dispatcher.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Start(m.ctx)
		return startedMsg{err: err}
	}
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.app.Page.Changes()
	return func() tea.Msg {
		select {
		case <-changes:
			return pageChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case u, ok := <-m.updates:
			if !ok {
				return nil
			}
			return stateMsg(u)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) refresh() {
	m.snap = take(m.app.Page)

	items := make([]list.Item, len(m.snap.results))
	for i, mv := range m.snap.results {
		items[i] = movieItem{movie: mv}
	}
	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = max(len(items)-1, 0)
	}
	m.list.Select(idx)

	if m.mode == authInput && !m.snap.authOpen {
		m.blur()
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	page := m.app.Page

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.back):
		if m.snap.modalOpen {
			page.ClickID(discover.IDCloseModal)
		}

	case key.Matches(msg, m.keys.tabs):
		tabs := discover.Tabs()
		i := int(msg.Runes[0] - '1')
		if i >= 0 && i < len(tabs) {
			m.app.SelectTab(tabs[i])
		}

	case key.Matches(msg, m.keys.search):
		m.app.SelectTab(discover.TabSearch)
		m.focus(searchInput, page.Value(discover.IDSearchInput), "Search for a movie...")

	case key.Matches(msg, m.keys.mood):
		m.app.SelectTab(discover.TabMood)
		m.focus(moodInput, page.Value(discover.IDMoodInput), "How are you feeling?")

	case key.Matches(msg, m.keys.genre):
		if len(m.genres) == 0 {
			return nil
		}
		genre := m.genres[m.genreIdx%len(m.genres)]
		m.genreIdx++
		page.Click(dom.AllOf(dom.ByClass("genre"), dom.ByAttr("data-genre", genre)))

	case key.Matches(msg, m.keys.up):
		m.list.CursorUp()

	case key.Matches(msg, m.keys.down):
		m.list.CursorDown()

	case key.Matches(msg, m.keys.open):
		page.ClickCard(m.list.Index(), nil)

	case key.Matches(msg, m.keys.like):
		m.interact(dom.ByClass("like-btn"))

	case key.Matches(msg, m.keys.watchlist):
		m.interact(dom.ByClass("watchlist-btn"))

	case key.Matches(msg, m.keys.link):
		if m.snap.modalOpen {
			page.Click(dom.AllOf(dom.ByClass("streaming-link"), m.insideModal()))
		} else {
			page.ClickCard(m.list.Index(), dom.ByClass("streaming-link"))
		}

	case key.Matches(msg, m.keys.login):
		if !m.snap.signedIn {
			page.ClickID(discover.IDLoginButton)
			m.focusAuth()
		}

	case key.Matches(msg, m.keys.signup):
		if !m.snap.signedIn {
			page.ClickID(discover.IDSignupButton)
			m.focusAuth()
		}

	case key.Matches(msg, m.keys.logout):
		if m.snap.signedIn {
			page.ClickID(discover.IDLogoutButton)
		}
	}
	return nil
}

func (m *Model) interact(btn dom.Matcher) {
	if !m.snap.signedIn {
		m.logger.Info("interaction ignored while signed out")
	}
	m.app.Page.ClickCard(m.list.Index(), btn)
}

func (m *Model) insideModal() dom.Matcher {
	return func(n *dom.Node) bool {
		return n.Closest(dom.ByID(discover.IDModalContent)) != nil
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) tea.Cmd {
	page := m.app.Page

	switch {
	case msg.Type == tea.KeyCtrlC:
		return tea.Quit

	case msg.Type == tea.KeyEsc:
		if m.mode == authInput {
			page.ClickID(discover.IDCloseAuthModal)
		}
		m.blur()
		return nil

	case msg.Type == tea.KeyEnter:
		value := m.input.Value()
		switch m.mode {
		case searchInput:
			page.SetValue(discover.IDSearchInput, value)
			m.blur()
			page.ClickID(discover.IDSearchButton)
		case moodInput:
			page.SetValue(discover.IDMoodInput, value)
			m.blur()
			page.ClickID(discover.IDMoodButton)
		case authInput:
			fields := m.authFields()
			page.SetValue(fields[m.field], value)
			if m.field == len(fields)-1 {
				m.blur()
				page.ClickID(discover.IDAuthSubmit)
				return nil
			}
			m.nextField()
		}
		return nil

	case m.mode == authInput && key.Matches(msg, m.keys.next):
		page.SetValue(m.authFields()[m.field], m.input.Value())
		m.nextField()
		return nil

	case m.mode == authInput && key.Matches(msg, m.keys.switchMode):
		page.SetValue(m.authFields()[m.field], m.input.Value())
		page.ClickID(discover.IDAuthSwitch)
		m.field = 0
		m.loadField()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// authFields lists the form inputs for the current mode, in tab order.
func (m *Model) authFields() []string {
	if m.app.Session.Mode() == discover.SignUp {
		return []string{discover.IDFullName, discover.IDUsername, discover.IDEmail, discover.IDPassword}
	}
	return []string{discover.IDEmail, discover.IDPassword}
}

var fieldPrompts = map[string]string{
	discover.IDFullName: "Full name",
	discover.IDUsername: "Username",
	discover.IDEmail:    "Email",
	discover.IDPassword: "Password",
}

func (m *Model) focus(mode inputMode, value, placeholder string) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.EchoMode = textinput.EchoNormal
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) focusAuth() {
	m.field = 0
	m.mode = authInput
	m.loadField()
}

func (m *Model) nextField() {
	m.field = (m.field + 1) % len(m.authFields())
	m.loadField()
}

func (m *Model) loadField() {
	id := m.authFields()[m.field]
	m.focus(authInput, m.app.Page.Value(id), fieldPrompts[id])
	if id == discover.IDPassword {
		m.input.EchoMode = textinput.EchoPassword
	}
}

func (m *Model) blur() {
	m.mode = noInput
	m.input.Blur()
	m.input.SetValue("")
}

// View renders the page.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.snap.authOpen:
		b.WriteString(m.renderAuth())
	case m.snap.modalOpen:
		b.WriteString(m.renderDetail())
	default:
		b.WriteString(m.renderBody())
	}

	if m.snap.authMsg != "" {
		b.WriteString("\n")
		if m.snap.authOK {
			b.WriteString(styles.ok.Render(m.snap.authMsg))
		} else {
			b.WriteString(styles.err.Render(m.snap.authMsg))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderHeader() string {
	active := m.app.ActiveTab()

	var tabs []string
	for i, name := range discover.Tabs() {
		if name == discover.TabPersonal && !m.snap.signedIn {
			continue
		}
		label := fmt.Sprintf("%d %s", i+1, tabTitle(name))
		if name == active {
			tabs = append(tabs, styles.active.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}

	user := styles.help.Render("Not signed in")
	if m.snap.signedIn {
		user = styles.ok.Render(m.snap.email)
	}

	title := styles.title.Render("flickx")
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", user),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func tabTitle(name string) string {
	switch name {
	case discover.TabPersonal:
		return "For You"
	default:
		return strings.ToUpper(name[:1]) + name[1:]
	}
}

func (m *Model) renderBody() string {
	var b strings.Builder

	if m.mode == searchInput || m.mode == moodInput {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	if m.app.ActiveTab() == discover.TabPersonal && m.snap.stats != "" {
		b.WriteString(styles.ok.Render(m.snap.stats))
		b.WriteString("\n\n")
	}

	if m.snap.status != "" {
		b.WriteString(styles.warn.Render(m.snap.status))
		b.WriteString("\n\n")
	}

	if m.app.Dispatcher.Current().Status == discover.Loading {
		line := m.spinner.View() + " "
		if m.progress.Total > 0 {
			line += fmt.Sprintf("%s (%d/%d)", m.progress.Message, m.progress.Step, m.progress.Total)
		} else if len(m.snap.message) > 0 {
			line += m.snap.message[0]
		}
		b.WriteString(line)
		return b.String()
	}

	if len(m.snap.results) == 0 {
		for i, line := range m.snap.message {
			if i == 0 {
				b.WriteString(styles.title.Render(line))
			} else {
				b.WriteString(styles.help.Render(line))
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.list.View())
	return b.String()
}

func (m *Model) renderDetail() string {
	var b strings.Builder
	for i, line := range m.snap.modal {
		if i == 0 {
			b.WriteString(styles.title.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	if len(m.snap.modalLinks) > 0 {
		b.WriteString("\nWatch/Download:\n")
		for _, l := range m.snap.modalLinks {
			fmt.Fprintf(&b, "  %s %s\n", l.Name, styles.help.Render(l.URL))
		}
	}
	return styles.modal.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderAuth() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(m.snap.authTitle))
	b.WriteString("\n")

	for i, id := range m.authFields() {
		label := fieldPrompts[id]
		if m.mode == authInput && i == m.field {
			fmt.Fprintf(&b, "%s\n%s\n", styles.ok.Render(label), m.input.View())
			continue
		}
		value := m.app.Page.Value(id)
		if id == discover.IDPassword && value != "" {
			value = strings.Repeat("•", len(value))
		}
		fmt.Fprintf(&b, "%s\n  %s\n", label, value)
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render(m.snap.authSwitch + " (ctrl+t)"))
	return styles.modal.Render(b.String())
}

func (m *Model) renderHelp() string {
	if m.mode != noInput {
		return m.help.ShortHelpView(m.keys.formHelp(m.mode == authInput))
	}
	return m.help.View(m.keys)
}
