package discover

import (
	"slices"
	"sync"

	"github.com/desertthunder/flickx/internal/dom"
)

// Element ids of the page regions the controllers address.
const (
	IDResults        = "movie-results"
	IDStatus         = "status-message"
	IDTabs           = "nav-tabs"
	IDSearchInput    = "movie-search"
	IDSearchButton   = "search-button"
	IDGenres         = "genre-buttons"
	IDMoodInput      = "mood-search"
	IDMoodButton     = "mood-search-button"
	IDMoodSuggestion = "mood-suggestions"
	IDPersonalTab    = "personal-tab"
	IDPersonalStats  = "personal-stats"

	IDMovieModal   = "movie-modal"
	IDModalContent = "modal-content"
	IDCloseModal   = "close-modal"

	IDAuthButtons    = "auth-buttons"
	IDLoginButton    = "login-btn"
	IDSignupButton   = "signup-btn"
	IDUserInfo       = "user-info"
	IDUserEmail      = "user-email"
	IDLogoutButton   = "logout-btn"
	IDAuthModal      = "auth-modal"
	IDAuthForm       = "auth-form"
	IDAuthTitle      = "auth-modal-title"
	IDCloseAuthModal = "close-auth-modal"
	IDSignupFields   = "signup-fields"
	IDFullName       = "full-name"
	IDUsername       = "username"
	IDEmail          = "email"
	IDPassword       = "password"
	IDAuthSubmit     = "auth-submit-btn"
	IDAuthSwitchText = "auth-switch-text"
	IDAuthSwitch     = "auth-switch-btn"
	IDAuthMessage    = "auth-message"
)

// Tab names, matching each tab button's data-tab and its section id.
const (
	TabTrending = "trending"
	TabRecent   = "recent"
	TabSearch   = "search"
	TabMood     = "mood"
	TabPersonal = "personal"
)

var tabOrder = []string{TabTrending, TabRecent, TabSearch, TabMood, TabPersonal}

// Tabs lists the tab names in display order.
func Tabs() []string { return slices.Clone(tabOrder) }

// Page owns the node tree and serializes every read and write of it.
//
// Listeners run while the page lock is held, so they must not call back into Update, View
// or Click. Anything that needs the lock again goes through a spawned goroutine.
type Page struct {
	mu   sync.Mutex
	root *dom.Node

	scrollMu sync.Mutex
	scrolls  []string

	changed chan struct{}
}

// NewPage builds the static page structure with every region the controllers use.
func NewPage() *Page {
	return &Page{root: buildPage(), changed: make(chan struct{}, 1)}
}

func buildPage() *dom.Node {
	tabs := dom.Element("nav", "id", IDTabs, "class", "nav-tabs")
	for _, name := range tabOrder {
		btn := dom.Element("button", "class", "nav-tab", "data-tab", name)
		if name == TabTrending {
			btn.AddClass("active")
		}
		if name == TabPersonal {
			btn.SetAttr("id", IDPersonalTab)
			btn.Hide()
		}
		btn.Append(dom.Text(tabLabel(name)))
		tabs.Append(btn)
	}

	header := dom.Element("header").Append(
		dom.Element("h1").Append(dom.Text("flickx")),
		dom.Element("div", "id", IDAuthButtons, "class", "auth-buttons").Append(
			dom.Element("button", "id", IDLoginButton).Append(dom.Text("Login")),
			dom.Element("button", "id", IDSignupButton).Append(dom.Text("Sign Up")),
		),
		hidden(dom.Element("div", "id", IDUserInfo, "class", "user-info").Append(
			dom.Element("span", "id", IDUserEmail),
			dom.Element("button", "id", IDLogoutButton).Append(dom.Text("Logout")),
		)),
		tabs,
	)

	sections := []*dom.Node{
		dom.Element("section", "id", TabTrending, "class", "tab-content active"),
		dom.Element("section", "id", TabRecent, "class", "tab-content"),
		dom.Element("section", "id", TabSearch, "class", "tab-content").Append(
			dom.Element("input", "id", IDSearchInput, "type", "text", "placeholder", "Search for a movie...", "value", ""),
			dom.Element("button", "id", IDSearchButton).Append(dom.Text("Search")),
			dom.Element("div", "id", IDGenres, "class", "genre-buttons"),
		),
		dom.Element("section", "id", TabMood, "class", "tab-content").Append(
			dom.Element("input", "id", IDMoodInput, "type", "text", "placeholder", "How are you feeling?", "value", ""),
			dom.Element("button", "id", IDMoodButton).Append(dom.Text("Get Recommendations")),
			dom.Element("div", "id", IDMoodSuggestion, "class", "mood-suggestions"),
		),
		dom.Element("section", "id", TabPersonal, "class", "tab-content").Append(
			dom.Element("div", "id", IDPersonalStats, "class", "personal-stats"),
		),
	}

	main := dom.Element("main").Append(sections...)
	main.Append(
		hidden(dom.Element("div", "id", IDStatus, "class", "status-message")),
		dom.Element("div", "id", IDResults, "class", "movie-results"),
	)

	movieModal := hidden(dom.Element("div", "id", IDMovieModal, "class", "modal")).Append(
		dom.Element("div", "class", "modal-dialog").Append(
			dom.Element("button", "id", IDCloseModal, "class", "close").Append(dom.Text("×")),
			dom.Element("div", "id", IDModalContent, "class", "modal-content"),
		),
	)

	authModal := hidden(dom.Element("div", "id", IDAuthModal, "class", "modal", "data-mode", Login.String())).Append(
		dom.Element("div", "class", "modal-dialog").Append(
			dom.Element("button", "id", IDCloseAuthModal).Append(dom.Text("×")),
			dom.Element("h2", "id", IDAuthTitle).Append(dom.Text("Login")),
			dom.Element("form", "id", IDAuthForm).Append(
				hidden(dom.Element("div", "id", IDSignupFields)).Append(
					dom.Element("input", "id", IDFullName, "type", "text", "placeholder", "Full name", "value", ""),
					dom.Element("input", "id", IDUsername, "type", "text", "placeholder", "Username", "value", ""),
				),
				dom.Element("input", "id", IDEmail, "type", "email", "placeholder", "Email", "value", ""),
				dom.Element("input", "id", IDPassword, "type", "password", "placeholder", "Password", "value", ""),
				dom.Element("button", "id", IDAuthSubmit, "type", "submit").Append(dom.Text("Login")),
			),
			dom.Element("p").Append(
				dom.Element("span", "id", IDAuthSwitchText).Append(dom.Text("Don't have an account?")),
				dom.Element("button", "id", IDAuthSwitch).Append(dom.Text("Sign Up")),
			),
		),
	)

	authMessage := hidden(dom.Element("div", "id", IDAuthMessage, "class", "auth-message"))

	return dom.Element("body").Append(header, main, movieModal, authModal, authMessage)
}

func hidden(n *dom.Node) *dom.Node {
	n.Hide()
	return n
}

func tabLabel(name string) string {
	switch name {
	case TabTrending:
		return "Trending"
	case TabRecent:
		return "Recent"
	case TabSearch:
		return "Search"
	case TabMood:
		return "Mood"
	case TabPersonal:
		return "For You"
	default:
		return name
	}
}

// Update runs fn with exclusive access to the tree and notifies hosts afterwards.
func (p *Page) Update(fn func(root *dom.Node)) {
	p.mu.Lock()
	fn(p.root)
	p.mu.Unlock()
	p.notify()
}

// View runs fn with exclusive access to the tree without signalling a change.
func (p *Page) View(fn func(root *dom.Node)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.root)
}

// Click dispatches a click on the first node matching m. It reports whether one was found.
func (p *Page) Click(m dom.Matcher) bool {
	found := false
	p.Update(func(root *dom.Node) {
		if n := root.Find(m); n != nil {
			found = true
			n.Click()
		}
	})
	return found
}

// ClickID clicks the element with the given id.
func (p *Page) ClickID(id string) bool {
	return p.Click(dom.ByID(id))
}

// SetValue sets the value of an input element.
func (p *Page) SetValue(id, value string) {
	p.Update(func(root *dom.Node) {
		if n := root.Find(dom.ByID(id)); n != nil {
			n.SetAttr("value", value)
		}
	})
}

// Value returns the value of an input element.
func (p *Page) Value(id string) string {
	var v string
	p.View(func(root *dom.Node) {
		if n := root.Find(dom.ByID(id)); n != nil {
			v = n.Attr("value")
		}
	})
	return v
}

// Text returns the collapsed text of an element, or "" when it is missing.
func (p *Page) Text(id string) string {
	var s string
	p.View(func(root *dom.Node) { s = byID(root, id).InnerText() })
	return s
}

// Visible reports whether an element and all its ancestors are shown.
func (p *Page) Visible(id string) bool {
	var v bool
	p.View(func(root *dom.Node) {
		if n := root.Find(dom.ByID(id)); n != nil {
			v = n.Visible()
		}
	})
	return v
}

// ScrollTo records a smooth-scroll request for hosts to honor. It does not take the page lock.
func (p *Page) ScrollTo(id string) {
	p.scrollMu.Lock()
	p.scrolls = append(p.scrolls, id)
	p.scrollMu.Unlock()
	p.notify()
}

// Scrolls returns every scroll request made so far.
func (p *Page) Scrolls() []string {
	p.scrollMu.Lock()
	defer p.scrollMu.Unlock()
	return slices.Clone(p.scrolls)
}

// Changes signals after each update. Signals coalesce; a host redraws from a fresh View.
func (p *Page) Changes() <-chan struct{} {
	return p.changed
}

func (p *Page) notify() {
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// HTML renders the whole page.
func (p *Page) HTML() string {
	var s string
	p.View(func(root *dom.Node) { s = root.OuterHTML() })
	return s
}

// byID returns the element with id, or a detached placeholder so callers never dereference nil.
func byID(root *dom.Node, id string) *dom.Node {
	if n := root.Find(dom.ByID(id)); n != nil {
		return n
	}
	return dom.Element("div")
}
