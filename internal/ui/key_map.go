package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	tabs       key.Binding
	search     key.Binding
	mood       key.Binding
	genre      key.Binding
	open       key.Binding
	like       key.Binding
	watchlist  key.Binding
	link       key.Binding
	back       key.Binding
	login      key.Binding
	signup     key.Binding
	switchMode key.Binding
	logout     key.Binding
	next       key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		tabs:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "tabs")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		mood:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mood")),
		genre:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "next genre")),
		open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		like:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		watchlist:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watchlist")),
		link:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open link")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		login:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
		signup:     key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sign up")),
		switchMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/sign up")),
		logout:     key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "logout")),
		next:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.tabs, k.search, k.open, k.like, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.open, k.back},
		{k.tabs, k.search, k.mood, k.genre},
		{k.like, k.watchlist, k.link},
		{k.login, k.signup, k.switchMode, k.logout},
		{k.help, k.quit},
	}
}

// formHelp is shown while an input has focus.
func (k keyMap) formHelp(auth bool) []key.Binding {
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	if auth {
		return []key.Binding{submit, k.next, k.switchMode, k.back}
	}
	return []key.Binding{submit, k.back}
}
