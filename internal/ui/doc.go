// Package ui implements the interactive terminal host for the discovery page using bubbletea's
// Elm architecture.
//
// The [Model] owns no movie state. Every key is translated into the same page interaction a
// browser user would perform (a click on a tab, a card, a like button, a form submit) and the
// screen is redrawn from a snapshot of the page whenever [discover.Page.Changes] fires.
//
// Keys:
//   - 1-5 switch tabs (trending, recent, search, mood, for you)
//   - / and m edit the search and mood inputs, g searches the next genre
//   - ↑/↓ (k/j) move between cards, enter opens the detail view, esc closes it
//   - l likes, w adds to the watchlist, o opens the first streaming link
//   - L and S open the login and sign-up forms, ctrl+t switches between them, O logs out
package ui
