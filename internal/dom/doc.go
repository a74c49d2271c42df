// Package dom is a small in-memory element tree with DOM event semantics.
//
// The discovery controllers render into a [Node] tree instead of a browser document.
// The tree keeps the pieces of DOM behavior the controllers rely on:
//
//   - elements carry ordered attributes, so cards keep data-imdbid and friends
//   - [Node.Dispatch] bubbles an [Event] from the target to the root and honors [Event.StopPropagation]
//   - [Node.ReplaceChildren] detaches the old subtree and drops its listeners, so re-rendering a
//     container never leaks handlers
//   - [Parse] turns a backend HTML fragment into nodes via golang.org/x/net/html, and [Render] goes back
//
// A tree is not safe for concurrent use; callers serialize access (see discover.Page).
package dom
