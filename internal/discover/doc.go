// package discover implements the discovery screen as headless controllers over an in-memory page.
//
// A [Page] holds the node tree. The [Dispatcher] turns an [Intent] into exactly one backend call
// and renders the newest response into the results region, dropping stale ones. The
// [SessionController] mirrors the auth provider's session into the header and the personal tab.
// The [Tracker] reports card interactions for signed-in users. [App] wires them together for
// the TUI and CLI hosts, which drive it by clicking elements and redrawing on [Page.Changes].
package discover
