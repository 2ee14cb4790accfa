// Package keywords implements the browser lifecycle keyword surface:
// opening sessions (local vendors or cloud grid), switching the
// current session, the close family including the remote-session
// detach swap, and page link verification.
//
// Keywords operate on the session registry's current session. They are
// invoked either directly as methods on Library or by test-framework
// name through Library.Run.
package keywords
