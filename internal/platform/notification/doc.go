// Package notification presents the alarm status to the user.
//
// The Presenter plays the role of a persistent status notification: it logs
// what would be shown and mirrors it on the event bus so remote watchers can
// render it. Rendering is idempotent.
package notification
