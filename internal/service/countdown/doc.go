// Package countdown runs the timed, cancellable alarm countdown.
//
// A Task ticks on its own goroutine, reports every tick to a progress hook,
// publishes coarse progress on the event bus and resolves exactly once with
// a boolean outcome: true when every tick elapsed, false when cancelled or
// interrupted.
package countdown
