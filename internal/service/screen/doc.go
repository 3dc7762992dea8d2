// Package screen turns screen-off signals into a delayed request to re-arm
// the fall sensor listeners.
package screen
