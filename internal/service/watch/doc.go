// Package watch implements alarm-watch, a terminal viewer that mirrors the
// alarm notification and countdown progress and lets the user stop a
// running countdown with a single key.
package watch
