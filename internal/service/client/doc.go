// Package client implements alarm-signal: it posts one inbound event (fall,
// stop, screen-off) to the alarm service, optionally retrying until the
// service accepts it.
package client
