// Package power keeps the host awake while the alarm service runs.
//
// WakeLock holds an OS inhibitor process for the lifetime of the service:
// systemd-inhibit on Linux and caffeinate on macOS.
package power
