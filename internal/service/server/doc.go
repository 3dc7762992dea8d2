// Package server runs the alarm service: the event bus, the alarm state
// machine and its platform adapters, exposed through the gRPC control API.
package server
