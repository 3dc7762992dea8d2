// Package common holds helpers shared by the alarm clients.
//
// It provides a lightweight gRPC client wrapper with timeouts and a helper
// to detect the current system actor (hostname/username) that is attached
// to every posted event.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
