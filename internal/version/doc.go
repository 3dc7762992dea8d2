// Package version exposes build metadata for the gravity binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X at build time.
// The values are printed by the `version` subcommand, logged when the service
// starts and reported as the service version of exported traces.
package version
