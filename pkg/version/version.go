// Package version holds the build version reported by the API.
package version

// Version is overridden at build time via -ldflags "-X rotorgo/pkg/version.Version=...".
var Version = "v0.3.1"
