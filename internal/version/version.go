// Package version holds the mender build version.
package version

// Version is the current mender version.
// Overridden at build time via -ldflags "-X mender/internal/version.Version=..."
var Version = "0.4.0"
