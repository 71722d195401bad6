// Package version exposes build metadata for desktop-installer.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Full renders them for the `version` subcommand and for the
// artifact manifest written after a successful build.
package version
