// Package installer orchestrates an installer build.
//
// A build loads the desktop settings, resolves the target matrix, takes the
// per-application lock, moves the dependency directory aside, invokes the
// packaging engine once and moves the directory back whatever happened.
// Engine failures are reported in the Report; configuration, staging, lock and
// restore failures are returned as errors. After a successful build a
// checksummed manifest of the produced installers is written next to them.
package installer
