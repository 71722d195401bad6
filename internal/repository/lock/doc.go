// Package lock implements the marker file that serializes builds of one application.
//
// The FileLock stores the owning build.Actor as YAML next to the application
// root. A lock left behind by a process that no longer runs on this host is
// considered stale and replaced.
package lock
