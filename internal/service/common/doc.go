// Package common holds helpers shared by several services.
//
// It detects the current system actor (pid/hostname/username) recorded in
// the build lock and the host platform used as the default build target.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
