// Package build contains the core domain types of an installer build.
//
// It defines Target (one platform/architecture pair of the target matrix),
// the Flags a caller selects targets with, ResolveTargets which turns flags
// and the host platform into the ordered target list, and Actor (who runs
// a build) with a Clone helper.
package build
