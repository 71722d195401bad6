// Package staging moves a directory out of the way for the duration of a build
// and guarantees it is moved back.
//
// A Stager is bound to an original path and its staged sibling. At any time the
// directory lives in exactly one of the two places: Stage and Restore refuse to
// overwrite an occupied destination or to move a missing source. With wraps a
// function in a stage/restore pair that is released on every exit path, and
// Recover puts a directory back after a crash left it staged.
package staging
