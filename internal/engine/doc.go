// Package engine invokes the external packaging engine.
//
// Engine is the single call an installer build makes. Invoke runs it exactly
// once and turns both returned errors and panics into a *BuildError.
// CommandEngine is the default implementation: it renders the request into a
// temporary YAML configuration file and runs an electron-builder compatible
// command line, forwarding its output to the logger.
package engine
