// Package config defines the desktop-installer configuration and the desktop
// settings document it reads builderOptions from.
//
// Config is stored as YAML and provides Read/Load/Save/Validate helpers.
// Settings is JSON with comments allowed; only the builderOptions object is
// interpreted, and MergeBuilderOptions applies the overrides every build uses.
package config
