package build

import (
	"fmt"
	"strings"
)

// Platform is an operating system an installer is produced for.
type Platform string

// Arch is a CPU architecture selector passed to the packaging engine.
type Arch string

const (
	// Windows produces Windows installers.
	Windows Platform = "windows"
	// Linux produces Linux packages.
	Linux Platform = "linux"
	// Mac produces macOS images.
	Mac Platform = "mac"
)

const (
	// IA32 is 32-bit x86.
	IA32 Arch = "ia32"
	// X64 is 64-bit x86, the default.
	X64 Arch = "x64"
	// AllArchs asks the engine for every architecture it supports.
	AllArchs Arch = "all"
)

// platformOrder is the fixed priority of explicitly requested platforms.
//
//nolint:gochecknoglobals // Read-only ordering table.
var platformOrder = []Platform{Windows, Linux, Mac}

// Target is one entry of the target matrix.
type Target struct {
	// Platform is the operating system to package for.
	Platform Platform
	// Arch is the architecture selector, shared by all targets of a build.
	Arch Arch
}

// String renders the target as platform/arch.
func (t Target) String() string {
	return string(t.Platform) + "/" + string(t.Arch)
}

// Flags are the caller's platform and architecture selectors.
type Flags struct {
	// Windows requests Windows installers.
	Windows bool
	// Linux requests Linux packages.
	Linux bool
	// Mac requests macOS images.
	Mac bool
	// IA32 selects 32-bit builds.
	IA32 bool
	// AllArchs selects every architecture and wins over IA32.
	AllArchs bool
}

// requested reports whether the flag for the platform is set.
func (f Flags) requested(p Platform) bool {
	switch p {
	case Windows:
		return f.Windows
	case Linux:
		return f.Linux
	case Mac:
		return f.Mac
	default:
		return false
	}
}

// Arch resolves the single architecture applied to every target.
func (f Flags) Arch() Arch {
	switch {
	case f.AllArchs:
		return AllArchs
	case f.IA32:
		return IA32
	default:
		return X64
	}
}

// HostPlatform maps a GOOS value to the platform built when no platform flag is set.
// Windows wins over Linux, everything else is treated as Mac.
func HostPlatform(goos string) Platform {
	switch strings.ToLower(goos) {
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Mac
	}
}

// ResolveTargets produces the ordered, non-empty target list for a build.
// Requested platforms keep the windows, linux, mac order. Without any platform
// flag exactly one target for host is returned.
func ResolveTargets(flags Flags, host Platform) []Target {
	arch := flags.Arch()

	targets := make([]Target, 0, len(platformOrder))

	for _, platform := range platformOrder {
		if flags.requested(platform) {
			targets = append(targets, Target{Platform: platform, Arch: arch})
		}
	}

	if len(targets) == 0 {
		if _, err := ParsePlatform(string(host)); err != nil {
			host = Mac
		}

		targets = append(targets, Target{Platform: host, Arch: arch})
	}

	return targets
}

// Platforms returns the distinct platforms of targets in order.
func Platforms(targets []Target) []Platform {
	seen := make(map[Platform]struct{}, len(targets))
	result := make([]Platform, 0, len(targets))

	for _, t := range targets {
		if _, ok := seen[t.Platform]; ok {
			continue
		}

		seen[t.Platform] = struct{}{}
		result = append(result, t.Platform)
	}

	return result
}

// ErrUnknownPlatform is returned by ParsePlatform for unsupported names.
var ErrUnknownPlatform = fmt.Errorf("unknown platform, expected one of %s, %s, %s", Windows, Linux, Mac)

// ErrUnknownArch is returned by ParseArch for unsupported names.
var ErrUnknownArch = fmt.Errorf("unknown architecture, expected one of %s, %s, %s", IA32, X64, AllArchs)

// ParsePlatform converts user input into a Platform. "win" and "darwin"/"macos" are accepted aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return Windows, nil
	case "linux":
		return Linux, nil
	case "mac", "macos", "darwin":
		return Mac, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownPlatform)
	}
}

// ParseArch converts user input into an Arch.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ia32", "386", "x86":
		return IA32, nil
	case "x64", "amd64":
		return X64, nil
	case "all":
		return AllArchs, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownArch)
	}
}
