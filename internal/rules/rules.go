// Package rules evaluates the allow/disallow rule lists attached to
// libraries and argument entries.
//
// Allowed looks at the platform only and is used for libraries (classpath
// and downloads). AllowedWithFeatures also requires feature flags to match
// and is used for structured arguments.
package rules

import (
	"runtime"

	"gamelaunch/pkg/types"
)

// Platform names the current operating system and architecture in the
// vocabulary used by version descriptors.
type Platform struct {
	// OS is one of "windows", "osx", "linux".
	OS string
	// Arch is e.g. "x86_64", "x86", "arm64".
	Arch string
}

// Current maps runtime.GOOS/GOARCH onto descriptor vocabulary.
func Current() Platform {
	return Platform{OS: OSName(runtime.GOOS), Arch: ArchName(runtime.GOARCH)}
}

// OSName converts a GOOS value.
func OSName(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	case "linux":
		return "linux"
	default:
		return goos
	}
}

// ArchName converts a GOARCH value.
func ArchName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}

// Bits returns "64" or "32", the value substituted for ${arch} in native
// classifier keys.
func (p Platform) Bits() string {
	switch p.Arch {
	case "x86_64", "amd64", "arm64", "aarch64", "ppc64le", "s390x", "riscv64":
		return "64"
	default:
		return "32"
	}
}

func osMatches(c *types.OSConstraint, p Platform) bool {
	if c == nil {
		return true
	}
	if c.Name != "" && c.Name != p.OS {
		return false
	}
	if c.Arch != "" && c.Arch != p.Arch {
		return false
	}
	return true
}

func featuresMatch(want map[string]bool, have map[string]bool) bool {
	for name, required := range want {
		if have[name] != required {
			return false
		}
	}
	return true
}

// Allowed evaluates rules against the platform only. Feature constraints on
// a rule are ignored.
func Allowed(rs []types.Rule, p Platform) bool {
	return evaluate(rs, func(r types.Rule) bool { return osMatches(r.OS, p) })
}

// AllowedWithFeatures evaluates rules requiring both the platform and every
// feature constraint to match.
func AllowedWithFeatures(rs []types.Rule, p Platform, features map[string]bool) bool {
	return evaluate(rs, func(r types.Rule) bool {
		return osMatches(r.OS, p) && featuresMatch(r.Features, features)
	})
}

// evaluate: no rules means allowed; otherwise denied unless a matching allow
// rule is seen. A matching disallow rule denies and stops evaluation.
func evaluate(rs []types.Rule, match func(types.Rule) bool) bool {
	if len(rs) == 0 {
		return true
	}
	enabled := false
	for _, r := range rs {
		if !match(r) {
			continue
		}
		switch r.Action {
		case types.ActionAllow:
			enabled = true
		case types.ActionDisallow:
			return false
		}
	}
	return enabled
}
