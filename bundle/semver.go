package bundle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// version is a parsed semantic version.
type version struct {
	major int
	minor int
	patch int
	pre   string
}

func parseVersion(raw string) (version, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if trimmed == "" {
		return version{}, fmt.Errorf("empty version")
	}

	pre := ""
	if idx := strings.IndexAny(trimmed, "-+"); idx != -1 {
		pre = trimmed[idx+1:]
		trimmed = trimmed[:idx]
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) > 3 {
		return version{}, fmt.Errorf("invalid version %q", raw)
	}
	vals := []int{0, 0, 0}
	for i, part := range parts {
		val, err := strconv.Atoi(part)
		if err != nil {
			return version{}, fmt.Errorf("invalid version segment %q", part)
		}
		vals[i] = val
	}
	return version{major: vals[0], minor: vals[1], patch: vals[2], pre: pre}, nil
}

func compareVersion(a, b version) int {
	if a.major != b.major {
		return compareInt(a.major, b.major)
	}
	if a.minor != b.minor {
		return compareInt(a.minor, b.minor)
	}
	if a.patch != b.patch {
		return compareInt(a.patch, b.patch)
	}
	// a release outranks any of its pre-releases
	if a.pre == "" && b.pre != "" {
		return 1
	}
	if a.pre != "" && b.pre == "" {
		return -1
	}
	return strings.Compare(a.pre, b.pre)
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// satisfies reports whether v meets the constraint: exact match, "^" (same
// major), "~" (same major.minor), or "latest"/"*" (anything).
func satisfies(v version, constraint string) (bool, error) {
	constraint = strings.TrimSpace(constraint)
	switch constraint {
	case "", "*", "latest":
		return true, nil
	}

	switch {
	case strings.HasPrefix(constraint, "^"):
		base, err := parseVersion(constraint[1:])
		if err != nil {
			return false, err
		}
		return v.major == base.major && compareVersion(v, base) >= 0, nil
	case strings.HasPrefix(constraint, "~"):
		base, err := parseVersion(constraint[1:])
		if err != nil {
			return false, err
		}
		return v.major == base.major && v.minor == base.minor && compareVersion(v, base) >= 0, nil
	default:
		base, err := parseVersion(constraint)
		if err != nil {
			return false, err
		}
		return compareVersion(v, base) == 0, nil
	}
}

// Resolve picks the highest version among candidates that satisfies the
// constraint.
func Resolve(candidates []string, constraint string) (string, error) {
	type parsed struct {
		raw string
		ver version
	}
	matching := make([]parsed, 0, len(candidates))
	for _, raw := range candidates {
		v, err := parseVersion(raw)
		if err != nil {
			return "", fmt.Errorf("candidate %q: %w", raw, err)
		}
		ok, err := satisfies(v, constraint)
		if err != nil {
			return "", err
		}
		if ok {
			matching = append(matching, parsed{raw: raw, ver: v})
		}
	}
	if len(matching) == 0 {
		return "", fmt.Errorf("no version satisfies %q", constraint)
	}
	sort.Slice(matching, func(i, j int) bool {
		return compareVersion(matching[i].ver, matching[j].ver) < 0
	})
	return matching[len(matching)-1].raw, nil
}
