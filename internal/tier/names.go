package tier

import (
	"fmt"
	"strings"
)

// Tier name constraints. Names are joined with ";" on the wire, so a name
// containing ";" cannot survive a round trip; SplitNames simply discards
// empty segments and ValidateName rejects the separator outright.
const (
	maxNameLen = 48
	separator  = ";"
)

// SplitNames parses a semicolon-joined tier string into an ordered name list.
// Segments are trimmed and empty ones dropped.
func SplitNames(tiers string) []string {
	var names []string
	for _, n := range strings.Split(tiers, separator) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// JoinNames serializes an ordered name list back to the wire form.
func JoinNames(names []string) string {
	return strings.Join(names, separator)
}

// ValidateName checks a tier name against length and separator constraints.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tier name must not be empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("tier name must be at most %d characters", maxNameLen)
	}
	if strings.Contains(name, separator) {
		return fmt.Errorf("tier name must not contain %q", separator)
	}
	return nil
}

// Disambiguate returns name, or name suffixed with " (2)", " (3)", ... until
// it collides with none of taken. The base is truncated when needed so the
// suffixed result still fits maxNameLen.
func Disambiguate(name string, taken []string) string {
	exists := func(n string) bool {
		for _, t := range taken {
			if t == n {
				return true
			}
		}
		return false
	}
	if !exists(name) {
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := name
		if len(base)+len(suffix) > maxNameLen {
			base = strings.TrimSpace(base[:maxNameLen-len(suffix)])
		}
		candidate := base + suffix
		if !exists(candidate) {
			return candidate
		}
	}
}

// clampIndex bounds i into [0, max].
func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
