package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpandNodeKey expands a grouped node key into individual node names:
// "--" spans a numeric range and "," unions, so "1--3,6" yields
// ["1", "2", "3", "6"]. Plain names pass through unchanged.
func ExpandNodeKey(key string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(key, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty node in key %q", key)
		}
		if !strings.Contains(part, "--") {
			out = append(out, part)
			continue
		}
		bounds := strings.SplitN(part, "--", 2)
		lo, errLo := strconv.Atoi(strings.TrimSpace(bounds[0]))
		hi, errHi := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if errLo != nil || errHi != nil {
			return nil, fmt.Errorf("node range %q is not numeric", part)
		}
		if hi < lo {
			return nil, fmt.Errorf("node range %q is reversed", part)
		}
		for n := lo; n <= hi; n++ {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out, nil
}
