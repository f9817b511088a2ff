package ingredient

import (
	"regexp"
	"strconv"
	"strings"
)

// isoDurationRe matches the subset of ISO-8601 durations recipe sites emit:
// PT#H#M, PT#H, PT#M. Day or second components are out of scope.
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// ParseISODurationMinutes converts an ISO-8601 duration string into whole
// minutes. Malformed or unsupported input returns nil; it never panics.
func ParseISODurationMinutes(text string) *int {
	t := strings.ToUpper(strings.TrimSpace(text))
	m := isoDurationRe.FindStringSubmatch(t)
	if m == nil || (m[1] == "" && m[2] == "") {
		return nil
	}
	minutes := 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		minutes += h * 60
	}
	if m[2] != "" {
		mm, err := strconv.Atoi(m[2])
		if err != nil {
			return nil
		}
		minutes += mm
	}
	return &minutes
}

var firstIntRe = regexp.MustCompile(`\d+`)

// ParseYieldCount extracts the first integer from a free-text serving or
// yield string ("4 servings", "Serves 4-6"). Ranges collapse to their lower
// bound. Returns nil when the text carries no integer.
func ParseYieldCount(text string) *int {
	m := firstIntRe.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
