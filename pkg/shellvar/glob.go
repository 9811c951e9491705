package shellvar

import (
	"regexp"
	"strings"
)

// globRegexp compiles a shell glob into a regexp anchored at both ends.
func globRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^(?s:")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(")$")
	return regexp.MustCompile(b.String())
}

// trimSuffix removes the shortest (or longest) suffix of value matching
// pattern. Without a match value is returned unchanged.
func trimSuffix(value, pattern string, longest bool) string {
	re := globRegexp(pattern)
	if longest {
		for i := 0; i <= len(value); i++ {
			if re.MatchString(value[i:]) {
				return value[:i]
			}
		}
		return value
	}
	for i := len(value); i >= 0; i-- {
		if re.MatchString(value[i:]) {
			return value[:i]
		}
	}
	return value
}

// trimPrefix removes the shortest (or longest) prefix of value matching
// pattern.
func trimPrefix(value, pattern string, longest bool) string {
	re := globRegexp(pattern)
	if longest {
		for i := len(value); i >= 0; i-- {
			if re.MatchString(value[:i]) {
				return value[i:]
			}
		}
		return value
	}
	for i := 0; i <= len(value); i++ {
		if re.MatchString(value[:i]) {
			return value[i:]
		}
	}
	return value
}
