// Package slug derives URL-safe identifiers for posts. Only the numeric id
// embedded in a public identifier is authoritative; the slug suffix exists to
// make links readable and is ignored on lookup.
package slug

import (
	"fmt"
	"strconv"
	"strings"
)

// Make lower-cases the title and collapses every run of non-alphanumeric
// characters into a single hyphen, with no leading or trailing hyphen.
// The output is stable under re-application: Make(Make(s)) == Make(s).
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// PublicID renders the composite identifier used in URLs, "{id}-{slug}".
// A title that slugifies to nothing yields just the numeric id.
func PublicID(id int64, title string) string {
	s := Make(title)
	if s == "" {
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%d-%s", id, s)
}

// ParsePublicID extracts the numeric id from a public identifier. Everything
// after the leading digits is decorative and discarded, so links with a stale
// slug keep resolving after a title change.
func ParsePublicID(s string) (int64, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid public id %q", s)
	}
	if i < len(s) && s[i] != '-' {
		return 0, fmt.Errorf("invalid public id %q", s)
	}
	id, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid public id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid public id %q", s)
	}
	return id, nil
}
