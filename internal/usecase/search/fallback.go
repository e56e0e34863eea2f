package search

import (
	"strings"

	"github.com/kailas-cloud/netmatch/internal/domain/profile"
)

// FilterBasic keeps candidates whose name, role, location, bio or skills contain
// query as a case-insensitive substring. An empty query keeps everything. Order is preserved.
func FilterBasic(candidates []profile.Candidate, query string) []profile.Candidate {
	q := normalizeQuery(query)
	if q == "" {
		return candidates
	}
	out := make([]profile.Candidate, 0, len(candidates))
	for i := range candidates {
		if matchesBasic(&candidates[i], q) {
			out = append(out, candidates[i])
		}
	}
	return out
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// matchesBasic expects q already normalized.
func matchesBasic(c *profile.Candidate, q string) bool {
	if q == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		c.Name, c.Role, c.Location, c.Bio, strings.Join(c.Skills, " "),
	}, " "))
	return strings.Contains(haystack, q)
}
