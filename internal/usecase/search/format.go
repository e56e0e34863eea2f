package search

import (
	"strings"

	"github.com/kailas-cloud/netmatch/internal/domain/profile"
	"github.com/kailas-cloud/netmatch/internal/domain/search/result"
)

// Display defaults for missing profile columns.
const (
	DefaultRole     = "Professional"
	DefaultLocation = "Location not specified"
	DefaultBio      = "No bio available"
)

// Format flattens raw directory records into display results.
func Format(records []profile.Record) []result.Result {
	out := make([]result.Result, 0, len(records))
	for i := range records {
		out = append(out, formatOne(&records[i]))
	}
	return out
}

func formatOne(r *profile.Record) result.Result {
	return result.New(
		r.ID,
		r.Name,
		orDefault(r.Role, DefaultRole),
		orDefault(r.Location, DefaultLocation),
		r.SkillNames(),
		orDefault(r.Bio, DefaultBio),
	)
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
