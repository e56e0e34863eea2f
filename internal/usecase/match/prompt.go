package match

import (
	_ "embed" // prompt template
	"fmt"
	"strings"

	"github.com/kailas-cloud/netmatch/internal/domain/profile"
)

//go:embed prompt.md
var systemPrompt string

func buildPrompt(a, b *profile.Candidate) string {
	var sb strings.Builder
	writeProfile(&sb, "Profile 1", a)
	sb.WriteString("\n")
	writeProfile(&sb, "Profile 2", b)
	return sb.String()
}

func writeProfile(sb *strings.Builder, label string, c *profile.Candidate) {
	fmt.Fprintf(sb, "%s\n", label)
	field(sb, "Name", c.Name)
	field(sb, "Role", c.Role)
	field(sb, "Location", c.Location)
	field(sb, "Bio", c.Bio)
	field(sb, "Skills", strings.Join(c.Skills, ", "))
	field(sb, "Looking for", strings.Join(c.Intents, ", "))

	edu := make([]string, 0, len(c.Education))
	for _, e := range c.Education {
		edu = append(edu, joinNonEmpty(", ", e.Degree, e.FieldOfStudy, e.School))
	}
	field(sb, "Education", joinNonEmpty("; ", edu...))

	emp := make([]string, 0, len(c.Employment))
	for _, e := range c.Employment {
		emp = append(emp, joinNonEmpty(" at ", e.Title, e.Company))
	}
	field(sb, "Experience", joinNonEmpty("; ", emp...))
}

func field(sb *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		value = "not provided"
	}
	fmt.Fprintf(sb, "- %s: %s\n", name, value)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
