// Package filter defines the structured search criteria extracted from a free-text query.
package filter

import "strings"

// Intent is what kind of collaborator the searcher is looking for.
type Intent string

// Supported intents.
const (
	IntentCofounder Intent = "cofounder"
	IntentClient    Intent = "client"
	IntentTeammate  Intent = "teammate"
)

// ParseIntent normalizes s and reports whether it names a supported intent.
// Case, surrounding space and a hyphen or space inside "co-founder" are ignored.
func ParseIntent(s string) (Intent, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "", " ", "", "_", "").Replace(v)
	switch Intent(v) {
	case IntentCofounder, IntentClient, IntentTeammate:
		return Intent(v), true
	case "clients":
		return IntentClient, true
	case "teammates":
		return IntentTeammate, true
	case "cofounders":
		return IntentCofounder, true
	}
	return "", false
}

// StructuredFilter holds the criteria extracted from a query.
// An empty string means the field was not mentioned.
type StructuredFilter struct {
	skills       []string
	location     string
	intent       Intent
	availability string
	workingStyle string
}

// New creates a filter. Values are trimmed, blank skills dropped and
// skills deduplicated case-insensitively keeping the first spelling.
func New(skills []string, location string, intent Intent, availability, workingStyle string) StructuredFilter {
	seen := make(map[string]struct{}, len(skills))
	clean := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		clean = append(clean, s)
	}
	return StructuredFilter{
		skills:       clean,
		location:     strings.TrimSpace(location),
		intent:       intent,
		availability: strings.TrimSpace(availability),
		workingStyle: strings.TrimSpace(workingStyle),
	}
}

// Skills returns the requested skills.
func (f StructuredFilter) Skills() []string { return f.skills }

// Location returns the requested location, or "".
func (f StructuredFilter) Location() string { return f.location }

// Intent returns the requested intent, or "".
func (f StructuredFilter) Intent() Intent { return f.intent }

// Availability returns the requested availability, or "".
func (f StructuredFilter) Availability() string { return f.availability }

// WorkingStyle returns the requested working style, or "".
func (f StructuredFilter) WorkingStyle() string { return f.workingStyle }

// IsEmpty reports whether no field was extracted.
func (f StructuredFilter) IsEmpty() bool {
	return len(f.skills) == 0 && f.location == "" && f.intent == "" &&
		f.availability == "" && f.workingStyle == ""
}

var intentPhrases = map[Intent]string{
	IntentCofounder: "a cofounder",
	IntentClient:    "clients",
	IntentTeammate:  "teammates",
}

// Summary renders a human-readable description of the filter.
// An empty filter yields "".
func (f StructuredFilter) Summary() string {
	if f.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Looking for ")
	if p, ok := intentPhrases[f.intent]; ok {
		b.WriteString(p)
	} else {
		b.WriteString("professionals")
	}
	if len(f.skills) > 0 {
		b.WriteString(" with ")
		b.WriteString(strings.Join(f.skills, ", "))
		b.WriteString(" skills")
	}
	if f.location != "" {
		b.WriteString(" in ")
		b.WriteString(f.location)
	}

	var extras []string
	if f.availability != "" {
		extras = append(extras, "available "+f.availability)
	}
	if f.workingStyle != "" {
		extras = append(extras, f.workingStyle)
	}
	if len(extras) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(extras, ", "))
		b.WriteString(")")
	}
	return b.String()
}
