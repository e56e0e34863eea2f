package result

// Result is a single profile in a search response.
type Result struct {
	id               string
	name             string
	role             string
	location         string
	skills           []string
	bio              string
	matchExplanation *string
}

// New creates a search result with no match explanation.
func New(id, name, role, location string, skills []string, bio string) Result {
	if skills == nil {
		skills = []string{}
	}
	return Result{
		id: id, name: name, role: role,
		location: location, skills: skills, bio: bio,
	}
}

// WithMatchExplanation returns a copy with the explanation attached.
func (r Result) WithMatchExplanation(text string) Result {
	r.matchExplanation = &text
	return r
}

// ID returns the profile identifier.
func (r *Result) ID() string { return r.id }

// Name returns the display name.
func (r *Result) Name() string { return r.name }

// Role returns the role, defaulted when the profile has none.
func (r *Result) Role() string { return r.role }

// Location returns the location, defaulted when the profile has none.
func (r *Result) Location() string { return r.location }

// Skills returns the flattened skill names.
func (r *Result) Skills() []string { return r.skills }

// Bio returns the bio, defaulted when the profile has none.
func (r *Result) Bio() string { return r.bio }

// MatchExplanation returns the attached explanation, or nil.
func (r *Result) MatchExplanation() *string { return r.matchExplanation }
