// Package profile holds directory snapshots used for matching.
package profile

import "strings"

// Ref is a related row that wraps a display name.
type Ref struct {
	Name *string `json:"name"`
}

// SkillRelation links a user to a skill row.
type SkillRelation struct {
	Skill *Ref `json:"skill"`
}

// IntentRelation links a user to a declared intent.
type IntentRelation struct {
	Intent *Ref `json:"intent"`
}

// Education is a single education entry summary.
type Education struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"field_of_study"`
}

// Employment is a single employment entry summary.
type Employment struct {
	Company string `json:"company"`
	Title   string `json:"title"`
}

// Record is a raw joined directory row as the record store returns it.
// Optional columns stay nil; relations stay nested.
type Record struct {
	ID         string
	Name       string
	Role       *string
	Location   *string
	Bio        *string
	Skills     []SkillRelation
	Intents    []IntentRelation
	Education  []Education
	Employment []Employment
}

// Candidate is a read-only, flattened snapshot used for matching.
type Candidate struct {
	ID         string
	Name       string
	Role       string
	Location   string
	Bio        string
	Skills     []string
	Intents    []string
	Education  []Education
	Employment []Employment
}

// SkillNames flattens skill relations, dropping nil and blank names. Order is kept, duplicates removed.
func (r *Record) SkillNames() []string {
	names := make([]string, 0, len(r.Skills))
	for _, rel := range r.Skills {
		if rel.Skill != nil {
			names = append(names, deref(rel.Skill.Name))
		}
	}
	return uniqueNonBlank(names)
}

// IntentNames flattens intent relations, dropping nil and blank names.
func (r *Record) IntentNames() []string {
	names := make([]string, 0, len(r.Intents))
	for _, rel := range r.Intents {
		if rel.Intent != nil {
			names = append(names, deref(rel.Intent.Name))
		}
	}
	return uniqueNonBlank(names)
}

// Candidate flattens the record. Missing optional columns become empty strings.
func (r *Record) Candidate() Candidate {
	return Candidate{
		ID:         r.ID,
		Name:       r.Name,
		Role:       deref(r.Role),
		Location:   deref(r.Location),
		Bio:        deref(r.Bio),
		Skills:     r.SkillNames(),
		Intents:    r.IntentNames(),
		Education:  r.Education,
		Employment: r.Employment,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uniqueNonBlank(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
