package match

import (
	"strings"
	"time"
)

// PairKey is an order-independent identifier of two profile IDs.
// Each ID is escaped so that `:` inside an ID never acts as the separator.
type PairKey string

const pairSep = ':'

var keyEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// NewPairKey builds the pair key; (a, b) and (b, a) yield the same key.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey(keyEscaper.Replace(a) + string(pairSep) + keyEscaper.Replace(b))
}

// IDs splits the key back into its two profile IDs, smaller first.
func (k PairKey) IDs() (string, string, bool) {
	var (
		parts [2]strings.Builder
		n     int
	)
	escaped := false
	for _, r := range string(k) {
		switch {
		case escaped:
			parts[n].WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == pairSep:
			if n == 1 {
				return "", "", false
			}
			n++
		default:
			parts[n].WriteRune(r)
		}
	}
	if n != 1 || escaped {
		return "", "", false
	}
	return parts[0].String(), parts[1].String(), true
}

// Contains reports whether id is one side of the pair.
func (k PairKey) Contains(id string) bool {
	first, second, ok := k.IDs()
	return ok && (first == id || second == id)
}

// Explanation is a generated compatibility explanation for a pair of profiles.
// Created once, read many times, never updated in place.
type Explanation struct {
	pairKey   PairKey
	userA     string
	userB     string
	text      string
	modelUsed string
	createdAt time.Time
}

// New creates an explanation for the pair (userA, userB).
func New(userA, userB, text, modelUsed string, createdAt time.Time) Explanation {
	return Explanation{
		pairKey:   NewPairKey(userA, userB),
		userA:     userA,
		userB:     userB,
		text:      text,
		modelUsed: modelUsed,
		createdAt: createdAt.UTC(),
	}
}

// Reconstruct hydrates an explanation from storage without recomputing the key.
func Reconstruct(key PairKey, userA, userB, text, modelUsed string, createdAt time.Time) Explanation {
	return Explanation{
		pairKey:   key,
		userA:     userA,
		userB:     userB,
		text:      text,
		modelUsed: modelUsed,
		createdAt: createdAt,
	}
}

// PairKey returns the order-independent pair key.
func (e *Explanation) PairKey() PairKey { return e.pairKey }

// UserA returns the first profile ID as first requested.
func (e *Explanation) UserA() string { return e.userA }

// UserB returns the second profile ID as first requested.
func (e *Explanation) UserB() string { return e.userB }

// Text returns the explanation prose.
func (e *Explanation) Text() string { return e.text }

// ModelUsed returns the completion model that generated the text.
func (e *Explanation) ModelUsed() string { return e.modelUsed }

// CreatedAt returns the generation time.
func (e *Explanation) CreatedAt() time.Time { return e.createdAt }
