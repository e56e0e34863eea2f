package netmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	matchuc "github.com/kailas-cloud/netmatch/internal/usecase/match"
)

// Match is a generated explanation of why two profiles fit.
type Match struct {
	Analysis  string
	ModelUsed string
	CreatedAt time.Time
	// Cached is true when the explanation was served from the store.
	Cached bool
}

// ExplainMatch returns the explanation for a pair, generating it on first request.
// The pair is unordered. Returns ErrMatchUnavailable when no explanation can be produced.
func (c *Client) ExplainMatch(ctx context.Context, userID, targetUserID string) (m Match, err error) {
	start := time.Now()
	outcome := outcomeOK
	defer func() { c.obs.observe("explain_match", outcome, start, err) }()

	res, err := c.matchSvc.Explain(ctx, userID, targetUserID)
	if err != nil {
		outcome = errOutcome(err)
		return Match{}, fmt.Errorf("explain match: %w", err)
	}
	if res.Cached {
		outcome = outcomeCached
	}
	return toMatch(res), nil
}

// RegenerateMatch replaces the stored explanation for a pair with a fresh one.
func (c *Client) RegenerateMatch(ctx context.Context, userID, targetUserID string) (m Match, err error) {
	start := time.Now()
	outcome := outcomeOK
	defer func() { c.obs.observe("regenerate_match", outcome, start, err) }()

	res, err := c.matchSvc.Regenerate(ctx, userID, targetUserID)
	if err != nil {
		outcome = errOutcome(err)
		return Match{}, fmt.Errorf("regenerate match: %w", err)
	}
	return toMatch(res), nil
}

func errOutcome(err error) string {
	if errors.Is(err, ErrMatchUnavailable) {
		return outcomeUnavailable
	}
	return outcomeError
}

func toMatch(res matchuc.Result) Match {
	e := res.Explanation
	return Match{
		Analysis:  e.Text(),
		ModelUsed: e.ModelUsed(),
		CreatedAt: e.CreatedAt(),
		Cached:    res.Cached,
	}
}
