package netmatch

import (
	"context"
	"time"
)

// Profile is one search hit. Missing role, location and bio carry display defaults.
type Profile struct {
	ID       string
	Name     string
	Role     string
	Location string
	Skills   []string
	Bio      string
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	Results []Profile
	// InterpretedIntent restates what the query was understood to ask for; empty if nothing was extracted.
	InterpretedIntent string
	// Mode is "structured" when the interpreted filter produced the results, "fallback" otherwise.
	Mode string
}

// Search finds profiles matching a free-text query, excluding requestingUserID.
// It never fails: completion or store errors degrade to keyword matching or an empty list.
func (c *Client) Search(ctx context.Context, query, requestingUserID string) SearchResult {
	start := time.Now()
	resp := c.searchSvc.Search(ctx, query, requestingUserID)

	out := SearchResult{
		Results:           make([]Profile, 0, len(resp.Results)),
		InterpretedIntent: resp.InterpretedIntent,
		Mode:              string(resp.Mode),
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		out.Results = append(out.Results, Profile{
			ID:       r.ID(),
			Name:     r.Name(),
			Role:     r.Role(),
			Location: r.Location(),
			Skills:   r.Skills(),
			Bio:      r.Bio(),
		})
	}

	c.obs.observe("search", out.Mode, start, nil)
	return out
}
